package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"taskman/internal/cache"
	"taskman/internal/errors"
	"taskman/internal/model"
	"taskman/internal/repository"
)

const taskCacheTTL = 5 * time.Minute

// DefaultPageSize is used when the list request does not specify a limit.
const DefaultPageSize = 10

// TaskPatch describes a partial update. Nil fields are left untouched.
// Ownership is deliberately absent: the owner of a task never changes.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
}

// TaskPage is one page of the task listing.
type TaskPage struct {
	Tasks       []model.Task
	TotalItems  int64
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// TaskService handles task CRUD.
//
// TODO: scope List, Update and Delete to the authenticated owner. Today any
// authenticated user can read, modify or delete any other user's tasks;
// only Create stamps ownership.
type TaskService interface {
	Create(ctx context.Context, ownerID uint, title, description string, status model.TaskStatus) (*model.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) (*TaskPage, error)
	Get(ctx context.Context, id uint) (*model.Task, error)
	Update(ctx context.Context, id uint, patch TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id uint) error
}

type taskService struct {
	repo  repository.TaskRepository
	cache *cache.Client
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository, cache *cache.Client) TaskService {
	return &taskService{
		repo:  repo,
		cache: cache,
	}
}

func (s *taskService) cacheKey(id uint) string {
	return fmt.Sprintf("task:%d", id)
}

// Create stores a new task stamped with ownerID. The owner always comes from
// the authenticated identity, never from client input. Status defaults to
// TODO when empty.
func (s *taskService) Create(ctx context.Context, ownerID uint, title, description string, status model.TaskStatus) (*model.Task, error) {
	if status == "" {
		status = model.TaskStatusTodo
	}
	if !status.Valid() {
		return nil, errors.ErrInvalidStatus
	}

	task := &model.Task{
		Title:       title,
		Description: description,
		Status:      status,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// List returns one page of tasks with pagination metadata.
func (s *taskService) List(ctx context.Context, filter repository.TaskFilter) (*TaskPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.ErrInvalidStatus
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = DefaultPageSize
	}

	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return &TaskPage{
		Tasks:       tasks,
		TotalItems:  total,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.PageSize))),
		CurrentPage: filter.Page,
		PageSize:    filter.PageSize,
	}, nil
}

// Get retrieves a task by id with a read-through cache.
func (s *taskService) Get(ctx context.Context, id uint) (*model.Task, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Task
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTaskNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(task); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, taskCacheTTL)
	}

	return task, nil
}

// Update applies a partial patch to the task with the given id.
func (s *taskService) Update(ctx context.Context, id uint, patch TaskPatch) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTaskNotFound
		}
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, errors.ErrInvalidStatus
		}
		task.Status = *patch.Status
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return task, nil
}

// Delete removes the task with the given id.
func (s *taskService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !deleted {
		return errors.ErrTaskNotFound
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
