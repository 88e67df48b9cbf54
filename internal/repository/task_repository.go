package repository

import (
	"context"

	"gorm.io/gorm"

	"taskman/internal/model"
)

// TaskFilter describes the list query: exact status match, ascending sort by
// a named field, and 1-indexed offset pagination.
type TaskFilter struct {
	Status   model.TaskStatus
	SortBy   string
	Page     int
	PageSize int
}

// sortColumns whitelists fields that client input may order by. Anything
// outside the map falls back to the default ordering.
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"status":     "status",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter) (tasks []model.Task, total int64, err error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uint) (deleted bool, err error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository builds a GORM-backed repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns one page of tasks plus the total count of rows matching the
// filter. Sorting is ascending by the requested field when it is whitelisted,
// otherwise newest-first by creation time.
func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	if col, ok := sortColumns[filter.SortBy]; ok {
		order = col + " ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	var tasks []model.Task
	err := query.
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete removes a task by id and reports whether a row was actually deleted.
func (r *taskRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
