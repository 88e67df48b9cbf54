package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"taskman/internal/errors"
	"taskman/internal/model"
	"taskman/internal/repository"
	"taskman/internal/service"
)

// TaskHandler handles task CRUD endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request. Any owner field in
// the body is ignored; ownership comes from the authenticated identity.
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
}

// UpdateTaskRequest represents a partial task update. Absent fields are
// left untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Message string     `json:"message,omitempty"`
	Task    model.Task `json:"task"`
}

// UpdateTaskResponse wraps the task after an update.
type UpdateTaskResponse struct {
	Message     string     `json:"message"`
	UpdatedTask model.Task `json:"updatedTask"`
}

// TaskListResponse is one page of tasks with pagination metadata.
type TaskListResponse struct {
	Message     string       `json:"message"`
	TotalItems  int64        `json:"totalItems"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	PageSize    int          `json:"pageSize"`
	Tasks       []model.Task `json:"tasks"`
}

// Create godoc
// @Summary Create a task owned by the authenticated user
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, req.Title, req.Description, model.TaskStatus(req.Status))
	if err != nil {
		he := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, TaskResponse{
		Message: "Task created successfully",
		Task:    *task,
	})
}

// List godoc
// @Summary List tasks with filtering, sorting and pagination
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(TODO, IN_PROGRESS, COMPLETED)
// @Param sort query string false "Sort ascending by field"
// @Param page query int false "Page number (1-indexed)"
// @Param limit query int false "Page size"
// @Success 200 {object} TaskListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	filter := repository.TaskFilter{
		Status:   model.TaskStatus(c.QueryParam("status")),
		SortBy:   c.QueryParam("sort"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", service.DefaultPageSize),
	}

	page, err := h.taskService.List(c.Request().Context(), filter)
	if err != nil {
		he := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, TaskListResponse{
		Message:     "Tasks retrieved successfully",
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
		Tasks:       page.Tasks,
	})
}

// Get godoc
// @Summary Get a single task by id
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Get(c.Request().Context(), id)
	if err != nil {
		he := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, TaskResponse{Task: *task})
}

// Update godoc
// @Summary Apply a partial update to a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} UpdateTaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	patch := service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		patch.Status = &status
	}

	task, err := h.taskService.Update(c.Request().Context(), id, patch)
	if err != nil {
		he := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, UpdateTaskResponse{
		Message:     "Task updated successfully",
		UpdatedTask: *task,
	})
}

// Delete godoc
// @Summary Delete a task by id
// @Tags tasks
// @Security BearerAuth
// @Param id path int true "Task id"
// @Success 204 "No Content"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), id); err != nil {
		he := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	return c.NoContent(http.StatusNoContent)
}

func taskID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid task id",
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
