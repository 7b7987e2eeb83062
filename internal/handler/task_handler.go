package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"tasktrack/internal/auth"
	"tasktrack/internal/errors"
	"tasktrack/internal/model"
	"tasktrack/internal/service"
	"tasktrack/patch"
)

// TaskHandler handles task endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// TaskCreateRequest represents a task creation payload. Status and priority
// default to Pending/Medium when omitted.
type TaskCreateRequest struct {
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description"`
	Status      model.TaskStatus   `json:"status"`
	Priority    model.TaskPriority `json:"priority"`
	EmployeeID  *uint              `json:"employee_id"`
	DueDate     *time.Time         `json:"due_date"`
}

// TaskUpdateRequest represents a task update payload. Fields left out of the
// request preserve their stored values; fields sent as null are cleared.
type TaskUpdateRequest struct {
	Title       string                          `json:"title" validate:"required"`
	Description patch.Field[string]             `json:"description,omitzero"`
	Status      patch.Field[model.TaskStatus]   `json:"status,omitzero"`
	Priority    patch.Field[model.TaskPriority] `json:"priority,omitzero"`
	EmployeeID  patch.Field[uint]               `json:"employee_id,omitzero"`
	DueDate     patch.Field[time.Time]          `json:"due_date,omitzero"`
}

func parseUintParam(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}

// List godoc
// @Summary List tasks visible to the caller
// @Description Non-admin callers only ever see tasks assigned to their own linked employee.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param employee_id query int false "Employee filter (ignored for non-admins)"
// @Param priority query string false "Priority filter"
// @Success 200 {array} model.TaskWithEmployee
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	claims, err := auth.ClaimsFrom(c)
	if err != nil {
		return err
	}

	filters := service.TaskFilters{
		Status:   model.TaskStatus(c.QueryParam("status")),
		Priority: model.TaskPriority(c.QueryParam("priority")),
	}
	if raw := c.QueryParam("employee_id"); raw != "" {
		if id, convErr := parseUintParam(raw); convErr == nil {
			filters.EmployeeID = &id
		}
	}

	tasks, err := h.taskService.List(c.Request().Context(), claims, filters)
	if err != nil {
		return serviceError(c, "list tasks", err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// ListForEmployee godoc
// @Summary List tasks assigned to one employee
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Employee ID"
// @Success 200 {array} model.TaskWithEmployee
// @Failure 403 {object} errors.ErrorResponse
// @Router /employees/{id}/tasks [get]
func (h *TaskHandler) ListForEmployee(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	tasks, err := h.taskService.ListForEmployee(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, "list employee tasks", err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} model.TaskWithEmployee
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, "get task", err)
	}
	return c.JSON(http.StatusOK, task)
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TaskCreateRequest true "Task data"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	var req TaskCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "title is required",
			Code:  "VALIDATION_FAILED",
		})
	}

	task, err := h.taskService.Create(c.Request().Context(), &model.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		EmployeeID:  req.EmployeeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return serviceError(c, "create task", err)
	}
	return c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param request body TaskUpdateRequest true "Task patch"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req TaskUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "title is required",
			Code:  "VALIDATION_FAILED",
		})
	}

	task, err := h.taskService.Update(c.Request().Context(), id, service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		EmployeeID:  req.EmployeeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return serviceError(c, "update task", err)
	}
	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.taskService.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, "delete task", err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "task deleted successfully",
	})
}

// Dashboard godoc
// @Summary Aggregate dashboard statistics
// @Description Task figures are scoped to the caller's linked employee for non-admins; the employee total never is.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardStats
// @Failure 401 {object} errors.ErrorResponse
// @Router /dashboard [get]
func (h *TaskHandler) Dashboard(c echo.Context) error {
	claims, err := auth.ClaimsFrom(c)
	if err != nil {
		return err
	}

	stats, err := h.taskService.DashboardStats(c.Request().Context(), claims)
	if err != nil {
		return serviceError(c, "dashboard stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}
