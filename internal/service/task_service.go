package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"tasktrack/internal/auth"
	"tasktrack/internal/cache"
	apperrors "tasktrack/internal/errors"
	"tasktrack/internal/model"
	"tasktrack/internal/repository"
	"tasktrack/patch"
)

const (
	// dashboardCacheKey caches the unscoped (admin) dashboard only; scoped
	// stats are cheap single-employee queries and are always computed fresh.
	dashboardCacheKey = "dashboard:stats"
	dashboardCacheTTL = 30 * time.Second
)

// TaskPatch describes a task update. Title is always written; the remaining
// fields distinguish "absent" (preserve) from "explicitly cleared".
type TaskPatch struct {
	Title       string
	Description patch.Field[string]
	Status      patch.Field[model.TaskStatus]
	Priority    patch.Field[model.TaskPriority]
	EmployeeID  patch.Field[uint]
	DueDate     patch.Field[time.Time]
}

// TaskFilters are the caller-supplied list predicates.
type TaskFilters struct {
	Status     model.TaskStatus
	Priority   model.TaskPriority
	EmployeeID *uint
}

// DashboardStats are the aggregate figures for the dashboard. TotalEmployees
// is system-wide regardless of scoping.
type DashboardStats struct {
	TotalTasks      int64   `json:"totalTasks"`
	CompletedTasks  int64   `json:"completedTasks"`
	PendingTasks    int64   `json:"pendingTasks"`
	InProgressTasks int64   `json:"inProgressTasks"`
	CompletionRate  float64 `json:"completionRate"`
	TotalEmployees  int64   `json:"totalEmployees"`
}

// TaskService handles task operations, including role-scoped listing and
// dashboard aggregates.
type TaskService interface {
	List(ctx context.Context, caller *auth.Claims, filters TaskFilters) ([]model.TaskWithEmployee, error)
	ListForEmployee(ctx context.Context, employeeID uint) ([]model.TaskWithEmployee, error)
	Get(ctx context.Context, id uint) (*model.TaskWithEmployee, error)
	Create(ctx context.Context, task *model.Task) (*model.Task, error)
	Update(ctx context.Context, id uint, patch TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id uint) error
	DashboardStats(ctx context.Context, caller *auth.Claims) (*DashboardStats, error)
}

type taskService struct {
	taskRepo     repository.TaskRepository
	employeeRepo repository.EmployeeRepository
	cache        *cache.Client
}

// NewTaskService creates a new task service.
func NewTaskService(taskRepo repository.TaskRepository, employeeRepo repository.EmployeeRepository, cache *cache.Client) TaskService {
	return &taskService{
		taskRepo:     taskRepo,
		employeeRepo: employeeRepo,
		cache:        cache,
	}
}

// List returns the tasks visible to the caller. Non-admin callers are always
// restricted to their own linked employee; a supplied employee filter is
// silently overridden, never rejected. A non-admin identity with no linked
// employee sees nothing.
func (s *taskService) List(ctx context.Context, caller *auth.Claims, filters TaskFilters) ([]model.TaskWithEmployee, error) {
	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleUser:
		if caller.EmployeeID == nil {
			return []model.TaskWithEmployee{}, nil
		}
		filters.EmployeeID = caller.EmployeeID
	default:
		return []model.TaskWithEmployee{}, nil
	}

	return s.taskRepo.List(ctx, repository.TaskFilter{
		Status:     filters.Status,
		Priority:   filters.Priority,
		EmployeeID: filters.EmployeeID,
	})
}

// ListForEmployee returns all tasks assigned to one employee. Authorization
// is the route's concern (owner or admin).
func (s *taskService) ListForEmployee(ctx context.Context, employeeID uint) ([]model.TaskWithEmployee, error) {
	return s.taskRepo.List(ctx, repository.TaskFilter{EmployeeID: &employeeID})
}

func (s *taskService) Get(ctx context.Context, id uint) (*model.TaskWithEmployee, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// Create stores a new task, defaulting status to Pending and priority to
// Medium when omitted.
func (s *taskService) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = model.TaskPriorityMedium
	}
	if !task.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if !task.Priority.Valid() {
		return nil, apperrors.ErrInvalidPriority
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	_ = s.cache.Delete(ctx, dashboardCacheKey)
	return task, nil
}

// Update applies a patch to an existing task. Absent fields keep their
// stored values; explicitly cleared fields are emptied. Clearing status or
// priority resets them to their creation defaults.
func (s *taskService) Update(ctx context.Context, id uint, patch TaskPatch) (*model.Task, error) {
	existing, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}

	task := existing.Task
	task.Title = patch.Title

	if patch.Description.Set {
		task.Description = ""
		if patch.Description.Value != nil {
			task.Description = *patch.Description.Value
		}
	}
	if patch.Status.Set {
		task.Status = model.TaskStatusPending
		if patch.Status.Value != nil {
			task.Status = *patch.Status.Value
		}
	}
	if patch.Priority.Set {
		task.Priority = model.TaskPriorityMedium
		if patch.Priority.Value != nil {
			task.Priority = *patch.Priority.Value
		}
	}
	if patch.EmployeeID.Set {
		task.EmployeeID = patch.EmployeeID.Value
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Value
	}

	if !task.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if !task.Priority.Valid() {
		return nil, apperrors.ErrInvalidPriority
	}

	if err := s.taskRepo.Update(ctx, &task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	_ = s.cache.Delete(ctx, dashboardCacheKey)
	return &task, nil
}

func (s *taskService) Delete(ctx context.Context, id uint) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	_ = s.cache.Delete(ctx, dashboardCacheKey)
	return nil
}

// DashboardStats computes aggregate task counts, scoped to the caller's
// linked employee for non-admins. The employee total is never scoped.
func (s *taskService) DashboardStats(ctx context.Context, caller *auth.Claims) (*DashboardStats, error) {
	var scope *uint
	scopedToNothing := false
	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleUser:
		if caller.EmployeeID == nil {
			scopedToNothing = true
		}
		scope = caller.EmployeeID
	default:
		scopedToNothing = true
	}

	if scope == nil && !scopedToNothing {
		if data, _ := s.cache.Get(ctx, dashboardCacheKey); data != nil {
			var cached DashboardStats
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	totalEmployees, err := s.employeeRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}

	stats := &DashboardStats{TotalEmployees: totalEmployees}
	if !scopedToNothing {
		counts, err := s.taskRepo.CountByStatus(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("count tasks: %w", err)
		}
		stats.TotalTasks = counts.Total
		stats.CompletedTasks = counts.Completed
		stats.PendingTasks = counts.Pending
		stats.InProgressTasks = counts.InProgress
		stats.CompletionRate = completionRate(counts.Completed, counts.Total)
	}

	if scope == nil && !scopedToNothing {
		if payload, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, dashboardCacheKey, payload, dashboardCacheTTL)
		}
	}

	return stats, nil
}

// completionRate is completed/total as a percentage rounded to one decimal,
// and 0 when there are no tasks.
func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}
