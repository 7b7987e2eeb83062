package repository

import (
	"context"

	"gorm.io/gorm"

	"tasktrack/internal/model"
)

// TaskFilter narrows a task listing. Zero-valued fields are not applied.
type TaskFilter struct {
	Status     model.TaskStatus
	Priority   model.TaskPriority
	EmployeeID *uint
}

// StatusCounts holds per-status task tallies for the dashboard.
type StatusCounts struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
}

// TaskRepository defines task persistence operations.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uint) (*model.TaskWithEmployee, error)
	List(ctx context.Context, filter TaskFilter) ([]model.TaskWithEmployee, error)
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context, employeeID *uint) (StatusCounts, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	// Save with Select("*") writes every column, including cleared ones.
	return r.db.WithContext(ctx).Model(task).Select("*").
		Omit("id", "created_at").Updates(task).Error
}

func (r *taskRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Select("tasks.*, employees.name AS employee_name").
		Joins("LEFT JOIN employees ON employees.id = tasks.employee_id")
}

func (r *taskRepository) FindByID(ctx context.Context, id uint) (*model.TaskWithEmployee, error) {
	var row model.TaskWithEmployee
	err := r.joined(ctx).Where("tasks.id = ?", id).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns tasks joined with their employee name, newest first. Filter
// predicates are exact matches ANDed together.
func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]model.TaskWithEmployee, error) {
	q := r.joined(ctx)
	if filter.Status != "" {
		q = q.Where("tasks.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("tasks.priority = ?", filter.Priority)
	}
	if filter.EmployeeID != nil {
		q = q.Where("tasks.employee_id = ?", *filter.EmployeeID)
	}

	rows := []model.TaskWithEmployee{}
	if err := q.Order("tasks.created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Task{}, id).Error
}

// CountByStatus tallies tasks per status, optionally restricted to one
// employee, in a single grouped query.
func (r *taskRepository) CountByStatus(ctx context.Context, employeeID *uint) (StatusCounts, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if employeeID != nil {
		q = q.Where("employee_id = ?", *employeeID)
	}

	var rows []struct {
		Status model.TaskStatus
		Count  int64
	}
	if err := q.Scan(&rows).Error; err != nil {
		return StatusCounts{}, err
	}

	var counts StatusCounts
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case model.TaskStatusPending:
			counts.Pending = row.Count
		case model.TaskStatusInProgress:
			counts.InProgress = row.Count
		case model.TaskStatusCompleted:
			counts.Completed = row.Count
		}
	}
	return counts, nil
}
