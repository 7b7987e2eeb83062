package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tasktrack/internal/model"
	"tasktrack/internal/service"
	"tasktrack/patch"
)

// Session is an authenticated context created by Client.Login. The identity
// it carries is read-only; the session becomes unusable after Logout or once
// the server rejects its token. Not safe for concurrent use.
type Session struct {
	client  *Client
	token   string
	user    User
	expired bool
}

// User returns the identity the session was created with.
func (s *Session) User() User {
	return s.user
}

// Active reports whether the session can still make calls.
func (s *Session) Active() bool {
	return !s.expired
}

// Logout clears the session. The token is stateless server-side, so this is
// purely a client-side lifecycle step.
func (s *Session) Logout() {
	s.token = ""
	s.expired = true
}

func (s *Session) do(ctx context.Context, method, path string, body, out interface{}) error {
	if s.expired {
		return ErrSessionExpired
	}
	err := s.client.do(ctx, s.token, method, path, body, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		s.Logout()
		return ErrSessionExpired
	}
	return err
}

// Me fetches the caller's user record from the server.
func (s *Session) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmployeeParams describe an employee create or update.
type EmployeeParams struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
}

// Employees lists all employees.
func (s *Session) Employees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	if err := s.do(ctx, http.MethodGet, "/api/employees", nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// Employee fetches one employee.
func (s *Session) Employee(ctx context.Context, id uint) (*model.Employee, error) {
	var employee model.Employee
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/api/employees/%d", id), nil, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

// CreateEmployee creates an employee. Admin only.
func (s *Session) CreateEmployee(ctx context.Context, params EmployeeParams) (*model.Employee, error) {
	var employee model.Employee
	if err := s.do(ctx, http.MethodPost, "/api/employees", params, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

// UpdateEmployee updates an employee. Admin only.
func (s *Session) UpdateEmployee(ctx context.Context, id uint, params EmployeeParams) (*model.Employee, error) {
	var employee model.Employee
	if err := s.do(ctx, http.MethodPut, fmt.Sprintf("/api/employees/%d", id), params, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

// DeleteEmployee removes an employee. Admin only.
func (s *Session) DeleteEmployee(ctx context.Context, id uint) error {
	return s.do(ctx, http.MethodDelete, fmt.Sprintf("/api/employees/%d", id), nil, nil)
}

// EmployeeTasks lists the tasks assigned to one employee. Callers must be
// admin or the employee's own linked user.
func (s *Session) EmployeeTasks(ctx context.Context, id uint) ([]model.TaskWithEmployee, error) {
	var tasks []model.TaskWithEmployee
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/api/employees/%d/tasks", id), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// TaskFilters narrow a task listing. The server overrides EmployeeID for
// non-admin sessions.
type TaskFilters struct {
	Status     model.TaskStatus
	Priority   model.TaskPriority
	EmployeeID *uint
}

// TaskParams describe a task creation.
type TaskParams struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      model.TaskStatus   `json:"status,omitempty"`
	Priority    model.TaskPriority `json:"priority,omitempty"`
	EmployeeID  *uint              `json:"employee_id,omitempty"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
}

// TaskUpdate is a task patch. Unset fields preserve the stored values; use
// patch.Value and patch.Clear to set or clear a field.
type TaskUpdate struct {
	Title       string                          `json:"title"`
	Description patch.Field[string]             `json:"description,omitzero"`
	Status      patch.Field[model.TaskStatus]   `json:"status,omitzero"`
	Priority    patch.Field[model.TaskPriority] `json:"priority,omitzero"`
	EmployeeID  patch.Field[uint]               `json:"employee_id,omitzero"`
	DueDate     patch.Field[time.Time]          `json:"due_date,omitzero"`
}

// Tasks lists the tasks visible to the session's identity.
func (s *Session) Tasks(ctx context.Context, filters TaskFilters) ([]model.TaskWithEmployee, error) {
	query := url.Values{}
	if filters.Status != "" {
		query.Set("status", string(filters.Status))
	}
	if filters.Priority != "" {
		query.Set("priority", string(filters.Priority))
	}
	if filters.EmployeeID != nil {
		query.Set("employee_id", fmt.Sprintf("%d", *filters.EmployeeID))
	}
	path := "/api/tasks"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var tasks []model.TaskWithEmployee
	if err := s.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Task fetches one task.
func (s *Session) Task(ctx context.Context, id uint) (*model.TaskWithEmployee, error) {
	var task model.TaskWithEmployee
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task. Admin only.
func (s *Session) CreateTask(ctx context.Context, params TaskParams) (*model.Task, error) {
	var task model.Task
	if err := s.do(ctx, http.MethodPost, "/api/tasks", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask patches a task. Admin only.
func (s *Session) UpdateTask(ctx context.Context, id uint, update TaskUpdate) (*model.Task, error) {
	var task model.Task
	if err := s.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), update, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task. Admin only.
func (s *Session) DeleteTask(ctx context.Context, id uint) error {
	return s.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil)
}

// Dashboard fetches the aggregate statistics visible to the session.
func (s *Session) Dashboard(ctx context.Context) (*service.DashboardStats, error) {
	var stats service.DashboardStats
	if err := s.do(ctx, http.MethodGet, "/api/dashboard", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
