package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasktrack/internal/auth"
	"tasktrack/internal/config"
	"tasktrack/internal/handler"
	"tasktrack/internal/model"
	"tasktrack/internal/repository"
	"tasktrack/internal/router"
	"tasktrack/internal/service"
	"tasktrack/patch"
)

// newTestServer wires the full stack against an in-memory SQLite database
// and returns a client pointed at it.
func newTestServer(t *testing.T) *Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.Employee{}, &model.User{}, &model.Task{}))

	cfg := &config.Config{JWTSecret: "test-secret"}

	userRepo := repository.NewUserRepository(gormDB)
	employeeRepo := repository.NewEmployeeRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := service.NewAuthService(userRepo, jwtService)
	employeeService := service.NewEmployeeService(employeeRepo, nil)
	taskService := service.NewTaskService(taskRepo, employeeRepo, nil)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg,
		handler.NewAuthHandler(authService),
		handler.NewEmployeeHandler(employeeService),
		handler.NewTaskHandler(taskService),
	)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return New(server.URL)
}

func loginAdmin(t *testing.T, api *Client) *Session {
	t.Helper()
	ctx := context.Background()

	_, err := api.Register(ctx, RegisterParams{
		Username: "admin",
		Password: "password123",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)

	session, err := api.Login(ctx, "admin", "password123")
	require.NoError(t, err)
	return session
}

func TestScenario_TrackAndComplete(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	// Admin creates an employee
	employee, err := admin.CreateEmployee(ctx, EmployeeParams{Name: "Ann Lee", Email: "ann@x.com"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), employee.ID)
	assert.Equal(t, "Ann Lee", employee.Name)

	// Admin creates a task for her; defaults apply
	task, err := admin.CreateTask(ctx, TaskParams{Title: "Write report", EmployeeID: &employee.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, task.Status)
	assert.Equal(t, model.TaskPriorityMedium, task.Priority)

	// A regular user linked to that employee sees exactly that task
	_, err = api.Register(ctx, RegisterParams{
		Username:   "ann",
		Password:   "password123",
		EmployeeID: &employee.ID,
	})
	require.NoError(t, err)
	user, err := api.Login(ctx, "ann", "password123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.User().Role)

	tasks, err := user.Tasks(ctx, TaskFilters{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Title)
	if assert.NotNil(t, tasks[0].EmployeeName) {
		assert.Equal(t, "Ann Lee", *tasks[0].EmployeeName)
	}

	// Dashboard before completion
	stats, err := admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalTasks)
	assert.Equal(t, int64(1), stats.PendingTasks)
	assert.Equal(t, int64(0), stats.CompletedTasks)
	assert.Equal(t, 0.0, stats.CompletionRate)
	assert.Equal(t, int64(1), stats.TotalEmployees)

	// Complete the task; unmentioned fields survive the patch
	updated, err := admin.UpdateTask(ctx, task.ID, TaskUpdate{
		Title:  "Write report",
		Status: patch.Value(model.TaskStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, updated.Status)
	assert.Equal(t, model.TaskPriorityMedium, updated.Priority)
	require.NotNil(t, updated.EmployeeID)
	assert.Equal(t, employee.ID, *updated.EmployeeID)

	stats, err = admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CompletedTasks)
	assert.Equal(t, 100.0, stats.CompletionRate)
}

func TestScoping_NonAdminNeverSeesForeignTasks(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	ann, err := admin.CreateEmployee(ctx, EmployeeParams{Name: "Ann Lee", Email: "ann@x.com"})
	require.NoError(t, err)
	bob, err := admin.CreateEmployee(ctx, EmployeeParams{Name: "Bob Ray", Email: "bob@x.com"})
	require.NoError(t, err)

	_, err = admin.CreateTask(ctx, TaskParams{Title: "Ann's task", EmployeeID: &ann.ID})
	require.NoError(t, err)
	_, err = admin.CreateTask(ctx, TaskParams{Title: "Bob's task", EmployeeID: &bob.ID})
	require.NoError(t, err)

	_, err = api.Register(ctx, RegisterParams{Username: "ann", Password: "password123", EmployeeID: &ann.ID})
	require.NoError(t, err)
	user, err := api.Login(ctx, "ann", "password123")
	require.NoError(t, err)

	// A caller-supplied filter for someone else's tasks is overridden, not rejected
	tasks, err := user.Tasks(ctx, TaskFilters{EmployeeID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Ann's task", tasks[0].Title)

	// Owner-or-admin guard on per-employee task listing
	_, err = user.EmployeeTasks(ctx, bob.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)

	own, err := user.EmployeeTasks(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	// Admin sees everything
	all, err := admin.Tasks(ctx, TaskFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAuthorization_MutationsAreAdminOnly(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	employee, err := admin.CreateEmployee(ctx, EmployeeParams{Name: "Ann Lee", Email: "ann@x.com"})
	require.NoError(t, err)

	_, err = api.Register(ctx, RegisterParams{Username: "ann", Password: "password123", EmployeeID: &employee.ID})
	require.NoError(t, err)
	user, err := api.Login(ctx, "ann", "password123")
	require.NoError(t, err)

	var apiErr *APIError
	_, err = user.CreateTask(ctx, TaskParams{Title: "sneaky"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)

	_, err = user.CreateEmployee(ctx, EmployeeParams{Name: "x", Email: "x@x.com"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)

	err = user.DeleteEmployee(ctx, employee.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)
}

func TestEmployeeRoundTripAndDuplicates(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	created, err := admin.CreateEmployee(ctx, EmployeeParams{
		Name:       "Ann Lee",
		Email:      "ann@x.com",
		Department: "Finance",
		Position:   "Analyst",
	})
	require.NoError(t, err)

	fetched, err := admin.Employee(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Email, fetched.Email)
	assert.Equal(t, created.Department, fetched.Department)
	assert.Equal(t, created.Position, fetched.Position)

	var apiErr *APIError
	_, err = admin.CreateEmployee(ctx, EmployeeParams{Name: "Other", Email: "ann@x.com"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)

	_, err = admin.Employee(ctx, 999)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestEmployeeDelete_UnassignsTasks(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	employee, err := admin.CreateEmployee(ctx, EmployeeParams{Name: "Ann Lee", Email: "ann@x.com"})
	require.NoError(t, err)
	task, err := admin.CreateTask(ctx, TaskParams{Title: "Write report", EmployeeID: &employee.ID})
	require.NoError(t, err)

	require.NoError(t, admin.DeleteEmployee(ctx, employee.ID))

	// The task survives, unassigned rather than dangling
	survivor, err := admin.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.EmployeeID)
	assert.Nil(t, survivor.EmployeeName)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	me, err := admin.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, model.RoleAdmin, me.Role)

	admin.Logout()
	assert.False(t, admin.Active())
	_, err = admin.Me(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// A bad token is detected on first use and the session is cleared
	forged := &Session{client: api, token: "not-a-token"}
	_, err = forged.Me(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, forged.Active())
}

func TestLoginAndRegisterFailures(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	loginAdmin(t, api)

	var apiErr *APIError
	_, err := api.Login(ctx, "admin", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)

	_, err = api.Login(ctx, "ghost", "password123")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)

	_, err = api.Register(ctx, RegisterParams{Username: "admin", Password: "password123"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)

	_, err = api.Register(ctx, RegisterParams{Username: "odd", Password: "password123", Role: "superuser"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestValidationIsPresenceOnly(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	// Passwords are only checked for presence, not length
	_, err := api.Register(ctx, RegisterParams{Username: "shorty", Password: "abc12"})
	require.NoError(t, err)
	_, err = api.Login(ctx, "shorty", "abc12")
	require.NoError(t, err)

	// Employee emails are only checked for presence, not format
	employee, err := admin.CreateEmployee(ctx, EmployeeParams{Name: "Ann Lee", Email: "ann-at-x"})
	require.NoError(t, err)
	assert.Equal(t, "ann-at-x", employee.Email)

	// Absent values are still rejected
	var apiErr *APIError
	_, err = admin.CreateEmployee(ctx, EmployeeParams{Name: "No Email"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)

	_, err = api.Register(ctx, RegisterParams{Username: "nopass"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestTaskFilters(t *testing.T) {
	ctx := context.Background()
	api := newTestServer(t)
	admin := loginAdmin(t, api)

	employee, err := admin.CreateEmployee(ctx, EmployeeParams{Name: "Ann Lee", Email: "ann@x.com"})
	require.NoError(t, err)

	_, err = admin.CreateTask(ctx, TaskParams{Title: "a", Status: model.TaskStatusCompleted, Priority: model.TaskPriorityHigh, EmployeeID: &employee.ID})
	require.NoError(t, err)
	_, err = admin.CreateTask(ctx, TaskParams{Title: "b", Status: model.TaskStatusPending, Priority: model.TaskPriorityHigh})
	require.NoError(t, err)
	_, err = admin.CreateTask(ctx, TaskParams{Title: "c", Status: model.TaskStatusPending, Priority: model.TaskPriorityLow})
	require.NoError(t, err)

	byStatus, err := admin.Tasks(ctx, TaskFilters{Status: model.TaskStatusPending})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	byBoth, err := admin.Tasks(ctx, TaskFilters{Status: model.TaskStatusPending, Priority: model.TaskPriorityHigh})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, "b", byBoth[0].Title)

	byEmployee, err := admin.Tasks(ctx, TaskFilters{EmployeeID: &employee.ID})
	require.NoError(t, err)
	require.Len(t, byEmployee, 1)
	assert.Equal(t, "a", byEmployee[0].Title)
}
