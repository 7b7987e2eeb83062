package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tasktrack/internal/auth"
	"tasktrack/internal/config"
	"tasktrack/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	employeeHandler *handler.EmployeeHandler,
	taskHandler *handler.TaskHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)

	// Secured routes (require a valid session token)
	secured := api.Group("", auth.Middleware(cfg.JWTSecret))

	secured.GET("/auth/me", authHandler.Me)

	// Employee routes: reads for any authenticated user, mutations admin-only
	secured.GET("/employees", employeeHandler.List)
	secured.GET("/employees/:id", employeeHandler.Get)
	secured.GET("/employees/:id/tasks", taskHandler.ListForEmployee, auth.RequireOwnerOrAdmin)
	secured.POST("/employees", employeeHandler.Create, auth.RequireAdmin)
	secured.PUT("/employees/:id", employeeHandler.Update, auth.RequireAdmin)
	secured.DELETE("/employees/:id", employeeHandler.Delete, auth.RequireAdmin)

	// Task routes: listing is scoped per caller inside the service
	secured.GET("/tasks", taskHandler.List)
	secured.GET("/tasks/:id", taskHandler.Get)
	secured.POST("/tasks", taskHandler.Create, auth.RequireAdmin)
	secured.PUT("/tasks/:id", taskHandler.Update, auth.RequireAdmin)
	secured.DELETE("/tasks/:id", taskHandler.Delete, auth.RequireAdmin)

	secured.GET("/dashboard", taskHandler.Dashboard)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
