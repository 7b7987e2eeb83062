package auth

import (
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "tasktrack/internal/errors"
	"tasktrack/internal/model"
)

// Middleware returns the echo-jwt middleware configured for typed claims.
func Middleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(secret),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "access token required",
					Code:  "TOKEN_REQUIRED",
				})
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: "invalid or expired token",
				Code:  "TOKEN_INVALID",
			})
		},
	})
}

// ClaimsFrom extracts the validated claims set by the JWT middleware.
func ClaimsFrom(c echo.Context) (*Claims, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "access token required",
			Code:  "TOKEN_REQUIRED",
		})
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "invalid or expired token",
			Code:  "TOKEN_INVALID",
		})
	}
	return claims, nil
}

// RequireAdmin short-circuits with 403 unless the caller's role is admin.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := ClaimsFrom(c)
		if err != nil {
			return err
		}
		switch claims.Role {
		case model.RoleAdmin:
			return next(c)
		case model.RoleUser:
		}
		return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
			Error: "admin access required",
			Code:  "ADMIN_REQUIRED",
		})
	}
}

// RequireOwnerOrAdmin allows the request when the caller is admin or when the
// caller's linked employee matches the target employee id, taken from the
// path param or the employee_id query param.
func RequireOwnerOrAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := ClaimsFrom(c)
		if err != nil {
			return err
		}
		switch claims.Role {
		case model.RoleAdmin:
			return next(c)
		case model.RoleUser:
			target := c.Param("id")
			if target == "" {
				target = c.QueryParam("employee_id")
			}
			targetID, convErr := strconv.ParseUint(target, 10, 32)
			if convErr == nil && claims.EmployeeID != nil && *claims.EmployeeID == uint(targetID) {
				return next(c)
			}
		}
		return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
			Error: "access denied",
			Code:  "ACCESS_DENIED",
		})
	}
}
