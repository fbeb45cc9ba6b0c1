package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mediaid/mediaid-api/internal/handler"
	"github.com/mediaid/mediaid-api/internal/middleware"
	"github.com/mediaid/mediaid-api/internal/model"
)

// RegisterDirectory registers the public directory and its ADMIN-only
// maintenance endpoints.  cache wraps the public reads only.
func RegisterDirectory(e *echo.Echo, d *handler.DirectoryHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/services", d.List, cache)
	e.GET("/v1/services/:id", d.Get, cache)

	admin := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("/services", d.CreateService)
	admin.PUT("/services/:id", d.UpdateService)
	admin.DELETE("/services/:id", d.DeleteService)
}
