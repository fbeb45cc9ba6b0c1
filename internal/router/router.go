// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mediaid/mediaid-api/internal/handler"
	"github.com/mediaid/mediaid-api/internal/middleware"
)

// RegisterRoutes registers the unauthenticated liveness endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/test", handler.Ping)
}

// RegisterAuth registers session endpoints under /v1/auth and the health
// card endpoints that require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout accepts either a bearer token or a refresh_token body, so it
	// is not behind JWTAuth
	g.POST("/logout", a.Logout)

	auth := middleware.JWTAuth(jwtSecret)
	e.GET("/v1/me", a.Me, auth)
	e.PUT("/v1/profile/:id", a.UpdateProfile, auth)
}
