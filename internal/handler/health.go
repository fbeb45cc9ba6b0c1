package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ping answers the browser client's connectivity check.
func Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Backend is working!"})
}
