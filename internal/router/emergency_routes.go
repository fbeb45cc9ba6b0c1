package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mediaid/mediaid-api/internal/handler"
	"github.com/mediaid/mediaid-api/internal/middleware"
)

// RegisterEmergency registers the blood request board and SOS alerts.
// Posting works anonymously; a bearer token links the post to its author.
func RegisterEmergency(e *echo.Echo, b *handler.BloodRequestHandler, s *handler.SOSHandler, jwtSecret string) {
	optional := middleware.OptionalJWT(jwtSecret)

	e.GET("/v1/blood-requests", b.List)
	e.POST("/v1/blood-requests", b.Create, optional)
	e.PATCH("/v1/blood-requests/:id/fulfill", b.Fulfill, middleware.JWTAuth(jwtSecret))

	e.POST("/v1/sos", s.Create, optional)
}
