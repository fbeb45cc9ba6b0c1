// Package handler implements the HTTP endpoints of the MediAid API.
package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediaid/mediaid-api/internal/middleware"
	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/queue"
	"github.com/mediaid/mediaid-api/internal/repository"
)

// dbTimeout bounds every request's database work.
const dbTimeout = 5 * time.Second

// UserStore is the account persistence used by AuthHandler.
type UserStore interface {
	Create(ctx context.Context, email, password string, card model.HealthCard, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateCard(ctx context.Context, id uint64, card model.HealthCard) error
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ServiceStore is the directory persistence.
type ServiceStore interface {
	List(ctx context.Context, q repository.ServiceQuery) ([]model.Service, error)
	GetByID(ctx context.Context, id uint64) (model.Service, error)
	Create(ctx context.Context, s *model.Service) error
	Update(ctx context.Context, s model.Service) error
	Delete(ctx context.Context, id uint64) error
}

// BloodRequestStore persists blood requests.
type BloodRequestStore interface {
	ListActive(ctx context.Context) ([]model.BloodRequest, error)
	Create(ctx context.Context, br *model.BloodRequest) error
	MarkFulfilled(ctx context.Context, id, userID uint64) error
}

// EventPublisher hands events to the broker.  Failures never fail the
// request that triggered them.
type EventPublisher interface {
	PublishSOSAlert(ctx context.Context, ev queue.SOSAlertEvent) error
	PublishBloodRequestPosted(ctx context.Context, ev queue.BloodRequestPostedEvent) error
}

var errNoUser = errors.New("invalid user_id in context")

// getUserID returns the id stored by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get(middleware.CtxUserID).(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, errNoUser
}

// optionalUserID is getUserID for routes behind middleware.OptionalJWT.
func optionalUserID(c echo.Context) *uint64 {
	id, err := getUserID(c)
	if err != nil {
		return nil
	}
	return &id
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}
