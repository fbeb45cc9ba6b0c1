package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/queue"
	"github.com/mediaid/mediaid-api/internal/repository"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, email, password string, card model.HealthCard, cost int) (uint64, error) {
	args := m.Called(ctx, email, password, card, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) UpdateCard(ctx context.Context, id uint64, card model.HealthCard) error {
	return m.Called(ctx, id, card).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *mockTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockServices struct{ mock.Mock }

func (m *mockServices) List(ctx context.Context, q repository.ServiceQuery) ([]model.Service, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]model.Service)
	return rows, args.Error(1)
}

func (m *mockServices) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Service), args.Error(1)
}

func (m *mockServices) Create(ctx context.Context, s *model.Service) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockServices) Update(ctx context.Context, s model.Service) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockServices) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockBloodRequests struct{ mock.Mock }

func (m *mockBloodRequests) ListActive(ctx context.Context) ([]model.BloodRequest, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]model.BloodRequest)
	return rows, args.Error(1)
}

func (m *mockBloodRequests) Create(ctx context.Context, br *model.BloodRequest) error {
	return m.Called(ctx, br).Error(0)
}

func (m *mockBloodRequests) MarkFulfilled(ctx context.Context, id, userID uint64) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishSOSAlert(ctx context.Context, ev queue.SOSAlertEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) PublishBloodRequestPosted(ctx context.Context, ev queue.BloodRequestPostedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// newCtx builds an echo context for target with an optional JSON body.
func newCtx(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func withID(c echo.Context, id string) {
	c.SetParamNames("id")
	c.SetParamValues(id)
}
