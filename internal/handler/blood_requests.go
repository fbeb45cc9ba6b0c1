package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/queue"
	"github.com/mediaid/mediaid-api/internal/repository"
)

// BloodRequestHandler serves the blood request board.
type BloodRequestHandler struct {
	Requests  BloodRequestStore
	Publisher EventPublisher
	Log       *zap.Logger
}

func NewBloodRequestHandler(r BloodRequestStore, p EventPublisher, log *zap.Logger) *BloodRequestHandler {
	return &BloodRequestHandler{Requests: r, Publisher: p, Log: log}
}

type bloodRequestReq struct {
	BloodGroup     string `json:"bloodGroup"`
	Hospital       string `json:"hospital"`
	Urgency        string `json:"urgency"`
	Contact        string `json:"contact"`
	Location       string `json:"location"`
	AdditionalInfo string `json:"additionalInfo"`
}

type bloodRequestResp struct {
	ID             uint64    `json:"id"`
	UserID         *uint64   `json:"user_id"`
	BloodGroup     string    `json:"blood_group"`
	Hospital       string    `json:"hospital"`
	Urgency        string    `json:"urgency"`
	Contact        string    `json:"contact"`
	Location       string    `json:"location"`
	Status         string    `json:"status"`
	AdditionalInfo string    `json:"additional_info"`
	CreatedAt      time.Time `json:"created_at"`
}

func toBloodRequestResp(br model.BloodRequest) bloodRequestResp {
	return bloodRequestResp{
		ID:             br.ID,
		UserID:         br.UserID,
		BloodGroup:     br.BloodGroup,
		Hospital:       br.Hospital,
		Urgency:        br.Urgency,
		Contact:        br.Contact,
		Location:       br.Location,
		Status:         br.Status,
		AdditionalInfo: br.AdditionalInfo,
		CreatedAt:      br.CreatedAt,
	}
}

// List handles GET /v1/blood-requests: active requests, newest first.
func (h *BloodRequestHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Requests.ListActive(ctx)
	if err != nil {
		h.Log.Error("list blood requests failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bloodRequestResp, 0, len(rows))
	for _, br := range rows {
		out = append(out, toBloodRequestResp(br))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/blood-requests.  Signed-in callers are recorded
// as the poster so they can later mark the request fulfilled.
func (h *BloodRequestHandler) Create(c echo.Context) error {
	var req bloodRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	br := model.BloodRequest{
		UserID:         optionalUserID(c),
		BloodGroup:     strings.ToUpper(strings.TrimSpace(req.BloodGroup)),
		Hospital:       strings.TrimSpace(req.Hospital),
		Urgency:        strings.ToLower(strings.TrimSpace(req.Urgency)),
		Contact:        strings.TrimSpace(req.Contact),
		Location:       strings.TrimSpace(req.Location),
		AdditionalInfo: strings.TrimSpace(req.AdditionalInfo),
	}
	if br.Urgency == "" {
		br.Urgency = model.UrgencyNormal
	}
	switch {
	case !model.ValidBloodGroup(br.BloodGroup):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bloodGroup"})
	case br.Hospital == "" || br.Contact == "" || br.Location == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hospital/contact/location required"})
	case !model.ValidUrgency(br.Urgency):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid urgency"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Requests.Create(ctx, &br); err != nil {
		h.Log.Error("create blood request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	if br.CreatedAt.IsZero() {
		br.CreatedAt = time.Now().UTC()
	}

	ev := queue.BloodRequestPostedEvent{
		RequestID:  br.ID,
		UserID:     br.UserID,
		BloodGroup: br.BloodGroup,
		Hospital:   br.Hospital,
		Urgency:    br.Urgency,
		Contact:    br.Contact,
		Location:   br.Location,
		PostedAt:   br.CreatedAt.Format(time.RFC3339),
	}
	if err := h.Publisher.PublishBloodRequestPosted(ctx, ev); err != nil {
		h.Log.Warn("publish blood request failed", zap.Uint64("id", br.ID), zap.Error(err))
	}
	return c.JSON(http.StatusCreated, toBloodRequestResp(br))
}

// Fulfill handles PATCH /v1/blood-requests/:id/fulfill.
func (h *BloodRequestHandler) Fulfill(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	switch err := h.Requests.MarkFulfilled(ctx, id, uid); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.BloodRequestFulfilled})
	case errors.Is(err, repository.ErrBloodRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "blood request not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		h.Log.Error("fulfill blood request failed", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}
