package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/queue"
	"github.com/mediaid/mediaid-api/internal/ranking"
	"github.com/mediaid/mediaid-api/internal/repository"
)

// nearestHospitals is how many open hospitals an SOS response lists.
const nearestHospitals = 3

var emergencyTypes = map[string]bool{"medical": true, "accident": true, "blood": true, "other": true}

// SOSHandler accepts SOS alerts.
type SOSHandler struct {
	Services  ServiceStore
	Publisher EventPublisher
	Log       *zap.Logger
	// NewID returns alert ids; uuid.NewString when nil.
	NewID func() string
}

func NewSOSHandler(s ServiceStore, p EventPublisher, log *zap.Logger) *SOSHandler {
	return &SOSHandler{Services: s, Publisher: p, Log: log, NewID: uuid.NewString}
}

type sosReq struct {
	EmergencyType string       `json:"emergencyType"`
	Location      *model.Point `json:"location"`
	Timestamp     string       `json:"timestamp"`
}

type sosResp struct {
	Message          string        `json:"message"`
	AlertID          string        `json:"alert_id"`
	ReceivedAt       time.Time     `json:"received_at"`
	NearestHospitals []serviceResp `json:"nearest_hospitals"`
}

// Create handles POST /v1/sos.  The alert is logged and published; a
// broker failure is logged but the caller still gets a 200 along with the
// nearest open hospitals when a usable location was sent.
func (h *SOSHandler) Create(c echo.Context) error {
	var req sosReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind := strings.ToLower(strings.TrimSpace(req.EmergencyType))
	if !emergencyTypes[kind] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "emergencyType must be medical, accident, blood or other"})
	}
	var origin *model.Point
	if req.Location != nil && req.Location.Valid() {
		origin = req.Location
	}

	newID := h.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	ev := queue.SOSAlertEvent{
		AlertID:         newID(),
		UserID:          optionalUserID(c),
		EmergencyType:   kind,
		ClientTimestamp: strings.TrimSpace(req.Timestamp),
	}
	received := time.Now().UTC()
	ev.ReceivedAt = received.Format(time.RFC3339)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	nearest := []serviceResp{}
	if origin != nil {
		ev.Lat, ev.Lng = &origin.Lat, &origin.Lng
		for _, r := range h.nearest(ctx, origin) {
			nearest = append(nearest, toServiceResp(r))
			ev.NearestHospitals = append(ev.NearestHospitals, r.Service.Name)
		}
	}

	fields := []zap.Field{
		zap.String("alert_id", ev.AlertID),
		zap.String("type", kind),
		zap.String("client_time", ev.ClientTimestamp),
	}
	if ev.UserID != nil {
		fields = append(fields, zap.Uint64("user_id", *ev.UserID))
	}
	if origin != nil {
		fields = append(fields, zap.Float64("lat", origin.Lat), zap.Float64("lng", origin.Lng))
	}
	h.Log.Warn("SOS alert", fields...)

	if err := h.Publisher.PublishSOSAlert(ctx, ev); err != nil {
		h.Log.Error("publish SOS alert failed", zap.String("alert_id", ev.AlertID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, sosResp{
		Message:          "SOS alert received",
		AlertID:          ev.AlertID,
		ReceivedAt:       received,
		NearestHospitals: nearest,
	})
}

// nearest ranks open hospitals by distance from origin and keeps the
// closest ones with known coordinates.  Lookup failures yield none.
func (h *SOSHandler) nearest(ctx context.Context, origin *model.Point) []ranking.Ranked {
	rows, err := h.Services.List(ctx, repository.ServiceQuery{Category: model.CategoryHospital})
	if err != nil {
		h.Log.Warn("nearest hospitals lookup failed", zap.Error(err))
		return nil
	}
	crit := ranking.DefaultCriteria()
	crit.Category = model.CategoryHospital
	crit.OpenNowOnly = true
	ranked, err := ranking.Rank(rows, origin, crit)
	if err != nil {
		return nil
	}
	out := make([]ranking.Ranked, 0, nearestHospitals)
	for _, r := range ranked {
		if !r.Distance.IsKnown() || len(out) == nearestHospitals {
			break
		}
		out = append(out, r)
	}
	return out
}
