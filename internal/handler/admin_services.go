package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/ranking"
	"github.com/mediaid/mediaid-api/internal/repository"
)

type serviceReq struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Address string   `json:"address"`
	Phone   string   `json:"phone"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	IsOpen  *bool    `json:"is_open"`
}

// toService validates the request.  is_open defaults to true and lat/lng
// must be given together.
func (r serviceReq) toService() (model.Service, string) {
	s := model.Service{
		Name:     strings.TrimSpace(r.Name),
		Category: model.Category(strings.ToLower(strings.TrimSpace(r.Type))),
		Address:  strings.TrimSpace(r.Address),
		Phone:    strings.TrimSpace(r.Phone),
		IsOpen:   r.IsOpen == nil || *r.IsOpen,
	}
	if s.Name == "" || s.Address == "" {
		return s, "name/address required"
	}
	if !s.Category.Known() {
		return s, "invalid type"
	}
	if (r.Lat == nil) != (r.Lng == nil) {
		return s, "lat and lng must be given together"
	}
	if r.Lat != nil {
		p := model.Point{Lat: *r.Lat, Lng: *r.Lng}
		if !p.Valid() {
			return s, "invalid coordinates"
		}
		s.Position = &p
	}
	return s, ""
}

// CreateService handles POST /v1/admin/services.
func (h *DirectoryHandler) CreateService(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s, msg := req.toService()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Services.Create(ctx, &s); err != nil {
		h.Log.Error("create service failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	h.Log.Info("service created", zap.Uint64("id", s.ID), zap.String("type", string(s.Category)))
	return c.JSON(http.StatusCreated, toServiceResp(ranking.Ranked{Service: s, Distance: ranking.Unknown}))
}

// UpdateService handles PUT /v1/admin/services/:id.
func (h *DirectoryHandler) UpdateService(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s, msg := req.toService()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	s.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Services.Update(ctx, s); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		h.Log.Error("update service failed", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toServiceResp(ranking.Ranked{Service: s, Distance: ranking.Unknown}))
}

// DeleteService handles DELETE /v1/admin/services/:id.
func (h *DirectoryHandler) DeleteService(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Services.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Log.Info("service deleted", zap.Uint64("id", id))
	return c.NoContent(http.StatusNoContent)
}
