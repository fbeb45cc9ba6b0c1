package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/ranking"
	"github.com/mediaid/mediaid-api/internal/repository"
)

// DirectoryHandler serves the public services directory and its admin
// maintenance endpoints.
type DirectoryHandler struct {
	Services ServiceStore
	Log      *zap.Logger
}

func NewDirectoryHandler(s ServiceStore, log *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{Services: s, Log: log}
}

// serviceResp is one directory entry as returned to clients.  Distance
// fields are null/empty when the caller sent no origin or the entry has
// no coordinates.
type serviceResp struct {
	ID         uint64           `json:"id"`
	Name       string           `json:"name"`
	Type       model.Category   `json:"type"`
	Address    string           `json:"address"`
	Phone      *string          `json:"phone"`
	Lat        *float64         `json:"lat"`
	Lng        *float64         `json:"lng"`
	IsOpen     bool             `json:"is_open"`
	DistanceKm ranking.Distance `json:"distance_km"`
	Distance   string           `json:"distance"`
}

func toServiceResp(r ranking.Ranked) serviceResp {
	s := r.Service
	out := serviceResp{
		ID:         s.ID,
		Name:       s.Name,
		Type:       s.Category,
		Address:    s.Address,
		IsOpen:     s.IsOpen,
		DistanceKm: r.Distance,
		Distance:   r.Distance.String(),
	}
	if s.Phone != "" {
		phone := s.Phone
		out.Phone = &phone
	}
	if s.Position != nil {
		lat, lng := s.Position.Lat, s.Position.Lng
		out.Lat, out.Lng = &lat, &lng
	}
	return out
}

// List handles GET /v1/services.  SQL narrows by type and search; the
// ranker then applies the complete criteria and ordering.
func (h *DirectoryHandler) List(c echo.Context) error {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	origin := originFromQuery(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Services.List(ctx, repository.ServiceQuery{Category: crit.Category, Search: crit.SearchText})
	if err != nil {
		h.Log.Error("list services failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ranked, err := ranking.Rank(rows, origin, crit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	out := make([]serviceResp, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, toServiceResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/services/:id.  lat/lng are honoured as in List.
func (h *DirectoryHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	d := ranking.DistanceBetween(originFromQuery(c), s.Position)
	return c.JSON(http.StatusOK, toServiceResp(ranking.Ranked{Service: s, Distance: d}))
}

func criteriaFromQuery(c echo.Context) (ranking.Criteria, error) {
	crit := ranking.DefaultCriteria()
	var err error
	if crit.Category, err = ranking.ParseCategory(c.QueryParam("type")); err != nil {
		return crit, err
	}
	if crit.SortKey, err = ranking.ParseSortKey(c.QueryParam("sort")); err != nil {
		return crit, err
	}
	if v := strings.TrimSpace(c.QueryParam("open_now")); v != "" {
		if crit.OpenNowOnly, err = strconv.ParseBool(v); err != nil {
			return crit, errors.New("invalid open_now")
		}
	}
	crit.SearchText = strings.TrimSpace(c.QueryParam("search"))
	crit.Locale = localeFromHeader(c.Request().Header.Get("Accept-Language"))
	return crit, nil
}

// originFromQuery reads lat/lng.  Anything short of two valid coordinates
// means the origin is absent; 0,0 is a valid origin.
func originFromQuery(c echo.Context) *model.Point {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("lat")), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("lng")), 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	p := model.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil
	}
	return &p
}

// localeFromHeader picks the caller's preferred language for collation,
// falling back to the root order.
func localeFromHeader(h string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(h)
	if err != nil || len(tags) == 0 {
		return language.Und
	}
	return tags[0]
}
