package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/queue"
	"github.com/mediaid/mediaid-api/internal/repository"
)

func hospital(id uint64, name string, lat float64, open bool) model.Service {
	return model.Service{ID: id, Name: name, Category: model.CategoryHospital, Address: "a",
		Position: &model.Point{Lat: lat, Lng: 83.0}, IsOpen: open}
}

func TestSOS_NearestHospitals(t *testing.T) {
	store := &mockServices{}
	store.On("List", mock.Anything, repository.ServiceQuery{Category: model.CategoryHospital}).Return([]model.Service{
		hospital(1, "H1", 18.1, true),
		hospital(2, "H2", 18.01, true),
		hospital(3, "H3", 18.001, false),
		hospital(4, "H4", 18.05, true),
		hospital(5, "H5", 18.2, true),
		{ID: 6, Name: "H6", Category: model.CategoryHospital, Address: "a", IsOpen: true},
	}, nil)
	pub := &mockPublisher{}
	pub.On("PublishSOSAlert", mock.Anything, mock.MatchedBy(func(ev queue.SOSAlertEvent) bool {
		return ev.AlertID == "alert-1" && ev.EmergencyType == "medical" && ev.Lat != nil && *ev.Lat == 18.0 &&
			assert.ObjectsAreEqual([]string{"H2", "H4", "H1"}, ev.NearestHospitals)
	})).Return(nil)

	core, logs := observer.New(zapcore.InfoLevel)
	h := NewSOSHandler(store, pub, zap.New(core))
	h.NewID = func() string { return "alert-1" }

	c, rec := newCtx(http.MethodPost, "/v1/sos",
		`{"emergencyType":"Medical","location":{"lat":18.0,"lng":83.0},"timestamp":"2024-05-01T10:00:00Z"}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message          string           `json:"message"`
		AlertID          string           `json:"alert_id"`
		NearestHospitals []map[string]any `json:"nearest_hospitals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SOS alert received", resp.Message)
	assert.Equal(t, "alert-1", resp.AlertID)
	require.Len(t, resp.NearestHospitals, 3)
	assert.Equal(t, "H2", resp.NearestHospitals[0]["name"])
	assert.Equal(t, 1.1, resp.NearestHospitals[0]["distance_km"])

	warns := logs.FilterMessage("SOS alert").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	pub.AssertExpectations(t)
}

func TestSOS_WithoutLocationAndBrokerDown(t *testing.T) {
	store := &mockServices{}
	pub := &mockPublisher{}
	pub.On("PublishSOSAlert", mock.Anything, mock.MatchedBy(func(ev queue.SOSAlertEvent) bool {
		return ev.Lat == nil && ev.UserID == nil && len(ev.NearestHospitals) == 0
	})).Return(errors.New("dial: connection refused"))
	h := NewSOSHandler(store, pub, zap.NewNop())

	c, rec := newCtx(http.MethodPost, "/v1/sos", `{"emergencyType":"accident","location":{"lat":123,"lng":0}}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []any{}, resp["nearest_hospitals"])
	assert.NotEmpty(t, resp["alert_id"])
	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSOS_LookupFailureStillAlerts(t *testing.T) {
	store := &mockServices{}
	store.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	pub := &mockPublisher{}
	pub.On("PublishSOSAlert", mock.Anything, mock.Anything).Return(nil)
	h := NewSOSHandler(store, pub, zap.NewNop())

	c, rec := newCtx(http.MethodPost, "/v1/sos", `{"emergencyType":"blood","location":{"lat":0,"lng":0}}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	pub.AssertExpectations(t)
}

func TestSOS_InvalidType(t *testing.T) {
	h := NewSOSHandler(&mockServices{}, &mockPublisher{}, zap.NewNop())
	for _, b := range []string{`{"emergencyType":"fire"}`, `{}`, `[`} {
		c, rec := newCtx(http.MethodPost, "/v1/sos", b)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, b)
	}
}
