package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func TestGetAlerts(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		activeOnly     bool
		callsRepo      bool
		expectedStatus int
	}{
		{"All alerts", "", false, true, http.StatusOK},
		{"Active only", "?active=true", true, true, http.StatusOK},
		{"Explicit false", "?active=false", false, true, http.StatusOK},
		{"Invalid flag", "?active=maybe", false, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockAlertRepository)
			if tt.callsRepo {
				repo.On("FindAll", mock.Anything, tt.activeOnly).Return([]models.WaterAlert{{ID: "x", AlertType: models.AlertLow}}, nil)
			}
			router := setupTestRouter()
			router.GET("/api/alerts", NewAlertController(repo).GetAlerts)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/alerts"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestCreateAlertValidatesType(t *testing.T) {
	repo := new(mocks.MockAlertRepository)
	router := setupTestRouter()
	router.POST("/api/alerts", NewAlertController(repo).CreateAlert)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts", bytes.NewBufferString(`{"alert_type":"panic","message":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAlert(t *testing.T) {
	repo := new(mocks.MockAlertRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.WaterAlert) bool {
		return a.AlertType == models.AlertLow && a.Message == "Scheduled maintenance" && a.TankID == nil
	})).Return(nil)

	router := setupTestRouter()
	router.POST("/api/alerts", NewAlertController(repo).CreateAlert)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts", bytes.NewBufferString(`{"alert_type":"low","message":"Scheduled maintenance"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	repo.AssertExpectations(t)
}

func TestResolveAlert(t *testing.T) {
	tests := []struct {
		name           string
		alert          *models.WaterAlert
		repoErr        error
		expectedStatus int
	}{
		{"Resolved", &models.WaterAlert{ID: "a1", IsResolved: true}, nil, http.StatusOK},
		{"Unknown alert", nil, gorm.ErrRecordNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockAlertRepository)
			repo.On("Resolve", mock.Anything, "a1").Return(tt.alert, tt.repoErr)
			router := setupTestRouter()
			router.PUT("/api/alerts/:id/resolve", NewAlertController(repo).ResolveAlert)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/alerts/a1/resolve", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				data := decodeBody(t, w)["data"].(map[string]interface{})
				assert.Equal(t, true, data["is_resolved"])
			}
		})
	}
}
