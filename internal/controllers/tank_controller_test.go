package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository/mocks"
	"aquamonitor/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type fakeLevelUpdater struct {
	result *services.LevelUpdate
	err    error
	gotID  string
	gotLvl float64
}

func (f *fakeLevelUpdater) UpdateLevel(_ context.Context, id string, level float64) (*services.LevelUpdate, error) {
	f.gotID, f.gotLvl = id, level
	return f.result, f.err
}

func TestGetTanks(t *testing.T) {
	tests := []struct {
		name           string
		mockSetup      func(*mocks.MockTankRepository)
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "Success",
			mockSetup: func(repo *mocks.MockTankRepository) {
				repo.On("FindAll", mock.Anything).Return([]models.WaterTank{
					{ID: "a", Floor: 1, Room: 1, CurrentLevel: 80, CapacityLiters: 1000},
					{ID: "b", Floor: 1, Room: 2, CurrentLevel: 15, CapacityLiters: 1000},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "Database error",
			mockSetup: func(repo *mocks.MockTankRepository) {
				repo.On("FindAll", mock.Anything).Return(nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockTankRepository)
			tt.mockSetup(repo)
			router := setupTestRouter()
			router.GET("/api/tanks", NewTankController(repo, nil).GetTanks)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tanks", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "success", body["status"])
				assert.Len(t, body["data"], tt.expectedCount)
			} else {
				assert.Equal(t, "error", body["status"])
				assert.Equal(t, "connection refused", body["error"])
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestGetTankByIDNotFound(t *testing.T) {
	repo := new(mocks.MockTankRepository)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	router := setupTestRouter()
	router.GET("/api/tanks/:id", NewTankController(repo, nil).GetTankByID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tanks/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Tank not found", decodeBody(t, w)["message"])
}

func TestCreateTank(t *testing.T) {
	tests := []struct {
		name           string
		payload        string
		mockSetup      func(*mocks.MockTankRepository)
		expectedStatus int
	}{
		{
			name:    "Success",
			payload: `{"floor":2,"room":4,"current_level":75,"capacity_liters":1000}`,
			mockSetup: func(repo *mocks.MockTankRepository) {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(tank *models.WaterTank) bool {
					return tank.Floor == 2 && tank.Room == 4 && tank.CurrentLevel == 75 && tank.CapacityLiters == 1000
				})).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing capacity",
			payload:        `{"floor":2,"room":4,"current_level":75}`,
			mockSetup:      func(*mocks.MockTankRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Level out of range",
			payload:        `{"floor":2,"room":4,"current_level":120,"capacity_liters":1000}`,
			mockSetup:      func(*mocks.MockTankRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "Database error",
			payload: `{"floor":2,"room":4,"current_level":75,"capacity_liters":1000}`,
			mockSetup: func(repo *mocks.MockTankRepository) {
				repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockTankRepository)
			tt.mockSetup(repo)
			router := setupTestRouter()
			router.POST("/api/tanks", NewTankController(repo, nil).CreateTank)

			req := httptest.NewRequest(http.MethodPost, "/api/tanks", bytes.NewBufferString(tt.payload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestUpdateTankAppliesPartialFields(t *testing.T) {
	repo := new(mocks.MockTankRepository)
	repo.On("FindByID", mock.Anything, "a").Return(&models.WaterTank{ID: "a", CurrentLevel: 80, CapacityLiters: 1000}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(tank *models.WaterTank) bool {
		return tank.CurrentLevel == 80 && tank.CapacityLiters == 1500
	})).Return(nil)

	router := setupTestRouter()
	router.PUT("/api/tanks/:id", NewTankController(repo, nil).UpdateTank)

	req := httptest.NewRequest(http.MethodPut, "/api/tanks/a", bytes.NewBufferString(`{"capacity_liters":1500}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestUpdateTankLevel(t *testing.T) {
	tankID := "a"
	tests := []struct {
		name           string
		payload        string
		updater        *fakeLevelUpdater
		expectedStatus int
		expectAlert    bool
	}{
		{
			name:    "Raises alert",
			payload: `{"new_level":15}`,
			updater: &fakeLevelUpdater{result: &services.LevelUpdate{
				Tank:           &models.WaterTank{ID: tankID, CurrentLevel: 15, CapacityLiters: 1000},
				Alert:          &models.WaterAlert{ID: "alert", AlertType: models.AlertCritical, TankID: &tankID},
				ConsumedLiters: 250,
			}},
			expectedStatus: http.StatusOK,
			expectAlert:    true,
		},
		{
			name:           "Zero is a valid level",
			payload:        `{"new_level":0}`,
			updater:        &fakeLevelUpdater{result: &services.LevelUpdate{Tank: &models.WaterTank{ID: tankID}}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing level",
			payload:        `{}`,
			updater:        &fakeLevelUpdater{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Level above 100",
			payload:        `{"new_level":101}`,
			updater:        &fakeLevelUpdater{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown tank",
			payload:        `{"new_level":50}`,
			updater:        &fakeLevelUpdater{err: services.ErrTankNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Storage failure",
			payload:        `{"new_level":50}`,
			updater:        &fakeLevelUpdater{err: errors.New("deadlock")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.PUT("/api/tanks/:id/level", NewTankController(new(mocks.MockTankRepository), tt.updater).UpdateTankLevel)

			req := httptest.NewRequest(http.MethodPut, "/api/tanks/"+tankID+"/level", bytes.NewBufferString(tt.payload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tankID, tt.updater.gotID)
			data := decodeBody(t, w)["data"].(map[string]interface{})
			_, hasAlert := data["alert"]
			assert.Equal(t, tt.expectAlert, hasAlert)
		})
	}
}

func TestDeleteTank(t *testing.T) {
	tests := []struct {
		name           string
		repoErr        error
		expectedStatus int
	}{
		{"Success", nil, http.StatusOK},
		{"Not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"Database error", errors.New("locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockTankRepository)
			repo.On("Delete", mock.Anything, "a").Return(tt.repoErr)
			router := setupTestRouter()
			router.DELETE("/api/tanks/:id", NewTankController(repo, nil).DeleteTank)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/tanks/a", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			repo.AssertExpectations(t)
		})
	}
}
