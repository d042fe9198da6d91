package controllers

import (
	"context"
	"errors"
	"net/http"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository"
	"aquamonitor/internal/services"

	"github.com/gin-gonic/gin"
)

// LevelUpdater applies a level reading with alert evaluation.
type LevelUpdater interface {
	UpdateLevel(ctx context.Context, tankID string, level float64) (*services.LevelUpdate, error)
}

type TankController struct {
	repo   repository.TankRepository
	levels LevelUpdater
}

func NewTankController(repo repository.TankRepository, levels LevelUpdater) *TankController {
	return &TankController{repo: repo, levels: levels}
}

// GetTanks godoc
// @Summary List water tanks
// @Tags tanks
// @Produce json
// @Success 200 {object} map[string]interface{} "Tanks retrieved successfully"
// @Failure 500 {object} map[string]interface{} "Failed to retrieve tanks"
// @Router /api/tanks [get]
func (tc *TankController) GetTanks(c *gin.Context) {
	tanks, err := tc.repo.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve tanks", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Tanks retrieved successfully", tanks)
}

// GetTankByID godoc
// @Summary Get a water tank
// @Tags tanks
// @Produce json
// @Param id path string true "Tank ID"
// @Success 200 {object} map[string]interface{} "Tank retrieved successfully"
// @Failure 404 {object} map[string]interface{} "Tank not found"
// @Router /api/tanks/{id} [get]
func (tc *TankController) GetTankByID(c *gin.Context) {
	tank, err := tc.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondLookupError(c, "Tank", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Tank retrieved successfully", tank)
}

// CreateTank godoc
// @Summary Create a water tank
// @Tags tanks
// @Accept json
// @Produce json
// @Param tank body models.WaterTankCreate true "Tank data"
// @Success 201 {object} map[string]interface{} "Tank created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Failure 500 {object} map[string]interface{} "Failed to create tank"
// @Router /api/tanks [post]
func (tc *TankController) CreateTank(c *gin.Context) {
	var req models.WaterTankCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	tank := &models.WaterTank{
		Floor:          req.Floor,
		Room:           req.Room,
		RoomNumber:     req.RoomNumber,
		CurrentLevel:   req.CurrentLevel,
		CapacityLiters: req.CapacityLiters,
	}
	if err := tc.repo.Create(c.Request.Context(), tank); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create tank", err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Tank created successfully", tank)
}

// UpdateTank godoc
// @Summary Update a water tank
// @Description Updates level and/or capacity without alert evaluation
// @Tags tanks
// @Accept json
// @Produce json
// @Param id path string true "Tank ID"
// @Param tank body models.WaterTankUpdate true "Fields to update"
// @Success 200 {object} map[string]interface{} "Tank updated successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Failure 404 {object} map[string]interface{} "Tank not found"
// @Router /api/tanks/{id} [put]
func (tc *TankController) UpdateTank(c *gin.Context) {
	var req models.WaterTankUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	ctx := c.Request.Context()
	tank, err := tc.repo.FindByID(ctx, c.Param("id"))
	if err != nil {
		respondLookupError(c, "Tank", err)
		return
	}
	if req.CurrentLevel != nil {
		tank.CurrentLevel = *req.CurrentLevel
	}
	if req.CapacityLiters != nil {
		tank.CapacityLiters = *req.CapacityLiters
	}
	if err := tc.repo.Update(ctx, tank); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update tank", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Tank updated successfully", tank)
}

// UpdateTankLevel godoc
// @Summary Record a new tank level
// @Description Stores the level, records consumption on drops and raises alerts when thresholds are crossed
// @Tags tanks
// @Accept json
// @Produce json
// @Param id path string true "Tank ID"
// @Param level body models.TankLevelUpdate true "New level (0-100)"
// @Success 200 {object} map[string]interface{} "Tank level updated successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Failure 404 {object} map[string]interface{} "Tank not found"
// @Router /api/tanks/{id}/level [put]
func (tc *TankController) UpdateTankLevel(c *gin.Context) {
	var req models.TankLevelUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	result, err := tc.levels.UpdateLevel(c.Request.Context(), c.Param("id"), *req.NewLevel)
	switch {
	case errors.Is(err, services.ErrTankNotFound):
		respondError(c, http.StatusNotFound, "Tank not found", err)
		return
	case errors.Is(err, services.ErrInvalidLevel):
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "Failed to update tank level", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Tank level updated successfully", result)
}

// DeleteTank godoc
// @Summary Delete a water tank
// @Tags tanks
// @Produce json
// @Param id path string true "Tank ID"
// @Success 200 {object} map[string]interface{} "Tank deleted successfully"
// @Failure 404 {object} map[string]interface{} "Tank not found"
// @Router /api/tanks/{id} [delete]
func (tc *TankController) DeleteTank(c *gin.Context) {
	if err := tc.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondLookupError(c, "Tank", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Tank deleted successfully", nil)
}
