package controllers

import (
	"net/http"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository"

	"github.com/gin-gonic/gin"
)

type TruckController struct {
	repo repository.TruckRepository
}

func NewTruckController(repo repository.TruckRepository) *TruckController {
	return &TruckController{repo: repo}
}

// GetTrucks godoc
// @Summary List water trucks
// @Tags trucks
// @Produce json
// @Success 200 {object} map[string]interface{} "Trucks retrieved successfully"
// @Router /api/trucks [get]
func (tc *TruckController) GetTrucks(c *gin.Context) {
	trucks, err := tc.repo.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve trucks", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Trucks retrieved successfully", trucks)
}

// GetTruckByID godoc
// @Summary Get a water truck
// @Tags trucks
// @Produce json
// @Param id path string true "Truck ID"
// @Success 200 {object} map[string]interface{} "Truck retrieved successfully"
// @Failure 404 {object} map[string]interface{} "Truck not found"
// @Router /api/trucks/{id} [get]
func (tc *TruckController) GetTruckByID(c *gin.Context) {
	truck, err := tc.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondLookupError(c, "Truck", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Truck retrieved successfully", truck)
}

// CreateTruck godoc
// @Summary Schedule or register a water truck
// @Tags trucks
// @Accept json
// @Produce json
// @Param truck body models.WaterTruckCreate true "Truck data"
// @Success 201 {object} map[string]interface{} "Truck created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Router /api/trucks [post]
func (tc *TruckController) CreateTruck(c *gin.Context) {
	var req models.WaterTruckCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	truck := &models.WaterTruck{
		TruckNumber:          req.TruckNumber,
		ArrivalDate:          req.ArrivalDate,
		EstimatedArrival:     req.EstimatedArrival,
		WaterDeliveredLiters: req.WaterDeliveredLiters,
		Status:               req.Status,
		Notes:                req.Notes,
	}
	if err := tc.repo.Create(c.Request.Context(), truck); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create truck", err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Truck created successfully", truck)
}

// UpdateTruck godoc
// @Summary Update a water truck
// @Tags trucks
// @Accept json
// @Produce json
// @Param id path string true "Truck ID"
// @Param truck body models.WaterTruckUpdate true "Fields to update"
// @Success 200 {object} map[string]interface{} "Truck updated successfully"
// @Failure 404 {object} map[string]interface{} "Truck not found"
// @Router /api/trucks/{id} [put]
func (tc *TruckController) UpdateTruck(c *gin.Context) {
	var req models.WaterTruckUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}
	tc.apply(c, func(truck *models.WaterTruck) {
		if req.Status != nil {
			truck.Status = *req.Status
		}
		if req.Notes != nil {
			truck.Notes = req.Notes
		}
	}, "Truck updated successfully")
}

// UpdateTruckStatus godoc
// @Summary Change a truck's delivery status
// @Tags trucks
// @Accept json
// @Produce json
// @Param id path string true "Truck ID"
// @Param status body models.TruckStatusUpdate true "New status"
// @Success 200 {object} map[string]interface{} "Truck status updated successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Failure 404 {object} map[string]interface{} "Truck not found"
// @Router /api/trucks/{id}/status [put]
func (tc *TruckController) UpdateTruckStatus(c *gin.Context) {
	var req models.TruckStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}
	tc.apply(c, func(truck *models.WaterTruck) {
		truck.Status = req.Status
	}, "Truck status updated successfully")
}

func (tc *TruckController) apply(c *gin.Context, mutate func(*models.WaterTruck), message string) {
	ctx := c.Request.Context()
	truck, err := tc.repo.FindByID(ctx, c.Param("id"))
	if err != nil {
		respondLookupError(c, "Truck", err)
		return
	}
	mutate(truck)
	if err := tc.repo.Update(ctx, truck); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update truck", err)
		return
	}
	respondSuccess(c, http.StatusOK, message, truck)
}

// DeleteTruck godoc
// @Summary Delete a water truck
// @Tags trucks
// @Produce json
// @Param id path string true "Truck ID"
// @Success 200 {object} map[string]interface{} "Truck deleted successfully"
// @Failure 404 {object} map[string]interface{} "Truck not found"
// @Router /api/trucks/{id} [delete]
func (tc *TruckController) DeleteTruck(c *gin.Context) {
	if err := tc.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondLookupError(c, "Truck", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Truck deleted successfully", nil)
}
