package controllers

import (
	"net/http"
	"strconv"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository"

	"github.com/gin-gonic/gin"
)

type AlertController struct {
	repo repository.AlertRepository
}

func NewAlertController(repo repository.AlertRepository) *AlertController {
	return &AlertController{repo: repo}
}

// GetAlerts godoc
// @Summary List alerts
// @Tags alerts
// @Produce json
// @Param active query bool false "Only unresolved alerts"
// @Success 200 {object} map[string]interface{} "Alerts retrieved successfully"
// @Failure 400 {object} map[string]interface{} "Invalid query parameter"
// @Router /api/alerts [get]
func (ac *AlertController) GetAlerts(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid query parameter", err)
			return
		}
		activeOnly = v
	}

	alerts, err := ac.repo.FindAll(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve alerts", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Alerts retrieved successfully", alerts)
}

// CreateAlert godoc
// @Summary Create an alert manually
// @Tags alerts
// @Accept json
// @Produce json
// @Param alert body models.WaterAlertCreate true "Alert data"
// @Success 201 {object} map[string]interface{} "Alert created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Router /api/alerts [post]
func (ac *AlertController) CreateAlert(c *gin.Context) {
	var req models.WaterAlertCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	alert := &models.WaterAlert{AlertType: req.AlertType, Message: req.Message, TankID: req.TankID}
	if err := ac.repo.Create(c.Request.Context(), alert); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create alert", err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Alert created successfully", alert)
}

// ResolveAlert godoc
// @Summary Mark an alert as resolved
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} map[string]interface{} "Alert resolved successfully"
// @Failure 404 {object} map[string]interface{} "Alert not found"
// @Router /api/alerts/{id}/resolve [put]
func (ac *AlertController) ResolveAlert(c *gin.Context) {
	alert, err := ac.repo.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondLookupError(c, "Alert", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Alert resolved successfully", alert)
}

// DeleteAlert godoc
// @Summary Delete an alert
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} map[string]interface{} "Alert deleted successfully"
// @Failure 404 {object} map[string]interface{} "Alert not found"
// @Router /api/alerts/{id} [delete]
func (ac *AlertController) DeleteAlert(c *gin.Context) {
	if err := ac.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondLookupError(c, "Alert", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Alert deleted successfully", nil)
}
