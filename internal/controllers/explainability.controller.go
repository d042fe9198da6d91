package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"aquamonitor/internal/explain"
	"aquamonitor/internal/report"

	"github.com/gin-gonic/gin"
)

const maxExplainSamples = 500

type ExplanationProvider interface {
	Analyze(ctx context.Context, samples int) (*explain.Result, error)
}

type ExplainabilityController struct {
	explainer      ExplanationProvider
	defaultSamples int
}

func NewExplainabilityController(explainer ExplanationProvider, defaultSamples int) *ExplainabilityController {
	if defaultSamples <= 0 {
		defaultSamples = explain.DefaultSamples
	}
	return &ExplainabilityController{explainer: explainer, defaultSamples: defaultSamples}
}

// GetAnalysis godoc
// @Summary Feature attribution analysis
// @Description Kernel SHAP feature importances, charts and insights for the served model
// @Tags explainability
// @Produce json
// @Param samples query int false "Number of samples to explain (1-500)" default(50)
// @Success 200 {object} map[string]interface{} "Analysis completed successfully"
// @Failure 400 {object} map[string]interface{} "Invalid query parameter"
// @Failure 503 {object} map[string]interface{} "Model not loaded"
// @Router /api/explainability/analysis [get]
func (ec *ExplainabilityController) GetAnalysis(c *gin.Context) {
	result, ok := ec.analyze(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, "Analysis completed successfully", result)
}

// GetReport godoc
// @Summary HTML explainability report
// @Tags explainability
// @Produce html
// @Param samples query int false "Number of samples to explain (1-500)" default(50)
// @Success 200 {string} string "HTML report"
// @Failure 400 {object} map[string]interface{} "Invalid query parameter"
// @Failure 503 {object} map[string]interface{} "Model not loaded"
// @Router /api/explainability/report [get]
func (ec *ExplainabilityController) GetReport(c *gin.Context) {
	result, ok := ec.analyze(c)
	if !ok {
		return
	}
	page, err := report.Render(result)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to render report", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (ec *ExplainabilityController) analyze(c *gin.Context) (*explain.Result, bool) {
	samples := ec.defaultSamples
	if raw := c.Query("samples"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxExplainSamples {
			respondError(c, http.StatusBadRequest, "Invalid query parameter", errors.New("samples must be an integer between 1 and 500"))
			return nil, false
		}
		samples = v
	}

	result, err := ec.explainer.Analyze(c.Request.Context(), samples)
	switch {
	case errors.Is(err, explain.ErrModelNotLoaded):
		respondError(c, http.StatusServiceUnavailable, "Model not loaded", err)
		return nil, false
	case err != nil:
		respondError(c, http.StatusInternalServerError, "Analysis failed", err)
		return nil, false
	}
	return result, true
}
