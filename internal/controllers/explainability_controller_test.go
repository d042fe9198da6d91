package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aquamonitor/internal/explain"

	"github.com/stretchr/testify/assert"
)

type fakeExplainer struct {
	result     *explain.Result
	err        error
	gotSamples int
}

func (f *fakeExplainer) Analyze(_ context.Context, samples int) (*explain.Result, error) {
	f.gotSamples = samples
	return f.result, f.err
}

func explainResult() *explain.Result {
	importances := map[string]float64{
		"historical_consumption": 0.30,
		"current_level":          0.25,
		"days_without_rain":      0.15,
		"average_temperature":    0.12,
		"recent_deliveries":      0.10,
		"is_weekend":             0.05,
		"day_of_week":            0.03,
	}
	return &explain.Result{
		Success:           true,
		Plots:             explain.Plots{SummaryPlot: "c3VtbWFyeQ==", BarPlot: "YmFy"},
		Insights:          explain.Insights(importances),
		FeatureImportance: explain.Rank(importances),
		Importances:       importances,
		AnalysisDate:      "2024-04-02T15:00:00Z",
		SamplesAnalyzed:   50,
		ModelArchitecture: "MLPRegressor",
	}
}

func TestGetAnalysis(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		explainer      *fakeExplainer
		expectSamples  int
		expectedStatus int
	}{
		{"Default samples", "", &fakeExplainer{result: explainResult()}, 50, http.StatusOK},
		{"Custom samples", "?samples=20", &fakeExplainer{result: explainResult()}, 20, http.StatusOK},
		{"Too many samples", "?samples=5000", &fakeExplainer{}, 0, http.StatusBadRequest},
		{"Not loaded", "", &fakeExplainer{err: explain.ErrModelNotLoaded}, 50, http.StatusServiceUnavailable},
		{"Failure", "", &fakeExplainer{err: errors.New("render failed")}, 50, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/api/explainability/analysis", NewExplainabilityController(tt.explainer, 0).GetAnalysis)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/explainability/analysis"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectSamples, tt.explainer.gotSamples)
			if tt.expectedStatus == http.StatusOK {
				data := decodeBody(t, w)["data"].(map[string]interface{})
				ranked := data["feature_importance"].([]interface{})
				assert.Equal(t, "historical_consumption", ranked[0].(map[string]interface{})["feature"])
			}
		})
	}
}

func TestGetReport(t *testing.T) {
	router := setupTestRouter()
	router.GET("/api/explainability/report", NewExplainabilityController(&fakeExplainer{result: explainResult()}, 30).GetReport)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/explainability/report", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "data:image/png;base64,YmFy")
	assert.Equal(t, 7, strings.Count(w.Body.String(), `class="feature-row"`))
}
