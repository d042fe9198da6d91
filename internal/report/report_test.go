package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aquamonitor/internal/explain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedResult() *explain.Result {
	importances := map[string]float64{
		"historical_consumption": 0.28,
		"current_level":          0.22,
		"days_without_rain":      0.18,
		"average_temperature":    0.14,
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

func TestRenderStructure(t *testing.T) {
	html, err := Render(fixedResult())
	require.NoError(t, err)

	assert.Equal(t, 7, strings.Count(html, `<tr class="feature-row">`))
	assert.Equal(t, 2, strings.Count(html, "<img "))
	assert.Contains(t, html, `src="data:image/png;base64,c3VtbWFyeQ=="`)
	assert.Contains(t, html, `src="data:image/png;base64,YmFy"`)
	assert.Equal(t, 3, strings.Count(html, `class="badge badge-high"`))
	assert.Equal(t, 2, strings.Count(html, `class="badge badge-medium"`))
	assert.Equal(t, 2, strings.Count(html, `class="badge badge-low"`))
	assert.Contains(t, html, "<strong>Historical Consumption</strong> is the most influential factor (28.0%)")
	assert.Contains(t, html, "<td>0.2800</td>")
	assert.NotContains(t, html, `class="note"`)
}

func TestRenderShowsNote(t *testing.T) {
	r := fixedResult()
	r.Note = "Simulated analysis"

	html, err := Render(r)
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="note"><p>Simulated analysis</p></div>`)
}

func TestRenderEscapesInsights(t *testing.T) {
	r := fixedResult()
	r.Insights = []string{"<script>x</script> and **bold** and **dangling"}

	html, err := Render(r)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>x")
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt; and <strong>bold</strong> and **dangling")
}

func TestRenderNil(t *testing.T) {
	_, err := Render(nil)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.html")
	require.NoError(t, WriteFile(fixedResult(), path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "<!DOCTYPE html>"))
}

func TestImpact(t *testing.T) {
	tests := []struct {
		rank  int
		badge string
	}{
		{1, "badge-high"}, {3, "badge-high"}, {4, "badge-medium"}, {5, "badge-medium"}, {6, "badge-low"}, {7, "badge-low"},
	}
	for _, tt := range tests {
		badge, _ := Impact(tt.rank)
		assert.Equal(t, tt.badge, badge, "rank %d", tt.rank)
	}
}
