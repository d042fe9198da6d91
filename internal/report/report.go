// Package report renders explainability results as a self-contained HTML document.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"aquamonitor/internal/explain"
	"aquamonitor/internal/ml"
)

// Impact tiers by rank.
const (
	highImpactRanks   = 3
	mediumImpactRanks = 5
)

var errNoResult = errors.New("report: nil result")

type row struct {
	Rank       int
	Feature    string
	Importance string
	Badge      string
	Label      string
}

type page struct {
	AnalysisDate      string
	ModelArchitecture string
	SamplesAnalyzed   int
	Note              string
	Insights          []template.HTML
	Rows              []row
	SummaryPlot       template.URL
	BarPlot           template.URL
}

var pageTemplate = template.Must(template.New("report").Parse(reportHTML))

// Render produces the HTML report for r.
func Render(r *explain.Result) (string, error) {
	if r == nil {
		return "", errNoResult
	}

	p := page{
		AnalysisDate:      r.AnalysisDate,
		ModelArchitecture: r.ModelArchitecture,
		SamplesAnalyzed:   r.SamplesAnalyzed,
		Note:              r.Note,
		SummaryPlot:       dataURL(r.Plots.SummaryPlot),
		BarPlot:           dataURL(r.Plots.BarPlot),
	}
	for _, insight := range r.Insights {
		p.Insights = append(p.Insights, emphasize(insight))
	}
	for _, fi := range r.FeatureImportance {
		badge, label := Impact(fi.Rank)
		p.Rows = append(p.Rows, row{
			Rank:       fi.Rank,
			Feature:    ml.DisplayName(fi.Feature),
			Importance: fmt.Sprintf("%.4f", fi.Importance),
			Badge:      badge,
			Label:      label,
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// WriteFile renders r and writes it to path, creating parent directories.
func WriteFile(r *explain.Result, path string) error {
	html, err := Render(r)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Impact maps a rank to its badge class and label.
func Impact(rank int) (badge, label string) {
	switch {
	case rank <= highImpactRanks:
		return "badge-high", "High"
	case rank <= mediumImpactRanks:
		return "badge-medium", "Medium"
	default:
		return "badge-low", "Low"
	}
}

func dataURL(b64 string) template.URL {
	return template.URL("data:image/png;base64," + b64)
}

// emphasize escapes s and turns **x** pairs into <strong>x</strong>.
func emphasize(s string) template.HTML {
	parts := strings.Split(template.HTMLEscapeString(s), "**")
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 1 && i < len(parts)-1 {
			b.WriteString("<strong>" + part + "</strong>")
			continue
		}
		if i%2 == 1 {
			b.WriteString("**")
		}
		b.WriteString(part)
	}
	return template.HTML(b.String())
}
