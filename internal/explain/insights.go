package explain

import (
	"fmt"
	"strings"

	"aquamonitor/internal/ml"
)

const (
	keyVariableThreshold = 0.15
	weekendThreshold     = 0.04
	droughtThreshold     = 0.15
)

// Insights derives the human-readable findings from normalized importances. Features are
// visited in schema order, so ties and listings are stable.
func Insights(importances map[string]float64) []string {
	var insights []string

	top, topShare := "", -1.0
	var key []string
	for _, name := range ml.FeatureNames() {
		share, ok := importances[name]
		if !ok {
			continue
		}
		if share > topShare {
			top, topShare = name, share
		}
		if share > keyVariableThreshold {
			key = append(key, ml.DisplayName(name))
		}
	}

	if top != "" {
		insights = append(insights, fmt.Sprintf("**%s** is the most influential factor (%.1f%%)", ml.DisplayName(top), topShare*100))
	}
	if len(key) > 0 {
		insights = append(insights, "Key variables: "+strings.Join(key, ", "))
	}
	if importances["is_weekend"] > weekendThreshold {
		insights = append(insights, "Weekends show a distinct consumption pattern")
	}
	if importances["days_without_rain"] > droughtThreshold {
		insights = append(insights, "Drought periods have a significant impact on consumption")
	}
	insights = append(insights, "The model captures complex nonlinear relationships between multiple variables")
	return insights
}
