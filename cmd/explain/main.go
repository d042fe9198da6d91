// Command explain analyzes the persisted consumption model and writes an HTML report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"aquamonitor/internal/explain"
	"aquamonitor/internal/ml"
	"aquamonitor/internal/observability"
	"aquamonitor/internal/report"

	log "github.com/sirupsen/logrus"
)

func main() {
	modelPath := flag.String("model", "data/trained_model.json", "Path to the persisted model")
	samples := flag.Int("samples", explain.DefaultSamples, "Number of samples to explain")
	output := flag.String("output", "model_explanation_report.html", "HTML report destination")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := observability.SetupLogger(*logLevel, "text", os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	os.Exit(run(*modelPath, *samples, *output))
}

func run(modelPath string, samples int, output string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	explainer := explain.New(ml.NewModelStore(modelPath))
	if !explainer.IsLoaded() {
		fmt.Fprintf(os.Stderr, "No trained model found at %s. Train the model first.\n", modelPath)
		return 1
	}

	fmt.Printf("Analyzing model with %d samples...\n", samples)
	result, err := explainer.Analyze(ctx, samples)
	if err != nil {
		log.WithError(err).Error("analysis failed")
		return 1
	}
	if result.Simulated() {
		fmt.Println("Warning: " + result.Note)
	}

	if err := report.WriteFile(result, output); err != nil {
		log.WithError(err).Error("failed to write report")
		return 1
	}
	fmt.Printf("Report written to %s\n\n", output)

	fmt.Println("Top features:")
	for _, fi := range result.FeatureImportance {
		if fi.Rank > 3 {
			break
		}
		fmt.Printf("  %d. %s: %.1f%%\n", fi.Rank, ml.DisplayName(fi.Feature), fi.Importance*100)
	}
	return 0
}
