// Command frictionreport runs the full housing-friction pipeline:
// parse the census dwelling-status sources, reconcile municipality
// names against the boundary dataset, compute friction metrics,
// classify under the configured schemes, simulate the configured
// unlock scenario and write the report tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"frictioncli/internal/app"
	"frictioncli/internal/config"
	"frictioncli/internal/friction"
	"frictioncli/internal/infrastructure"
)

func main() {
	inDir := flag.String("in", "", "input directory with census files (overrides config)")
	outDir := flag.String("out", "", "output directory for report files (overrides config)")
	topN := flag.Int("top", 0, "number of municipalities in the console ranking (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inDir != "" {
		cfg.Paths.InputDir = *inDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *topN > 0 {
		cfg.Simulation.TopN = *topN
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}

	result, err := pipeline.Run(context.Background())
	if err != nil {
		logger.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	if err := pipeline.Export(result); err != nil {
		logger.Error("Failed to write report files", "error", err)
		os.Exit(1)
	}

	printSummary(result, cfg.Simulation.TopN)
}

func printSummary(result *app.Result, topN int) {
	nat := result.Report.National
	fmt.Printf("\nMunicipalities: %d (mapped %d, unresolved %d)\n",
		len(result.Report.Municipalities), len(result.Geo.Mapped), len(result.Geo.Unresolved))
	fmt.Printf("National: total %d, locked %d, sigma %.3f, F %.2f\n\n",
		nat.TotalDwellings, nat.Locked.Total(), nat.Sigma, nat.FrictionFactor)

	fmt.Printf("Top %d municipalities by locked-stock share:\n", topN)
	fmt.Printf("%-35s %10s %10s %8s %6s\n", "Name", "Total", "Locked", "Sigma", "F")
	for _, m := range friction.TopBySigma(result.Report.Municipalities, topN) {
		fmt.Printf("%-35s %10d %10d %8.3f %6.2f\n",
			m.Name, m.TotalDwellings, m.Locked.Total(), m.Sigma, m.FrictionFactor)
	}

	for _, scheme := range result.Schemes {
		fmt.Printf("\nArchetypes (%s):\n", scheme.ID())
		fmt.Printf("%-28s %6s %8s %12s\n", "Archetype", "Count", "Avg σ", "Avg tourism")
		for _, s := range friction.Summarize(scheme, result.Report.Municipalities) {
			fmt.Printf("%-28s %6d %8.3f %12.3f\n",
				s.Label, s.Count, s.MeanSigma, s.MeanTourismShare)
		}
	}
}
