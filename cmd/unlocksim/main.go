// Command unlocksim simulates returning a fraction of locked housing
// stock to the market and reports the resulting friction and price
// changes per municipality.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"frictioncli/internal/app"
	"frictioncli/internal/config"
	"frictioncli/internal/exporter"
	"frictioncli/internal/friction"
	"frictioncli/internal/infrastructure"
)

func main() {
	unlockFraction := flag.Float64("unlock-fraction", -1, "fraction of locked stock to unlock (overrides config)")
	alpha := flag.Float64("alpha", -1, "price elasticity exponent (overrides config)")
	inDir := flag.String("in", "", "input directory with census files (overrides config)")
	outDir := flag.String("out", "", "output directory for report files (overrides config)")
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
	if *unlockFraction >= 0 {
		cfg.Simulation.UnlockFraction = *unlockFraction
	}
	if *alpha > 0 {
		cfg.Simulation.Alpha = *alpha
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}

	result, err := pipeline.RunMetrics(context.Background())
	if err != nil {
		logger.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	params := friction.Params{
		UnlockFraction: cfg.Simulation.UnlockFraction,
		Alpha:          cfg.Simulation.Alpha,
		Demand:         cfg.Simulation.Demand,
		Supply:         cfg.Simulation.Supply,
	}
	sim, err := pipeline.Simulate(result, params)
	if err != nil {
		logger.Error("Simulation failed", "error", err)
		os.Exit(1)
	}

	if err := cfg.Paths.EnsureOutputDir(); err != nil {
		logger.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}
	exp := exporter.New(cfg.Paths, logger)
	if err := exp.WriteScenariosCSV(sim); err != nil {
		logger.Error("Failed to write scenario table", "error", err)
		os.Exit(1)
	}
	if err := exp.WriteMigrationCSV(sim); err != nil {
		logger.Error("Failed to write migration table", "error", err)
		os.Exit(1)
	}

	printSummary(sim, cfg.Simulation.TopN)
}

func printSummary(sim *friction.Simulation, topN int) {
	fmt.Printf("\nUnlock fraction: %.2f%%, alpha: %.2f\n",
		sim.Params.UnlockFraction*100, sim.Params.Alpha)

	drops := make([]friction.Scenario, len(sim.Scenarios))
	copy(drops, sim.Scenarios)
	sort.Slice(drops, func(i, j int) bool {
		return drops[i].PriceChangePct < drops[j].PriceChangePct
	})
	if topN > len(drops) {
		topN = len(drops)
	}

	fmt.Printf("Top %d municipalities by price drop:\n", topN)
	fmt.Printf("%-35s %8s %8s %10s\n", "Name", "σ", "σ'", "ΔP")
	for _, sc := range drops[:topN] {
		fmt.Printf("%-35s %8.3f %8.3f %9.2f%%\n",
			sc.Name, sc.SigmaBefore, sc.SigmaAfter, sc.PriceChangePct)
	}

	migrated := 0
	for _, sc := range sim.Scenarios {
		for _, moved := range sc.Migrated {
			if moved {
				migrated++
				break
			}
		}
	}
	fmt.Printf("\nMunicipalities changing archetype under at least one scheme: %d\n", migrated)
}
