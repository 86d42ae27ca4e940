// Package app wires the pipeline stages: input discovery, table
// building, boundary reconciliation, metric computation, unlock
// simulation and export.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"frictioncli/internal/config"
	"frictioncli/internal/dwellings"
	"frictioncli/internal/exporter"
	"frictioncli/internal/files"
	"frictioncli/internal/friction"
	"frictioncli/internal/geo"
	"frictioncli/internal/infrastructure"
)

// Result carries everything one pipeline run produced.
type Result struct {
	RunID   string
	Table   *dwellings.Table
	Report  *friction.Report
	Schemes []*friction.Scheme
	// Regions and RegionalUnits hold the level-3 and level-4 metric
	// reports when the flat source carries those rows, nil otherwise.
	Regions       *friction.Report
	RegionalUnits *friction.Report
	Geo           *geo.Result
	Simulation    *friction.Simulation
}

// Pipeline runs the friction computation end to end.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewPipeline creates a pipeline from configuration.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := schemesFromConfig(cfg); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// Run executes the full pipeline: table, boundaries, metrics and the
// configured unlock simulation.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result, err := p.RunMetrics(ctx)
	if err != nil {
		return nil, err
	}
	ctx = infrastructure.WithRunID(ctx, result.RunID)

	geoResult, err := p.reconcile(ctx, result.Table)
	if err != nil {
		return nil, err
	}
	result.Geo = geoResult

	sim, err := p.simulate(result)
	if err != nil {
		return nil, err
	}
	result.Simulation = sim
	return result, nil
}

// RunMetrics executes the pipeline up to the metric report, without
// touching the boundary dataset.
func (p *Pipeline) RunMetrics(ctx context.Context) (*Result, error) {
	runID := infrastructure.NewRunID()
	ctx = infrastructure.WithRunID(ctx, runID)
	p.logger.InfoContext(ctx, "starting pipeline run", slog.String("run_id", runID))

	schemes, err := schemesFromConfig(p.cfg)
	if err != nil {
		return nil, err
	}

	inputs, err := p.resolveInputs()
	if err != nil {
		return nil, err
	}

	table, err := p.buildTable(inputs)
	if err != nil {
		return nil, err
	}

	report, err := friction.NewEngine(p.logger).Compute(table.Records())
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:   runID,
		Table:   table,
		Report:  report,
		Schemes: schemes,
	}

	// Region and regional-unit rows only exist in the flat source.
	if inputs.FlatFile != "" {
		if result.Regions, err = p.levelReport(inputs.FlatFile, dwellings.LevelRegion); err != nil {
			return nil, err
		}
		if result.RegionalUnits, err = p.levelReport(inputs.FlatFile, dwellings.LevelRegionalUnit); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// levelReport computes metrics over the flat source at a higher
// geographic level. A source without rows at that level yields nil.
func (p *Pipeline) levelReport(path string, level int) (*friction.Report, error) {
	builder := dwellings.NewBuilder(dwellings.DefaultVocabulary(), p.logger)
	table, err := builder.ParseFlatLevel(path, level)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, nil
	}
	return friction.NewEngine(p.logger).Compute(table.Records())
}

// Simulate runs an unlock scenario over an existing metric report with
// explicit parameters, bypassing the configured ones.
func (p *Pipeline) Simulate(result *Result, params friction.Params) (*friction.Simulation, error) {
	return friction.NewSimulator(result.Schemes, p.logger).
		Simulate(result.Report.Municipalities, params)
}

func (p *Pipeline) simulate(result *Result) (*friction.Simulation, error) {
	sim := p.cfg.Simulation
	return p.Simulate(result, friction.Params{
		UnlockFraction: sim.UnlockFraction,
		Alpha:          sim.Alpha,
		Demand:         sim.Demand,
		Supply:         sim.Supply,
	})
}

// resolveInputs uses the configured file names when they exist and
// falls back to discovery over the input directory.
func (p *Pipeline) resolveInputs() (*files.Inputs, error) {
	paths := p.cfg.Paths
	in := &files.Inputs{
		FlatFile:   existingPath(paths.InputPath(paths.FlatFile)),
		Workbook:   existingPath(paths.InputPath(paths.WorkbookFile)),
		Boundaries: existingPath(paths.InputPath(paths.BoundariesFile)),
		Overrides:  existingPath(paths.InputPath(paths.OverridesFile)),
	}
	if in.FlatFile != "" || in.Workbook != "" {
		return in, nil
	}
	return files.NewDiscovery(paths.InputDir, p.logger).ResolveInputs()
}

func (p *Pipeline) buildTable(inputs *files.Inputs) (*dwellings.Table, error) {
	builder := dwellings.NewBuilder(dwellings.DefaultVocabulary(), p.logger)

	var tables []*dwellings.Table
	if inputs.FlatFile != "" {
		table, err := builder.ParseFlat(inputs.FlatFile)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	if inputs.Workbook != "" {
		table, err := builder.ParseWorkbook(inputs.Workbook)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no dwelling-status source configured or discovered")
	}
	return builder.Merge(tables...)
}

func (p *Pipeline) reconcile(ctx context.Context, table *dwellings.Table) (*geo.Result, error) {
	inputs, err := p.resolveInputs()
	if err != nil {
		return nil, err
	}
	if inputs.Boundaries == "" {
		return nil, fmt.Errorf("no boundary file configured or discovered")
	}

	bounds, err := geo.LoadBoundaries(inputs.Boundaries, geo.BoundaryOptions{
		NameProperty: p.cfg.Boundaries.NameProperty,
		Excluded:     p.cfg.Boundaries.Excluded,
	}, p.logger)
	if err != nil {
		return nil, err
	}

	var overrides *geo.Overrides
	if inputs.Overrides != "" {
		overrides, err = geo.LoadOverrides(inputs.Overrides)
		if err != nil {
			return nil, err
		}
	}

	return geo.NewReconciler(bounds, overrides, p.logger).Reconcile(table)
}

// Export writes every report table the run produced.
func (p *Pipeline) Export(result *Result) error {
	if err := p.cfg.Paths.EnsureOutputDir(); err != nil {
		return err
	}
	exp := exporter.New(p.cfg.Paths, p.logger)

	if err := exp.WriteMunicipalityCSV(result.Report, result.Schemes); err != nil {
		return err
	}
	if err := exp.WriteFrictionJSON(result.Report, result.RunID); err != nil {
		return err
	}
	if err := exp.WriteNationalCSV(result.Report, result.Schemes); err != nil {
		return err
	}
	if err := exp.WriteSummaryJSON(result.Schemes, result.Report.Municipalities); err != nil {
		return err
	}

	if result.Regions != nil {
		if err := exp.WriteLevelCSV(exporter.FileRegionCSV, result.Regions); err != nil {
			return err
		}
	}
	if result.RegionalUnits != nil {
		if err := exp.WriteLevelCSV(exporter.FileRegionalUnitCSV, result.RegionalUnits); err != nil {
			return err
		}
	}

	if result.Simulation != nil {
		if err := exp.WriteScenariosCSV(result.Simulation); err != nil {
			return err
		}
		if err := exp.WriteMigrationCSV(result.Simulation); err != nil {
			return err
		}
	}

	if result.Geo != nil {
		metrics, err := p.mappedMetrics(result.Geo)
		if err != nil {
			return err
		}
		if err := exp.WriteMappedCSV(result.Geo, metrics); err != nil {
			return err
		}
		if err := exp.WriteUnresolved(result.Geo.Unresolved); err != nil {
			return err
		}
	}
	return nil
}

// mappedMetrics computes metrics for the boundary-joined records; merge
// groups get the metric of their aggregate row.
func (p *Pipeline) mappedMetrics(geoResult *geo.Result) (map[string]friction.Metric, error) {
	records := make([]dwellings.Record, 0, len(geoResult.Mapped))
	for _, m := range geoResult.Mapped {
		records = append(records, m.Record)
	}
	report, err := friction.NewEngine(p.logger).Compute(records)
	if err != nil {
		return nil, err
	}
	metrics := make(map[string]friction.Metric, len(report.Municipalities))
	for _, m := range report.Municipalities {
		metrics[m.Name] = m
	}
	return metrics, nil
}

func schemesFromConfig(cfg *config.Config) ([]*friction.Scheme, error) {
	schemes := make([]*friction.Scheme, 0, len(cfg.Schemes.Enabled))
	for _, id := range cfg.Schemes.Enabled {
		s, err := friction.SchemeByID(id)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}
	return schemes, nil
}

func existingPath(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
