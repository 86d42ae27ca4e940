package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"frictioncli/internal/config"
	"frictioncli/internal/friction"
	"frictioncli/internal/geo"
)

// Output file names under the configured output directory.
const (
	FileMunicipalityCSV  = "friction_by_municipality.csv"
	FileMunicipalityJSON = "friction_by_municipality.json"
	FileRegionCSV        = "friction_by_region.csv"
	FileRegionalUnitCSV  = "friction_by_regional_unit.csv"
	FileNationalCSV      = "friction_national.csv"
	FileScenariosCSV     = "unlock_scenarios.csv"
	FileMigrationCSV     = "archetype_migration.csv"
	FileSummaryJSON      = "archetype_summary.json"
	FileMappedCSV        = "mapped_municipalities.csv"
	FileUnresolvedTXT    = "unresolved_municipalities.txt"
)

// Exporter writes the authoritative report tables.
type Exporter struct {
	csv    *CSVWriter
	paths  config.PathsConfig
	logger *slog.Logger
}

// New creates an exporter writing under the configured output directory.
func New(paths config.PathsConfig, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    NewCSVWriter(paths, logger),
		paths:  paths,
		logger: logger,
	}
}

// WriteMunicipalityCSV writes the per-municipality metric table, one
// archetype column per scheme, sorted by sigma descending.
func (e *Exporter) WriteMunicipalityCSV(report *friction.Report, schemes []*friction.Scheme) error {
	headers := []string{
		"code", "name", "total_dwellings", "locked_total",
		"tourism_locked", "market_locked", "other_locked",
		"sigma", "friction_factor",
		"tourism_share", "market_share", "other_share",
	}
	for _, s := range schemes {
		headers = append(headers, "archetype_"+s.ID())
	}

	metrics := sortedBySigma(report.Municipalities)
	records := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		row := []string{
			strconv.Itoa(m.Code),
			m.Name,
			strconv.Itoa(m.TotalDwellings),
			strconv.Itoa(m.Locked.Total()),
			strconv.Itoa(m.Locked.Tourism),
			strconv.Itoa(m.Locked.Market),
			strconv.Itoa(m.Locked.Other),
			formatRatio(m.Sigma),
			formatRatio(m.FrictionFactor),
			formatRatio(m.TourismShare),
			formatRatio(m.MarketShare),
			formatRatio(m.OtherShare),
		}
		for _, s := range schemes {
			row = append(row, s.Classify(m).Label)
		}
		records = append(records, row)
	}
	return e.csv.WriteSimpleCSV(FileMunicipalityCSV, headers, records)
}

// WriteLevelCSV writes a metric table for a higher geographic level
// (region or regional unit), sorted by sigma descending. Archetype
// schemes stay municipal, so the table carries no archetype columns.
func (e *Exporter) WriteLevelCSV(filename string, report *friction.Report) error {
	headers := []string{
		"code", "name", "total_dwellings", "locked_total",
		"tourism_locked", "market_locked", "other_locked",
		"sigma", "friction_factor",
		"tourism_share", "market_share", "other_share",
	}
	metrics := sortedBySigma(report.Municipalities)
	records := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		records = append(records, []string{
			strconv.Itoa(m.Code),
			m.Name,
			strconv.Itoa(m.TotalDwellings),
			strconv.Itoa(m.Locked.Total()),
			strconv.Itoa(m.Locked.Tourism),
			strconv.Itoa(m.Locked.Market),
			strconv.Itoa(m.Locked.Other),
			formatRatio(m.Sigma),
			formatRatio(m.FrictionFactor),
			formatRatio(m.TourismShare),
			formatRatio(m.MarketShare),
			formatRatio(m.OtherShare),
		})
	}
	return e.csv.WriteSimpleCSV(filename, headers, records)
}

// WriteNationalCSV writes the single-row national aggregate.
func (e *Exporter) WriteNationalCSV(report *friction.Report, schemes []*friction.Scheme) error {
	headers := []string{
		"name", "municipalities", "total_dwellings", "locked_total",
		"tourism_locked", "market_locked", "other_locked",
		"sigma", "friction_factor",
	}
	for _, s := range schemes {
		headers = append(headers, "archetype_"+s.ID())
	}

	nat := report.National
	row := []string{
		nat.Name,
		strconv.Itoa(len(report.Municipalities)),
		strconv.Itoa(nat.TotalDwellings),
		strconv.Itoa(nat.Locked.Total()),
		strconv.Itoa(nat.Locked.Tourism),
		strconv.Itoa(nat.Locked.Market),
		strconv.Itoa(nat.Locked.Other),
		formatRatio(nat.Sigma),
		formatRatio(nat.FrictionFactor),
	}
	for _, s := range schemes {
		row = append(row, s.Classify(nat).Label)
	}
	return e.csv.WriteSimpleCSV(FileNationalCSV, headers, [][]string{row})
}

// WriteScenariosCSV writes the per-municipality unlock outcomes.
func (e *Exporter) WriteScenariosCSV(sim *friction.Simulation) error {
	schemeIDs := sim.SchemeIDs()
	headers := []string{
		"name", "sigma_before", "sigma_after",
		"friction_before", "friction_after",
		"price_ratio", "price_change_pct",
	}
	for _, id := range schemeIDs {
		headers = append(headers, "archetype_"+id+"_before", "archetype_"+id+"_after")
	}

	scenarios := make([]friction.Scenario, len(sim.Scenarios))
	copy(scenarios, sim.Scenarios)
	sort.Slice(scenarios, func(i, j int) bool {
		if scenarios[i].PriceChangePct != scenarios[j].PriceChangePct {
			return scenarios[i].PriceChangePct < scenarios[j].PriceChangePct
		}
		return scenarios[i].Name < scenarios[j].Name
	})

	records := make([][]string, 0, len(scenarios))
	for _, sc := range scenarios {
		row := []string{
			sc.Name,
			formatRatio(sc.SigmaBefore),
			formatRatio(sc.SigmaAfter),
			formatRatio(sc.FrictionBefore),
			formatRatio(sc.FrictionAfter),
			formatRatio(sc.PriceRatio),
			strconv.FormatFloat(sc.PriceChangePct, 'f', 2, 64),
		}
		for _, id := range schemeIDs {
			row = append(row, sc.Before[id].Label, sc.After[id].Label)
		}
		records = append(records, row)
	}
	return e.csv.WriteSimpleCSV(FileScenariosCSV, headers, records)
}

// WriteMigrationCSV writes the label cross-tab per scheme.
func (e *Exporter) WriteMigrationCSV(sim *friction.Simulation) error {
	headers := []string{"scheme", "from", "to", "count"}
	var records [][]string
	for _, id := range sim.SchemeIDs() {
		for _, cell := range sim.Migration(id) {
			records = append(records, []string{
				cell.SchemeID, cell.From, cell.To, strconv.Itoa(cell.Count),
			})
		}
	}
	return e.csv.WriteSimpleCSV(FileMigrationCSV, headers, records)
}

// WriteMappedCSV writes the boundary-joined view for the map layer.
func (e *Exporter) WriteMappedCSV(result *geo.Result, metrics map[string]friction.Metric) error {
	headers := []string{
		"name", "boundary_name", "aggregated", "members",
		"centroid_lon", "centroid_lat", "area",
		"sigma", "friction_factor",
	}
	records := make([][]string, 0, len(result.Mapped))
	for _, m := range result.Mapped {
		centroid := m.Feature.Centroid()
		row := []string{
			m.Record.Name,
			m.Feature.Name,
			strconv.FormatBool(m.Aggregated),
			strings.Join(m.Members, "|"),
			strconv.FormatFloat(centroid[0], 'f', 6, 64),
			strconv.FormatFloat(centroid[1], 'f', 6, 64),
			strconv.FormatFloat(m.Feature.Area(), 'f', 6, 64),
		}
		if metric, ok := metrics[m.Record.Name]; ok {
			row = append(row, formatRatio(metric.Sigma), formatRatio(metric.FrictionFactor))
		} else {
			row = append(row, "", "")
		}
		records = append(records, row)
	}
	return e.csv.WriteSimpleCSV(FileMappedCSV, headers, records)
}

// WriteUnresolved writes the names with no boundary match, one per line.
func (e *Exporter) WriteUnresolved(names []string) error {
	path := e.paths.ReportPath(FileUnresolvedTXT)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write unresolved list: %w", err)
	}
	e.logger.Info("wrote unresolved municipality list",
		slog.String("path", path),
		slog.Int("count", len(names)))
	return nil
}

func sortedBySigma(metrics []friction.Metric) []friction.Metric {
	sorted := make([]friction.Metric, len(metrics))
	copy(sorted, metrics)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Sigma != sorted[j].Sigma {
			return sorted[i].Sigma > sorted[j].Sigma
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// formatRatio renders shares and factors with four decimals, matching
// the JSON rounding.
func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
