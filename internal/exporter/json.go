package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"frictioncli/internal/friction"
)

// municipalityJSON is one municipality record of the friction JSON.
type municipalityJSON struct {
	Code           int     `json:"code"`
	Name           string  `json:"name"`
	TotalDwellings int     `json:"s_total"`
	LockedTotal    int     `json:"s_empty"`
	TourismLocked  int     `json:"tourism"`
	MarketLocked   int     `json:"market"`
	OtherLocked    int     `json:"other"`
	Sigma          float64 `json:"sigma"`
	FrictionFactor float64 `json:"F"`
}

type nationalJSON struct {
	TotalDwellings int     `json:"s_total"`
	LockedTotal    int     `json:"s_empty"`
	Sigma          float64 `json:"sigma"`
	FrictionFactor float64 `json:"F"`
}

// frictionJSON is the rendering-layer document: a national block plus
// per-municipality records sorted by sigma descending.
type frictionJSON struct {
	Level          string             `json:"level"`
	LevelCode      int                `json:"level_code"`
	ComputedAt     string             `json:"computed_at"`
	RunID          string             `json:"run_id"`
	National       nationalJSON       `json:"national"`
	Municipalities []municipalityJSON `json:"municipalities"`
}

// WriteFrictionJSON writes the friction document consumed by the map
// and chart renderers.
func (e *Exporter) WriteFrictionJSON(report *friction.Report, runID string) error {
	doc := frictionJSON{
		Level:      "Δήμος",
		LevelCode:  5,
		ComputedAt: time.Now().Format(time.RFC3339),
		RunID:      runID,
		National: nationalJSON{
			TotalDwellings: report.National.TotalDwellings,
			LockedTotal:    report.National.Locked.Total(),
			Sigma:          round4(report.National.Sigma),
			FrictionFactor: round4(report.National.FrictionFactor),
		},
	}
	for _, m := range sortedBySigma(report.Municipalities) {
		doc.Municipalities = append(doc.Municipalities, municipalityJSON{
			Code:           m.Code,
			Name:           m.Name,
			TotalDwellings: m.TotalDwellings,
			LockedTotal:    m.Locked.Total(),
			TourismLocked:  m.Locked.Tourism,
			MarketLocked:   m.Locked.Market,
			OtherLocked:    m.Locked.Other,
			Sigma:          round4(m.Sigma),
			FrictionFactor: round4(m.FrictionFactor),
		})
	}
	return e.writeJSON(FileMunicipalityJSON, doc)
}

// WriteSummaryJSON writes per-archetype summary statistics keyed by
// scheme id.
func (e *Exporter) WriteSummaryJSON(schemes []*friction.Scheme, metrics []friction.Metric) error {
	doc := make(map[string][]friction.ArchetypeSummary, len(schemes))
	for _, s := range schemes {
		summaries := friction.Summarize(s, metrics)
		for i := range summaries {
			summaries[i].MeanSigma = round4(summaries[i].MeanSigma)
			summaries[i].MeanTourismShare = round4(summaries[i].MeanTourismShare)
			summaries[i].MeanMarketShare = round4(summaries[i].MeanMarketShare)
		}
		doc[s.ID()] = summaries
	}
	return e.writeJSON(FileSummaryJSON, doc)
}

func (e *Exporter) writeJSON(name string, doc any) error {
	path := e.paths.ReportPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	e.logger.Info("wrote JSON file", slog.String("path", path))
	return nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
