package friction

import (
	"log/slog"

	"frictioncli/internal/dwellings"
)

// NationalName labels the aggregate metric over all municipalities.
const NationalName = "GREECE"

// Report is the metric engine output: one metric per municipality plus
// the national aggregate.
type Report struct {
	Municipalities []Metric
	National       Metric
}

// Engine computes friction metrics from dwelling-status records.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a metric engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Compute derives per-municipality metrics and the national aggregate.
// The aggregate sums counts before dividing; it is never a mean of the
// per-municipality ratios.
func (e *Engine) Compute(records []dwellings.Record) (*Report, error) {
	report := &Report{Municipalities: make([]Metric, 0, len(records))}

	var natTotal int
	var natLocked Breakdown
	for _, rec := range records {
		m, err := metricFromRecord(rec)
		if err != nil {
			return nil, err
		}
		report.Municipalities = append(report.Municipalities, m)

		natTotal += m.TotalDwellings
		natLocked.Tourism += m.Locked.Tourism
		natLocked.Market += m.Locked.Market
		natLocked.Other += m.Locked.Other
	}

	national, err := newMetric(NationalName, 0, natTotal, natLocked)
	if err != nil {
		return nil, err
	}
	report.National = national

	e.logger.Info("computed friction metrics",
		slog.Int("municipalities", len(report.Municipalities)),
		slog.Float64("national_sigma", report.National.Sigma),
		slog.Float64("national_friction_factor", report.National.FrictionFactor))
	return report, nil
}

func metricFromRecord(rec dwellings.Record) (Metric, error) {
	locked := Breakdown{
		Tourism: rec.Count(dwellings.CategoryVacation) + rec.Count(dwellings.CategorySecondary),
		Market:  rec.Count(dwellings.CategoryForRent) + rec.Count(dwellings.CategoryForSale),
		Other:   rec.Count(dwellings.CategoryOtherLocked),
	}
	return newMetric(rec.Name, rec.Code, rec.TotalDwellings, locked)
}

// newMetric derives the ratios, rejecting sigma outside [0, 1). Sigma is
// the sum of the three shares, so the additive decomposition holds
// exactly, not merely within float error.
func newMetric(name string, code, total int, locked Breakdown) (Metric, error) {
	if total <= 0 || locked.Total() >= total {
		return Metric{}, NewInvalidStockRatioError(name, locked.Total(), total)
	}
	t := float64(total)
	tourism := float64(locked.Tourism) / t
	market := float64(locked.Market) / t
	other := float64(locked.Other) / t
	sigma := tourism + market + other
	return Metric{
		Name:           name,
		Code:           code,
		TotalDwellings: total,
		Locked:         locked,
		Sigma:          sigma,
		FrictionFactor: frictionFactor(sigma),
		TourismShare:   tourism,
		MarketShare:    market,
		OtherShare:     other,
	}, nil
}

// frictionFactor is 1/(1-sigma), defined for sigma in [0, 1).
func frictionFactor(sigma float64) float64 {
	return 1.0 / (1.0 - sigma)
}
