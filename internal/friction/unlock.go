package friction

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Params configures an unlock simulation. The price model is
// P = (D * F / S)^alpha with demand D and supply S held fixed, so the
// price ratio after unlocking reduces to (F'/F)^alpha.
type Params struct {
	// UnlockFraction is the share u of locked stock returned to the
	// market, applied proportionally to every municipality.
	UnlockFraction float64
	// Alpha is the price elasticity exponent.
	Alpha float64
	// Demand and Supply are the fixed pressure terms of the price model.
	Demand float64
	Supply float64
}

// DefaultParams returns the baseline simulation: unlock one fifth of
// locked stock at elasticity 1.4.
func DefaultParams() Params {
	return Params{UnlockFraction: 0.20, Alpha: 1.4, Demand: 1, Supply: 1}
}

// Validate checks the parameter domains.
func (p Params) Validate() error {
	if p.UnlockFraction < 0 || p.UnlockFraction > 1 {
		return &MetricError{Type: ErrorTypeBadParams,
			Message: fmt.Sprintf("unlock fraction %v outside [0, 1]", p.UnlockFraction)}
	}
	if p.Alpha <= 0 {
		return &MetricError{Type: ErrorTypeBadParams,
			Message: fmt.Sprintf("alpha %v not positive", p.Alpha)}
	}
	if p.Demand <= 0 || p.Supply <= 0 {
		return &MetricError{Type: ErrorTypeBadParams,
			Message: "demand and supply must be positive"}
	}
	return nil
}

// Scenario is the simulated outcome for one municipality.
type Scenario struct {
	Name string

	SigmaBefore    float64
	SigmaAfter     float64
	FrictionBefore float64
	FrictionAfter  float64

	PriceIndexBefore float64
	PriceIndexAfter  float64
	// PriceRatio is PriceIndexAfter / PriceIndexBefore, equal to
	// (F'/F)^alpha with D and S fixed.
	PriceRatio     float64
	PriceChangePct float64

	// Before and After hold the archetype assignment per scheme id.
	Before map[string]Assignment
	After  map[string]Assignment
	// Migrated flags the schemes under which the label changed.
	Migrated map[string]bool
}

// MigrationCell is one cross-tab entry: municipalities moving from one
// label to another under a scheme.
type MigrationCell struct {
	SchemeID string
	From     string
	To       string
	Count    int
}

// Simulation is the full unlock result set.
type Simulation struct {
	Params    Params
	Scenarios []Scenario
	migration map[string]map[[2]string]int
	schemes   []*Scheme
}

// Simulator runs unlock scenarios over computed metrics.
type Simulator struct {
	schemes []*Scheme
	logger  *slog.Logger
}

// NewSimulator creates a simulator classifying under the given schemes.
// Nil means the built-in schemes.
func NewSimulator(schemes []*Scheme, logger *slog.Logger) *Simulator {
	if schemes == nil {
		schemes = BuiltinSchemes()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{schemes: schemes, logger: logger}
}

// Simulate reduces every municipality's sigma proportionally and
// reclassifies under the same schemes. u = 0 leaves every metric and
// label untouched.
func (s *Simulator) Simulate(metrics []Metric, p Params) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sim := &Simulation{
		Params:    p,
		Scenarios: make([]Scenario, 0, len(metrics)),
		migration: make(map[string]map[[2]string]int, len(s.schemes)),
		schemes:   s.schemes,
	}
	for _, scheme := range s.schemes {
		sim.migration[scheme.ID()] = make(map[[2]string]int)
	}

	for _, m := range metrics {
		sc := s.simulateOne(m, p, sim)
		sim.Scenarios = append(sim.Scenarios, sc)
	}

	s.logger.Info("simulated unlock scenario",
		slog.Float64("unlock_fraction", p.UnlockFraction),
		slog.Float64("alpha", p.Alpha),
		slog.Int("municipalities", len(sim.Scenarios)))
	return sim, nil
}

func (s *Simulator) simulateOne(m Metric, p Params, sim *Simulation) Scenario {
	sigmaAfter := m.Sigma * (1 - p.UnlockFraction)
	fBefore := m.FrictionFactor
	fAfter := frictionFactor(sigmaAfter)

	// Unlocking scales every locked group equally, so the tourism share
	// used by gated buckets shrinks by the same factor.
	tourismAfter := m.TourismShare * (1 - p.UnlockFraction)

	sc := Scenario{
		Name:             m.Name,
		SigmaBefore:      m.Sigma,
		SigmaAfter:       sigmaAfter,
		FrictionBefore:   fBefore,
		FrictionAfter:    fAfter,
		PriceIndexBefore: priceIndex(p, fBefore),
		PriceIndexAfter:  priceIndex(p, fAfter),
		PriceRatio:       math.Pow(fAfter/fBefore, p.Alpha),
		Before:           make(map[string]Assignment, len(s.schemes)),
		After:            make(map[string]Assignment, len(s.schemes)),
		Migrated:         make(map[string]bool, len(s.schemes)),
	}
	sc.PriceChangePct = (sc.PriceRatio - 1) * 100

	for _, scheme := range s.schemes {
		before := scheme.Classify(m)
		after := scheme.classify(sigmaAfter, tourismAfter)
		sc.Before[scheme.ID()] = before
		sc.After[scheme.ID()] = after
		sc.Migrated[scheme.ID()] = before.Label != after.Label
		sim.migration[scheme.ID()][[2]string{before.Label, after.Label}]++
	}
	return sc
}

// priceIndex evaluates the price model (D * F / S)^alpha.
func priceIndex(p Params, frictionFactor float64) float64 {
	return math.Pow(p.Demand*frictionFactor/p.Supply, p.Alpha)
}

// Migration returns the label cross-tab for one scheme, sorted by the
// scheme's label order for stable export.
func (s *Simulation) Migration(schemeID string) []MigrationCell {
	counts, ok := s.migration[schemeID]
	if !ok {
		return nil
	}
	order := make(map[string]int)
	for _, scheme := range s.schemes {
		if scheme.ID() == schemeID {
			for i, label := range scheme.Labels() {
				order[label] = i
			}
		}
	}
	cells := make([]MigrationCell, 0, len(counts))
	for pair, n := range counts {
		cells = append(cells, MigrationCell{SchemeID: schemeID, From: pair[0], To: pair[1], Count: n})
	}
	sort.Slice(cells, func(i, j int) bool {
		if order[cells[i].From] != order[cells[j].From] {
			return order[cells[i].From] < order[cells[j].From]
		}
		return order[cells[i].To] < order[cells[j].To]
	})
	return cells
}

// SchemeIDs returns the simulated scheme identifiers in order.
func (s *Simulation) SchemeIDs() []string {
	ids := make([]string, len(s.schemes))
	for i, scheme := range s.schemes {
		ids[i] = scheme.ID()
	}
	return ids
}
