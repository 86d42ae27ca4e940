package geo

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"frictioncli/internal/dwellings"
	"frictioncli/internal/greek"
)

// Mapping binds one statistical record to one boundary feature. For
// merge groups the record is the dwelling-weighted aggregate of the
// member municipalities.
type Mapping struct {
	Feature    Feature
	Record     dwellings.Record
	Aggregated bool
	Members    []string
}

// Result is the reconciled join of the dwelling-status table and the
// boundary dataset. Unresolved municipalities stay in the table (they
// still count toward national aggregates) but carry no boundary.
type Result struct {
	Mapped []Mapping
	// Unresolved lists municipality names with no boundary match,
	// sorted for stable reporting.
	Unresolved []string
}

// Reconciler joins statistical municipality names to boundary feature
// names: exact normalized match first, then the override table.
type Reconciler struct {
	bounds    *BoundarySet
	overrides *Overrides
	logger    *slog.Logger
}

// NewReconciler creates a reconciler. A nil overrides table means the
// built-in census-to-GADM table.
func NewReconciler(bounds *BoundarySet, overrides *Overrides, logger *slog.Logger) *Reconciler {
	if overrides == nil {
		overrides = DefaultOverrides()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{bounds: bounds, overrides: overrides, logger: logger}
}

// Reconcile maps every record of the table onto a boundary feature.
// Every mapped record traces back to input rows; a boundary claimed by
// two different municipalities is an ambiguity, not a silent overwrite.
func (r *Reconciler) Reconcile(table *dwellings.Table) (*Result, error) {
	renameByRaw := make(map[string]string, len(r.overrides.Rename))
	for boundary, raw := range r.overrides.Rename {
		renameByRaw[greek.MatchKey(raw)] = boundary
	}
	mergeByRaw := make(map[string]string)
	for boundary, group := range r.overrides.Merge {
		for _, raw := range group {
			mergeByRaw[greek.MatchKey(raw)] = boundary
		}
	}

	result := &Result{}
	claimed := make(map[string]string)
	groups := make(map[string][]dwellings.Record)

	for _, rec := range table.Records() {
		key := rec.Key()

		if boundary, ok := mergeByRaw[key]; ok {
			groups[boundary] = append(groups[boundary], rec)
			continue
		}

		feat, ok := r.bounds.Lookup(rec.Name)
		if !ok {
			if boundary, override := renameByRaw[key]; override {
				feat, ok = r.bounds.Lookup(boundary)
			}
		}
		if !ok {
			result.Unresolved = append(result.Unresolved, rec.Name)
			continue
		}

		boundaryKey := greek.MatchKey(feat.Name)
		if prev, dup := claimed[boundaryKey]; dup {
			return nil, NewOverrideAmbiguityError(r.bounds.Source(), feat.Name, []string{prev, rec.Name})
		}
		claimed[boundaryKey] = rec.Name
		result.Mapped = append(result.Mapped, Mapping{Feature: feat, Record: rec})
	}

	if err := r.appendMergeGroups(table, groups, claimed, result); err != nil {
		return nil, err
	}

	sort.Strings(result.Unresolved)
	for _, name := range result.Unresolved {
		r.logger.Warn("municipality has no boundary match", slog.String("name", name))
	}
	r.logger.Info("reconciled municipalities against boundaries",
		slog.Int("mapped", len(result.Mapped)),
		slog.Int("unresolved", len(result.Unresolved)),
		slog.Int("boundaries", r.bounds.Len()))
	return result, nil
}

// appendMergeGroups aggregates each merge group into one record bound
// to its boundary feature. Counts are summed, so the resulting
// locked-stock share is the dwelling-weighted mean of the members.
func (r *Reconciler) appendMergeGroups(table *dwellings.Table, groups map[string][]dwellings.Record, claimed map[string]string, result *Result) error {
	boundaries := make([]string, 0, len(groups))
	for boundary := range groups {
		boundaries = append(boundaries, boundary)
	}
	sort.Strings(boundaries)

	for _, boundary := range boundaries {
		members := groups[boundary]
		feat, ok := r.bounds.Lookup(boundary)
		if !ok {
			names := make([]string, len(members))
			for i, m := range members {
				names[i] = m.Name
			}
			sort.Strings(names)
			result.Unresolved = append(result.Unresolved, names...)
			continue
		}

		agg := dwellings.Record{
			Name:   fmt.Sprintf("%s (agg)", boundary),
			Counts: make(map[dwellings.Category]int),
		}
		names := make([]string, 0, len(members))
		var raws []string
		for _, m := range members {
			// Members must come from the source table, never invented.
			if _, ok := table.Lookup(m.Name); !ok {
				return fmt.Errorf("merge group %s references unknown municipality %q", boundary, m.Name)
			}
			agg.TotalDwellings += m.TotalDwellings
			for cat, n := range m.Counts {
				agg.Counts[cat] += n
			}
			names = append(names, m.Name)
			raws = append(raws, m.RawName)
		}
		agg.RawName = strings.Join(raws, " + ")
		sort.Strings(names)

		boundaryKey := greek.MatchKey(feat.Name)
		if prev, dup := claimed[boundaryKey]; dup {
			return NewOverrideAmbiguityError(r.bounds.Source(), feat.Name, append([]string{prev}, names...))
		}
		claimed[boundaryKey] = agg.Name
		result.Mapped = append(result.Mapped, Mapping{
			Feature:    feat,
			Record:     agg,
			Aggregated: true,
			Members:    names,
		})
	}
	return nil
}
