package dwellings

import (
	"fmt"
	"strings"

	"frictioncli/internal/greek"
)

// Category identifies a canonical dwelling-status category from the
// census dwelling-status tables.
type Category string

const (
	// CategoryForRent counts empty dwellings offered on the rental market.
	CategoryForRent Category = "for_rent"
	// CategoryForSale counts empty dwellings offered for sale.
	CategoryForSale Category = "for_sale"
	// CategoryVacation counts vacation homes.
	CategoryVacation Category = "vacation"
	// CategorySecondary counts secondary residences.
	CategorySecondary Category = "secondary"
	// CategoryOtherLocked counts dwellings empty for any other reason.
	CategoryOtherLocked Category = "other_locked"
	// CategoryOccupied counts dwellings in normal use.
	CategoryOccupied Category = "occupied"
)

// LockedCategories lists the categories that make up locked stock, in
// output column order. Occupied dwellings are the complement.
func LockedCategories() []Category {
	return []Category{
		CategoryForRent,
		CategoryForSale,
		CategoryVacation,
		CategorySecondary,
		CategoryOtherLocked,
	}
}

// Record is one municipality row of the canonical dwelling-status table.
type Record struct {
	// Code is the statistical agency's numeric municipality code.
	Code int
	// RawName is the municipality name exactly as the source gives it.
	RawName string
	// Name is the display name with the administrative prefix stripped.
	Name string
	// TotalDwellings is the total count of normal dwellings.
	TotalDwellings int
	// Counts holds the per-category dwelling counts. Categories missing
	// from every parsed source are zero.
	Counts map[Category]int
}

// Count returns the dwelling count for a category, zero if absent.
func (r Record) Count(c Category) int {
	return r.Counts[c]
}

// LockedTotal sums the locked-stock categories.
func (r Record) LockedTotal() int {
	total := 0
	for _, c := range LockedCategories() {
		total += r.Counts[c]
	}
	return total
}

// Key returns the normalized name key records are merged and joined on.
func (r Record) Key() string {
	return greek.MatchKey(r.Name)
}

// Validate checks the per-record invariants from the table contract.
func (r Record) Validate() error {
	if r.TotalDwellings <= 0 {
		return fmt.Errorf("municipality %q: non-positive dwelling total %d", r.Name, r.TotalDwellings)
	}
	sum := 0
	for c, n := range r.Counts {
		if n < 0 {
			return fmt.Errorf("municipality %q: negative count %d for category %s", r.Name, n, c)
		}
		sum += n
	}
	if sum > r.TotalDwellings {
		return fmt.Errorf("municipality %q: category counts sum to %d, exceeding total %d", r.Name, sum, r.TotalDwellings)
	}
	return nil
}

// Table is the canonical dwelling-status table: one row per
// municipality, deduplicated by normalized name.
type Table struct {
	records []Record
	index   map[string]int
}

// NewTable builds an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Records returns the rows in insertion order.
func (t *Table) Records() []Record {
	return t.records
}

// Len returns the number of municipalities in the table.
func (t *Table) Len() int {
	return len(t.records)
}

// Lookup finds a record by name (any script, accents ignored).
func (t *Table) Lookup(name string) (Record, bool) {
	i, ok := t.index[greek.MatchKey(name)]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// municipalityPrefix is the administrative prefix the statistical source
// puts in front of every municipality name.
const municipalityPrefix = "ΔΗΜΟΣ "

// CleanName strips the administrative prefix and surrounding space.
func CleanName(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), municipalityPrefix))
}
