package dwellings

import (
	"log/slog"

	"frictioncli/internal/greek"
)

// column identifies a canonical column of the dwelling-status table.
// It is a superset of Category: the structural columns (geographic
// level, code, name, totals) are not status categories themselves.
type column string

const (
	colLevel    column = "level"
	colCode     column = "code"
	colName     column = "name"
	colTotal    column = "total"
	colOccupied column = "occupied"
	colEmpty    column = "empty_total"

	colForRent     column = "for_rent"
	colForSale     column = "for_sale"
	colVacation    column = "vacation"
	colSecondary   column = "secondary"
	colOtherLocked column = "other_locked"
)

// categoryColumns maps status-category columns to their Category.
var categoryColumns = map[column]Category{
	colForRent:     CategoryForRent,
	colForSale:     CategoryForSale,
	colVacation:    CategoryVacation,
	colSecondary:   CategorySecondary,
	colOtherLocked: CategoryOtherLocked,
	colOccupied:    CategoryOccupied,
}

// requiredColumns must all resolve for a source file to be usable.
var requiredColumns = []column{
	colLevel, colCode, colName, colTotal,
	colForRent, colForSale, colVacation, colSecondary, colOtherLocked,
}

// Vocabulary is the hand-maintained dictionary from source header text to
// canonical columns. Header keys are accent-folded and space-stripped, so
// the multi-row merged headers of the census workbook and the single-row
// headers of the converted flat files resolve through the same entries.
type Vocabulary struct {
	mapped  map[string]column
	ignored map[string]struct{}
}

// DefaultVocabulary covers the 2021 census dwelling-status publications
// (municipality-level flat file and the regional-unit workbook).
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		mapped:  make(map[string]column),
		ignored: make(map[string]struct{}),
	}

	add := func(col column, headers ...string) {
		for _, h := range headers {
			v.mapped[greek.HeaderKey(h)] = col
		}
	}

	add(colLevel, "Γεωγραφικό επίπεδο", "level")
	add(colCode, "Κωδικός", "code")
	add(colName, "Περιγραφή", "name")
	add(colTotal,
		"Κανονικές κατοικίες Σύνολο",
		"Σύνολο κανονικών κατοικιών",
		"s_total")
	add(colOccupied,
		"Κατοικούμενες",
		"Κατοικούμενες κανονικές κατοικίες",
		"s_occupied")
	add(colEmpty,
		"Κενές Σύνολο",
		"Κενές κανονικές κατοικίες Σύνολο",
		"s_empty")
	add(colForRent, "Κενές Προς ενοικίαση", "Προς ενοικίαση", "for_rent")
	add(colForSale, "Κενές Προς πώληση", "Προς πώληση", "for_sale")
	add(colVacation, "Κενές Εξοχική κατοικία", "Εξοχική κατοικία", "vacation")
	add(colSecondary, "Κενές Δευτερεύουσα κατοικία", "Δευτερεύουσα κατοικία", "secondary")
	add(colOtherLocked, "Κενές Για άλλο λόγο", "Για άλλο λόγο", "other_reason")

	// Known but unused columns: recognized so they are dropped with a
	// warning instead of tripping the schema check.
	ignore := func(headers ...string) {
		for _, h := range headers {
			v.ignored[greek.HeaderKey(h)] = struct{}{}
		}
	}
	ignore(
		"Σύνολο κατοικιών",
		"total_all",
		"Μη κανονικές κατοικίες",
		"non_normal",
		"Συλλογικά καταλύματα",
	)

	return v
}

// Resolve maps the header row of a source file onto canonical columns.
// Headers outside the vocabulary (neither mapped nor ignorable) are a
// SchemaMismatch: the builder never guesses which bucket a column feeds.
// Recognized-but-unused headers are dropped with a warning. A missing
// required column is also a SchemaMismatch, naming the column.
func (v *Vocabulary) Resolve(source string, headers []string, logger *slog.Logger) (map[column]int, error) {
	positions := make(map[column]int, len(headers))
	var unknown []string

	for i, h := range headers {
		key := greek.HeaderKey(h)
		if key == "" {
			continue
		}
		if col, ok := v.mapped[key]; ok {
			if _, dup := positions[col]; !dup {
				positions[col] = i
			}
			continue
		}
		if _, ok := v.ignored[key]; ok {
			logger.Warn("dropping unmapped source column",
				slog.String("source", source),
				slog.String("header", h))
			continue
		}
		unknown = append(unknown, h)
	}

	if len(unknown) > 0 {
		return nil, NewSchemaMismatchError(source, unknown)
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := positions[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, NewMissingColumnError(source, missing)
	}

	return positions, nil
}
