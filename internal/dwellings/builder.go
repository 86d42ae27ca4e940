package dwellings

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"frictioncli/internal/greek"
)

// Geographic hierarchy levels used by the statistical source. Regions
// contain regional units, which contain municipalities.
const (
	LevelRegion       = 3
	LevelRegionalUnit = 4
	LevelMunicipality = 5
)

// headerRows is the number of merged header rows in the census workbook.
const headerRows = 4

// headerMarker is the first-column text that opens the header block of
// the census workbook.
const headerMarker = "Γεωγραφικό επίπεδο"

// Builder parses raw dwelling-status sources into canonical tables and
// merges them into one table keyed by municipality.
type Builder struct {
	vocab  *Vocabulary
	logger *slog.Logger
}

// NewBuilder creates a table builder using the given header vocabulary.
func NewBuilder(vocab *Vocabulary, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{vocab: vocab, logger: logger}
}

// ParseFlat reads a converted flat (CSV) dwelling-status file, keeping
// municipality-level rows.
func (b *Builder) ParseFlat(path string) (*Table, error) {
	return b.ParseFlatLevel(path, LevelMunicipality)
}

// ParseFlatLevel reads a flat dwelling-status file at a chosen
// geographic level. The same source file carries region, regional-unit
// and municipality rows; rows at other levels are skipped.
func (b *Builder) ParseFlatLevel(path string, level int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewMissingInputError(path, err)
		}
		return nil, fmt.Errorf("open flat file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row of %s: %w", path, err)
	}

	positions, err := b.vocab.Resolve(path, header, b.logger)
	if err != nil {
		return nil, err
	}

	table := NewTable()
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d of %s: %w", rowNum+1, path, err)
		}
		rowNum++
		if err := b.addRow(table, path, row, positions, level); err != nil {
			return nil, err
		}
	}

	b.logger.Info("parsed flat dwelling-status file",
		slog.String("path", path),
		slog.Int("level", level),
		slog.Int("rows", table.Len()))
	return table, nil
}

// ParseWorkbook reads a census dwelling-status workbook (.xlsx). The
// header block spans several merged rows; fragments are joined per
// column before vocabulary resolution, mirroring the published layout.
func (b *Builder) ParseWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewMissingInputError(path, err)
		}
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, sheet, err := findStatusSheet(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	headerStart := -1
	for i, row := range rows {
		if len(row) > 0 && greek.HeaderKey(row[0]) == greek.HeaderKey(headerMarker) {
			headerStart = i
			break
		}
	}
	if headerStart < 0 || headerStart+headerRows > len(rows) {
		return nil, NewMissingColumnError(path, []string{headerMarker})
	}

	headers := joinHeaderRows(rows[headerStart : headerStart+headerRows])
	positions, err := b.vocab.Resolve(path, headers, b.logger)
	if err != nil {
		return nil, err
	}

	b.logger.Info("found dwelling-status header block",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("header_row", headerStart))

	table := NewTable()
	for _, row := range rows[headerStart+headerRows:] {
		if isEmptyRow(row) {
			continue
		}
		if err := b.addRow(table, path, row, positions, LevelMunicipality); err != nil {
			return nil, err
		}
	}

	b.logger.Info("parsed dwelling-status workbook",
		slog.String("path", path),
		slog.Int("municipalities", table.Len()))
	return table, nil
}

// addRow converts one source row to a Record and inserts it, skipping
// rows at other geographic levels and dropping zero-dwelling rows.
func (b *Builder) addRow(table *Table, source string, row []string, positions map[column]int, wantLevel int) error {
	level, ok := cellInt(row, positions[colLevel])
	if !ok || level != wantLevel {
		return nil
	}

	rawName := cellString(row, positions[colName])
	if rawName == "" {
		return nil
	}

	code, _ := cellInt(row, positions[colCode])
	total, _ := cellInt(row, positions[colTotal])

	rec := Record{
		Code:           code,
		RawName:        rawName,
		Name:           CleanName(rawName),
		TotalDwellings: total,
		Counts:         make(map[Category]int, len(categoryColumns)),
	}
	for col, cat := range categoryColumns {
		idx, ok := positions[col]
		if !ok {
			continue
		}
		if n, ok := cellInt(row, idx); ok {
			rec.Counts[cat] = n
		}
	}
	// Occupied is the complement when the source does not carry it.
	if _, ok := positions[colOccupied]; !ok {
		rec.Counts[CategoryOccupied] = total - rec.LockedTotal()
	}

	if rec.TotalDwellings <= 0 {
		b.logger.Warn("dropping zero-dwelling row",
			slog.String("source", source),
			slog.String("name", rec.Name))
		return nil
	}
	if err := rec.Validate(); err != nil {
		return &BuildError{
			Type:     ErrorTypeBadRecord,
			Source:   source,
			Subjects: []string{rec.Name},
			Message:  "row violates table invariants",
			Cause:    err,
		}
	}

	return table.Insert(source, rec)
}

// Insert adds a record, collapsing exact duplicates and rejecting
// conflicting ones.
func (t *Table) Insert(source string, rec Record) error {
	key := rec.Key()
	if i, ok := t.index[key]; ok {
		if recordsEqual(t.records[i], rec) {
			return nil
		}
		return NewDuplicateKeyError(source, rec.Name)
	}
	t.index[key] = len(t.records)
	t.records = append(t.records, rec)
	return nil
}

// Merge unions tables on municipality name. Categories missing from one
// source are taken from another; a municipality carried by both sources
// with conflicting counts for the same category is a conflict.
func (b *Builder) Merge(tables ...*Table) (*Table, error) {
	merged := NewTable()
	for _, src := range tables {
		for _, rec := range src.Records() {
			key := rec.Key()
			i, ok := merged.index[key]
			if !ok {
				merged.index[key] = len(merged.records)
				merged.records = append(merged.records, cloneRecord(rec))
				continue
			}
			if err := mergeInto(&merged.records[i], rec); err != nil {
				return nil, err
			}
		}
	}
	b.logger.Info("merged dwelling-status sources",
		slog.Int("sources", len(tables)),
		slog.Int("municipalities", merged.Len()))
	return merged, nil
}

// mergeInto folds src into dst, failing on conflicting counts.
func mergeInto(dst *Record, src Record) error {
	if dst.TotalDwellings != src.TotalDwellings {
		return NewDuplicateKeyError(src.RawName, src.Name)
	}
	for cat, n := range src.Counts {
		if existing, ok := dst.Counts[cat]; ok {
			if existing != n {
				return NewDuplicateKeyError(src.RawName, src.Name)
			}
			continue
		}
		dst.Counts[cat] = n
	}
	if dst.Code == 0 {
		dst.Code = src.Code
	}
	return nil
}

func cloneRecord(rec Record) Record {
	counts := make(map[Category]int, len(rec.Counts))
	for c, n := range rec.Counts {
		counts[c] = n
	}
	rec.Counts = counts
	return rec
}

func recordsEqual(a, b Record) bool {
	if a.TotalDwellings != b.TotalDwellings || len(a.Counts) != len(b.Counts) {
		return false
	}
	for c, n := range a.Counts {
		if b.Counts[c] != n {
			return false
		}
	}
	return true
}

// findStatusSheet locates the sheet carrying the dwelling-status table
// by scanning for the header marker in the first column.
func findStatusSheet(f *excelize.File) ([][]string, string, error) {
	marker := greek.HeaderKey(headerMarker)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		for _, row := range rows {
			if len(row) > 0 && greek.HeaderKey(row[0]) == marker {
				return rows, name, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no sheet contains the %q header block", headerMarker)
}

// joinHeaderRows merges a block of header rows into one header per
// column, joining non-empty fragments top to bottom.
func joinHeaderRows(block [][]string) []string {
	width := 0
	for _, row := range block {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := make([]string, width)
	for j := 0; j < width; j++ {
		var parts []string
		for _, row := range block {
			if j < len(row) {
				if s := strings.TrimSpace(row[j]); s != "" {
					parts = append(parts, s)
				}
			}
		}
		headers[j] = strings.Join(parts, " ")
	}
	return headers
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellString(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// cellInt parses a numeric cell, tolerating thousands separators and
// decimal renderings of integers.
func cellInt(row []string, idx int) (int, bool) {
	s := cellString(row, idx)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int(fl), true
	}
	return 0, false
}
