package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frictioncli/internal/config"
	"frictioncli/internal/dwellings"
	"frictioncli/internal/friction"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	return New(config.PathsConfig{OutputDir: dir}, testLogger()), dir
}

func testReport(t *testing.T) *friction.Report {
	t.Helper()
	rec := func(name string, total, vacation, forRent int) dwellings.Record {
		return dwellings.Record{
			Name:           name,
			TotalDwellings: total,
			Counts: map[dwellings.Category]int{
				dwellings.CategoryVacation: vacation,
				dwellings.CategoryForRent:  forRent,
			},
		}
	}
	report, err := friction.NewEngine(testLogger()).Compute([]dwellings.Record{
		rec("ΑΘΗΝΑΙΩΝ", 1000, 50, 50),   // sigma 0.10
		rec("ΖΑΚΥΝΘΟΥ", 1000, 500, 100), // sigma 0.60
	})
	require.NoError(t, err)
	return report
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteMunicipalityCSV(t *testing.T) {
	e, dir := testExporter(t)
	schemes := friction.BuiltinSchemes()

	require.NoError(t, e.WriteMunicipalityCSV(testReport(t), schemes))

	rows := readCSV(t, filepath.Join(dir, FileMunicipalityCSV))
	require.Len(t, rows, 3)
	assert.Equal(t, "code", rows[0][0])
	assert.Equal(t, "archetype_policy3", rows[0][12])

	// Sorted by sigma descending.
	assert.Equal(t, "ΖΑΚΥΝΘΟΥ", rows[1][1])
	assert.Equal(t, "ΑΘΗΝΑΙΩΝ", rows[2][1])
	assert.Equal(t, "0.6000", rows[1][7])
	assert.Equal(t, "TOURIST_DRAIN", rows[1][13])
	assert.Equal(t, "HEALTHY", rows[2][12])
}

func TestWriteLevelCSV(t *testing.T) {
	e, dir := testExporter(t)

	require.NoError(t, e.WriteLevelCSV(FileRegionCSV, testReport(t)))

	rows := readCSV(t, filepath.Join(dir, FileRegionCSV))
	require.Len(t, rows, 3)
	// No archetype columns at region level.
	assert.Len(t, rows[0], 12)
	assert.Equal(t, "other_share", rows[0][11])
	assert.Equal(t, "ΖΑΚΥΝΘΟΥ", rows[1][1])
	assert.Equal(t, "0.6000", rows[1][7])
}

func TestWriteNationalCSV(t *testing.T) {
	e, dir := testExporter(t)

	require.NoError(t, e.WriteNationalCSV(testReport(t), friction.BuiltinSchemes()))

	rows := readCSV(t, filepath.Join(dir, FileNationalCSV))
	require.Len(t, rows, 2)
	assert.Equal(t, friction.NationalName, rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Equal(t, "2000", rows[1][2])
	assert.Equal(t, "700", rows[1][3])
	assert.Equal(t, "0.3500", rows[1][7])
}

func TestWriteScenariosAndMigrationCSV(t *testing.T) {
	e, dir := testExporter(t)
	report := testReport(t)

	sim, err := friction.NewSimulator(nil, testLogger()).
		Simulate(report.Municipalities, friction.DefaultParams())
	require.NoError(t, err)

	require.NoError(t, e.WriteScenariosCSV(sim))
	rows := readCSV(t, filepath.Join(dir, FileScenariosCSV))
	require.Len(t, rows, 3)
	// Largest price drop first.
	assert.Equal(t, "ΖΑΚΥΝΘΟΥ", rows[1][0])

	require.NoError(t, e.WriteMigrationCSV(sim))
	rows = readCSV(t, filepath.Join(dir, FileMigrationCSV))
	require.Greater(t, len(rows), 1)
	assert.Equal(t, []string{"scheme", "from", "to", "count"}, rows[0])
}

func TestWriteFrictionJSON(t *testing.T) {
	e, dir := testExporter(t)

	require.NoError(t, e.WriteFrictionJSON(testReport(t), "run-1"))

	data, err := os.ReadFile(filepath.Join(dir, FileMunicipalityJSON))
	require.NoError(t, err)

	var doc struct {
		Level     string `json:"level"`
		LevelCode int    `json:"level_code"`
		RunID     string `json:"run_id"`
		National  struct {
			TotalDwellings int     `json:"s_total"`
			Sigma          float64 `json:"sigma"`
		} `json:"national"`
		Municipalities []struct {
			Name  string  `json:"name"`
			Sigma float64 `json:"sigma"`
		} `json:"municipalities"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "Δήμος", doc.Level)
	assert.Equal(t, 5, doc.LevelCode)
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 2000, doc.National.TotalDwellings)
	assert.InDelta(t, 0.35, doc.National.Sigma, 1e-9)
	require.Len(t, doc.Municipalities, 2)
	assert.Equal(t, "ΖΑΚΥΝΘΟΥ", doc.Municipalities[0].Name)
}

func TestWriteSummaryJSON(t *testing.T) {
	e, dir := testExporter(t)
	report := testReport(t)

	require.NoError(t, e.WriteSummaryJSON(friction.BuiltinSchemes(), report.Municipalities))

	data, err := os.ReadFile(filepath.Join(dir, FileSummaryJSON))
	require.NoError(t, err)

	var doc map[string][]friction.ArchetypeSummary
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, friction.SchemePolicy3)
	assert.Len(t, doc[friction.SchemePolicy3], 3)
}

func TestWriteUnresolved(t *testing.T) {
	e, dir := testExporter(t)

	require.NoError(t, e.WriteUnresolved([]string{"ΑΓΝΩΣΤΟ Α", "ΑΓΝΩΣΤΟ Β"}))

	data, err := os.ReadFile(filepath.Join(dir, FileUnresolvedTXT))
	require.NoError(t, err)
	assert.Equal(t, "ΑΓΝΩΣΤΟ Α\nΑΓΝΩΣΤΟ Β\n", string(data))
}
