package files

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, dir, name string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestResolveInputsPicksNewestSnapshot(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, dir, "2011_dwellings_status.csv", base)
	touch(t, dir, "2021_dwellings_status.csv", base.Add(time.Minute))
	touch(t, dir, "census_a05.xlsx", base)
	touch(t, dir, "gadm41_GRC_3.geojson", base)
	touch(t, dir, "name_overrides.yaml", base)
	touch(t, dir, "notes.txt", base)

	in, err := NewDiscovery(dir, testLogger()).ResolveInputs()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2021_dwellings_status.csv"), in.FlatFile)
	assert.Equal(t, filepath.Join(dir, "census_a05.xlsx"), in.Workbook)
	assert.Equal(t, filepath.Join(dir, "gadm41_GRC_3.geojson"), in.Boundaries)
	assert.Equal(t, filepath.Join(dir, "name_overrides.yaml"), in.Overrides)
}

func TestResolveInputsRequiresStatusSource(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "gadm41_GRC_3.geojson", time.Now())

	_, err := NewDiscovery(dir, testLogger()).ResolveInputs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dwelling-status source")
}

func TestResolveInputsRequiresBoundaries(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2021_dwellings_status.csv", time.Now())

	_, err := NewDiscovery(dir, testLogger()).ResolveInputs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boundary")
}

func TestFindFlatFilesIgnoresOtherCSVs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2021_dwellings_status.csv", time.Now())
	touch(t, dir, "population.csv", time.Now())

	flats, err := NewDiscovery(dir, testLogger()).FindFlatFiles()
	require.NoError(t, err)
	require.Len(t, flats, 1)
	assert.Equal(t, "2021_dwellings_status.csv", flats[0].Name)
}

func TestFindMissingDirectory(t *testing.T) {
	_, err := NewDiscovery(filepath.Join(t.TempDir(), "absent"), testLogger()).FindWorkbooks()
	assert.Error(t, err)
}
