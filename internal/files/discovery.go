package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes one discovered input file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Inputs is the resolved input set for one pipeline run.
type Inputs struct {
	// FlatFile is the converted dwelling-status CSV, empty if none.
	FlatFile string
	// Workbook is the census dwelling-status xlsx, empty if none.
	Workbook string
	// Boundaries is the municipality boundary GeoJSON.
	Boundaries string
	// Overrides is the optional name-override YAML, empty if none.
	Overrides string
}

// Discovery finds census input files in a data directory.
type Discovery struct {
	dir    string
	logger *slog.Logger
}

// NewDiscovery creates a discovery instance over the data directory.
func NewDiscovery(dir string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{dir: dir, logger: logger}
}

// FindWorkbooks lists dwelling-status workbooks, oldest first.
func (d *Discovery) FindWorkbooks() ([]FileInfo, error) {
	return d.find(func(name string) bool {
		return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls")
	})
}

// FindFlatFiles lists converted dwelling-status CSV files, oldest first.
func (d *Discovery) FindFlatFiles() ([]FileInfo, error) {
	return d.find(func(name string) bool {
		return strings.HasSuffix(name, ".csv") && strings.Contains(name, "dwellings_status")
	})
}

// FindBoundaries lists boundary GeoJSON files, oldest first.
func (d *Discovery) FindBoundaries() ([]FileInfo, error) {
	return d.find(func(name string) bool {
		return strings.HasSuffix(name, ".geojson")
	})
}

// FindOverrides lists name-override YAML files, oldest first.
func (d *Discovery) FindOverrides() ([]FileInfo, error) {
	return d.find(func(name string) bool {
		return strings.Contains(name, "overrides") &&
			(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml"))
	})
}

// ResolveInputs picks the newest snapshot of each input kind. At least
// one dwelling-status source and a boundary file must exist.
func (d *Discovery) ResolveInputs() (*Inputs, error) {
	flats, err := d.FindFlatFiles()
	if err != nil {
		return nil, err
	}
	workbooks, err := d.FindWorkbooks()
	if err != nil {
		return nil, err
	}
	boundaries, err := d.FindBoundaries()
	if err != nil {
		return nil, err
	}
	overrides, err := d.FindOverrides()
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		FlatFile:   newestPath(flats),
		Workbook:   newestPath(workbooks),
		Boundaries: newestPath(boundaries),
		Overrides:  newestPath(overrides),
	}
	if in.FlatFile == "" && in.Workbook == "" {
		return nil, fmt.Errorf("no dwelling-status source (*dwellings_status*.csv or *.xlsx) in %s", d.dir)
	}
	if in.Boundaries == "" {
		return nil, fmt.Errorf("no boundary file (*.geojson) in %s", d.dir)
	}

	d.logger.Info("resolved input files",
		slog.String("flat", in.FlatFile),
		slog.String("workbook", in.Workbook),
		slog.String("boundaries", in.Boundaries),
		slog.String("overrides", in.Overrides))
	return in, nil
}

func (d *Discovery) find(match func(name string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(strings.ToLower(entry.Name())) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// newestPath returns the path of the last (newest) file, or empty.
func newestPath(files []FileInfo) string {
	if len(files) == 0 {
		return ""
	}
	return files[len(files)-1].Path
}
