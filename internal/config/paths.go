package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig locates the input files and the output directory. Input
// files are resolved relative to InputDir unless absolute.
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR" default:"data" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"outputs" validate:"required"`

	// FlatFile is the municipality-level dwelling-status CSV.
	FlatFile string `yaml:"flat_file" envconfig:"FLAT_FILE" default:"dwellings_status_municipalities.csv"`
	// WorkbookFile is the census dwelling-status workbook. Empty skips
	// the workbook source.
	WorkbookFile string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE"`
	// BoundariesFile is the municipality boundary GeoJSON.
	BoundariesFile string `yaml:"boundaries_file" envconfig:"BOUNDARIES_FILE" default:"boundaries.geojson"`
	// OverridesFile is the optional name-override YAML. Empty uses the
	// built-in census-to-GADM table.
	OverridesFile string `yaml:"overrides_file" envconfig:"OVERRIDES_FILE"`
}

// InputPath resolves a configured input file name.
func (p PathsConfig) InputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.InputDir, name)
}

// ReportPath resolves an output file name under the output directory.
func (p PathsConfig) ReportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.OutputDir, name)
}

// EnsureOutputDir creates the output directory if needed.
func (p PathsConfig) EnsureOutputDir() error {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// RequireInputs verifies that every configured input file exists,
// returning all missing paths at once.
func (p PathsConfig) RequireInputs() error {
	var missing []string
	for _, name := range []string{p.FlatFile, p.WorkbookFile, p.BoundariesFile, p.OverridesFile} {
		if name == "" {
			continue
		}
		path := p.InputPath(name)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing input files: %v", missing)
	}
	return nil
}
