package geo

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"frictioncli/internal/greek"
)

// DefaultNameProperty is the GeoJSON property carrying the municipality
// name in the GADM level-3 boundary dataset.
const DefaultNameProperty = "NAME_3"

// DefaultExcluded lists boundary features that have no statistical
// counterpart. The monastic community of Athos is outside the
// municipal system.
var DefaultExcluded = []string{"Athos"}

// Feature is one municipality boundary.
type Feature struct {
	Name     string
	Geometry orb.Geometry

	centroid orb.Point
	area     float64
}

// Centroid returns the polygon centroid in lon/lat.
func (f Feature) Centroid() orb.Point {
	return f.centroid
}

// Area returns the planar polygon area in squared degrees. It is only
// used for relative sizing, never for surface measurement.
func (f Feature) Area() float64 {
	return f.area
}

// BoundarySet is a boundary dataset indexed by normalized feature name.
type BoundarySet struct {
	source   string
	features []Feature
	index    map[string]int
}

// BoundaryOptions configures boundary loading.
type BoundaryOptions struct {
	// NameProperty is the feature property holding the municipality
	// name. Empty means DefaultNameProperty.
	NameProperty string
	// Excluded lists feature names to drop. Nil means DefaultExcluded,
	// an explicit empty slice keeps everything.
	Excluded []string
}

// LoadBoundaries reads a GeoJSON FeatureCollection of municipality
// polygons.
func LoadBoundaries(path string, opts BoundaryOptions, logger *slog.Logger) (*BoundarySet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nameProp := opts.NameProperty
	if nameProp == "" {
		nameProp = DefaultNameProperty
	}
	excluded := opts.Excluded
	if excluded == nil {
		excluded = DefaultExcluded
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewMissingInputError(path, err)
		}
		return nil, fmt.Errorf("read boundary file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, NewInvalidBoundariesError(path, "not a GeoJSON feature collection", err)
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[greek.MatchKey(name)] = struct{}{}
	}

	set := &BoundarySet{source: path, index: make(map[string]int, len(fc.Features))}
	for i, feat := range fc.Features {
		name := feat.Properties.MustString(nameProp, "")
		if name == "" {
			return nil, NewInvalidBoundariesError(path,
				fmt.Sprintf("feature %d lacks the %q property", i, nameProp), nil)
		}
		key := greek.MatchKey(name)
		if _, ok := skip[key]; ok {
			logger.Info("excluding boundary feature", slog.String("name", name))
			continue
		}
		centroid, area := planar.CentroidArea(feat.Geometry)
		if _, dup := set.index[key]; dup {
			// GADM splits a few municipalities into multiple shapes.
			// Keep the first and fold nothing; the join is by name.
			logger.Warn("duplicate boundary feature name", slog.String("name", name))
			continue
		}
		set.index[key] = len(set.features)
		set.features = append(set.features, Feature{
			Name:     name,
			Geometry: feat.Geometry,
			centroid: centroid,
			area:     math.Abs(area),
		})
	}

	logger.Info("loaded municipality boundaries",
		slog.String("path", path),
		slog.Int("features", len(set.features)))
	return set, nil
}

// Source returns the path the boundary set was loaded from.
func (s *BoundarySet) Source() string {
	return s.source
}

// Features returns the boundary features in file order.
func (s *BoundarySet) Features() []Feature {
	return s.features
}

// Len returns the number of boundary features.
func (s *BoundarySet) Len() int {
	return len(s.features)
}

// Lookup finds a feature by name (any script, accents ignored).
func (s *BoundarySet) Lookup(name string) (Feature, bool) {
	i, ok := s.index[greek.MatchKey(name)]
	if !ok {
		return Feature{}, false
	}
	return s.features[i], true
}
