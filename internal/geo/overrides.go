package geo

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// Overrides maps boundary feature names to statistical municipality
// names where normalized matching cannot bridge the two vocabularies
// (classical genitives, honorific prefixes, renamed municipalities).
type Overrides struct {
	// Rename maps one boundary name to one statistical name.
	Rename map[string]string `yaml:"rename"`
	// Merge maps one boundary name to the statistical municipalities it
	// was split into. The reconciler aggregates the group back into one
	// row for the boundary.
	Merge map[string][]string `yaml:"merge"`
}

// LoadOverrides reads an override table from a YAML file and validates
// its one-to-one property.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewMissingInputError(path, err)
		}
		return nil, fmt.Errorf("read override file: %w", err)
	}
	var ov Overrides
	if err := yaml.UnmarshalStrict(data, &ov); err != nil {
		return nil, fmt.Errorf("parse override file %s: %w", path, err)
	}
	if err := ov.Validate(path); err != nil {
		return nil, err
	}
	return &ov, nil
}

// DefaultOverrides carries the 2021-census to GADM v4.1 mapping.
func DefaultOverrides() *Overrides {
	return &Overrides{
		Rename: map[string]string{
			"Piraeus":                  "ΠΕΙΡΑΙΩΣ",
			"Athens":                   "ΑΘΗΝΑΙΩΝ",
			"Acharnes":                 "ΑΧΑΡΝΩΝ",
			"Heraklion":                "ΗΡΑΚΛΕΙΟΥ",
			"Naousa":                   "ΗΡΩΙΚΗΣ ΠΟΛΕΩΣ ΝΑΟΥΣΑΣ",
			"Abdera":                   "ΑΒΔΗΡΩΝ",
			"Ithaca":                   "ΙΘΑΚΗΣ",
			"Paxi":                     "ΠΑΞΩΝ",
			"Patras":                   "ΠΑΤΡΕΩΝ",
			"Chalcis":                  "ΧΑΛΚΙΔΕΩΝ",
			"Thebes":                   "ΘΗΒΑΙΩΝ",
			"Delphi":                   "ΔΕΛΦΩΝ",
			"Lamia":                    "ΛΑΜΙΕΩΝ",
			"Cythera":                  "ΚΥΘΗΡΩΝ",
			"Psara":                    "ΗΡΩΙΚΗΣ ΝΗΣΟΥ ΨΑΡΩΝ",
			"Ios":                      "ΙΗΤΩΝ",
			"Kasos":                    "ΗΡΩΙΚΗΣ ΝΗΣΟΥ ΚΑΣΟΥ",
			"Orestida":                 "ΑΡΓΟΥΣ ΟΡΕΣΤΙΚΟΥ",
			"Missolonghi":              "ΙΕΡΑΣ ΠΟΛΗΣ ΜΕΣΟΛΟΓΓΙΟΥ",
			"Kalambaka":                "ΜΕΤΕΩΡΩΝ",
			"Molos-Agios Konstantinos": "ΚΑΜΕΝΩΝ ΒΟΥΡΛΩΝ",
			"South Kynouria":           "ΝΟΤΙΑΣ ΚΥΝΟΥΡΙΑΣ",
		},
		Merge: map[string][]string{
			"Lesbos":     {"ΔΥΤΙΚΗΣ ΛΕΣΒΟΥ", "ΜΥΤΙΛΗΝΗΣ"},
			"Cephalonia": {"ΑΡΓΟΣΤΟΛΙΟΥ", "ΛΗΞΟΥΡΙΟΥ", "ΣΑΜΗΣ"},
		},
	}
}

// Validate checks that no statistical name is claimed by more than one
// boundary, across both the rename table and the merge groups.
func (o *Overrides) Validate(source string) error {
	claims := make(map[string][]string)
	for boundary, raw := range o.Rename {
		claims[raw] = append(claims[raw], boundary)
	}
	for boundary, group := range o.Merge {
		if _, dup := o.Rename[boundary]; dup {
			return &ReconcileError{
				Type:     ErrorTypeOverrideAmbiguity,
				Source:   source,
				Subjects: []string{boundary},
				Message:  "boundary appears in both rename and merge tables",
			}
		}
		for _, raw := range group {
			claims[raw] = append(claims[raw], boundary)
		}
	}
	for raw, boundaries := range claims {
		if len(boundaries) > 1 {
			sort.Strings(boundaries)
			return NewOverrideAmbiguityError(source, raw, boundaries)
		}
	}
	return nil
}
