package friction

// Gate splits a bucket on tourism share: metrics above the threshold
// take the gate label, the rest keep the bucket label.
type Gate struct {
	TourismShareAbove float64
	Label             string
}

// Bucket is one half-open sigma interval [Lo, Hi) of a scheme.
type Bucket struct {
	Lo    float64
	Hi    float64
	Label string
	Gate  *Gate
}

// Scheme is an ordered set of buckets partitioning the sigma domain
// [0, 1). Every valid metric falls in exactly one bucket.
type Scheme struct {
	id      string
	buckets []Bucket
}

// NewScheme validates the bucket list: contiguous half-open intervals
// starting at 0 and ending at 1, no gaps or overlaps, distinct labels,
// gate thresholds inside (0, 1).
func NewScheme(id string, buckets []Bucket) (*Scheme, error) {
	if id == "" {
		return nil, NewSchemeInvalidError(id, "scheme id is empty")
	}
	if len(buckets) == 0 {
		return nil, NewSchemeInvalidError(id, "scheme has no buckets")
	}
	if buckets[0].Lo != 0 {
		return nil, NewSchemeInvalidError(id, "first bucket does not start at 0")
	}
	if buckets[len(buckets)-1].Hi != 1 {
		return nil, NewSchemeInvalidError(id, "last bucket does not end at 1")
	}
	seen := make(map[string]struct{})
	for i, b := range buckets {
		if b.Hi <= b.Lo {
			return nil, NewSchemeInvalidError(id, "bucket upper bound not above lower bound")
		}
		if i > 0 && b.Lo != buckets[i-1].Hi {
			return nil, NewSchemeInvalidError(id, "buckets leave a gap or overlap")
		}
		labels := []string{b.Label}
		if b.Gate != nil {
			if b.Gate.TourismShareAbove <= 0 || b.Gate.TourismShareAbove >= 1 {
				return nil, NewSchemeInvalidError(id, "gate threshold outside (0, 1)")
			}
			if b.Gate.Label == b.Label {
				return nil, NewSchemeInvalidError(id, "gate label equals bucket label")
			}
			labels = append(labels, b.Gate.Label)
		}
		for _, label := range labels {
			if label == "" {
				return nil, NewSchemeInvalidError(id, "empty bucket label")
			}
			if _, dup := seen[label]; dup {
				return nil, NewSchemeInvalidError(id, "duplicate label "+label)
			}
			seen[label] = struct{}{}
		}
	}
	return &Scheme{id: id, buckets: buckets}, nil
}

// MustScheme panics on an invalid definition. Built-in schemes only.
func MustScheme(id string, buckets []Bucket) *Scheme {
	s, err := NewScheme(id, buckets)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the scheme identifier.
func (s *Scheme) ID() string {
	return s.id
}

// Labels returns every label the scheme can assign, ordered by bucket
// then gate label within a gated bucket.
func (s *Scheme) Labels() []string {
	var labels []string
	for _, b := range s.buckets {
		labels = append(labels, b.Label)
		if b.Gate != nil {
			labels = append(labels, b.Gate.Label)
		}
	}
	return labels
}

// Scheme identifiers of the built-in classification views.
const (
	SchemePolicy3 = "policy3"
	SchemePolicy4 = "policy4"
	SchemeEU6     = "eu6"
)

// Policy3 is the three-way policy view over sigma.
func Policy3() *Scheme {
	return MustScheme(SchemePolicy3, []Bucket{
		{Lo: 0, Hi: 0.25, Label: "HEALTHY"},
		{Lo: 0.25, Hi: 0.50, Label: "TRANSITIONAL"},
		{Lo: 0.50, Hi: 1, Label: "PROBLEMATIC"},
	})
}

// Policy4 refines the problematic bucket by cause: tourism-dominated
// municipalities are drained, the rest have failed outright.
func Policy4() *Scheme {
	return MustScheme(SchemePolicy4, []Bucket{
		{Lo: 0, Hi: 0.25, Label: "HEALTHY"},
		{Lo: 0.25, Hi: 0.50, Label: "TRANSITIONAL"},
		{Lo: 0.50, Hi: 1, Label: "SYSTEM_FAILURE",
			Gate: &Gate{TourismShareAbove: 0.30, Label: "TOURIST_DRAIN"}},
	})
}

// EU6 grades sigma against European vacancy benchmarks.
func EU6() *Scheme {
	return MustScheme(SchemeEU6, []Bucket{
		{Lo: 0, Hi: 0.10, Label: "EU_EFFICIENT"},
		{Lo: 0.10, Hi: 0.15, Label: "EU_NORMAL"},
		{Lo: 0.15, Hi: 0.20, Label: "MEDITERRANEAN_ACCEPTABLE"},
		{Lo: 0.20, Hi: 0.30, Label: "ELEVATED_FRICTION"},
		{Lo: 0.30, Hi: 0.50, Label: "STRUCTURAL_DYSFUNCTION"},
		{Lo: 0.50, Hi: 1, Label: "MARKET_COLLAPSE"},
	})
}

// BuiltinSchemes returns the three built-in views in a stable order.
func BuiltinSchemes() []*Scheme {
	return []*Scheme{Policy3(), Policy4(), EU6()}
}

// SchemeByID resolves a built-in scheme identifier.
func SchemeByID(id string) (*Scheme, error) {
	for _, s := range BuiltinSchemes() {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, NewSchemeInvalidError(id, "unknown scheme")
}
