package friction

// Classify assigns the metric to its bucket. The buckets partition
// [0, 1), so every valid metric gets a label.
func (s *Scheme) Classify(m Metric) Assignment {
	return s.classify(m.Sigma, m.TourismShare)
}

func (s *Scheme) classify(sigma, tourismShare float64) Assignment {
	for i, b := range s.buckets {
		if sigma >= b.Lo && sigma < b.Hi {
			label := b.Label
			if b.Gate != nil && tourismShare > b.Gate.TourismShareAbove {
				label = b.Gate.Label
			}
			return Assignment{SchemeID: s.id, Label: label, Rank: i}
		}
	}
	// Only reachable for sigma outside [0, 1), which the engine rejects.
	last := len(s.buckets) - 1
	return Assignment{SchemeID: s.id, Label: s.buckets[last].Label, Rank: last}
}

// ClassifyAll labels the metric under each scheme, keyed by scheme id.
func ClassifyAll(schemes []*Scheme, m Metric) map[string]Assignment {
	out := make(map[string]Assignment, len(schemes))
	for _, s := range schemes {
		out[s.ID()] = s.Classify(m)
	}
	return out
}
