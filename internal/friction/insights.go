package friction

import "sort"

// ArchetypeSummary aggregates the municipalities sharing one label.
type ArchetypeSummary struct {
	Label            string  `json:"label"`
	Count            int     `json:"count"`
	MeanSigma        float64 `json:"mean_sigma"`
	MeanTourismShare float64 `json:"mean_tourism_share"`
	MeanMarketShare  float64 `json:"mean_market_share"`
	TotalDwellings   int     `json:"total_dwellings"`
	LockedDwellings  int     `json:"locked_dwellings"`
}

// Summarize groups metrics by their label under the scheme. Empty
// labels are kept with zero counts so the output shape is stable.
func Summarize(scheme *Scheme, metrics []Metric) []ArchetypeSummary {
	byLabel := make(map[string]*ArchetypeSummary)
	order := scheme.Labels()
	for _, label := range order {
		byLabel[label] = &ArchetypeSummary{Label: label}
	}

	for _, m := range metrics {
		s := byLabel[scheme.Classify(m).Label]
		s.Count++
		s.MeanSigma += m.Sigma
		s.MeanTourismShare += m.TourismShare
		s.MeanMarketShare += m.MarketShare
		s.TotalDwellings += m.TotalDwellings
		s.LockedDwellings += m.Locked.Total()
	}

	out := make([]ArchetypeSummary, 0, len(order))
	for _, label := range order {
		s := byLabel[label]
		if s.Count > 0 {
			s.MeanSigma /= float64(s.Count)
			s.MeanTourismShare /= float64(s.Count)
			s.MeanMarketShare /= float64(s.Count)
		}
		out = append(out, *s)
	}
	return out
}

// TopBySigma returns the n highest-friction metrics, ties broken by
// name for stable output.
func TopBySigma(metrics []Metric, n int) []Metric {
	sorted := make([]Metric, len(metrics))
	copy(sorted, metrics)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Sigma != sorted[j].Sigma {
			return sorted[i].Sigma > sorted[j].Sigma
		}
		return sorted[i].Name < sorted[j].Name
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
