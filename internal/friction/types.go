package friction

// Breakdown splits locked stock by the reason it is off the market.
type Breakdown struct {
	// Tourism counts vacation homes and secondary residences.
	Tourism int
	// Market counts dwellings listed for rent or sale.
	Market int
	// Other counts dwellings empty for any other reason.
	Other int
}

// Total returns the locked stock across all three groups.
func (b Breakdown) Total() int {
	return b.Tourism + b.Market + b.Other
}

// Metric is the friction measurement of one municipality (or of the
// national aggregate).
type Metric struct {
	Name           string
	Code           int
	TotalDwellings int
	Locked         Breakdown

	// Sigma is the locked-stock share, locked / total, in [0, 1).
	Sigma float64
	// FrictionFactor is 1 / (1 - sigma): how many dwellings must exist
	// for one to reach the market.
	FrictionFactor float64

	// The three shares decompose sigma additively.
	TourismShare float64
	MarketShare  float64
	OtherShare   float64
}

// Assignment is a metric's label under one classification scheme.
type Assignment struct {
	SchemeID string
	Label    string
	// Rank is the bucket ordinal, lower is healthier. Both labels of a
	// gated bucket share the rank.
	Rank int
}
