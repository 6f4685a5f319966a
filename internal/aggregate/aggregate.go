// Package aggregate merges normalized listings across shops into a
// ranked candidate list.
package aggregate

import (
	"sort"

	"github.com/fyndra/outfitscout/internal/models"
)

// Candidate is a listing with its landed cost and origin shop config.
type Candidate struct {
	Listing models.Listing
	Cost    models.CostBreakdown
	Shop    *models.ShopConfig
}

// Rank orders candidates into a total order: in-stock listings strictly
// before out-of-stock ones regardless of price; within each group
// ascending landed total, ties broken by descending shop trust score,
// then by shop name. The input slice is not modified.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Listing.InStock != b.Listing.InStock {
			return a.Listing.InStock
		}
		if !a.Cost.LandedTotal.Equal(b.Cost.LandedTotal) {
			return a.Cost.LandedTotal.LessThan(b.Cost.LandedTotal)
		}
		if a.Shop.TrustScore != b.Shop.TrustScore {
			return a.Shop.TrustScore > b.Shop.TrustScore
		}
		return a.Shop.Name < b.Shop.Name
	})
	return ranked
}

// InStock filters a ranked list down to available candidates, keeping
// order.
func InStock(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.Listing.InStock {
			out = append(out, c)
		}
	}
	return out
}
