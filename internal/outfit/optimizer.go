// Package outfit assembles budget-constrained outfits from per-category
// candidate lists.
package outfit

import (
	"fmt"
	"strings"

	"github.com/fyndra/outfitscout/internal/aggregate"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
	"github.com/shopspring/decimal"
)

// Assemblies holds the three ranked outfit alternatives for one request.
type Assemblies struct {
	Exact        models.OutfitAssembly `json:"exact"`
	BestInBudget models.OutfitAssembly `json:"best_within_budget"`
	BudgetSaver  models.OutfitAssembly `json:"budget_saver"`
}

// Optimizer builds assemblies. It is a pure computation over already
// fetched candidates; callers pass an immutable snapshot.
type Optimizer struct{}

// New creates an optimizer.
func New() *Optimizer { return &Optimizer{} }

// Build produces the exact, best-within-budget, and budget-saver
// assemblies. Candidate lists must come in best-first order per
// category (aggregate.ByRelevance); substitution trades rank positions
// for savings. A category with zero in-stock
// candidates makes every kind infeasible:
// Build returns *shop.InfeasibleAssemblyError naming the blockers and
// no partial assemblies.
//
// Given identical candidate lists and budget, the result is always
// identical: every choice below ties off deterministically.
func (o *Optimizer) Build(req models.OutfitRequest, candidates map[string][]aggregate.Candidate) (*Assemblies, error) {
	var blocked []string
	inStock := make(map[string][]aggregate.Candidate, len(req.Slots))
	for _, slot := range req.Slots {
		avail := aggregate.InStock(candidates[slot.Category])
		if len(avail) == 0 {
			blocked = append(blocked, slot.Category)
			continue
		}
		inStock[slot.Category] = avail
	}
	if len(blocked) > 0 {
		return nil, &shop.InfeasibleAssemblyError{Categories: blocked}
	}

	exact := o.buildExact(req, inStock)
	best := o.buildBestInBudget(req, inStock, exact)
	saver := o.buildBudgetSaver(req, inStock, exact)

	return &Assemblies{Exact: exact, BestInBudget: best, BudgetSaver: saver}, nil
}

// buildExact picks, per category, the top-ranked candidate whose brand
// matches the hint, falling back to the overall top-ranked candidate.
// The result may exceed budget; it is reported as such, never discarded.
func (o *Optimizer) buildExact(req models.OutfitRequest, inStock map[string][]aggregate.Candidate) models.OutfitAssembly {
	asm := newAssembly(models.AssemblyExact, req.Currency)
	for _, slot := range req.Slots {
		list := inStock[slot.Category]
		idx := 0
		if slot.Brand != "" {
			for i, c := range list {
				if brandMatches(c.Listing.Brand, slot.Brand) {
					idx = i
					break
				}
			}
		}
		pick := list[idx]
		asm.Picks[slot.Category] = models.Pick{Listing: pick.Listing, Cost: pick.Cost}
		asm.Total = asm.Total.Add(pick.Cost.LandedTotal)
	}
	asm.OverBudget = overBudget(asm.Total, req.Budget)
	return asm
}

// buildBestInBudget starts from the exact assembly and, while over
// budget, substitutes the category with the highest cost-saved per
// rank-position-lost ratio. Cheaper candidates ranked above the current
// pick count as a single position: a brand hint can start a category
// below rank zero, and climbing back up loses nothing. Brand identity
// survives on every category that is not driving the overage.
func (o *Optimizer) buildBestInBudget(req models.OutfitRequest, inStock map[string][]aggregate.Candidate, exact models.OutfitAssembly) models.OutfitAssembly {
	asm := newAssembly(models.AssemblyBestInBudget, req.Currency)

	// Current pick index per category, starting at the exact choice.
	indices := make(map[string]int, len(req.Slots))
	for _, slot := range req.Slots {
		list := inStock[slot.Category]
		for i, c := range list {
			if c.Listing.ShopID == exact.Picks[slot.Category].Listing.ShopID &&
				c.Listing.ExternalID == exact.Picks[slot.Category].Listing.ExternalID {
				indices[slot.Category] = i
				break
			}
		}
	}

	total := exact.Total
	if req.Budget.IsPositive() {
		for total.GreaterThan(req.Budget) {
			bestSlot := -1
			bestIdx := 0
			bestRatio := decimal.Zero
			var bestSaving decimal.Decimal

			for si, slot := range req.Slots {
				list := inStock[slot.Category]
				cur := indices[slot.Category]
				curCost := list[cur].Cost.LandedTotal

				for j := range list {
					if j == cur {
						continue
					}
					cand := list[j]
					if !cand.Cost.LandedTotal.LessThan(curCost) {
						continue
					}
					if !styleCompatible(cand.Listing, slot.StyleTags) {
						continue
					}
					saving := curCost.Sub(cand.Cost.LandedTotal)
					delta := int64(1)
					if j > cur {
						delta = int64(j - cur)
					}
					ratio := saving.DivRound(decimal.NewFromInt(delta), 8)
					// Strict greater-than keeps ties on the earliest
					// category in request order.
					if bestSlot == -1 || ratio.GreaterThan(bestRatio) {
						bestSlot, bestIdx, bestRatio, bestSaving = si, j, ratio, saving
					}
					if j > cur {
						break // below the pick, only the next cheaper candidate
					}
				}
			}

			if bestSlot == -1 {
				break // no substitution left; report closest achievable total
			}

			slot := req.Slots[bestSlot]
			from := inStock[slot.Category][indices[slot.Category]]
			indices[slot.Category] = bestIdx
			asm.Substitutions[slot.Category] = fmt.Sprintf(
				"replaced %s (%s) to save %s %s",
				from.Listing.Name, from.Listing.Brand, bestSaving.StringFixed(2), req.Currency)
			total = total.Sub(bestSaving)
		}
	}

	for _, slot := range req.Slots {
		pick := inStock[slot.Category][indices[slot.Category]]
		asm.Picks[slot.Category] = models.Pick{Listing: pick.Listing, Cost: pick.Cost}
		asm.Total = asm.Total.Add(pick.Cost.LandedTotal)
	}
	asm.OverBudget = overBudget(asm.Total, req.Budget)
	return asm
}

// buildBudgetSaver ignores all hints: cheapest in-stock candidate per
// category. This is the floor cost, reported even when it still exceeds
// budget so callers can tell the request is infeasible at any budget.
func (o *Optimizer) buildBudgetSaver(req models.OutfitRequest, inStock map[string][]aggregate.Candidate, exact models.OutfitAssembly) models.OutfitAssembly {
	asm := newAssembly(models.AssemblyBudgetSaver, req.Currency)
	for _, slot := range req.Slots {
		list := inStock[slot.Category]
		cheapest := 0
		for i, c := range list {
			if c.Cost.LandedTotal.LessThan(list[cheapest].Cost.LandedTotal) {
				cheapest = i
			}
		}
		pick := list[cheapest]
		asm.Picks[slot.Category] = models.Pick{Listing: pick.Listing, Cost: pick.Cost}
		asm.Total = asm.Total.Add(pick.Cost.LandedTotal)

		ex := exact.Picks[slot.Category].Listing
		if ex.ShopID != pick.Listing.ShopID || ex.ExternalID != pick.Listing.ExternalID {
			asm.Substitutions[slot.Category] = "cheapest available, hints ignored"
		}
	}
	asm.OverBudget = overBudget(asm.Total, req.Budget)
	return asm
}

func newAssembly(kind models.AssemblyKind, currency string) models.OutfitAssembly {
	return models.OutfitAssembly{
		Kind:          kind,
		Picks:         make(map[string]models.Pick),
		Currency:      currency,
		Substitutions: make(map[string]string),
	}
}

func overBudget(total, budget decimal.Decimal) bool {
	return budget.IsPositive() && total.GreaterThan(budget)
}

func brandMatches(brand, hint string) bool {
	if brand == "" || brand == models.Unknown {
		return false
	}
	b, h := strings.ToLower(brand), strings.ToLower(hint)
	return strings.Contains(b, h) || strings.Contains(h, b)
}

// styleCompatible accepts any listing when the slot has no style hints;
// otherwise at least one tag must appear in the listing text.
func styleCompatible(l models.Listing, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	text := strings.ToLower(l.Name + " " + l.Description + " " + l.Category)
	for _, tag := range tags {
		if strings.Contains(text, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}
