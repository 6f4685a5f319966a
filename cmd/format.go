package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fyndra/outfitscout/internal/aggregate"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/outfit"
)

// printCandidatesTable prints ranked candidates in a human-friendly
// card layout.
func printCandidatesTable(candidates []aggregate.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stdout, "No listings found.")
		return
	}
	for i, c := range candidates {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		name := c.Listing.Name
		if !c.Listing.InStock {
			name = "[OUT OF STOCK] " + name
		}
		fmt.Fprintf(os.Stdout, " %d. %s\n", i+1, name)

		line := fmt.Sprintf("    Landed: %s %s  (item %s + ship %s + customs %s + VAT %s)",
			c.Cost.LandedTotal.StringFixed(2), c.Cost.Currency,
			c.Cost.Base.StringFixed(2), c.Cost.Shipping.StringFixed(2),
			c.Cost.Customs.StringFixed(2), c.Cost.VAT.StringFixed(2))
		fmt.Fprintln(os.Stdout, line)

		shopLine := fmt.Sprintf("    Shop: %s (trust %d)", c.Shop.Display(), c.Shop.TrustScore)
		if c.Shop.DeliveryDays > 0 {
			shopLine += fmt.Sprintf("  |  ~%d days delivery", c.Shop.DeliveryDays)
		}
		if c.Shop.ReturnWindowDays > 0 {
			shopLine += fmt.Sprintf("  |  %d day returns", c.Shop.ReturnWindowDays)
		}
		fmt.Fprintln(os.Stdout, shopLine)

		if c.Listing.Brand != models.Unknown && c.Listing.Brand != "" {
			fmt.Fprintf(os.Stdout, "    Brand: %s\n", c.Listing.Brand)
		}
		if len(c.Listing.Sizes) > 0 {
			fmt.Fprintf(os.Stdout, "    Sizes: %s\n", strings.Join(c.Listing.Sizes, ", "))
		}
		fmt.Fprintf(os.Stdout, "    %s\n", buyURL(c.Listing))
	}
}

// printAssemblies prints the three assembly proposals side by side.
func printAssemblies(req models.OutfitRequest, asm *outfit.Assemblies) {
	printAssembly("Exact match", req, asm.Exact)
	fmt.Fprintln(os.Stdout)
	printAssembly("Best within budget", req, asm.BestInBudget)
	fmt.Fprintln(os.Stdout)
	printAssembly("Budget saver", req, asm.BudgetSaver)
}

func printAssembly(title string, req models.OutfitRequest, a models.OutfitAssembly) {
	header := fmt.Sprintf("== %s: %s %s", title, a.Total.StringFixed(2), a.Currency)
	if a.OverBudget {
		header += fmt.Sprintf("  (over budget %s)", req.Budget.StringFixed(2))
	}
	fmt.Fprintln(os.Stdout, header)

	categories := make([]string, 0, len(a.Picks))
	for category := range a.Picks {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		pick := a.Picks[category]
		fmt.Fprintf(os.Stdout, "  %-12s %s  %s %s\n",
			category+":", truncate(pick.Listing.Name, 48),
			pick.Cost.LandedTotal.StringFixed(2), pick.Cost.Currency)
		if reason, ok := a.Substitutions[category]; ok {
			fmt.Fprintf(os.Stdout, "  %-12s %s\n", "", reason)
		}
		fmt.Fprintf(os.Stdout, "  %-12s %s\n", "", buyURL(pick.Listing))
	}
}

// buyURL prefers the affiliate link when the shop has one.
func buyURL(l models.Listing) string {
	if l.AffiliateURL != "" {
		return l.AffiliateURL
	}
	return l.URL
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
