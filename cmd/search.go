package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fyndra/outfitscout/internal/shop"
	"github.com/fyndra/outfitscout/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search listings across all configured shops",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("category", "", "Item category (hoodie, jacket, shoes, ...)")
	searchCmd.Flags().String("brand", "", "Brand filter")
	searchCmd.Flags().String("color", "", "Color filter")
	searchCmd.Flags().String("size", "", "Size filter")
	searchCmd.Flags().String("gender", "", "Gender filter")
	searchCmd.Flags().String("max-price", "", "Maximum listing price")
	searchCmd.Flags().Int("limit", 20, "Maximum results")
	searchCmd.Flags().Bool("no-wait", false, "Skip shops whose rate limit is exhausted instead of waiting")
	searchCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	svc, err := buildService(logger)
	if err != nil {
		return err
	}

	q := shop.Query{}
	if len(args) > 0 {
		q.Text = args[0]
	}
	q.Category, _ = cmd.Flags().GetString("category")
	q.Brand, _ = cmd.Flags().GetString("brand")
	q.Color, _ = cmd.Flags().GetString("color")
	q.Size, _ = cmd.Flags().GetString("size")
	q.Gender, _ = cmd.Flags().GetString("gender")
	q.Limit, _ = cmd.Flags().GetInt("limit")
	q.NoWait, _ = cmd.Flags().GetBool("no-wait")
	if v, _ := cmd.Flags().GetString("max-price"); v != "" {
		maxPrice, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid --max-price %q", v)
		}
		q.MaxPrice = maxPrice
	}
	if q.Text == "" && q.Category == "" && q.Brand == "" {
		return fmt.Errorf("give a search text or at least --category/--brand")
	}

	spin := ui.NewSpinner()
	spin.Start("Searching shops...")
	ctx := shop.WithProgress(context.Background(), spin.Update)
	outcome, err := svc.Search(ctx, q)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for shopID, shopErr := range outcome.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", shopID, shopErr)
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	default:
		printCandidatesTable(outcome.Ranked)
		if len(outcome.Unpriced) > 0 {
			fmt.Fprintf(os.Stdout, "\n%d listings had no exchange rate and were left unranked.\n", len(outcome.Unpriced))
		}
	}
	return nil
}
