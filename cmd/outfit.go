package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
	"github.com/fyndra/outfitscout/internal/ui"
	"github.com/fyndra/outfitscout/internal/vision"
)

var outfitCmd = &cobra.Command{
	Use:   "outfit",
	Short: "Assemble a complete outfit under a budget",
	Long: `Builds three proposals from the configured shops: the exact best match
per category, the best assembly that fits the budget, and the cheapest
possible assembly.

Slots come either from repeated --slot flags ("category" or
"category:brand") or from a vision analysis JSON file.`,
	RunE: runOutfit,
}

func init() {
	outfitCmd.Flags().StringArray("slot", nil, "Category slot, optionally with brand (e.g. 'hoodie' or 'shoes:Nike')")
	outfitCmd.Flags().String("from-analysis", "", "Path to a vision analysis response (JSON, possibly fenced)")
	outfitCmd.Flags().Float64("min-confidence", 0.5, "Drop analysis items below this confidence")
	outfitCmd.Flags().String("budget", "", "Budget ceiling (required)")
	outfitCmd.Flags().String("format", "table", "Output format: json, table")
	_ = outfitCmd.MarkFlagRequired("budget")
	rootCmd.AddCommand(outfitCmd)
}

func runOutfit(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	svc, err := buildService(logger)
	if err != nil {
		return err
	}

	budgetStr, _ := cmd.Flags().GetString("budget")
	budget, err := decimal.NewFromString(budgetStr)
	if err != nil || !budget.IsPositive() {
		return fmt.Errorf("invalid --budget %q", budgetStr)
	}

	req, err := outfitRequest(cmd, budget)
	if err != nil {
		return err
	}

	spin := ui.NewSpinner()
	spin.Start("Building outfit...")
	ctx := shop.WithProgress(context.Background(), spin.Update)
	assemblies, shopErrs, err := svc.BuildAssemblies(ctx, req)
	spin.Stop()
	if err != nil {
		return err
	}

	for shopID, shopErr := range shopErrs {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", shopID, shopErr)
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(assemblies)
	}
	printAssemblies(req, assemblies)
	return nil
}

func outfitRequest(cmd *cobra.Command, budget decimal.Decimal) (models.OutfitRequest, error) {
	analysisPath, _ := cmd.Flags().GetString("from-analysis")
	if analysisPath != "" {
		raw, err := os.ReadFile(analysisPath)
		if err != nil {
			return models.OutfitRequest{}, fmt.Errorf("read analysis: %w", err)
		}
		minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
		analysis := vision.ParseAnalysis(string(raw))
		return vision.OutfitRequest(analysis, budget, cfg.Currency, minConfidence)
	}

	slotSpecs, _ := cmd.Flags().GetStringArray("slot")
	if len(slotSpecs) == 0 {
		return models.OutfitRequest{}, fmt.Errorf("give at least one --slot or --from-analysis")
	}

	var slots []models.CategorySlot
	for _, spec := range slotSpecs {
		category, brand, _ := strings.Cut(spec, ":")
		category = strings.TrimSpace(category)
		if category == "" {
			return models.OutfitRequest{}, fmt.Errorf("empty category in --slot %q", spec)
		}
		slots = append(slots, models.CategorySlot{
			Category: category,
			Brand:    strings.TrimSpace(brand),
		})
	}

	return models.OutfitRequest{
		Slots:    slots,
		Budget:   budget,
		Currency: cfg.Currency,
	}, nil
}
