package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyndra/outfitscout/internal/shop"
	"github.com/fyndra/outfitscout/internal/ui"
	"github.com/fyndra/outfitscout/internal/vision"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [analysis-file]",
	Short: "Turn a vision analysis into shop searches",
	Long: `Reads the JSON response of the external vision service (raw or inside
markdown code fences), lists the identified items, and optionally runs
a cross-shop search for each one.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	identifyCmd.Flags().Bool("search", false, "Run a search for each identified item")
	identifyCmd.Flags().Int("limit", 5, "Results per item when searching")
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read analysis: %w", err)
	}
	analysis := vision.ParseAnalysis(string(raw))
	if len(analysis.Items) == 0 {
		return fmt.Errorf("no items recognized in %s", args[0])
	}

	if analysis.OverallStyle != "" {
		fmt.Fprintf(os.Stdout, "Style: %s", analysis.OverallStyle)
		if analysis.Season != "" {
			fmt.Fprintf(os.Stdout, "  (%s)", analysis.Season)
		}
		fmt.Fprintln(os.Stdout)
	}
	for i, item := range analysis.Items {
		fmt.Fprintf(os.Stdout, " %d. %s", i+1, item.ItemType)
		if item.BrandGuess != "" {
			fmt.Fprintf(os.Stdout, " by %s", item.BrandGuess)
		}
		fmt.Fprintf(os.Stdout, "  [confidence %.0f%%]\n", item.Confidence*100)
		if item.Description != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", item.Description)
		}
		fmt.Fprintf(os.Stdout, "    Search: %q", vision.SearchText(item))
		if len(item.StyleTags) > 0 {
			fmt.Fprintf(os.Stdout, "  tags: %s", strings.Join(item.StyleTags, ", "))
		}
		fmt.Fprintln(os.Stdout)
	}

	doSearch, _ := cmd.Flags().GetBool("search")
	if !doSearch {
		return nil
	}

	logger := newLogger()
	svc, err := buildService(logger)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	for _, item := range analysis.Items {
		q := vision.Query(item)
		q.Limit = limit

		spin := ui.NewSpinner()
		spin.Start(fmt.Sprintf("Searching for %s...", item.ItemType))
		ctx := shop.WithProgress(context.Background(), spin.Update)
		outcome, err := svc.Search(ctx, q)
		spin.Stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", item.ItemType, err)
			continue
		}

		fmt.Fprintf(os.Stdout, "\n== %s\n", item.ItemType)
		printCandidatesTable(outcome.Ranked)
	}
	return nil
}
