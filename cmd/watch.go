package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage price watches",
}

var watchAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a watch on an item search or an outfit",
	RunE:  runWatchAdd,
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watch entries",
	RunE:  runWatchList,
}

var watchRemoveCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Remove a watch entry and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchRemove,
}

var watchCheckCmd = &cobra.Command{
	Use:   "check [id]",
	Short: "Check one entry now, or all entries when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatchCheck,
}

var watchHistoryCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show the price snapshot history of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchHistory,
}

func init() {
	watchAddCmd.Flags().String("query", "", "Free-text item search to watch")
	watchAddCmd.Flags().String("category", "", "Item category to watch")
	watchAddCmd.Flags().String("brand", "", "Brand hint")
	watchAddCmd.Flags().StringArray("outfit-slot", nil, "Watch a whole outfit: category slot, repeatable")
	watchAddCmd.Flags().String("outfit-budget", "", "Budget for the watched outfit")
	watchAddCmd.Flags().String("target", "", "Target landed cost that fires the alert")
	watchAddCmd.Flags().Bool("on-drop", true, "Alert when the cost drops to the target")
	watchAddCmd.Flags().Bool("on-restock", false, "Alert when the item comes back in stock")

	watchHistoryCmd.Flags().Int("limit", 20, "Snapshots to show")

	watchCmd.AddCommand(watchAddCmd, watchListCmd, watchRemoveCmd, watchCheckCmd, watchHistoryCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatchAdd(cmd *cobra.Command, _ []string) error {
	st, err := buildStore()
	if err != nil {
		return err
	}

	target, err := watchTarget(cmd)
	if err != nil {
		return err
	}

	entry := &models.WatchEntry{
		ID:        newWatchID(),
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
	entry.NotifyOnDrop, _ = cmd.Flags().GetBool("on-drop")
	entry.NotifyOnRestock, _ = cmd.Flags().GetBool("on-restock")
	if v, _ := cmd.Flags().GetString("target"); v != "" {
		targetPrice, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid --target %q", v)
		}
		entry.TargetPrice = targetPrice
	}
	if entry.NotifyOnDrop && entry.TargetPrice.IsZero() {
		return fmt.Errorf("--on-drop needs a --target price")
	}

	if err := st.CreateEntry(context.Background(), entry); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Watching. Entry id: %s\n", entry.ID)
	return nil
}

func watchTarget(cmd *cobra.Command) (models.WatchTarget, error) {
	slots, _ := cmd.Flags().GetStringArray("outfit-slot")
	query, _ := cmd.Flags().GetString("query")
	category, _ := cmd.Flags().GetString("category")
	brand, _ := cmd.Flags().GetString("brand")

	if len(slots) > 0 {
		budgetStr, _ := cmd.Flags().GetString("outfit-budget")
		budget, err := decimal.NewFromString(budgetStr)
		if err != nil || !budget.IsPositive() {
			return models.WatchTarget{}, fmt.Errorf("--outfit-slot needs a valid --outfit-budget")
		}
		var outfitSlots []models.CategorySlot
		for _, spec := range slots {
			cat, b, _ := strings.Cut(spec, ":")
			outfitSlots = append(outfitSlots, models.CategorySlot{
				Category: strings.TrimSpace(cat),
				Brand:    strings.TrimSpace(b),
			})
		}
		return models.WatchTarget{
			Outfit: &models.OutfitRequest{Slots: outfitSlots, Budget: budget, Currency: cfg.Currency},
		}, nil
	}

	if query == "" && category == "" {
		return models.WatchTarget{}, fmt.Errorf("give --query/--category, or --outfit-slot")
	}
	return models.WatchTarget{
		Item:  &models.CategorySlot{Category: category, Brand: brand},
		Query: query,
	}, nil
}

func runWatchList(_ *cobra.Command, _ []string) error {
	st, err := buildStore()
	if err != nil {
		return err
	}
	entries, err := st.ListEntries(context.Background())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No watch entries.")
		return nil
	}
	for _, e := range entries {
		state := "armed"
		if e.AlertFired {
			state = "fired"
		}
		fmt.Fprintf(os.Stdout, "%s  [%s]  target %s %s  last %s  lowest %s  (%+.1f%% vs lowest)\n",
			e.ID, state, e.TargetPrice.StringFixed(2), cfg.Currency,
			e.LastBestCost.StringFixed(2), e.LowestSeen.StringFixed(2), e.PriceChangePercent())
	}
	return nil
}

func runWatchRemove(_ *cobra.Command, args []string) error {
	st, err := buildStore()
	if err != nil {
		return err
	}
	if err := st.DeleteEntry(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Removed %s.\n", args[0])
	return nil
}

func runWatchCheck(_ *cobra.Command, args []string) error {
	logger := newLogger()
	svc, err := buildService(logger)
	if err != nil {
		return err
	}
	st, err := buildStore()
	if err != nil {
		return err
	}
	monitor := watch.NewMonitor(svc, st, buildNotifier(logger), logger)

	ctx := context.Background()
	if len(args) == 1 {
		result, err := monitor.Check(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return monitor.CheckAll(ctx, cfg.MaxConcurrent)
}

func runWatchHistory(cmd *cobra.Command, args []string) error {
	st, err := buildStore()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	snaps, err := st.History(context.Background(), args[0], limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(os.Stdout, "No snapshots yet.")
		return nil
	}
	for _, s := range snaps {
		stock := "in stock"
		if !s.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(os.Stdout, "%s  %s %s  %s  (%s)\n",
			s.ObservedAt.Format(time.RFC3339), s.LandedCost.StringFixed(2), s.Currency, stock, s.ShopID)
	}
	return nil
}

func newWatchID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("w%d", time.Now().UnixNano())
	}
	return "w" + hex.EncodeToString(b)
}
