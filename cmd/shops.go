package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "List configured shops",
	RunE:  runShops,
}

func init() {
	rootCmd.AddCommand(shopsCmd)
}

func runShops(_ *cobra.Command, _ []string) error {
	logger := newLogger()
	registry, err := buildRegistry(logger)
	if err != nil {
		return err
	}

	shops := registry.Shops()
	fmt.Fprintf(os.Stdout, "%d shops configured:\n\n", len(shops))
	for _, sc := range shops {
		fmt.Fprintf(os.Stdout, " %-20s %-15s trust %-3d %s  (%s, %d rpm)\n",
			sc.ID, string(sc.Kind), sc.TrustScore, sc.Display(), sc.Currency, sc.RequestsPerMinute)
	}
	return nil
}
