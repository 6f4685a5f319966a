package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyndra/outfitscout/internal/service"
	"github.com/fyndra/outfitscout/internal/watch"
	mcpserver "github.com/fyndra/outfitscout/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func buildDeps() (mcpserver.Deps, error) {
	logger := newLogger()
	registry, err := buildRegistry(logger)
	if err != nil {
		return mcpserver.Deps{}, err
	}
	svc := service.New(registry, buildEngine(), logger)
	st, err := buildStore()
	if err != nil {
		return mcpserver.Deps{}, err
	}
	return mcpserver.Deps{
		Service:  svc,
		Registry: registry,
		Store:    st,
		Monitor:  watch.NewMonitor(svc, st, buildNotifier(logger), logger),
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	deps, err := buildDeps()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting OutfitScout MCP server on stdio...")
	return mcpserver.Serve(deps)
}
