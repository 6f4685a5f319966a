package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/fyndra/outfitscout/internal/service"
	"github.com/fyndra/outfitscout/internal/shop"
	"github.com/fyndra/outfitscout/internal/store"
	"github.com/fyndra/outfitscout/internal/watch"
)

// Deps are the wired components the MCP tools operate on.
type Deps struct {
	Service  *service.Service
	Registry *shop.Registry
	Store    store.Store
	Monitor  *watch.Monitor
}

func newServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"outfitscout",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	registerTools(s, deps)
	return s
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(deps Deps) error {
	return server.ServeStdio(newServer(deps))
}
