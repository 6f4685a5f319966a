package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

func registerTools(s *server.MCPServer, deps Deps) {
	// search_listings
	searchTool := mcp.NewTool("search_listings",
		mcp.WithDescription("Search clothing listings across all configured shops, ranked by landed cost for the configured destination"),
		mcp.WithString("text",
			mcp.Description("Free-text search"),
		),
		mcp.WithString("category",
			mcp.Description("Item category (hoodie, jacket, shoes, ...)"),
		),
		mcp.WithString("brand",
			mcp.Description("Brand filter"),
		),
		mcp.WithString("color",
			mcp.Description("Color filter"),
		),
		mcp.WithString("max_price",
			mcp.Description("Maximum listing price"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 20)"),
		),
	)
	s.AddTool(searchTool, handleSearchListings(deps))

	// build_outfit
	outfitTool := mcp.NewTool("build_outfit",
		mcp.WithDescription("Assemble a full outfit under a budget: exact match, best within budget, and budget saver proposals"),
		mcp.WithString("slots",
			mcp.Required(),
			mcp.Description(`JSON array of slots, e.g. [{"category":"hoodie","brand":"Nike","style_tags":["casual"]}]`),
		),
		mcp.WithString("budget",
			mcp.Required(),
			mcp.Description("Budget ceiling in the comparison currency"),
		),
		mcp.WithString("currency",
			mcp.Description("Budget currency (default: configured comparison currency)"),
		),
	)
	s.AddTool(outfitTool, handleBuildOutfit(deps))

	// check_watch_entry
	checkTool := mcp.NewTool("check_watch_entry",
		mcp.WithDescription("Re-check one watch entry now: records a price snapshot and fires the alert when it qualifies"),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("Watch entry id"),
		),
	)
	s.AddTool(checkTool, handleCheckWatchEntry(deps))

	// list_shops
	shopsTool := mcp.NewTool("list_shops",
		mcp.WithDescription("List configured shops with their source kind, trust score and rate limit"),
	)
	s.AddTool(shopsTool, handleListShops(deps))
}

func handleSearchListings(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := shop.Query{
			Text:     request.GetString("text", ""),
			Category: request.GetString("category", ""),
			Brand:    request.GetString("brand", ""),
			Color:    request.GetString("color", ""),
			Limit:    request.GetInt("limit", 20),
		}
		if q.Text == "" && q.Category == "" && q.Brand == "" {
			return mcp.NewToolResultError("give text, category or brand"), nil
		}
		if v := request.GetString("max_price", ""); v != "" {
			maxPrice, err := decimal.NewFromString(v)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid max_price %q", v)), nil
			}
			q.MaxPrice = maxPrice
		}

		outcome, err := deps.Service.Search(ctx, q)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}

		payload := struct {
			Ranked   interface{}       `json:"ranked"`
			Unpriced interface{}       `json:"unpriced,omitempty"`
			Errors   map[string]string `json:"shop_errors,omitempty"`
		}{Ranked: outcome.Ranked, Unpriced: outcome.Unpriced}
		if len(outcome.Errors) > 0 {
			payload.Errors = make(map[string]string, len(outcome.Errors))
			for id, e := range outcome.Errors {
				payload.Errors[id] = e.Error()
			}
		}

		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleBuildOutfit(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var slots []models.CategorySlot
		if err := json.Unmarshal([]byte(request.GetString("slots", "")), &slots); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid slots: %v", err)), nil
		}
		if len(slots) == 0 {
			return mcp.NewToolResultError("slots must not be empty"), nil
		}

		budget, err := decimal.NewFromString(request.GetString("budget", ""))
		if err != nil || !budget.IsPositive() {
			return mcp.NewToolResultError("budget must be a positive number"), nil
		}

		req := models.OutfitRequest{
			Slots:    slots,
			Budget:   budget,
			Currency: request.GetString("currency", ""),
		}

		assemblies, shopErrs, err := deps.Service.BuildAssemblies(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("outfit error: %v", err)), nil
		}

		payload := struct {
			Assemblies interface{}       `json:"assemblies"`
			Errors     map[string]string `json:"shop_errors,omitempty"`
		}{Assemblies: assemblies}
		if len(shopErrs) > 0 {
			payload.Errors = make(map[string]string, len(shopErrs))
			for id, e := range shopErrs {
				payload.Errors[id] = e.Error()
			}
		}

		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleCheckWatchEntry(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entryID := request.GetString("entry_id", "")
		if entryID == "" {
			return mcp.NewToolResultError("entry_id is required"), nil
		}

		result, err := deps.Monitor.Check(ctx, entryID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("check error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleListShops(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type shopInfo struct {
			ID                string `json:"id"`
			Name              string `json:"name"`
			Kind              string `json:"kind"`
			TrustScore        int    `json:"trust_score"`
			Currency          string `json:"currency"`
			RequestsPerMinute int    `json:"requests_per_minute"`
		}
		var shops []shopInfo
		for _, sc := range deps.Registry.Shops() {
			shops = append(shops, shopInfo{
				ID:                sc.ID,
				Name:              sc.Display(),
				Kind:              string(sc.Kind),
				TrustScore:        sc.TrustScore,
				Currency:          sc.Currency,
				RequestsPerMinute: sc.RequestsPerMinute,
			})
		}

		data, _ := json.MarshalIndent(shops, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}
