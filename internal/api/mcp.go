package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tania063/katalog-challenge/internal/catalog"
	"github.com/tania063/katalog-challenge/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store   *storage.Store
	Catalog ProductFetcher
}

// NewMCPServer creates an MCP server exposing the storefront to assistant
// clients: catalog browsing, the rating aggregate, rating submission, and
// the about content as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"katalog",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("katalog is Tania's portfolio storefront: product catalog, visitor ratings, and about content."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("browse_products",
			mcp.WithDescription("Fetch the current product catalog with prices and demo stock levels."),
			mcp.WithString("query", mcp.Description("Optional case-insensitive substring filter on product titles")),
		),
		mcpBrowseProducts(deps),
	)

	s.AddTool(
		mcp.NewTool("rating_summary",
			mcp.WithDescription("Return the current visitor rating aggregate (average and count)."),
		),
		mcpRatingSummary(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_rating",
			mcp.WithDescription("Submit an anonymous 1-5 rating for the site."),
			mcp.WithNumber("value", mcp.Description("Integer rating between 1 and 5"), mcp.Required()),
		),
		mcpSubmitRating(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"store://about",
			"About",
			mcp.WithResourceDescription("Portfolio about sections as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceAbout(deps),
	)

	return s
}

func mcpBrowseProducts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		products, err := deps.Catalog.Fetch(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to fetch catalog: %v", err)), nil
		}

		query := req.GetString("query", "")
		if query != "" {
			filtered := products[:0]
			for _, p := range products {
				if containsFold(p.Title, query) {
					filtered = append(filtered, p)
				}
			}
			products = filtered
		}
		if products == nil {
			products = []catalog.Product{}
		}

		b, err := json.Marshal(products)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal products: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRatingSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := deps.Store.RatingSummaryView()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to aggregate ratings: %v", err)), nil
		}

		b, err := json.Marshal(summary)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSubmitRating(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value, err := req.RequireFloat("value")
		if err != nil {
			return mcpError("value is required"), nil
		}
		if value != math.Trunc(value) || value < 1 || value > 5 {
			return mcpError("Invalid rating value"), nil
		}

		rating := storage.Rating{
			ID:        uuid.New().String(),
			Value:     int(value),
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.SaveRating(rating); err != nil {
			return mcpError(fmt.Sprintf("failed to save rating: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Recorded rating %d", rating.Value)), nil
	}
}

func mcpResourceAbout(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := deps.Store.ListAboutEntries()
		if err != nil {
			return nil, fmt.Errorf("failed to list about entries: %w", err)
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal about entries: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
	}
}
