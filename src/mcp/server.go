package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"baobab/src/github"
	"baobab/src/logger"
	"baobab/src/pipeline"
	"baobab/src/provider"
	"baobab/src/teamcity"
)

// defaultMaxPages is how many pages search_issues reads when max_pages is not given.
const defaultMaxPages = 1

// Settings are the credentials and hosts the tools use.
type Settings struct {
	Credentials teamcity.Credentials
	GitHubHost  string
	GitHubToken string
	HTTPClient  *http.Client
	Log         logger.Logger
}

// Server is the MCP server for baobab.
type Server struct {
	mcpServer *server.MCPServer
	cursors   CursorStore
	settings  Settings
}

// NewServer creates a new MCP server.
func NewServer(settings Settings, version string) *Server {
	if settings.Log == nil {
		settings.Log = logger.NewSilentLogger()
	}
	if settings.HTTPClient == nil {
		settings.HTTPClient = &http.Client{Timeout: teamcity.DefaultTimeout}
	}

	s := server.NewMCPServer(
		"baobab",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		cursors:   NewInMemoryStore(),
		settings:  settings,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	statusTool := mcp.NewTool("get_build_status",
		mcp.WithDescription("Fetch the current status of a TeamCity build once. Returns progress percentage, current stage, a color (green=SUCCESS, red=FAILURE, gray=other) and the raw build snapshot."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("TeamCity build URL containing a buildId query parameter"),
		),
	)

	searchTool := mcp.NewTool("search_issues",
		mcp.WithDescription("Search issues and pull requests on GitHub Enterprise. Follows Link header pagination for up to max_pages pages; pass next_cursor to search_next_page to continue."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("GitHub search query, e.g. 'author:alice is:open is:pr'"),
		),
		mcp.WithString("host",
			mcp.Description("GitHub Enterprise base URL (default: configured github_host)"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Max pages to read (default: 1)"),
		),
	)

	nextTool := mcp.NewTool("search_next_page",
		mcp.WithDescription("Read the next page of a previous search_issues call. Each cursor can be used once."),
		mcp.WithString("cursor",
			mcp.Required(),
			mcp.Description("next_cursor from a search_issues or search_next_page response"),
		),
	)

	s.mcpServer.AddTool(statusTool, s.handleGetBuildStatus)
	s.mcpServer.AddTool(searchTool, s.handleSearchIssues)
	s.mcpServer.AddTool(nextTool, s.handleSearchNextPage)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleGetBuildStatus handles the get_build_status tool call.
func (s *Server) handleGetBuildStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}

	build, desc, err := pipeline.Status(ctx, url, s.settings.Credentials, s.settings.HTTPClient, s.settings.Log)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get build status: %v", provider.WrapError(err))), nil
	}

	return jsonResult(StatusResponse{
		URL:        url,
		Finished:   build.Finished(),
		Percentage: desc.Percentage,
		Label:      compactLabel(desc.Label),
		Color:      string(desc.Color),
		Build:      *build,
	})
}

// handleSearchIssues handles the search_issues tool call.
func (s *Server) handleSearchIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	host := request.GetString("host", s.settings.GitHubHost)
	if host == "" {
		return mcp.NewToolResultError("host parameter is required when github_host is not configured"), nil
	}

	maxPages := request.GetInt("max_pages", defaultMaxPages)
	if maxPages < 1 {
		maxPages = defaultMaxPages
	}

	client := github.NewClient(host, s.settings.GitHubToken, s.settings.HTTPClient, s.settings.Log)
	page, err := client.SearchIssues(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return s.collect(ctx, page, maxPages)
}

// handleSearchNextPage handles the search_next_page tool call.
func (s *Server) handleSearchNextPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cursor := request.GetString("cursor", "")
	if cursor == "" {
		return mcp.NewToolResultError("cursor parameter is required"), nil
	}

	prev, ok := s.cursors.Take(cursor)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("cursor %s is unknown, expired or already used", cursor)), nil
	}

	page, err := prev.NextPage(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if page == nil {
		return jsonResult(SearchResponse{})
	}

	return s.collect(ctx, page, defaultMaxPages)
}

// collect reads up to maxPages pages starting at page and parks the last one
// under a cursor if more results follow.
func (s *Server) collect(ctx context.Context, page *github.Page, maxPages int) (*mcp.CallToolResult, error) {
	resp := SearchResponse{
		TotalCount:        page.TotalCount,
		IncompleteResults: page.IncompleteResults,
		Items:             []github.Issue{},
	}

	for {
		resp.Pages++
		resp.Items = append(resp.Items, page.Items...)
		resp.IncompleteResults = resp.IncompleteResults || page.IncompleteResults

		if err := page.LinkErr(); err != nil {
			resp.LinkError = err.Error()
			break
		}
		if page.Link == nil || page.Link.Next == nil {
			break
		}
		if resp.Pages >= maxPages {
			resp.NextCursor = s.cursors.Put(page)
			break
		}

		next, err := page.NextPage(ctx)
		if err != nil {
			var parseErr *provider.ParseError
			if !errors.As(err, &parseErr) {
				return mcp.NewToolResultError(fmt.Sprintf("search failed on page %d: %v", resp.Pages+1, err)), nil
			}
			resp.LinkError = err.Error()
			break
		}
		if next == nil {
			break
		}
		page = next
	}

	return jsonResult(resp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
