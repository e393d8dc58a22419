// Package mcp provides the MCP server that exposes build status and issue search as tools.
package mcp

import (
	"baobab/src/github"
	"baobab/src/teamcity"
)

// StatusResponse is the get_build_status result.
type StatusResponse struct {
	URL        string         `json:"url"`
	Finished   bool           `json:"finished"`
	Percentage int            `json:"percentage"`
	Label      string         `json:"label"`
	Color      string         `json:"color"`
	Build      teamcity.Build `json:"build"`
}

// SearchResponse is the search_issues and search_next_page result.
type SearchResponse struct {
	TotalCount        uint64         `json:"total_count"`
	IncompleteResults bool           `json:"incomplete_results"`
	Pages             int            `json:"pages"`
	Items             []github.Issue `json:"items"`
	// NextCursor continues the search with search_next_page; empty on the last page.
	NextCursor string `json:"next_cursor,omitempty"`
	// LinkError explains why traversal stopped early, when it did.
	LinkError string `json:"link_error,omitempty"`
}
