package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"baobab/src/teamcity"
)

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()

	var request mcp.CallToolRequest
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}

	switch content := result.Content[0].(type) {
	case mcp.TextContent:
		return content.Text, result.IsError
	case *mcp.TextContent:
		return content.Text, result.IsError
	default:
		t.Fatalf("unexpected content type %T", content)
		return "", false
	}
}

func TestGetBuildStatus(t *testing.T) {
	teamCity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		if user != "alice" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status": "SUCCESS", "state": "running", "percentageComplete": 33,
			"webUrl": "https://tc/1", "running-info": {"currentStageText": "Step 2/3:   /home/agent/work/abc/src/main.go:12"}}`))
	}))
	defer teamCity.Close()

	srv := NewServer(Settings{Credentials: teamcity.Credentials{Username: "alice", Password: "pw"}}, "test")

	text, isError := callTool(t, srv.handleGetBuildStatus, map[string]any{"url": teamCity.URL + "/viewLog.html?buildId=1"})
	if isError {
		t.Fatalf("unexpected tool error: %s", text)
	}

	var resp StatusResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Percentage != 33 || resp.Color != "green" || resp.Finished {
		t.Errorf("unexpected status: %+v", resp)
	}
	if resp.Label != "Step 2/3: .../main.go:12" {
		t.Errorf("Label = %q", resp.Label)
	}
	if resp.Build.WebURL != "https://tc/1" {
		t.Errorf("Build.WebURL = %q", resp.Build.WebURL)
	}
}

func TestGetBuildStatus_Errors(t *testing.T) {
	srv := NewServer(Settings{}, "test")

	text, isError := callTool(t, srv.handleGetBuildStatus, map[string]any{})
	if !isError || !strings.Contains(text, "url parameter is required") {
		t.Errorf("expected missing url error, got %q", text)
	}

	text, isError = callTool(t, srv.handleGetBuildStatus, map[string]any{"url": "https://tc/viewLog.html"})
	if !isError || !strings.Contains(text, "buildId") {
		t.Errorf("expected missing buildId error, got %q", text)
	}
}

// githubServer serves n pages of one issue each.
func githubServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 1
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)

		var links []string
		if page < n {
			links = append(links, fmt.Sprintf(`<%s/api/v3/search/issues?q=x&page=%d>; rel="next"`, server.URL, page+1))
		}
		if page > 1 {
			links = append(links, fmt.Sprintf(`<%s/api/v3/search/issues?q=x&page=%d>; rel="prev"`, server.URL, page-1))
		}
		if len(links) > 0 {
			w.Header().Set("Link", strings.Join(links, ", "))
		}
		fmt.Fprintf(w, `{"total_count": %d, "incomplete_results": false, "items": [{"url": "u%d", "id": %d, "title": "t%d"}]}`, n, page, page, page)
	}))
	t.Cleanup(server.Close)
	return server
}

func decodeSearch(t *testing.T, text string, isError bool) SearchResponse {
	t.Helper()
	if isError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var resp SearchResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return resp
}

func TestSearchIssues_CursorTraversal(t *testing.T) {
	gh := githubServer(t, 3)
	srv := NewServer(Settings{GitHubHost: gh.URL}, "test")

	text1, isError1 := callTool(t, srv.handleSearchIssues, map[string]any{"query": "x", "max_pages": float64(2)})
	resp := decodeSearch(t, text1, isError1)
	if resp.Pages != 2 || len(resp.Items) != 2 || resp.TotalCount != 3 {
		t.Fatalf("unexpected first response: %+v", resp)
	}
	if resp.NextCursor == "" {
		t.Fatal("expected a cursor for the remaining page")
	}

	cursor := resp.NextCursor
	text2, isError2 := callTool(t, srv.handleSearchNextPage, map[string]any{"cursor": cursor})
	resp = decodeSearch(t, text2, isError2)
	if len(resp.Items) != 1 || resp.Items[0].ID != 3 {
		t.Fatalf("unexpected last page: %+v", resp)
	}
	if resp.NextCursor != "" {
		t.Errorf("last page should not return a cursor, got %s", resp.NextCursor)
	}

	// A cursor works once.
	text, isError := callTool(t, srv.handleSearchNextPage, map[string]any{"cursor": cursor})
	if !isError || !strings.Contains(text, "already used") {
		t.Errorf("expected reused cursor error, got %q", text)
	}
}

func TestSearchIssues_AllPages(t *testing.T) {
	gh := githubServer(t, 3)
	srv := NewServer(Settings{}, "test")

	text3, isError3 := callTool(t, srv.handleSearchIssues, map[string]any{"query": "x", "host": gh.URL, "max_pages": float64(10)})
	resp := decodeSearch(t, text3, isError3)
	if resp.Pages != 3 || len(resp.Items) != 3 || resp.NextCursor != "" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSearchIssues_MalformedLink(t *testing.T) {
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `https://x/2; rel="next"`)
		w.Write([]byte(`{"total_count": 5, "items": [{"id": 1}]}`))
	}))
	defer gh.Close()

	srv := NewServer(Settings{GitHubHost: gh.URL}, "test")
	text4, isError4 := callTool(t, srv.handleSearchIssues, map[string]any{"query": "x", "max_pages": float64(5)})
	resp := decodeSearch(t, text4, isError4)

	if len(resp.Items) != 1 {
		t.Errorf("items from the first page should be kept, got %+v", resp.Items)
	}
	if resp.LinkError == "" || resp.NextCursor != "" {
		t.Errorf("expected link error without cursor, got %+v", resp)
	}
}

func TestSearchIssues_Errors(t *testing.T) {
	srv := NewServer(Settings{}, "test")

	if text, isError := callTool(t, srv.handleSearchIssues, map[string]any{}); !isError || !strings.Contains(text, "query") {
		t.Errorf("expected missing query error, got %q", text)
	}
	if text, isError := callTool(t, srv.handleSearchIssues, map[string]any{"query": "x"}); !isError || !strings.Contains(text, "host") {
		t.Errorf("expected missing host error, got %q", text)
	}

	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("rate limited"))
	}))
	defer gh.Close()

	text, isError := callTool(t, srv.handleSearchIssues, map[string]any{"query": "x", "host": gh.URL})
	if !isError || !strings.Contains(text, "403") {
		t.Errorf("expected 403 error, got %q", text)
	}
}
