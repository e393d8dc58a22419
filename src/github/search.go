// Package github is a client for the GitHub Enterprise issue search API that
// follows cursor pagination through the Link response header.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"baobab/src/logger"
	"baobab/src/provider"
)

// DefaultTimeout bounds every request made by a client built with a nil *http.Client.
const DefaultTimeout = 30 * time.Second

// ErrPageConsumed is returned when a page is advanced a second time.
var ErrPageConsumed = errors.New("page was already advanced")

// Issue is one search result.
type Issue struct {
	URL   string `json:"url"`
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

type issuesResponse struct {
	TotalCount        uint64  `json:"total_count"`
	IncompleteResults bool    `json:"incomplete_results"`
	Items             []Issue `json:"items"`
}

// Client searches issues on one GitHub Enterprise host. It is immutable and
// safe for concurrent use; pages share it.
type Client struct {
	host       string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a client for host (e.g. https://github.example.com).
// An empty token sends unauthenticated requests.
func NewClient(host, token string, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		token:      token,
		httpClient: httpClient,
		log:        log,
	}
}

// SearchURL returns the first-page URL for query.
func (c *Client) SearchURL(query string) string {
	return fmt.Sprintf("%s/api/v3/search/issues?q=%s", c.host, url.QueryEscape(query))
}

// SearchIssues fetches the first page of results for query.
func (c *Client) SearchIssues(ctx context.Context, query string) (*Page, error) {
	return c.fetchPage(ctx, c.SearchURL(query))
}

// SearchAuthor finds issues and pull requests opened by username.
func (c *Client) SearchAuthor(ctx context.Context, username string) (*Page, error) {
	return c.SearchIssues(ctx, "author:"+username)
}

// Walk calls fn for each page of results in order. It stops after the last
// page, after maxPages pages (when maxPages > 0), or on the first error.
func (c *Client) Walk(ctx context.Context, query string, maxPages int, fn func(*Page) error) error {
	page, err := c.SearchIssues(ctx, query)
	if err != nil {
		return err
	}

	for n := 1; page != nil; n++ {
		if err := fn(page); err != nil {
			return err
		}
		if maxPages > 0 && n >= maxPages {
			return nil
		}
		if page, err = page.NextPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.RequestError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		text := string(body)
		if err != nil {
			text = fmt.Sprintf("<failed to read body: %v>", err)
		}
		return nil, &provider.ResponseError{StatusCode: resp.StatusCode, Body: text}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.RequestError{URL: pageURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var result issuesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &provider.DecodeError{Err: err}
	}

	page := &Page{
		Items:             result.Items,
		TotalCount:        result.TotalCount,
		IncompleteResults: result.IncompleteResults,
		URL:               pageURL,
		client:            c,
	}

	if values := resp.Header.Values("Link"); len(values) > 0 {
		link, err := ParseLink(strings.Join(values, ", "))
		if err != nil {
			c.log.Warn("ignoring Link header on %s: %v", pageURL, err)
			page.linkErr = err
		} else {
			page.Link = &link
		}
	}

	c.log.Debug("fetched %d issues from %s", len(page.Items), pageURL)

	return page, nil
}

// Page is one page of search results. It can be advanced at most once, in either direction.
type Page struct {
	Items             []Issue
	TotalCount        uint64
	IncompleteResults bool
	// Link is nil when the response carried no Link header or it failed to parse.
	Link *Link
	// URL this page was fetched from.
	URL string

	client   *Client
	linkErr  error
	consumed atomic.Bool
}

// LinkErr returns the error from parsing this page's Link header, if any.
// Items are still valid when it is non-nil.
func (p *Page) LinkErr() error {
	return p.linkErr
}

// NextPage fetches the following page. It returns (nil, nil) on the last page.
func (p *Page) NextPage(ctx context.Context) (*Page, error) {
	return p.advance(ctx, func(l *Link) *string { return l.Next })
}

// PrevPage fetches the preceding page. It returns (nil, nil) on the first page.
func (p *Page) PrevPage(ctx context.Context) (*Page, error) {
	return p.advance(ctx, func(l *Link) *string { return l.Prev })
}

func (p *Page) advance(ctx context.Context, target func(*Link) *string) (*Page, error) {
	if !p.consumed.CompareAndSwap(false, true) {
		return nil, ErrPageConsumed
	}
	if p.linkErr != nil {
		return nil, p.linkErr
	}
	if p.Link == nil {
		return nil, nil
	}

	next := target(p.Link)
	if next == nil {
		return nil, nil
	}
	return p.client.fetchPage(ctx, *next)
}
