package teamcity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"baobab/src/logger"
	"baobab/src/provider"
)

// DefaultTimeout bounds every request made by a client built with a nil *http.Client.
const DefaultTimeout = 30 * time.Second

// Credentials are the static Basic Auth credentials for the TeamCity server.
type Credentials struct {
	Username string
	Password string
}

// Client is a TeamCity REST API client. It is safe for concurrent use.
type Client struct {
	apiURL     string
	creds      Credentials
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a client for the server at apiURL (scheme://host).
// httpClient may be shared with other clients; nil means a private client with DefaultTimeout.
func NewClient(apiURL string, creds Credentials, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Client{
		apiURL:     apiURL,
		creds:      creds,
		httpClient: httpClient,
		log:        log,
	}
}

// BuildURL returns the REST resource URL for a build.
func (c *Client) BuildURL(buildID uint64) string {
	return fmt.Sprintf("%s/app/rest/builds/id:%d", c.apiURL, buildID)
}

// GetBuild fetches the current state of a build.
//
// Errors are *provider.RequestError (transport), *provider.ResponseError
// (non-2xx status; 401/403 also match provider.ErrAuthFailed and 404
// provider.ErrBuildNotFound) or *provider.DecodeError (malformed body).
func (c *Client) GetBuild(ctx context.Context, buildID uint64) (*Build, error) {
	url := c.BuildURL(buildID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.RequestError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.RequestError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}

	c.log.Debug("got build %s", body)

	var build Build
	if err := json.Unmarshal(body, &build); err != nil {
		return nil, &provider.DecodeError{Err: err}
	}

	return &build, nil
}

// statusError wraps the status codes that mean something for a build lookup.
func statusError(status int, body []byte) error {
	respErr := &provider.ResponseError{StatusCode: status, Body: string(body)}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", provider.ErrAuthFailed, respErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", provider.ErrBuildNotFound, respErr)
	}
	return respErr
}
