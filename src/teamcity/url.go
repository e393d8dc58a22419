// Package teamcity provides a client for the TeamCity REST API.
package teamcity

import (
	"fmt"
	"net/url"
	"strconv"

	"baobab/src/provider"
)

// BuildIDParam is the query parameter that carries the build id in TeamCity UI URLs.
const BuildIDParam = "buildId"

// ParseBuildURL extracts the API base URL and the build id from a TeamCity UI URL.
// Expected format: https://teamcity.example.com/viewLog.html?buildId=12345&...
func ParseBuildURL(buildURL string) (BuildRequest, error) {
	parsed, err := url.Parse(buildURL)
	if err != nil {
		return BuildRequest{}, fmt.Errorf("%w: %v", provider.ErrInvalidURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return BuildRequest{}, fmt.Errorf("%w: missing scheme or host in %q", provider.ErrInvalidURL, buildURL)
	}

	apiURL := parsed.Scheme + "://" + parsed.Host

	// Query() skips malformed pairs instead of rejecting the whole URL.
	values, ok := parsed.Query()[BuildIDParam]
	if !ok || len(values) == 0 {
		return BuildRequest{}, fmt.Errorf("%w: %s not found in url", provider.ErrMissingParameter, BuildIDParam)
	}

	id, err := strconv.ParseUint(values[0], 10, 64)
	if err != nil {
		return BuildRequest{}, fmt.Errorf("%w: failed to parse %s %q", provider.ErrInvalidParameter, BuildIDParam, values[0])
	}

	return BuildRequest{
		APIURL:  apiURL,
		BuildID: id,
	}, nil
}
