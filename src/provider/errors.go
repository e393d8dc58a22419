package provider

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL       = errors.New("invalid build URL")
	ErrMissingParameter = errors.New("missing URL parameter")
	ErrInvalidParameter = errors.New("invalid URL parameter")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrBuildNotFound    = errors.New("build not found")
)

// RequestError is a transport-level failure: the request never produced a response.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ResponseError is returned for any non-success HTTP status.
// Body holds the raw response body (best effort). It carries no meaning of its
// own; clients that know what a status means wrap it with ErrAuthFailed or
// ErrBuildNotFound.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// DecodeError reports a response body that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseError reports a malformed pagination header segment.
type ParseError struct {
	Segment string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed link segment %q: %s", e.Segment, e.Reason)
}

// IsTransient reports whether err is worth retrying: transport failures and 5xx responses.
// Everything else, including decode failures and 4xx responses, is fatal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return true
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode >= 500 && respErr.StatusCode <= 599
	}

	return false
}

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts API errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrMissingParameter) || errors.Is(err, ErrInvalidParameter) {
		return &UserError{
			Message: "Invalid build URL",
			Hint:    "Pass the TeamCity build page URL, it must carry a numeric buildId parameter:\n  - https://teamcity.example.com/viewLog.html?buildId=12345",
			Err:     err,
		}
	}

	if errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check teamcity_username and teamcity_password in ~/.bb.yaml\n  (or TEAMCITY_USERNAME / TEAMCITY_PASSWORD in the environment).",
			Err:     err,
		}
	}

	if errors.Is(err, ErrBuildNotFound) {
		return &UserError{
			Message: "Build not found",
			Hint:    "Check that the build URL is correct and you have access to the project.",
			Err:     err,
		}
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return &UserError{
			Message: "Pagination stopped",
			Hint:    "The server returned a Link header that could not be parsed; results so far are complete up to this page.",
			Err:     err,
		}
	}

	return err
}
