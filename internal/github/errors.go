package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v57/github"
)

// Kind classifies a failed API call for logs and metrics.
type Kind string

const (
	KindRateLimited Kind = "rate_limited"
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindInvalid     Kind = "invalid"
	KindServer      Kind = "server"
	KindTransport   Kind = "transport"
	KindCanceled    Kind = "canceled"
)

// APIError is a failed GitHub call.
type APIError struct {
	Op     string // "compare" or "commit"
	Repo   string
	Kind   Kind
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s failed (%s, HTTP %d): %v", e.Op, e.Repo, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s failed (%s): %v", e.Op, e.Repo, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" if it is not an APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func newAPIError(op, repo string, resp *gh.Response, err error) *APIError {
	return &APIError{
		Op:     op,
		Repo:   repo,
		Kind:   classify(resp, err),
		Status: statusCode(resp),
		Err:    err,
	}
}

// classify maps a response/error pair onto a Kind. Nothing is retried.
func classify(resp *gh.Response, err error) Kind {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return KindRateLimited
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}

	code := statusCode(resp)
	switch {
	case code == 0:
		return KindTransport
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusForbidden && resp.Rate.Limit > 0 && resp.Rate.Remaining == 0:
		return KindRateLimited
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusNotFound:
		return KindNotFound
	case code >= 500:
		return KindServer
	default:
		return KindInvalid
	}
}

// statusCode safely extracts the HTTP status code from a GitHub response.
func statusCode(resp *gh.Response) int {
	if resp != nil && resp.Response != nil {
		return resp.Response.StatusCode
	}
	return 0
}
