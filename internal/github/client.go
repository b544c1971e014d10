// Package github implements progress.CommitSource over the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// ErrTokenMissing is returned when no GitHub token is configured.
var ErrTokenMissing = errors.New("GitHub token not set")

// NewClient creates a GitHub client authenticated with a static bearer token.
// A non-empty cfg.BaseURL points the client at a GitHub Enterprise API root.
func NewClient(ctx context.Context, cfg config.GitHubConfig) (*gh.Client, error) {
	if !cfg.Token.IsSet() {
		return nil, ErrTokenMissing
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout.Duration()})
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
	client := gh.NewClient(oauth2.NewClient(ctx, ts))

	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set GitHub base URL: %w", err)
		}
	}
	return client, nil
}
