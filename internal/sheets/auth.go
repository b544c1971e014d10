package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/logging"
)

// ErrNoToken indicates the OAuth token file is missing.
var ErrNoToken = errors.New("no OAuth token found (run `taskpulse auth` first)")

// Scope grants read/write access to spreadsheets.
const Scope = sheetsapi.SpreadsheetsScope

// LoadOAuthConfig reads an installed-app client secret file.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client credentials %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client credentials %s: %w", credentialsFile, err)
	}
	return cfg, nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoToken, path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes tok as JSON with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// AuthCodeURL returns the consent page URL for the installed-app flow.
func AuthCodeURL(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("taskpulse", oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and saves it.
func Exchange(ctx context.Context, cfg *oauth2.Config, code, tokenFile string) (*oauth2.Token, error) {
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := SaveToken(tokenFile, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// clientOptions builds API client options for the configured auth mode.
func clientOptions(ctx context.Context, cfg config.SheetsConfig, logger *logging.Logger) ([]option.ClientOption, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout.Duration()})

	switch cfg.AuthMode {
	case config.SheetsAuthServiceAccount:
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account key: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, b, Scope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account key: %w", err)
		}
		return []option.ClientOption{option.WithTokenSource(creds.TokenSource)}, nil

	default:
		oauthCfg, err := LoadOAuthConfig(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		tok, err := LoadToken(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		ts := &persistingTokenSource{
			base:   oauthCfg.TokenSource(ctx, tok),
			path:   cfg.TokenFile,
			last:   tok.AccessToken,
			logger: logger,
		}
		return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, nil
	}
}

// persistingTokenSource saves refreshed tokens back to the token file.
type persistingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	path   string
	last   string
	logger *logging.Logger
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := SaveToken(p.path, tok); err != nil {
			p.logger.Warn(context.Background(), "failed to save refreshed token", zap.Error(err))
		} else {
			p.logger.Info(context.Background(), "refreshed OAuth token", zap.String("path", p.path))
		}
	}
	return tok, nil
}
