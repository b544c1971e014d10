package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/sheets"
)

// authCmd runs the Google OAuth installed-app flow
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Google Sheets",
	Long: `Run the OAuth consent flow for Google Sheets and save the token to
sheets.token_file. Requires sheets.credentials_file to point at an OAuth
client secret for an installed application.

Not needed when sheets.auth_mode is service_account.`,
	RunE: runAuth,
}

func runAuth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}
	if cfg.Sheets.AuthMode == config.SheetsAuthServiceAccount {
		cmd.Println("sheets.auth_mode is service_account; no token needed.")
		return nil
	}

	oauthCfg, err := sheets.LoadOAuthConfig(cfg.Sheets.CredentialsFile)
	if err != nil {
		return err
	}

	cmd.Printf("Open this URL in a browser and authorize access:\n\n  %s\n\n", sheets.AuthCodeURL(oauthCfg))
	cmd.Print("Paste the authorization code: ")

	code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && strings.TrimSpace(code) == "" {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code entered")
	}

	if _, err := sheets.Exchange(ctx, oauthCfg, code, cfg.Sheets.TokenFile); err != nil {
		return err
	}
	cmd.Printf("Token saved to %s\n", cfg.Sheets.TokenFile)
	return nil
}
