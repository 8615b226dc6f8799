// Package config resolves the application's settings from the config
// file, environment variables, and built-in defaults, in that order of
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/clinicops/etransfer-sync/internal/gauth"
	"github.com/clinicops/etransfer-sync/internal/gmail"
	"github.com/clinicops/etransfer-sync/internal/ledger"
	"github.com/clinicops/etransfer-sync/internal/reconcile"
)

// Default file locations, relative to the operator's home.
const (
	DefaultTokenFile   = "~/.config/etsync/gmail_token.json"
	DefaultHistoryPath = "~/.local/share/etsync/history.db"
)

// LoadAuthConfig resolves the OAuth client settings for the Gmail
// session. Viper keys win over the GMAIL_CLIENT_ID and
// GMAIL_CLIENT_SECRET environment variables.
func LoadAuthConfig() gauth.Config {
	cfg := gauth.Config{
		ClientID:     viper.GetString("gmail.client_id"),
		ClientSecret: viper.GetString("gmail.client_secret"),
		TokenFile:    ExpandPath(viper.GetString("gmail.token_file")),
		Scopes:       []string{gmail.ReadonlyScope},
	}
	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("GMAIL_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = os.Getenv("GMAIL_CLIENT_SECRET")
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = ExpandPath(DefaultTokenFile)
	}
	return cfg
}

// LoadGmailConfig resolves the inbox query settings. Zero values defer
// to the client's defaults.
func LoadGmailConfig() gmail.Config {
	return gmail.Config{
		Query:      viper.GetString("gmail.query"),
		MaxResults: viper.GetInt64("gmail.max_results"),
	}
}

// LoadLedgerConfig resolves and validates the Google Sheets settings.
// The GCP_JSON environment variable supplies the service-account key
// when the config file names no key path.
func LoadLedgerConfig() (ledger.Config, error) {
	cfg := ledger.DefaultConfig()

	if v := viper.GetString("ledger.service_account_path"); v != "" {
		cfg.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("ledger.spreadsheet_id"); v != "" {
		cfg.SpreadsheetID = v
	}
	if v := viper.GetString("ledger.spreadsheet_name"); v != "" {
		cfg.SpreadsheetName = v
	}
	if v := viper.GetString("ledger.worksheet"); v != "" {
		cfg.Worksheet = v
	}
	if v := viper.GetInt("ledger.retry_attempts"); v > 0 {
		cfg.RetryAttempts = v
	}
	if v := viper.GetDuration("ledger.retry_delay"); v > 0 {
		cfg.RetryDelay = v
	}

	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return ledger.Config{}, err
	}
	return cfg, nil
}

// HistoryPath resolves the run journal's SQLite path.
func HistoryPath() string {
	path := viper.GetString("history.path")
	if path == "" {
		path = DefaultHistoryPath
	}
	return ExpandPath(path)
}

// PayeeRules reads the payee lookup table from configuration. A missing
// key returns nil so the built-in defaults apply.
func PayeeRules() ([]reconcile.PayeeRule, error) {
	if !viper.IsSet("payees") {
		return nil, nil
	}
	var rules []reconcile.PayeeRule
	if err := viper.UnmarshalKey("payees", &rules); err != nil {
		return nil, fmt.Errorf("invalid payees configuration: %w", err)
	}
	return rules, nil
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Then expand environment variables
	return os.ExpandEnv(path)
}
