package gauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/clinicops/etransfer-sync/internal/common"
)

// TokenEnvVar is the environment variable the headless robot reads the
// token JSON from when no token file is available.
const TokenEnvVar = "GMAIL_TOKEN"

// readStoredToken loads a token from the given file, falling back to the
// environment. The returned source names where the token came from.
func readStoredToken(tokenFile string) (*oauth2.Token, string, error) {
	if tokenFile != "" {
		token, err := readTokenFile(tokenFile)
		if err == nil {
			return token, "file", nil
		}
		if !os.IsNotExist(err) {
			return nil, "", err
		}
	}

	if blob := os.Getenv(TokenEnvVar); blob != "" {
		token := &oauth2.Token{}
		if err := json.Unmarshal([]byte(blob), token); err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", TokenEnvVar, err)
		}
		return token, "env", nil
	}

	return nil, "", common.ErrNoCredentials
}

func readTokenFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token, nil
}

func writeTokenFile(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}
