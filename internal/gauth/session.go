// Package gauth manages the Google OAuth session used by the mail source.
// The session is an explicit finite-state object: every transition happens
// through a method call triggered by a concrete event, never through
// ambient global state.
package gauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/clinicops/etransfer-sync/internal/common"
)

// State is one phase of the session lifecycle.
type State string

// Session lifecycle states.
const (
	StateUnauthenticated  State = "unauthenticated"
	StateAwaitingUserCode State = "awaiting-user-code"
	StateAuthenticated    State = "authenticated"
	StateExpired          State = "expired"
)

// oobRedirectURL asks Google to display the authorization code for the
// operator to paste back instead of redirecting to a local server, so the
// flow works on headless machines.
const oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// Config carries the OAuth client settings for a session.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	Scopes       []string
}

// Session tracks one Google OAuth identity through its lifecycle. It is
// passed explicitly into the mail source; callers drive it from a single
// goroutine, matching the pipeline's one-run-at-a-time model.
type Session struct {
	oauth  *oauth2.Config
	token  *oauth2.Token
	logger *slog.Logger
	cfg    Config
	state  State
}

// NewSession creates an unauthenticated session.
func NewSession(cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  oobRedirectURL,
			Scopes:       cfg.Scopes,
		},
		logger: logger.With("component", "gauth"),
		state:  StateUnauthenticated,
	}
}

// State returns the session's current lifecycle phase.
func (s *Session) State() State {
	return s.state
}

// Token returns the current token, or nil before authentication.
func (s *Session) Token() *oauth2.Token {
	return s.token
}

// LoadStoredToken pulls a previously saved token from the token file or,
// failing that, from the environment, and advances the session: a valid
// token authenticates, an expired one holding a refresh token parks the
// session in Expired so EnsureFresh can revive it, anything else leaves
// it unauthenticated.
func (s *Session) LoadStoredToken() error {
	token, source, err := readStoredToken(s.cfg.TokenFile)
	if err != nil {
		return err
	}
	s.adoptToken(token)
	s.logger.Debug("stored token loaded", "source", source, "state", string(s.state))
	return nil
}

// BeginUserAuth produces the consent URL the operator must visit and
// moves the session to AwaitingUserCode. Offline access is requested so
// the first exchange returns a refresh token.
func (s *Session) BeginUserAuth() (string, error) {
	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		return "", common.NewUserErrorWithHint(
			"OAuth client is not configured",
			"set gmail.client_id and gmail.client_secret in the config file",
			common.ErrNoCredentials)
	}
	s.state = StateAwaitingUserCode
	return s.oauth.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// SubmitCode exchanges the pasted authorization code for a token. Valid
// only while the session is awaiting a code.
func (s *Session) SubmitCode(ctx context.Context, code string) error {
	if s.state != StateAwaitingUserCode {
		return fmt.Errorf("no authorization pending in state %q", s.state)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("authorization code is empty")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.state = StateUnauthenticated
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	s.adoptToken(token)
	s.persist()
	return nil
}

// EnsureFresh verifies the session can make calls right now, refreshing
// an expired token when a refresh token is available. This is the only
// transition out of Expired short of a new user authorization.
func (s *Session) EnsureFresh(ctx context.Context) error {
	switch s.state {
	case StateAuthenticated:
		if s.token.Valid() {
			return nil
		}
		s.state = StateExpired
	case StateExpired:
		// Fall through to the refresh attempt.
	case StateUnauthenticated, StateAwaitingUserCode:
		return common.ErrNoCredentials
	}

	if s.token == nil || s.token.RefreshToken == "" {
		return common.ErrSessionExpired
	}

	s.logger.Info("token expired, refreshing")
	newToken, err := s.oauth.TokenSource(ctx, s.token).Token()
	if err != nil {
		s.state = StateExpired
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	s.adoptToken(newToken)
	s.persist()
	return nil
}

// Client returns an HTTP client bound to the session's token. Only a
// session that can reach the Authenticated state produces one.
func (s *Session) Client(ctx context.Context) (*http.Client, error) {
	if err := s.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	return s.oauth.Client(ctx, s.token), nil
}

// adoptToken installs a token and derives the matching state from it.
func (s *Session) adoptToken(token *oauth2.Token) {
	s.token = token
	switch {
	case token == nil:
		s.state = StateUnauthenticated
	case token.Valid():
		s.state = StateAuthenticated
	case token.RefreshToken != "":
		s.state = StateExpired
	default:
		s.state = StateUnauthenticated
	}
}

// persist saves the current token to the configured file. Persistence
// failures are logged, not fatal: the in-memory session stays usable.
func (s *Session) persist() {
	if s.cfg.TokenFile == "" || s.token == nil {
		return
	}
	if err := writeTokenFile(s.cfg.TokenFile, s.token); err != nil {
		s.logger.Warn("failed to save token", "error", err, "file", s.cfg.TokenFile)
		return
	}
	s.logger.Debug("token saved", "file", s.cfg.TokenFile)
}
