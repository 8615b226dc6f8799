// Package gmail implements read-only access to the payment notification
// inbox over the Gmail API.
package gmail

import (
	"context"
	"fmt"
	"log/slog"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/clinicops/etransfer-sync/internal/common"
	"github.com/clinicops/etransfer-sync/internal/extract"
	"github.com/clinicops/etransfer-sync/internal/gauth"
)

// DefaultQuery matches the deposit notification emails and nothing else.
const DefaultQuery = `subject:"Interac e-Transfer" "deposited"`

// DefaultMaxResults bounds one inbox query page.
const DefaultMaxResults = 20

// ReadonlyScope is the only Gmail permission the pipeline needs.
const ReadonlyScope = gmailapi.GmailReadonlyScope

// Config holds the inbox query settings.
type Config struct {
	Query      string
	MaxResults int64
}

// Client lists and fetches notification messages.
type Client struct {
	svc    *gmailapi.Service
	logger *slog.Logger
	query  string
	max    int64
}

// NewClient builds a client from an authenticated session. A session that
// cannot produce credentials fails here, before any pipeline work starts.
func NewClient(ctx context.Context, session *gauth.Session, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient, err := session.Client(ctx)
	if err != nil {
		return nil, common.NewUserErrorWithHint(
			"cannot access the Gmail inbox",
			"run `etsync auth gmail` to authorize inbox access",
			err)
	}

	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	return &Client{
		svc:    svc,
		logger: logger.With("component", "gmail"),
		query:  cfg.Query,
		max:    cfg.MaxResults,
	}, nil
}

// List returns the ids of messages matching the notification query, in
// the order the provider delivers them.
func (c *Client) List(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Users.Messages.List("me").
		Q(c.query).
		MaxResults(c.max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	c.logger.Debug("inbox query complete", "query", c.query, "found", len(ids))
	return ids, nil
}

// Fetch returns the decoded envelope for one message.
func (c *Client) Fetch(ctx context.Context, id string) (*extract.Envelope, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	return envelopeFromMessage(msg), nil
}
