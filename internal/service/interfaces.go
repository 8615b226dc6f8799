// Package service defines the interfaces between the sync pipeline and its
// external collaborators.
package service

import (
	"context"
	"time"

	"github.com/clinicops/etransfer-sync/internal/extract"
	"github.com/clinicops/etransfer-sync/internal/model"
)

// MailSource is read-only access to the payment notification inbox.
type MailSource interface {
	// List returns the ids of messages matching the fixed notification
	// query, bounded by the configured page cap.
	List(ctx context.Context) ([]string, error)

	// Fetch returns the decoded envelope for one message.
	Fetch(ctx context.Context, id string) (*extract.Envelope, error)
}

// LedgerStore is the persisted payments table.
type LedgerStore interface {
	// Title returns the display name of the backing workbook.
	Title(ctx context.Context) (string, error)

	// Snapshot bulk-reads the entire worksheet, header included.
	Snapshot(ctx context.Context) (*model.LedgerSnapshot, error)

	// Append writes rows in one batch call. The batch lands whole or not
	// at all.
	Append(ctx context.Context, rows []model.LedgerRow) error

	// Replace rewrites the worksheet with the given header and rows.
	// Used only by the maintenance commands.
	Replace(ctx context.Context, header []string, rows []model.LedgerRow) error
}

// RunRecorder persists the local journal of sync runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.SyncRun) error
	RecentRuns(ctx context.Context, limit int) ([]model.SyncRun, error)
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
