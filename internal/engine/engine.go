// Package engine orchestrates one sync run: query the inbox, parse each
// message, reconcile against the ledger, and commit the surviving rows in
// a single batch append.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/etransfer-sync/internal/common"
	"github.com/clinicops/etransfer-sync/internal/extract"
	"github.com/clinicops/etransfer-sync/internal/model"
	"github.com/clinicops/etransfer-sync/internal/reconcile"
	"github.com/clinicops/etransfer-sync/internal/service"
)

// Config holds the engine's run settings.
type Config struct {
	// OnProgress is invoked after each message is handled during Collect.
	OnProgress func(done, total int)
	// PayeeRules overrides the default payee lookup table when set.
	PayeeRules []reconcile.PayeeRule
	// Mode tags the run in the journal.
	Mode model.RunMode
}

// Engine runs the sync pipeline against injected collaborators. At most
// one run may be in flight per engine: Collect acquires the run slot and
// Commit or Discard releases it.
type Engine struct {
	mail       service.MailSource
	ledger     service.LedgerStore
	recorder   service.RunRecorder
	parser     *extract.Parser
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
	onProgress func(done, total int)
	mode       model.RunMode
	running    atomic.Bool
}

// New creates an engine. The recorder may be nil when no run journal is
// configured; a nil logger falls back to the default.
func New(mail service.MailSource, ledger service.LedgerStore, recorder service.RunRecorder, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = model.RunModeManual
	}
	return &Engine{
		mail:       mail,
		ledger:     ledger,
		recorder:   recorder,
		parser:     extract.NewParser(logger),
		reconciler: reconcile.NewReconciler(reconcile.NewPayeeTable(cfg.PayeeRules), logger),
		logger:     logger.With("component", "engine"),
		onProgress: cfg.OnProgress,
		mode:       cfg.Mode,
	}
}

// Collect queries the inbox, parses every message, and reconciles the
// candidates against a fresh ledger snapshot. The returned batch holds
// the rows that would be appended; nothing is written yet. The run slot
// stays held until Commit or Discard.
func (e *Engine) Collect(ctx context.Context) (*Batch, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, common.ErrRunInProgress
	}

	run := &model.SyncRun{
		ID:        uuid.NewString(),
		Mode:      e.mode,
		StartedAt: time.Now(),
	}

	ids, err := e.mail.List(ctx)
	if err != nil {
		return nil, e.fail(ctx, run, fmt.Errorf("failed to query inbox: %w", err))
	}
	run.MessagesFound = len(ids)
	e.logger.Info("inbox queried", "run_id", run.ID, "found", len(ids))

	candidates, err := e.parseMessages(ctx, ids)
	if err != nil {
		return nil, e.fail(ctx, run, err)
	}
	run.Parsed = len(candidates)
	for _, p := range candidates {
		if p.LowConfidence {
			run.LowConfidence++
		}
	}

	snapshot, err := e.ledger.Snapshot(ctx)
	if err != nil {
		return nil, e.fail(ctx, run, fmt.Errorf("failed to read ledger: %w", err))
	}
	if snapshot.RaggedRows > 0 {
		e.logger.Warn("ledger has ragged rows", "count", snapshot.RaggedRows)
	}

	results := e.reconciler.Reconcile(candidates, snapshot.Rows)
	run.Duplicates = run.Parsed - len(results)
	run.NewRows = len(results)

	e.logger.Info("reconciliation complete",
		"run_id", run.ID,
		"candidates", run.Parsed,
		"duplicates", run.Duplicates,
		"new_rows", run.NewRows,
		"low_confidence", run.LowConfidence)

	return newBatch(run, results), nil
}

// parseMessages fetches and parses each message in order. A failure on
// one message is logged and skipped; the rest of the batch continues.
// Only context cancellation stops the loop early.
func (e *Engine) parseMessages(ctx context.Context, ids []string) ([]model.Payment, error) {
	candidates := make([]model.Payment, 0, len(ids))
	for i, id := range ids {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		env, err := e.mail.Fetch(ctx, id)
		if err != nil {
			e.logger.Warn("skipping unreadable message", "message_id", id, "error", err)
			e.progress(i+1, len(ids))
			continue
		}

		payment, err := e.parser.Parse(*env)
		if err != nil {
			e.logger.Warn("skipping unparsable message", "message_id", id, "error", err)
			e.progress(i+1, len(ids))
			continue
		}

		candidates = append(candidates, *payment)
		e.progress(i+1, len(ids))
	}
	return candidates, nil
}

func (e *Engine) progress(done, total int) {
	if e.onProgress != nil {
		e.onProgress(done, total)
	}
}

// Commit appends the batch's kept rows to the ledger in one call and
// records the finished run. Either the whole batch lands or none of it.
// The run slot is released regardless of outcome.
func (e *Engine) Commit(ctx context.Context, batch *Batch) (*model.SyncRun, error) {
	if batch == nil {
		return nil, fmt.Errorf("cannot commit a nil batch")
	}

	rows := batch.Rows()
	if len(rows) > 0 {
		if err := e.ledger.Append(ctx, rows); err != nil {
			return batch.run, e.fail(ctx, batch.run, fmt.Errorf("failed to append to ledger: %w", err))
		}
	}

	batch.run.Appended = len(rows)
	batch.run.Status = model.RunStatusSucceeded
	e.finish(ctx, batch.run)

	e.logger.Info("run committed",
		"run_id", batch.run.ID,
		"appended", len(rows))
	return batch.run, nil
}

// Discard ends the run without writing anything, recording it with the
// given terminal status (dry-run or cancelled) and releasing the run
// slot.
func (e *Engine) Discard(ctx context.Context, batch *Batch, status model.RunStatus) *model.SyncRun {
	if batch == nil {
		return nil
	}
	batch.run.Status = status
	e.finish(ctx, batch.run)

	e.logger.Info("run discarded", "run_id", batch.run.ID, "status", string(status))
	return batch.run
}

// fail records the run as failed, releases the run slot, and returns the
// error for the caller to surface.
func (e *Engine) fail(ctx context.Context, run *model.SyncRun, err error) error {
	run.Status = model.RunStatusFailed
	run.Error = err.Error()
	e.finish(ctx, run)
	return err
}

// finish stamps the run, writes it to the journal, and releases the run
// slot. Journal failures are logged, never fatal: the journal is a local
// convenience, not part of the pipeline's contract. Cancelled runs are
// journaled too, so the write must outlive the context that ended them.
func (e *Engine) finish(ctx context.Context, run *model.SyncRun) {
	run.FinishedAt = time.Now()
	if e.recorder != nil {
		if err := e.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
			e.logger.Warn("failed to record run in journal", "run_id", run.ID, "error", err)
		}
	}
	e.running.Store(false)
}
