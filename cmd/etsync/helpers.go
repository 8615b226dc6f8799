package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clinicops/etransfer-sync/internal/common"
	"github.com/clinicops/etransfer-sync/internal/config"
	"github.com/clinicops/etransfer-sync/internal/engine"
	"github.com/clinicops/etransfer-sync/internal/gauth"
	"github.com/clinicops/etransfer-sync/internal/gmail"
	"github.com/clinicops/etransfer-sync/internal/history"
	"github.com/clinicops/etransfer-sync/internal/ledger"
	"github.com/clinicops/etransfer-sync/internal/service"
)

// newSession builds a Gmail OAuth session from config and loads any stored
// token. A missing token is not an error here: commands that need an
// authorized client get a UserError from the mail client instead, and
// "auth gmail" starts from a blank session anyway.
func newSession() *gauth.Session {
	session := gauth.NewSession(config.LoadAuthConfig(), slog.Default())

	if err := session.LoadStoredToken(); err != nil {
		if !errors.Is(err, common.ErrNoCredentials) {
			slog.Warn("failed to load stored Gmail token", "error", err)
		}
	}

	return session
}

func newMailClient(ctx context.Context) (*gmail.Client, error) {
	return gmail.NewClient(ctx, newSession(), config.LoadGmailConfig(), slog.Default())
}

func newLedgerStore(ctx context.Context) (*ledger.Store, error) {
	cfg, err := config.LoadLedgerConfig()
	if err != nil {
		return nil, err
	}

	return ledger.NewStore(ctx, cfg, slog.Default())
}

// newRunJournal opens the local run journal and applies any pending
// migrations. Callers own the returned store and must Close it.
func newRunJournal(ctx context.Context) (*history.Store, error) {
	store, err := history.NewStore(config.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate run journal: %w", err)
	}

	return store, nil
}

// newEngine wires the full sync pipeline: Gmail source, Sheets ledger,
// run journal, and payee rules from config. The returned journal store
// must be closed by the caller once the run is finished.
func newEngine(ctx context.Context, cfg engine.Config) (*engine.Engine, *history.Store, error) {
	mail, err := newMailClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	store, err := newLedgerStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	journal, err := newRunJournal(ctx)
	if err != nil {
		// The journal is a local convenience; a sync can still run
		// without one.
		slog.Warn("continuing without run journal", "error", err)
		journal = nil
	}

	rules, err := config.PayeeRules()
	if err != nil {
		closeJournal(journal)
		return nil, nil, err
	}
	cfg.PayeeRules = rules

	// A typed nil would slip past the engine's recorder check, so only
	// assign the interface when the journal actually opened.
	var recorder service.RunRecorder
	if journal != nil {
		recorder = journal
	}

	return engine.New(mail, store, recorder, cfg, slog.Default()), journal, nil
}

func closeJournal(journal *history.Store) {
	if journal == nil {
		return
	}
	if err := journal.Close(); err != nil {
		slog.Error("failed to close run journal", "error", err)
	}
}
