package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/etransfer-sync/internal/common"
	"github.com/clinicops/etransfer-sync/internal/extract"
	"github.com/clinicops/etransfer-sync/internal/ledger"
	"github.com/clinicops/etransfer-sync/internal/model"
	"github.com/clinicops/etransfer-sync/internal/reconcile"
)

var testHeader = []string{"Date", "Payment", "Amount", "Doctor"}

// depositEnvelope builds a realistic deposit notification for tests.
func depositEnvelope(id, sender, amount string, received time.Time) extract.Envelope {
	return extract.Envelope{
		ID:       id,
		Subject:  "INTERAC e-Transfer: money has been deposited",
		From:     "notify@payments.interac.ca",
		Internal: received,
		Body: fmt.Sprintf(
			"You have received $%s from %s and the money has been automatically deposited into your account.",
			amount, sender),
	}
}

func TestCollectAndCommit(t *testing.T) {
	received := time.Date(2025, 6, 2, 14, 3, 22, 0, time.UTC)
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", received),
		depositEnvelope("msg-2", "JOHN SMITH", "80.00", received.Add(time.Hour)),
	)
	store := ledger.NewMockStore(testHeader)
	recorder := &MockRecorder{}

	eng := New(mail, store, recorder, Config{}, nil)
	ctx := context.Background()

	batch, err := eng.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, batch.Pending, 2)

	run := batch.Run()
	assert.Equal(t, 2, run.MessagesFound)
	assert.Equal(t, 2, run.Parsed)
	assert.Equal(t, 0, run.Duplicates)
	assert.Equal(t, 2, run.NewRows)
	assert.Equal(t, model.RunModeManual, run.Mode)
	assert.NotEmpty(t, run.ID)

	// Payee labels come from the rule table; unmatched senders stay Unknown.
	assert.Equal(t, "Dr. Tripic", batch.Pending[0].Row.Payee)
	assert.Equal(t, reconcile.PayeeUnknown, batch.Pending[1].Row.Payee)
	assert.Equal(t, "02/06/2025 14:03:22", batch.Pending[0].Row.Date)

	committed, err := eng.Commit(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSucceeded, committed.Status)
	assert.Equal(t, 2, committed.Appended)
	assert.False(t, committed.FinishedAt.IsZero())

	require.Len(t, store.AppendCalls, 1, "all rows must land in one append")
	assert.Len(t, store.Rows(), 2)

	require.Len(t, recorder.Runs, 1)
	assert.Equal(t, model.RunStatusSucceeded, recorder.Runs[0].Status)
}

func TestCollectSuppressesExistingPayments(t *testing.T) {
	received := time.Date(2025, 6, 2, 14, 3, 22, 0, time.UTC)
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", received),
		depositEnvelope("msg-2", "JOHN SMITH", "80.00", received),
	)
	// The first payment is already in the ledger under a different
	// timestamp; the loose key must still catch it.
	store := ledger.NewMockStore(testHeader, model.LedgerRow{
		Date:   "01/06/2025 09:00:00",
		Sender: "ANA TRIPIC",
		Amount: "$125.00",
		Payee:  "Dr. Tripic",
	})
	recorder := &MockRecorder{}

	eng := New(mail, store, recorder, Config{}, nil)
	batch, err := eng.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Pending, 1)
	assert.Equal(t, "JOHN SMITH", batch.Pending[0].Row.Sender)

	run := batch.Run()
	assert.Equal(t, 2, run.Parsed)
	assert.Equal(t, 1, run.Duplicates)
	assert.Equal(t, 1, run.NewRows)
}

func TestCollectIsIdempotentAcrossRuns(t *testing.T) {
	received := time.Date(2025, 6, 2, 14, 3, 22, 0, time.UTC)
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", received),
		depositEnvelope("msg-2", "JOHN SMITH", "80.00", received),
	)
	store := ledger.NewMockStore(testHeader)

	eng := New(mail, store, nil, Config{}, nil)
	ctx := context.Background()

	first, err := eng.Collect(ctx)
	require.NoError(t, err)
	_, err = eng.Commit(ctx, first)
	require.NoError(t, err)
	require.Len(t, store.Rows(), 2)

	// The same inbox against the updated ledger yields nothing new.
	second, err := eng.Collect(ctx)
	require.NoError(t, err)
	assert.True(t, second.IsEmpty())
	assert.Equal(t, 2, second.Run().Duplicates)

	_, err = eng.Commit(ctx, second)
	require.NoError(t, err)
	assert.Len(t, store.Rows(), 2)
	assert.Len(t, store.AppendCalls, 1, "an empty batch must not call append")
}

func TestCollectSkipsUnreadableAndUnparsableMessages(t *testing.T) {
	received := time.Date(2025, 6, 2, 14, 3, 22, 0, time.UTC)
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", received),
		extract.Envelope{ID: "msg-2"}, // no content at all
		depositEnvelope("msg-3", "JOHN SMITH", "80.00", received),
	)
	mail.FetchErrs["msg-3"] = errors.New("transient read failure")
	store := ledger.NewMockStore(testHeader)

	eng := New(mail, store, nil, Config{}, nil)
	batch, err := eng.Collect(context.Background())
	require.NoError(t, err, "one bad message must not abort the run")

	run := batch.Run()
	assert.Equal(t, 3, run.MessagesFound)
	assert.Equal(t, 1, run.Parsed)
	require.Len(t, batch.Pending, 1)
	assert.Equal(t, "ANA TRIPIC", batch.Pending[0].Row.Sender)
}

func TestCollectKeepsLowConfidenceCandidates(t *testing.T) {
	env := extract.Envelope{
		ID:       "msg-1",
		Subject:  "INTERAC e-Transfer: money has been deposited",
		Internal: time.Date(2025, 6, 2, 14, 3, 22, 0, time.UTC),
		Body:     "A transfer was deposited into your account. No figures here.",
	}
	mail := NewMockMailSource(env)
	store := ledger.NewMockStore(testHeader)

	eng := New(mail, store, nil, Config{}, nil)
	batch, err := eng.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Pending, 1, "zero-sentinel candidates are kept, not dropped")
	assert.True(t, batch.Pending[0].LowConfidence())
	assert.Equal(t, "0.00", batch.Pending[0].Row.Amount)
	assert.Equal(t, 1, batch.Run().LowConfidence)
	assert.Equal(t, 1, batch.LowConfidenceCount())
}

func TestCollectRejectsConcurrentRuns(t *testing.T) {
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", time.Now()),
	)
	store := ledger.NewMockStore(testHeader)

	eng := New(mail, store, nil, Config{}, nil)
	ctx := context.Background()

	batch, err := eng.Collect(ctx)
	require.NoError(t, err)

	_, err = eng.Collect(ctx)
	require.ErrorIs(t, err, common.ErrRunInProgress)

	// Discarding releases the slot.
	eng.Discard(ctx, batch, model.RunStatusCancelled)
	_, err = eng.Collect(ctx)
	require.NoError(t, err)
}

func TestCollectListFailureRecordsFailedRun(t *testing.T) {
	mail := NewMockMailSource()
	mail.ListErr = errors.New("quota exceeded")
	store := ledger.NewMockStore(testHeader)
	recorder := &MockRecorder{}

	eng := New(mail, store, recorder, Config{Mode: model.RunModeRobot}, nil)
	_, err := eng.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query inbox")

	require.Len(t, recorder.Runs, 1)
	assert.Equal(t, model.RunStatusFailed, recorder.Runs[0].Status)
	assert.Equal(t, model.RunModeRobot, recorder.Runs[0].Mode)
	assert.NotEmpty(t, recorder.Runs[0].Error)

	// The slot is released after a failed run.
	mail.ListErr = nil
	_, err = eng.Collect(context.Background())
	require.NoError(t, err)
}

func TestCollectSnapshotFailureRecordsFailedRun(t *testing.T) {
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", time.Now()),
	)
	store := ledger.NewMockStore(testHeader)
	store.SnapshotErr = errors.New("spreadsheet unavailable")
	recorder := &MockRecorder{}

	eng := New(mail, store, recorder, Config{}, nil)
	_, err := eng.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read ledger")

	require.Len(t, recorder.Runs, 1)
	assert.Equal(t, model.RunStatusFailed, recorder.Runs[0].Status)
}

func TestCommitSkipsDroppedRows(t *testing.T) {
	received := time.Date(2025, 6, 2, 14, 3, 22, 0, time.UTC)
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", received),
		depositEnvelope("msg-2", "JOHN SMITH", "80.00", received),
	)
	store := ledger.NewMockStore(testHeader)

	eng := New(mail, store, nil, Config{}, nil)
	ctx := context.Background()

	batch, err := eng.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, batch.Pending, 2)

	batch.Pending[1].Dropped = true

	run, err := eng.Commit(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Appended)

	rows := store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "ANA TRIPIC", rows[0].Sender)
}

func TestCommitHonorsRowEdits(t *testing.T) {
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", time.Now()),
	)
	store := ledger.NewMockStore(testHeader)

	eng := New(mail, store, nil, Config{}, nil)
	ctx := context.Background()

	batch, err := eng.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, batch.Pending, 1)

	batch.Pending[0].Row.Amount = "130.00"
	batch.Pending[0].Row.Payee = "Dr. Cartagena"

	_, err = eng.Commit(ctx, batch)
	require.NoError(t, err)

	rows := store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "130.00", rows[0].Amount)
	assert.Equal(t, "Dr. Cartagena", rows[0].Payee)
}

func TestCommitAppendFailure(t *testing.T) {
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", time.Now()),
	)
	store := ledger.NewMockStore(testHeader)
	store.AppendErr = errors.New("write failed")
	recorder := &MockRecorder{}

	eng := New(mail, store, recorder, Config{}, nil)
	ctx := context.Background()

	batch, err := eng.Collect(ctx)
	require.NoError(t, err)

	_, err = eng.Commit(ctx, batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append to ledger")

	require.Len(t, recorder.Runs, 1)
	assert.Equal(t, model.RunStatusFailed, recorder.Runs[0].Status)
	assert.Equal(t, 0, recorder.Runs[0].Appended)

	// A failed commit still releases the run slot.
	store.AppendErr = nil
	_, err = eng.Collect(ctx)
	require.NoError(t, err)
}

func TestDiscardRecordsTerminalStatus(t *testing.T) {
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", time.Now()),
	)
	store := ledger.NewMockStore(testHeader)
	recorder := &MockRecorder{}

	eng := New(mail, store, recorder, Config{}, nil)
	ctx := context.Background()

	batch, err := eng.Collect(ctx)
	require.NoError(t, err)

	run := eng.Discard(ctx, batch, model.RunStatusDryRun)
	require.NotNil(t, run)
	assert.Equal(t, model.RunStatusDryRun, run.Status)
	assert.Equal(t, 0, run.Appended)

	assert.Empty(t, store.AppendCalls, "a discarded batch must not write")
	require.Len(t, recorder.Runs, 1)
	assert.Equal(t, model.RunStatusDryRun, recorder.Runs[0].Status)
}

func TestCollectReportsProgress(t *testing.T) {
	received := time.Date(2025, 6, 2, 14, 3, 22, 0, time.UTC)
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", received),
		depositEnvelope("msg-2", "JOHN SMITH", "80.00", received),
		depositEnvelope("msg-3", "MARIA CARTAGENA", "60.00", received),
	)
	store := ledger.NewMockStore(testHeader)

	var updates []int
	cfg := Config{OnProgress: func(done, total int) {
		assert.Equal(t, 3, total)
		updates = append(updates, done)
	}}

	eng := New(mail, store, nil, cfg, nil)
	_, err := eng.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, updates)
}

func TestCollectStopsOnCancelledContext(t *testing.T) {
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", time.Now()),
	)
	store := ledger.NewMockStore(testHeader)
	recorder := &MockRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(mail, store, recorder, Config{}, nil)
	_, err := eng.Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, recorder.Runs, 1)
	assert.Equal(t, model.RunStatusFailed, recorder.Runs[0].Status)
}

func TestCommitNilBatch(t *testing.T) {
	eng := New(NewMockMailSource(), ledger.NewMockStore(testHeader), nil, Config{}, nil)
	_, err := eng.Commit(context.Background(), nil)
	require.Error(t, err)
}

func TestJournalFailureDoesNotFailRun(t *testing.T) {
	mail := NewMockMailSource(
		depositEnvelope("msg-1", "ANA TRIPIC", "125.00", time.Now()),
	)
	store := ledger.NewMockStore(testHeader)
	recorder := &MockRecorder{RecordErr: errors.New("disk full")}

	eng := New(mail, store, recorder, Config{}, nil)
	ctx := context.Background()

	batch, err := eng.Collect(ctx)
	require.NoError(t, err)

	run, err := eng.Commit(ctx, batch)
	require.NoError(t, err, "journal failures are logged, not surfaced")
	assert.Equal(t, model.RunStatusSucceeded, run.Status)
	assert.Len(t, store.Rows(), 1)
}
