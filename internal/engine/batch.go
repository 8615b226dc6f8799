package engine

import (
	"github.com/clinicops/etransfer-sync/internal/model"
	"github.com/clinicops/etransfer-sync/internal/reconcile"
)

// PendingRow is one not-yet-committed ledger row. Review surfaces may
// edit the row in place or mark it dropped before the batch commits.
type PendingRow struct {
	Row     model.LedgerRow
	Payment model.Payment
	Dropped bool
}

// LowConfidence reports whether the row came from a failed amount
// extraction and needs human correction before it can be trusted.
func (p PendingRow) LowConfidence() bool {
	return p.Payment.LowConfidence
}

// Batch is the editable pre-append result of one Collect pass. The core
// never commits a batch on its own; callers decide between Commit and
// Discard after any review.
type Batch struct {
	run     *model.SyncRun
	Pending []PendingRow
}

func newBatch(run *model.SyncRun, results []reconcile.Result) *Batch {
	pending := make([]PendingRow, len(results))
	for i, res := range results {
		pending[i] = PendingRow{Row: res.Row, Payment: res.Payment}
	}
	return &Batch{run: run, Pending: pending}
}

// Run returns the in-progress journal record for this batch.
func (b *Batch) Run() *model.SyncRun {
	return b.run
}

// IsEmpty reports whether nothing new was found.
func (b *Batch) IsEmpty() bool {
	return len(b.Pending) == 0
}

// Rows returns the rows that survive review, in collection order.
func (b *Batch) Rows() []model.LedgerRow {
	rows := make([]model.LedgerRow, 0, len(b.Pending))
	for _, p := range b.Pending {
		if p.Dropped {
			continue
		}
		rows = append(rows, p.Row)
	}
	return rows
}

// LowConfidenceCount returns how many kept rows still carry the zero
// sentinel from a failed extraction.
func (b *Batch) LowConfidenceCount() int {
	count := 0
	for _, p := range b.Pending {
		if !p.Dropped && p.LowConfidence() {
			count++
		}
	}
	return count
}
