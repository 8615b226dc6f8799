package reconcile

import (
	"log/slog"

	"github.com/clinicops/etransfer-sync/internal/model"
)

// Result pairs a row to append with the payment it came from, so review
// surfaces can show extraction context alongside the row.
type Result struct {
	Row     model.LedgerRow
	Payment model.Payment
}

// Reconciler filters candidate payments against ledger snapshots.
type Reconciler struct {
	payees *PayeeTable
	logger *slog.Logger
}

// NewReconciler creates a reconciler. A nil table uses the default payee
// rules; a nil logger falls back to the default.
func NewReconciler(payees *PayeeTable, logger *slog.Logger) *Reconciler {
	if payees == nil {
		payees = NewPayeeTable(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		payees: payees,
		logger: logger.With("component", "reconcile"),
	}
}

// Reconcile returns the candidates that are genuinely new, in input order,
// converted to ledger rows with payee labels assigned. Zero-sentinel
// candidates are kept, never silently dropped; their low-confidence flag
// travels with the result. Each accepted candidate's key enters the
// rejection set immediately so near-identical candidates within one batch
// cannot both land. Running the same batch again after its output has
// been appended yields nothing.
func (r *Reconciler) Reconcile(candidates []model.Payment, snapshot []model.LedgerRow) []Result {
	seen := rejectionSet(snapshot)

	var results []Result
	for _, p := range candidates {
		key := LooseKey(p.AmountString(), p.Sender)
		if _, dup := seen[key]; dup {
			r.logger.Debug("duplicate candidate suppressed",
				"key", key,
				"message_id", p.MessageID)
			continue
		}
		seen[key] = struct{}{}

		results = append(results, Result{
			Row:     p.LedgerRow(r.payees.Lookup(p.Sender)),
			Payment: p,
		})
	}
	return results
}

// rejectionSet indexes both the loose and the strict key of every usable
// existing row; either match suppresses a candidate. Rows without an
// amount cell cannot contribute a meaningful key and are skipped.
func rejectionSet(snapshot []model.LedgerRow) map[string]struct{} {
	seen := make(map[string]struct{}, len(snapshot)*2)
	for _, row := range snapshot {
		if !row.HasAmount() {
			continue
		}
		seen[LooseKey(row.Amount, row.Sender)] = struct{}{}
		seen[StrictKey(row.Date, row.Amount, row.Sender)] = struct{}{}
	}
	return seen
}
