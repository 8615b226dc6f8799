// Package maintenance scans a ledger snapshot for rows the pipeline is
// known to mis-enter and produces removal plans. Scans never write;
// applying a plan rewrites the worksheet in one replace call.
package maintenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clinicops/etransfer-sync/internal/model"
	"github.com/clinicops/etransfer-sync/internal/reconcile"
	"github.com/clinicops/etransfer-sync/internal/service"
)

// ScanKind selects which defect a scan looks for.
type ScanKind string

// Scan kinds.
const (
	// ScanZeroes finds rows whose amount reads as zero, including cells
	// that do not parse as a number at all. These are the stored face of
	// the low-confidence sentinel plus hand-entry typos.
	ScanZeroes ScanKind = "zeroes"
	// ScanUnknown finds rows whose payee label is exactly Unknown.
	ScanUnknown ScanKind = "unknown"
	// ScanDuplicates finds rows repeating an earlier row's day, amount,
	// and sender. The first occurrence stays.
	ScanDuplicates ScanKind = "duplicates"
)

// Removal is one row a plan proposes to delete.
type Removal struct {
	Row   model.LedgerRow
	Index int // zero-based position among the snapshot's data rows
}

// SheetRow returns the 1-based spreadsheet row number, counting the
// header row.
func (r Removal) SheetRow() int {
	return r.Index + 2
}

// Plan is the outcome of one scan: the rows to keep, in original order,
// and the rows that would be removed. A plan is bound to the snapshot it
// was built from; rebuild it after any other write to the worksheet.
type Plan struct {
	Kind     ScanKind
	Header   []string
	Keep     []model.LedgerRow
	Removals []Removal
}

// IsNoop reports whether the scan found nothing to remove.
func (p *Plan) IsNoop() bool {
	return len(p.Removals) == 0
}

// PlanFor runs the scan named by kind over the snapshot.
func PlanFor(kind ScanKind, snapshot *model.LedgerSnapshot) (*Plan, error) {
	switch kind {
	case ScanZeroes:
		return FindZeroes(snapshot), nil
	case ScanUnknown:
		return FindUnknown(snapshot), nil
	case ScanDuplicates:
		return FindDuplicates(snapshot), nil
	default:
		return nil, fmt.Errorf("unknown scan kind: %q", kind)
	}
}

// FindZeroes plans the removal of rows whose amount is zero or
// unreadable.
func FindZeroes(snapshot *model.LedgerSnapshot) *Plan {
	return scan(ScanZeroes, snapshot, func(row model.LedgerRow, _ int) bool {
		return amountReadsZero(row.Amount)
	})
}

// FindUnknown plans the removal of rows still labeled with the Unknown
// payee. The match is exact: a legitimate payee whose name merely
// contains the word survives.
func FindUnknown(snapshot *model.LedgerSnapshot) *Plan {
	return scan(ScanUnknown, snapshot, func(row model.LedgerRow, _ int) bool {
		return row.Payee == reconcile.PayeeUnknown
	})
}

// FindDuplicates plans the removal of rows that repeat an earlier row's
// day, canonical amount, and normalized sender. Keys reuse the dedupe
// normalization so "$125.00" and "125.00" collide here exactly as they
// do during a sync run.
func FindDuplicates(snapshot *model.LedgerSnapshot) *Plan {
	seen := make(map[string]struct{}, len(snapshot.Rows))
	return scan(ScanDuplicates, snapshot, func(row model.LedgerRow, _ int) bool {
		key := row.Day() + "_" + reconcile.LooseKey(row.Amount, row.Sender)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		return false
	})
}

// scan partitions the snapshot's rows by the remove predicate, preserving
// order on both sides.
func scan(kind ScanKind, snapshot *model.LedgerSnapshot, remove func(model.LedgerRow, int) bool) *Plan {
	plan := &Plan{
		Kind:   kind,
		Header: append([]string(nil), snapshot.Header...),
		Keep:   make([]model.LedgerRow, 0, len(snapshot.Rows)),
	}
	for i, row := range snapshot.Rows {
		if remove(row, i) {
			plan.Removals = append(plan.Removals, Removal{Row: row, Index: i})
			continue
		}
		plan.Keep = append(plan.Keep, row)
	}
	return plan
}

// amountReadsZero reports whether an amount cell would be counted as
// zero: blank, unparsable, or a genuine 0 value.
func amountReadsZero(cell string) bool {
	cleaned := strings.ReplaceAll(cell, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return true
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return true
	}
	return d.IsZero()
}

// Apply rewrites the worksheet to the plan's kept rows. A no-op plan
// returns without touching the store.
func Apply(ctx context.Context, store service.LedgerStore, plan *Plan) error {
	if plan == nil || plan.IsNoop() {
		return nil
	}
	if err := store.Replace(ctx, plan.Header, plan.Keep); err != nil {
		return fmt.Errorf("failed to rewrite ledger: %w", err)
	}
	return nil
}
