package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clinicops/etransfer-sync/internal/engine"
	"github.com/clinicops/etransfer-sync/internal/model"
)

// ReviewDecision is the operator's verdict on a collected batch.
type ReviewDecision string

// Review decisions.
const (
	DecisionCommit ReviewDecision = "commit"
	DecisionCancel ReviewDecision = "cancel"
)

// Prompter walks the operator through a pending batch before anything is
// written to the ledger: every row can be edited or dropped, and the
// whole batch can be abandoned.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewPrompter creates a prompter over the given streams. Nil arguments
// fall back to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// ReviewBatch shows the pending rows and loops on operator commands until
// the batch is committed or cancelled. The batch is mutated in place;
// nothing is written to the ledger here.
func (p *Prompter) ReviewBatch(ctx context.Context, batch *engine.Batch) (ReviewDecision, error) {
	if err := p.showBatch(batch); err != nil {
		return DecisionCancel, err
	}

	for {
		select {
		case <-ctx.Done():
			return DecisionCancel, ctx.Err()
		default:
		}

		if err := p.showMenu(batch); err != nil {
			return DecisionCancel, err
		}

		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return DecisionCancel, err
		}

		fields := strings.Fields(line)
		cmd := ""
		if len(fields) > 0 {
			cmd = strings.ToLower(fields[0])
		}

		switch cmd {
		case "", "y", "a":
			return DecisionCommit, nil
		case "q", "n":
			return DecisionCancel, nil
		case "l":
			if err := p.showBatch(batch); err != nil {
				return DecisionCancel, err
			}
		case "e":
			idx, ok := p.rowIndex(batch, fields)
			if !ok {
				continue
			}
			if err := p.editRow(ctx, &batch.Pending[idx]); err != nil {
				return DecisionCancel, err
			}
			if err := p.showBatch(batch); err != nil {
				return DecisionCancel, err
			}
		case "d":
			idx, ok := p.rowIndex(batch, fields)
			if !ok {
				continue
			}
			batch.Pending[idx].Dropped = !batch.Pending[idx].Dropped
			if err := p.showBatch(batch); err != nil {
				return DecisionCancel, err
			}
		default:
			if _, err := fmt.Fprintln(p.writer, FormatError("Unknown command. Try Enter, E #, D #, L, or Q.")); err != nil {
				slog.Warn("Failed to write error message", "error", err)
			}
		}
	}
}

// BatchTable renders the pending rows as a numbered table inside a box.
// The interactive review and dry runs share this rendering.
func BatchTable(batch *engine.Batch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "  %-3s %-20s %-24s %10s  %-16s\n", "#", "Date", "Sender", "Amount", "Payee")
	for i, row := range batch.Pending {
		line := fmt.Sprintf("  %-3d %-20s %-24s %10s  %-16s",
			i+1, row.Row.Date, row.Row.Sender, row.Row.Amount, row.Row.Payee)

		switch {
		case row.Dropped:
			line = SubtleStyle.Render(line + "  (dropped)")
		case row.LowConfidence():
			line += "  " + WarningStyle.Render(WarningIcon+" amount needs review")
		}
		b.WriteString(line + "\n")
	}

	title := fmt.Sprintf("Pending Payments (%d)", len(batch.Pending))
	return RenderBox(title, b.String())
}

func (p *Prompter) showBatch(batch *engine.Batch) error {
	if _, err := fmt.Fprintln(p.writer, BatchTable(batch)); err != nil {
		return fmt.Errorf("failed to write batch table: %w", err)
	}
	return nil
}

// showMenu prints the command menu and one-line batch summary.
func (p *Prompter) showMenu(batch *engine.Batch) error {
	kept := len(batch.Rows())
	dropped := len(batch.Pending) - kept

	summary := fmt.Sprintf("%d to append", kept)
	if dropped > 0 {
		summary += fmt.Sprintf(", %d dropped", dropped)
	}
	if n := batch.LowConfidenceCount(); n > 0 {
		summary += fmt.Sprintf(", %d need review", n)
	}

	menu := FormatInfo(summary) + "\n" +
		"  [Enter] Append the kept rows to the ledger\n" +
		"  [E #]   Edit a row\n" +
		"  [D #]   Drop or restore a row\n" +
		"  [L]     List the rows again\n" +
		"  [Q]     Cancel without writing\n"

	if _, err := fmt.Fprint(p.writer, menu+FormatPrompt("Command")); err != nil {
		return fmt.Errorf("failed to write menu: %w", err)
	}
	return nil
}

// rowIndex parses and validates the 1-based row argument of an E or D
// command.
func (p *Prompter) rowIndex(batch *engine.Batch, fields []string) (int, bool) {
	if len(fields) < 2 {
		if _, err := fmt.Fprintln(p.writer, FormatError("Give a row number, e.g. E 2.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
		return 0, false
	}

	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > len(batch.Pending) {
		msg := fmt.Sprintf("Row numbers run from 1 to %d.", len(batch.Pending))
		if _, err := fmt.Fprintln(p.writer, FormatError(msg)); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
		return 0, false
	}
	return n - 1, true
}

// editRow prompts for each field in turn. An empty answer keeps the
// current value. Date and amount answers are validated so a typo cannot
// poison the ledger.
func (p *Prompter) editRow(ctx context.Context, pending *engine.PendingRow) error {
	date, err := p.promptField(ctx, "Date", pending.Row.Date, validLedgerDate)
	if err != nil {
		return err
	}
	pending.Row.Date = date

	sender, err := p.promptField(ctx, "Sender", pending.Row.Sender, nil)
	if err != nil {
		return err
	}
	pending.Row.Sender = sender

	amount, err := p.promptField(ctx, "Amount", pending.Row.Amount, validAmount)
	if err != nil {
		return err
	}
	if amount != pending.Row.Amount {
		pending.Row.Amount = amount
		// The operator vouched for this figure; it no longer needs the
		// low-confidence marker.
		pending.Payment.LowConfidence = false
	}

	payee, err := p.promptField(ctx, "Payee", pending.Row.Payee, nil)
	if err != nil {
		return err
	}
	pending.Row.Payee = payee

	return nil
}

// promptField asks for one field value, looping until the validator is
// satisfied. An empty answer returns the current value unchanged.
func (p *Prompter) promptField(ctx context.Context, name, current string, valid func(string) error) (string, error) {
	for {
		prompt := fmt.Sprintf("%s [%s]", name, current)
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write field prompt: %w", err)
		}

		answer, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		if answer == "" {
			return current, nil
		}

		if valid != nil {
			if err := valid(answer); err != nil {
				if _, werr := fmt.Fprintln(p.writer, FormatError(err.Error())); werr != nil {
					slog.Warn("Failed to write validation message", "error", werr)
				}
				continue
			}
		}
		return answer, nil
	}
}

func validLedgerDate(value string) error {
	if _, err := time.Parse(model.LedgerTimeLayout, value); err != nil {
		return fmt.Errorf("dates look like %s", model.LedgerTimeLayout)
	}
	return nil
}

func validAmount(value string) error {
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "$")
	if _, err := decimal.NewFromString(strings.ReplaceAll(cleaned, ",", "")); err != nil {
		return fmt.Errorf("%q is not an amount", value)
	}
	return nil
}
