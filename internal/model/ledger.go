package model

import "time"

// LedgerTimeLayout is the fixed date format of the ledger's Date column.
// It is locale-independent and matches every row written since the
// spreadsheet was created, so it must never change.
const LedgerTimeLayout = "02/01/2006 15:04:05"

// LedgerColumns is the fixed width of a ledger row.
const LedgerColumns = 4

// FormatLedgerTime renders a timestamp in the ledger's date format.
func FormatLedgerTime(t time.Time) string {
	return t.Format(LedgerTimeLayout)
}

// LedgerRow is one persisted payment row. Rows are append-only from the
// pipeline's perspective; only the maintenance commands rewrite them.
// All fields hold the cell text exactly as stored, so Amount may carry
// "$" or "," when the row was entered by hand.
type LedgerRow struct {
	Date   string
	Sender string
	Amount string
	Payee  string
}

// LedgerRowFromCells builds a row from a raw spreadsheet row, padding
// missing trailing cells with empty strings. Extra cells are ignored.
func LedgerRowFromCells(cells []string) LedgerRow {
	padded := make([]string, LedgerColumns)
	copy(padded, cells)
	return LedgerRow{
		Date:   padded[0],
		Sender: padded[1],
		Amount: padded[2],
		Payee:  padded[3],
	}
}

// Cells returns the row in column order for writing back to storage.
func (r LedgerRow) Cells() []string {
	return []string{r.Date, r.Sender, r.Amount, r.Payee}
}

// HasAmount reports whether the row carries an amount cell. Rows without
// one cannot contribute a dedupe key.
func (r LedgerRow) HasAmount() bool {
	return r.Amount != ""
}

// Day returns the date portion of the Date cell, without the time.
func (r LedgerRow) Day() string {
	if len(r.Date) >= 10 {
		return r.Date[:10]
	}
	return r.Date
}

// LedgerSnapshot is one bulk read of the ledger worksheet.
type LedgerSnapshot struct {
	Header     []string
	Rows       []LedgerRow
	RaggedRows int // Source rows that needed padding
}
