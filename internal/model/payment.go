// Package model defines the core domain types used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnippetLimit bounds the diagnostic text kept with a parsed payment.
const SnippetLimit = 2000

// Payment represents a single e-Transfer payment extracted from a
// notification email. It exists only for the duration of one
// reconciliation pass; the durable form is a LedgerRow.
type Payment struct {
	Timestamp     time.Time
	MessageID     string
	Sender        string // Cleaned display name of the payer
	RawSnippet    string // Bounded extract of the message body
	Amount        decimal.Decimal
	LowConfidence bool // Amount extraction failed; Amount is a zero sentinel
}

// AmountString renders the amount with exactly two fraction digits.
func (p Payment) AmountString() string {
	return p.Amount.StringFixed(2)
}

// LedgerRow converts the payment into its durable row form with the
// given payee label.
func (p Payment) LedgerRow(payee string) LedgerRow {
	return LedgerRow{
		Date:   FormatLedgerTime(p.Timestamp),
		Sender: p.Sender,
		Amount: p.AmountString(),
		Payee:  payee,
	}
}

// BoundSnippet truncates text to the snippet limit, counting runes so a
// multibyte character is never split.
func BoundSnippet(text string) string {
	if len(text) <= SnippetLimit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= SnippetLimit {
		return text
	}
	return string(runes[:SnippetLimit])
}
