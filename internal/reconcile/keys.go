// Package reconcile computes which freshly parsed payments are genuinely
// new relative to a ledger snapshot and assigns payee labels to them.
package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAmount canonicalizes an amount cell for key building. Currency
// symbols and thousands separators are stripped; when the remainder parses
// as a decimal it is rendered with exactly two fraction digits so "100.0"
// and "100.00" produce the same key. Unparsable cells keep their cleaned
// text so a malformed row still gets a stable identity.
func NormalizeAmount(cell string) string {
	cleaned := strings.ReplaceAll(cell, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ""
	}
	if d, err := decimal.NewFromString(cleaned); err == nil {
		return d.StringFixed(2)
	}
	return cleaned
}

// NormalizeSender lowercases and trims a sender name for key building.
func NormalizeSender(sender string) string {
	return strings.ToLower(strings.TrimSpace(sender))
}

// LooseKey derives the primary dedupe identity: amount plus sender. It
// deliberately ignores the date so provider timestamp jitter cannot
// double-enter a payment; the accepted cost is that a legitimate repeat
// payment of the same amount from the same sender is also suppressed.
func LooseKey(amount, sender string) string {
	return NormalizeAmount(amount) + "_" + NormalizeSender(sender)
}

// StrictKey prefixes the loose key with the raw date cell, scoping the
// identity to a single recorded timestamp.
func StrictKey(date, amount, sender string) string {
	return date + "_" + LooseKey(amount, sender)
}
