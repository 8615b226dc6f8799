package reconcile

import "strings"

// PayeeUnknown is the label for senders matching no known payer fragment.
const PayeeUnknown = "Unknown"

// PayeeRule maps a payer-name fragment to a payee label.
type PayeeRule struct {
	Fragment string
	Label    string
}

// DefaultPayeeRules covers the practice's known payers.
func DefaultPayeeRules() []PayeeRule {
	return []PayeeRule{
		{Fragment: "TRIPIC", Label: "Dr. Tripic"},
		{Fragment: "CARTAGENA", Label: "Dr. Cartagena"},
	}
}

// PayeeTable is an ordered, case-insensitive substring lookup from sender
// names to payee labels.
type PayeeTable struct {
	rules []PayeeRule
}

// NewPayeeTable builds a lookup table. Rules are evaluated in order and
// the first matching fragment wins; rules with empty fragments are
// dropped. A nil or empty rule set falls back to the defaults.
func NewPayeeTable(rules []PayeeRule) *PayeeTable {
	if len(rules) == 0 {
		rules = DefaultPayeeRules()
	}
	kept := make([]PayeeRule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Fragment) == "" {
			continue
		}
		kept = append(kept, r)
	}
	return &PayeeTable{rules: kept}
}

// Lookup returns the payee label for a sender name.
func (t *PayeeTable) Lookup(sender string) string {
	upper := strings.ToUpper(sender)
	for _, r := range t.rules {
		if strings.Contains(upper, strings.ToUpper(r.Fragment)) {
			return r.Label
		}
	}
	return PayeeUnknown
}
