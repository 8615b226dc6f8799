package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		want        string
		wantMatched bool
	}{
		{
			name:        "dollar sign",
			text:        "You received $100.00 from someone",
			want:        "100.00",
			wantMatched: true,
		},
		{
			name:        "dollar sign with thousands grouping",
			text:        "INTERAC e-Transfer: $1,234.50 has been deposited",
			want:        "1234.50",
			wantMatched: true,
		},
		{
			name:        "dollar sign with space",
			text:        "A deposit of $ 55.25 is complete",
			want:        "55.25",
			wantMatched: true,
		},
		{
			name:        "currency code CAD",
			text:        "A transfer of 910.00 CAD was deposited",
			want:        "910.00",
			wantMatched: true,
		},
		{
			name:        "currency code lowercase cdn",
			text:        "total 12.75 cdn",
			want:        "12.75",
			wantMatched: true,
		},
		{
			name:        "sent you phrasing",
			text:        "John Smith sent you $45.00 and the money was deposited",
			want:        "45.00",
			wantMatched: true,
		},
		{
			name:        "sent you without dollar sign",
			text:        "They sent you 45.00 today",
			want:        "45.00",
			wantMatched: true,
		},
		{
			name:        "amount label",
			text:        "Amount: 75.00",
			want:        "75.00",
			wantMatched: true,
		},
		{
			name:        "amount label without colon",
			text:        "amount 250.00 deposited",
			want:        "250.00",
			wantMatched: true,
		},
		{
			name:        "no match returns zero sentinel",
			text:        "Your transfer request was cancelled",
			want:        "0.00",
			wantMatched: false,
		},
		{
			name:        "missing fraction digits never match",
			text:        "You received $100 from someone",
			want:        "0.00",
			wantMatched: false,
		},
		{
			name:        "empty text",
			text:        "",
			want:        "0.00",
			wantMatched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, matched := ExtractAmount(tt.text)
			assert.Equal(t, tt.wantMatched, matched)
			assert.Equal(t, tt.want, amount.StringFixed(2))
		})
	}
}

func TestAmountStrategiesInIsolation(t *testing.T) {
	byName := make(map[string]amountStrategy, len(amountStrategies))
	for _, s := range amountStrategies {
		byName[s.name] = s
	}

	tests := []struct {
		strategy string
		text     string
		want     string
		wantOK   bool
	}{
		{strategy: "dollar-sign", text: "fee of $20.00 charged", want: "20.00", wantOK: true},
		{strategy: "dollar-sign", text: "20.00 CAD", wantOK: false},
		{strategy: "currency-code", text: "20.00 CAD", want: "20.00", wantOK: true},
		{strategy: "currency-code", text: "paid 20.00 today", wantOK: false},
		{strategy: "sent-you", text: "Maria SENT YOU $9,000.00 and it was deposited", want: "9,000.00", wantOK: true},
		{strategy: "sent-you", text: "Amount: 9.00", wantOK: false},
		{strategy: "amount-label", text: "AMOUNT 31.00", want: "31.00", wantOK: true},
		{strategy: "amount-label", text: "total 31.00", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.strategy+"/"+tt.text, func(t *testing.T) {
			s, ok := byName[tt.strategy]
			require.True(t, ok, "unknown strategy %q", tt.strategy)

			got, matched := s.extract(tt.text)
			assert.Equal(t, tt.wantOK, matched)
			assert.Equal(t, tt.want, got)
		})
	}
}
