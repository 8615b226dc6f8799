package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// decimalShape is the accepted money shape: grouped thousands with exactly
// two fraction digits.
const decimalShape = `\d{1,3}(?:,\d{3})*(?:\.\d{2})`

// amountStrategy is one independent amount extractor. Strategies are pure:
// text in, captured amount out.
type amountStrategy struct {
	re   *regexp.Regexp
	name string
}

func (s amountStrategy) extract(text string) (string, bool) {
	m := s.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// amountStrategies are tried in order; the first match wins. The order
// matters: a bare dollar sign is the most common notification shape, the
// labelled forms are fallbacks for older template variants.
var amountStrategies = []amountStrategy{
	{regexp.MustCompile(`\$\s*(` + decimalShape + `)`), "dollar-sign"},
	{regexp.MustCompile(`(?i)(` + decimalShape + `)\s*(?:CAD|CDN)`), "currency-code"},
	{regexp.MustCompile(`(?i)sent you\s+\$?\s*(` + decimalShape + `)`), "sent-you"},
	{regexp.MustCompile(`(?i)amount:?\s*\$?\s*(` + decimalShape + `)`), "amount-label"},
}

// ExtractAmount runs the ordered strategies over text and returns the first
// captured amount as a decimal. The boolean reports whether any strategy
// matched; when none does, the zero sentinel is returned and the caller
// must flag the record low-confidence rather than treat it as a real
// zero-value payment.
func ExtractAmount(text string) (decimal.Decimal, bool) {
	for _, s := range amountStrategies {
		raw, ok := s.extract(text)
		if !ok {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			continue
		}
		return amount, true
	}
	return decimal.Zero, false
}
