package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clinicops/etransfer-sync/internal/model"
)

// headerDateLayout parses the leading fields of an RFC 822 style Date
// header. Only the first 25 characters of the header are considered, which
// drops the zone offset; header dates are a fallback when the provider's
// internal timestamp is missing.
const headerDateLayout = "Mon, 2 Jan 2006 15:04:05"

// Parser extracts structured payment records from raw message envelopes.
type Parser struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewParser creates a parser. A nil logger falls back to the default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: logger.With("component", "extract"),
		now:    time.Now,
	}
}

// Parse turns one envelope into a payment record. Failures never propagate
// past this boundary as panics: a malformed payload yields an error for
// that one message and the caller continues with the rest. A record whose
// amount could not be extracted is still returned, flagged low-confidence
// with the zero sentinel.
func (p *Parser) Parse(env Envelope) (*model.Payment, error) {
	body := env.Body
	if strings.TrimSpace(body) == "" {
		body = env.Snippet
	}
	if strings.TrimSpace(body) == "" && strings.TrimSpace(env.Subject) == "" {
		return nil, fmt.Errorf("message %s has no parsable content", env.ID)
	}

	text := flattenMarkup(body)

	amount, matched := ExtractAmount(text)
	if !matched {
		p.logger.Warn("no amount pattern matched, keeping zero sentinel",
			"message_id", env.ID)
	}

	return &model.Payment{
		MessageID:     env.ID,
		Timestamp:     p.timestamp(env),
		Sender:        ExtractSender(text, env.Subject),
		Amount:        amount,
		RawSnippet:    model.BoundSnippet(text),
		LowConfidence: !matched,
	}, nil
}

// timestamp prefers the provider's internal delivery time, then the header
// date, then the current processing time. A partial header parse failure
// must not abort the record.
func (p *Parser) timestamp(env Envelope) time.Time {
	if !env.Internal.IsZero() {
		return env.Internal
	}
	if t, ok := parseHeaderDate(env.DateHeader); ok {
		return t
	}
	return p.now()
}

func parseHeaderDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	runes := []rune(trimmed)
	if len(runes) > 25 {
		runes = runes[:25]
	}
	t, err := time.Parse(headerDateLayout, strings.TrimSpace(string(runes)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
