package extract

import (
	"regexp"
	"strings"
)

// UnknownSender is the fallback when no sender pattern matches.
const UnknownSender = "Unknown"

// senderPattern matches the notification phrasing "received $<amount> from
// <name> and". The name capture is non-greedy so trailing boilerplate is
// not swallowed.
var senderPattern = regexp.MustCompile(`(?i)received \$[\d.,]+ from (.*?) and`)

// ExtractSender pulls the payer's display name from the body text, falling
// back to the subject line, then to UnknownSender.
func ExtractSender(body, subject string) string {
	if m := senderPattern.FindStringSubmatch(body); m != nil {
		return CleanSender(m[1])
	}
	if m := senderPattern.FindStringSubmatch(subject); m != nil {
		return CleanSender(m[1])
	}
	return UnknownSender
}

// CleanSender removes the literal "Interac" token that the notification
// service prefixes to payer names, then trims surrounding whitespace.
func CleanSender(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "Interac", ""))
}
