// Package extract turns raw e-Transfer notification emails into structured
// payment records using an ordered set of pattern-matching strategies.
package extract

import "time"

// Envelope is one raw message handed to the parser: decoded header fields
// plus the best body part the mail source could produce. It is owned by
// the mail source and read-only to the pipeline.
type Envelope struct {
	Internal   time.Time // Provider's internal delivery timestamp; zero when absent
	ID         string
	Subject    string
	From       string
	DateHeader string // Raw Date header value
	Body       string // Decoded body, HTML or plain text
	Snippet    string // Provider-supplied short summary
}
