package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/clinicops/etransfer-sync/internal/extract"
)

// envelopeFromMessage decodes the headers, the best body part, and the
// provider's internal delivery timestamp into a source-agnostic envelope.
func envelopeFromMessage(msg *gmailapi.Message) *extract.Envelope {
	env := &extract.Envelope{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.InternalDate > 0 {
		env.Internal = time.UnixMilli(msg.InternalDate)
	}
	if msg.Payload == nil {
		return env
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			env.Subject = h.Value
		case "from":
			env.From = h.Value
		case "date":
			env.DateHeader = h.Value
		}
	}
	env.Body = bestBodyPart(msg.Payload)
	return env
}

// bestBodyPart walks the MIME tree preferring HTML over plain text: the
// notification's HTML variant carries the full phrasing the extraction
// patterns target, while the plain part is often truncated.
func bestBodyPart(payload *gmailapi.MessagePart) string {
	if body := findPart(payload, "text/html"); body != "" {
		return body
	}
	if body := findPart(payload, "text/plain"); body != "" {
		return body
	}
	return decodePartBody(payload)
}

func findPart(part *gmailapi.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, mimeType) {
		if body := decodePartBody(part); body != "" {
			return body
		}
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodePartBody decodes a part's base64url body. Gmail omits padding, so
// any that appears is stripped before decoding.
func decodePartBody(part *gmailapi.MessagePart) string {
	if part == nil || part.Body == nil || part.Body.Data == "" {
		return ""
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part.Body.Data, "="))
	if err != nil {
		return ""
	}
	return string(data)
}
