package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gmailapi "google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestEnvelopeFromMessage(t *testing.T) {
	msg := &gmailapi.Message{
		Id:           "m1",
		Snippet:      "You received $100.00",
		InternalDate: 1735800000000,
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: "INTERAC e-Transfer: deposited"},
				{Name: "From", Value: "notify@payments.example.com"},
				{Name: "Date", Value: "Mon, 02 Jun 2025 14:03:22 -0400"},
			},
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmailapi.MessagePartBody{Data: encodeBody("plain variant")},
				},
				{
					MimeType: "text/html",
					Body:     &gmailapi.MessagePartBody{Data: encodeBody("<p>html variant</p>")},
				},
			},
		},
	}

	env := envelopeFromMessage(msg)

	assert.Equal(t, "m1", env.ID)
	assert.Equal(t, "INTERAC e-Transfer: deposited", env.Subject)
	assert.Equal(t, "notify@payments.example.com", env.From)
	assert.Equal(t, "Mon, 02 Jun 2025 14:03:22 -0400", env.DateHeader)
	assert.Equal(t, "You received $100.00", env.Snippet)
	assert.Equal(t, "<p>html variant</p>", env.Body)
	assert.Equal(t, time.UnixMilli(1735800000000), env.Internal)
}

func TestBestBodyPart(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmailapi.MessagePart
		want    string
	}{
		{
			name: "html preferred over plain",
			payload: &gmailapi.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmailapi.MessagePart{
					{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("plain")}},
					{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("<b>html</b>")}},
				},
			},
			want: "<b>html</b>",
		},
		{
			name: "plain used when no html part exists",
			payload: &gmailapi.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmailapi.MessagePart{
					{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("plain only")}},
				},
			},
			want: "plain only",
		},
		{
			name: "html nested inside multipart child",
			payload: &gmailapi.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmailapi.MessagePart{
					{
						MimeType: "multipart/alternative",
						Parts: []*gmailapi.MessagePart{
							{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("nested html")}},
						},
					},
				},
			},
			want: "nested html",
		},
		{
			name: "single part message decodes its own body",
			payload: &gmailapi.MessagePart{
				MimeType: "text/html",
				Body:     &gmailapi.MessagePartBody{Data: encodeBody("top level body")},
			},
			want: "top level body",
		},
		{
			name:    "no decodable body",
			payload: &gmailapi.MessagePart{MimeType: "multipart/mixed"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bestBodyPart(tt.payload))
		})
	}
}

func TestDecodePartBodyToleratesPadding(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("padded body"))
	part := &gmailapi.MessagePart{
		MimeType: "text/plain",
		Body:     &gmailapi.MessagePartBody{Data: padded},
	}
	assert.Equal(t, "padded body", decodePartBody(part))
}

func TestEnvelopeFromMessageWithoutPayload(t *testing.T) {
	env := envelopeFromMessage(&gmailapi.Message{Id: "m2", Snippet: "only a snippet"})
	assert.Equal(t, "m2", env.ID)
	assert.Equal(t, "only a snippet", env.Snippet)
	assert.Empty(t, env.Body)
	assert.True(t, env.Internal.IsZero())
}
