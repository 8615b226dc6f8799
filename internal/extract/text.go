package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// flattenMarkup reduces an HTML body to plain text, joining text nodes with
// single spaces so amounts split across tags stay matchable. Script and
// style contents are dropped. Plain-text bodies pass through with only
// whitespace trimming.
func flattenMarkup(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))

	var parts []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text != "" {
				parts = append(parts, text)
			}
		}
	}
}

// isSkippedTag reports whether a tag's text content carries no payment
// information.
func isSkippedTag(name string) bool {
	switch name {
	case "script", "style", "head", "title":
		return true
	}
	return false
}
