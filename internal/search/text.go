package search

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"codeberg.org/snonux/cardsheet/internal/card"
)

// characters left alone by encodeURIComponent but escaped by QueryEscape
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// StripMarkup removes tags from card text and decodes entities
func StripMarkup(text string) string {
	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// EncodeComponent percent-encodes a query for direct concatenation to an
// endpoint template
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// SoundURL builds the sound URL for card text; the URL is not checked
func SoundURL(text, template string) string {
	return template + EncodeComponent(StripMarkup(text))
}

// QueryText selects the card side used as query text and strips its markup
func QueryText(rec card.Record, isFront bool) string {
	return StripMarkup(rec.Side(isFront))
}
