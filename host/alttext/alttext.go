// Package alttext derives image alt text from attachment titles.
package alttext

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// MetaKey is the attachment metadata key alt text is stored under.
const MetaKey = "_wp_attachment_image_alt"

// strict removes every element and entity-escapes the text that remains.
var strict = bluemonday.StrictPolicy()

// ampersand undoes strict's escaping of a bare "&", which is neither markup
// nor a quoting character.
var ampersand = strings.NewReplacer("&amp;", "&")

// Normalize converts a title into presentable alt text. It returns false when
// the title produces nothing worth writing.
func Normalize(title string) (string, bool) {
	if title == "" {
		return "", false
	}

	text := sanitize(title)
	text = strings.ReplaceAll(text, "-", " ")
	text = strings.ReplaceAll(text, "_", " ")
	text = strings.TrimSpace(upperWords(text))
	if text == "" {
		return "", false
	}
	return text, true
}

// FillIfAbsent returns the alt text to persist for a record, or false when
// nothing should be written. Existing non-empty alt text always wins.
func FillIfAbsent(existing, title string) (string, bool) {
	if strings.TrimSpace(existing) != "" {
		return "", false
	}
	return Normalize(title)
}

func sanitize(s string) string {
	s = ampersand.Replace(strict.Sanitize(s))
	s = strings.ReplaceAll(s, `\`, "&#92;")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// upperWords upper-cases the first character of every whitespace-delimited
// word and leaves everything else untouched.
func upperWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	wordStart := true
	for _, r := range s {
		if wordStart {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		wordStart = unicode.IsSpace(r)
	}
	return b.String()
}
