package markup

import (
	"html"
	"regexp"
	"strings"
)

// allowedTags is the subset of HTML tags Telegram accepts in parse_mode=HTML,
// including the usual synonyms (strong/b, em/i, ins/u, strike/s/del).
var allowedTags = map[string]bool{
	"b": true, "strong": true,
	"i": true, "em": true,
	"u": true, "ins": true,
	"s": true, "strike": true, "del": true,
	"a":          true,
	"code":       true,
	"pre":        true,
	"blockquote": true,
}

var (
	mediaTagRe = regexp.MustCompile(`(?is)<video[^>]*>.*?</video\s*>|<audio[^>]*>.*?</audio\s*>|<(?:img|video|audio)[^>]*>|</(?:video|audio)\s*>`)
	brTagRe    = regexp.MustCompile(`(?i)<\s*br\s*/?>`)
	pTagRe     = regexp.MustCompile(`(?i)<\s*/?p\s*>`)
	openTagRe  = regexp.MustCompile(`<([a-zA-Z0-9]+)[^>]*>`)
	closeTagRe = regexp.MustCompile(`(?i)</([a-zA-Z0-9]+)\s*>`)
)

// Transcode converts arbitrary note HTML into text containing only the tags
// Telegram accepts. Allowed tag pairs pass through unchanged, attributes
// included. Any other tag pair is replaced by its escaped inner text, so
// content survives even when the markup does not. Media elements are removed
// outright, and <br>/<p> boundaries become single newlines.
//
// The replacement is a single left-to-right pass over tag pairs, not a
// recursive parse: allowed tags nested inside a stripped pair are escaped
// along with the surrounding text. Malformed input never causes an error,
// only best-effort text extraction.
func Transcode(input string) string {
	if input == "" {
		return ""
	}

	text := mediaTagRe.ReplaceAllString(input, "")
	text = brTagRe.ReplaceAllString(text, "\n")
	text = pTagRe.ReplaceAllString(text, "\n")
	text = stripDisallowed(text)

	// Stray closing tags survive the pair pass; drop the disallowed ones.
	return closeTagRe.ReplaceAllStringFunc(text, func(m string) string {
		name := strings.ToLower(closeTagRe.FindStringSubmatch(m)[1])
		if allowedTags[name] {
			return m
		}
		return ""
	})
}

// stripDisallowed walks the input left to right, keeping allowed tag pairs
// and replacing every other pair with its escaped inner text. The inner
// content of a kept pair is processed the same way, so a disallowed tag
// nested inside an allowed one is still stripped. An opening tag with no
// matching close is kept if allowed, dropped otherwise, so the output never
// carries a tag outside the allowed set.
func stripDisallowed(s string) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		loc := openTagRe.FindStringSubmatchIndex(s[i:])
		if loc == nil {
			b.WriteString(s[i:])
			break
		}

		openStart := i + loc[0]
		openEnd := i + loc[1]
		name := lower[i+loc[2] : i+loc[3]]

		b.WriteString(s[i:openStart])

		// First matching close tag after the opening, nesting ignored.
		closing := "</" + name + ">"
		rel := strings.Index(lower[openEnd:], closing)
		if rel < 0 {
			if allowedTags[name] {
				b.WriteString(s[openStart:openEnd])
			}
			i = openEnd
			continue
		}

		closeStart := openEnd + rel
		closeEnd := closeStart + len(closing)

		if allowedTags[name] {
			b.WriteString(s[openStart:openEnd])
			b.WriteString(stripDisallowed(s[openEnd:closeStart]))
			b.WriteString(s[closeStart:closeEnd])
		} else {
			b.WriteString(html.EscapeString(s[openEnd:closeStart]))
		}
		i = closeEnd
	}

	return b.String()
}
