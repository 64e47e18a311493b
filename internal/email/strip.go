package email

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes HTML tags, comments and doctypes from s and keeps text
// bytes exactly as written; entities are not decoded. Passes repeat until
// nothing changes, so "<<b>b>" ends up empty rather than "<b>". A string
// without both '<' and '>' holds no tag and is returned as is.
func StripTags(s string) string {
	for strings.Contains(s, "<") && strings.Contains(s, ">") {
		next := stripOnce(s)
		if len(next) == len(s) {
			break
		}
		s = next
	}
	return s
}

func stripOnce(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	consumed := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// An unterminated tag at the end is text, not markup
			if consumed < len(s) && !strings.Contains(s[consumed:], ">") {
				b.WriteString(s[consumed:])
			}
			return b.String()
		}
		raw := z.Raw()
		consumed += len(raw)
		if tt == html.TextToken {
			b.Write(raw)
		}
	}
}
