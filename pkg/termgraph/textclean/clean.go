// Package textclean prepares raw document text for term extraction:
// boilerplate stripping, Unicode normalisation and sentence splitting.
package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	pageLabelLine  = regexp.MustCompile(`(?im)^[ \t]*[-_]?[ \t]*page[ \t]*\d+[ \t]*[-_]?[ \t]*$`)
	pageNumberLine = regexp.MustCompile(`(?m)^[ \t]*[-_]?[ \t]*\d+[ \t]*[-_]?[ \t]*$`)
	copyrightLine  = regexp.MustCompile(`©[^\n]*\n?`)
)

// CleanParagraph removes page numbers ("Page 3", "- 3 -", bare digits on
// their own line) and copyright boilerplate, then trims the result.
func CleanParagraph(text string) string {
	if text == "" {
		return ""
	}
	text = pageLabelLine.ReplaceAllString(text, "")
	text = pageNumberLine.ReplaceAllString(text, "")
	text = copyrightLine.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Normalize applies NFKC normalisation (which also folds full-width ASCII)
// and drops control characters other than newlines and tabs.
func Normalize(text string) string {
	normed := norm.NFKC.String(text)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
}
