// Package segment adapts word segmentation and statistical term extraction
// to the interfaces consumed by the term scorer and the graph builder.
package segment

import (
	"strings"
	"unicode"
)

// Candidate is a term proposed by one extraction method with that method's
// raw score. Scores are only comparable within one extraction call.
type Candidate struct {
	Term  string
	Score float64
}

// Tokenizer splits text into tokens.
type Tokenizer interface {
	Segment(text string) []string
}

// Extractor proposes ranked candidate terms restricted to the allowed
// part-of-speech tags. Results are ordered by score descending.
type Extractor interface {
	ExtractByFrequency(text string, k int, allowed Tags) []Candidate
	ExtractByCentrality(text string, k int, allowed Tags) []Candidate
}

// Tags is a part-of-speech allow-list. An empty list allows every tag.
type Tags map[string]struct{}

// DefaultAllowPOS lists nouns, place names, person names, organisation
// names, other proper nouns and verbal nouns.
const DefaultAllowPOS = "ns n vn nr nt nz"

// ParseAllowPOS parses a whitespace or comma separated tag list.
func ParseAllowPOS(list string) Tags {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	tags := make(Tags, len(fields))
	for _, f := range fields {
		tags[f] = struct{}{}
	}
	return tags
}

// Allows reports whether pos passes the allow-list.
func (t Tags) Allows(pos string) bool {
	if len(t) == 0 {
		return true
	}
	_, ok := t[pos]
	return ok
}

// List returns the tags in no particular order.
func (t Tags) List() []string {
	out := make([]string, 0, len(t))
	for tag := range t {
		out = append(out, tag)
	}
	return out
}

// isNumericOnly returns true if the token contains only digits and
// punctuation.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}

func isPunctOrSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
