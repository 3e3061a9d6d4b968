package segment

import (
	"strings"

	"github.com/go-ego/gse"
	"github.com/pkg/errors"
)

// GSE wraps a gse segmenter as both Tokenizer and Tagger.
type GSE struct {
	seg gse.Segmenter
}

var (
	_ Tokenizer = (*GSE)(nil)
	_ Tagger    = (*GSE)(nil)
)

// NewGSE loads the given dictionaries, defaulting to the bundled simplified
// Chinese dictionary.
func NewGSE(dictionaries ...string) (*GSE, error) {
	if len(dictionaries) == 0 {
		dictionaries = []string{"zh"}
	}
	seg, err := gse.New(strings.Join(dictionaries, ","))
	if err != nil {
		return nil, errors.Wrap(err, "load gse dictionaries")
	}
	return &GSE{seg: seg}, nil
}

// Segment cuts text with the DAG plus HMM strategy and drops whitespace and
// punctuation tokens.
func (g *GSE) Segment(text string) []string {
	words := g.seg.Cut(text, true)
	out := words[:0]
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || isPunctOrSpace(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Tag segments text and attaches the dictionary part-of-speech tags.
func (g *GSE) Tag(text string) []Token {
	pos := g.seg.Pos(text, false)
	out := make([]Token, 0, len(pos))
	for _, p := range pos {
		out = append(out, Token{Text: p.Text, Pos: p.Pos})
	}
	return out
}
