// Package cooccur builds the weighted term association graph from
// sentence-level co-occurrence of canonical terms.
package cooccur

import (
	"io"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/termgraph/pkg/termgraph/segment"
	"github.com/cognicore/termgraph/pkg/termgraph/synonym"
)

// Edge is an undirected association between two canonical terms. Weight is
// the number of sentences containing both.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight int     `json:"weight"`
	NPMI   float64 `json:"npmi"`
}

// Options configures a Builder.
type Options struct {
	// Workers bounds concurrent sentence tokenisation; 0 means GOMAXPROCS.
	Workers int
	Logger  logrus.FieldLogger
}

// Builder counts co-occurrences of canonical terms per sentence.
type Builder struct {
	tokenizer segment.Tokenizer
	workers   int
	logger    logrus.FieldLogger
}

// NewBuilder creates a Builder over tokenizer.
func NewBuilder(tokenizer segment.Tokenizer, opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Builder{tokenizer: tokenizer, workers: opts.Workers, logger: opts.Logger}
}

// Build returns one edge per co-occurring canonical pair, ordered by weight
// descending with ties in counting order. Variant spellings found in a
// sentence count toward their representative.
func (b *Builder) Build(sentences, canonical []string, variants synonym.VariantMap) []Edge {
	counter := b.Count(sentences, canonical, variants)

	edges := make([]Edge, 0, counter.UniquePairs())
	for _, p := range counter.Pairs() {
		edges = append(edges, Edge{
			Source: p.T1,
			Target: p.T2,
			Weight: int(counter.Nxy[p]),
			NPMI:   counter.NPMI(p.T1, p.T2),
		})
	}
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Weight > edges[j].Weight
	})

	b.logger.WithField("action", "build_graph").
		WithField("sentences", len(sentences)).
		WithField("edges", len(edges)).
		Info("built co-occurrence graph")
	return edges
}

// Count tokenises every sentence and accumulates counts of the distinct
// canonical terms each contains. Sentences are tokenised concurrently and
// counted in input order.
func (b *Builder) Count(sentences, canonical []string, variants synonym.VariantMap) *Counter {
	counter := NewCounter()
	if len(sentences) == 0 || len(canonical) == 0 {
		return counter
	}

	keep := make(map[string]struct{}, len(canonical))
	for _, t := range canonical {
		keep[t] = struct{}{}
	}

	found := make([][]string, len(sentences))
	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, sentence := range sentences {
		i, sentence := i, sentence
		g.Go(func() error {
			found[i] = b.sentenceTerms(sentence, keep, variants)
			return nil
		})
	}
	_ = g.Wait()

	for _, terms := range found {
		counter.AddSentence(terms)
	}
	return counter
}

// sentenceTerms returns the distinct canonical terms of one sentence in
// token order.
func (b *Builder) sentenceTerms(sentence string, keep map[string]struct{}, variants synonym.VariantMap) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, tok := range b.tokenizer.Segment(sentence) {
		canonical := variants.Resolve(tok)
		if _, ok := keep[canonical]; !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		terms = append(terms, canonical)
	}
	return terms
}
