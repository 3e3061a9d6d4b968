// Package synonym collapses near-duplicate and synonymous terms into
// canonical representatives.
package synonym

import (
	"io"
	"math"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/termgraph/pkg/termgraph/lexicon"
	"github.com/cognicore/termgraph/pkg/termgraph/score"
	"github.com/cognicore/termgraph/pkg/termgraph/vectors"
)

const (
	DefaultThreshold   = 0.85
	DefaultAbsorbLimit = 500

	// parallelMin is the number of pending comparisons below which a
	// representative's scan stays on the calling goroutine.
	parallelMin = 512
)

// VariantMap maps an absorbed term to its representative. Keys never
// appear as values.
type VariantMap map[string]string

// Resolve returns the canonical form of term.
func (v VariantMap) Resolve(term string) string {
	if canonical, ok := v[term]; ok {
		return canonical
	}
	return term
}

// Options configures a Resolver.
type Options struct {
	// Threshold is the minimum similarity for a merge.
	Threshold float64
	// AbsorbLimit bounds how many representatives, in weight order, scan
	// later terms for variants. Later representatives are kept as-is.
	AbsorbLimit int
	// Workers bounds the parallel similarity scan; 0 means GOMAXPROCS.
	Workers int
	// Vectors is the optional semantic similarity capability.
	Vectors vectors.Lookup
	// Lexicon holds curated groups whose members always merge.
	Lexicon *lexicon.Lexicon
	Logger  logrus.FieldLogger
}

// Resolver performs greedy weight-priority synonym clustering.
type Resolver struct {
	threshold   float64
	absorbLimit int
	workers     int
	vectors     vectors.Lookup
	lexicon     *lexicon.Lexicon
	logger      logrus.FieldLogger
}

// New creates a Resolver. A non-positive threshold or absorb limit selects
// the default.
func New(opts Options) *Resolver {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.AbsorbLimit <= 0 {
		opts.AbsorbLimit = DefaultAbsorbLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Resolver{
		threshold:   opts.Threshold,
		absorbLimit: opts.AbsorbLimit,
		workers:     opts.Workers,
		vectors:     opts.Vectors,
		lexicon:     opts.Lexicon,
		logger:      opts.Logger,
	}
}

// SemanticEnabled reports whether a vector lookup is configured.
func (r *Resolver) SemanticEnabled() bool {
	return r.vectors != nil
}

// Similarity returns max(string ratio, vector similarity). The vector
// signal is used only when both terms are known to the lookup and its
// value lies in [0,1]; curated lexicon groups score 1.
func (r *Resolver) Similarity(a, b string) float64 {
	if r.lexicon.SameGroup(a, b) {
		return 1
	}
	sim := StringSimilarity(a, b)
	if r.vectors == nil {
		return sim
	}
	sem, ok := r.vectors.Similarity(a, b)
	if !ok {
		return sim
	}
	if math.IsNaN(sem) || sem < 0 || sem > 1 {
		r.logger.WithField("action", "merge_synonyms").
			WithField("a", a).WithField("b", b).WithField("similarity", sem).
			Warn("vector similarity out of range, using string similarity")
		return sim
	}
	return math.Max(sim, sem)
}

// Merge clusters terms. Terms are visited by weight descending (stable);
// each term not yet absorbed becomes a representative and, while it is
// among the first AbsorbLimit representatives, absorbs every later
// unabsorbed term whose similarity reaches the threshold. It returns the
// representatives in weight order and the variant map.
func (r *Resolver) Merge(terms []score.ScoredTerm) ([]score.ScoredTerm, VariantMap) {
	sorted := make([]score.ScoredTerm, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})

	variants := make(VariantMap)
	removed := make([]bool, len(sorted))
	reps := 0
	for i := range sorted {
		if removed[i] {
			continue
		}
		position := reps
		reps++
		if position >= r.absorbLimit {
			continue
		}

		pending := make([]int, 0, len(sorted)-i-1)
		for j := i + 1; j < len(sorted); j++ {
			if removed[j] {
				continue
			}
			if sorted[j].Term == sorted[i].Term {
				// duplicate entry, not a variant
				removed[j] = true
				continue
			}
			pending = append(pending, j)
		}

		for idx, match := range r.scan(sorted[i].Term, sorted, pending) {
			if !match {
				continue
			}
			j := pending[idx]
			variants[sorted[j].Term] = sorted[i].Term
			removed[j] = true
		}
	}

	survivors := make([]score.ScoredTerm, 0, len(sorted)-len(variants))
	for i, t := range sorted {
		if !removed[i] {
			survivors = append(survivors, t)
		}
	}

	r.logger.WithField("action", "merge_synonyms").
		WithField("terms", len(terms)).
		WithField("merged", len(variants)).
		WithField("semantic", r.SemanticEnabled()).
		Info("merged keywords into representatives")

	return survivors, variants
}

// scan compares rep against sorted[pending[k]] for every k and reports
// which comparisons reach the threshold. Comparisons are independent, so
// large scans are split across workers without changing the outcome.
func (r *Resolver) scan(rep string, sorted []score.ScoredTerm, pending []int) []bool {
	matches := make([]bool, len(pending))
	if len(pending) < parallelMin || r.workers == 1 {
		for k, j := range pending {
			matches[k] = r.Similarity(rep, sorted[j].Term) >= r.threshold
		}
		return matches
	}

	chunk := (len(pending) + r.workers - 1) / r.workers
	var g errgroup.Group
	g.SetLimit(r.workers)
	for start := 0; start < len(pending); start += chunk {
		start, end := start, min(start+chunk, len(pending))
		g.Go(func() error {
			for k := start; k < end; k++ {
				matches[k] = r.Similarity(rep, sorted[pending[k]].Term) >= r.threshold
			}
			return nil
		})
	}
	_ = g.Wait()
	return matches
}
