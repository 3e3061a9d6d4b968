// Package score ranks candidate terms of a document by fusing a
// frequency-based and a centrality-based importance signal.
package score

import (
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/termgraph/pkg/termgraph/segment"
)

// ScoredTerm is a term with its fused importance. Weights are comparable
// only within one Score call.
type ScoredTerm struct {
	Term   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Weights controls how the two normalised signals are combined.
type Weights struct {
	Frequency  float64 `yaml:"frequency_weight"`
	Centrality float64 `yaml:"centrality_weight"`
}

// DefaultWeights returns the 0.6 frequency / 0.4 centrality split.
func DefaultWeights() Weights {
	return Weights{Frequency: 0.6, Centrality: 0.4}
}

// Options configures a Scorer.
type Options struct {
	Extractor segment.Extractor
	AllowPOS  segment.Tags
	Weights   Weights
	// CandidateFactor multiplies maxTerms to size each candidate set.
	CandidateFactor int
	Logger          logrus.FieldLogger
}

// Scorer produces the ranked term list for a document.
type Scorer struct {
	extractor segment.Extractor
	allowPOS  segment.Tags
	weights   Weights
	factor    int
	logger    logrus.FieldLogger
}

// New creates a Scorer. Zero weights fall back to DefaultWeights.
func New(opts Options) *Scorer {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if opts.CandidateFactor <= 0 {
		opts.CandidateFactor = 2
	}
	if opts.AllowPOS == nil {
		opts.AllowPOS = segment.ParseAllowPOS(segment.DefaultAllowPOS)
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Scorer{
		extractor: opts.Extractor,
		allowPOS:  opts.AllowPOS,
		weights:   opts.Weights,
		factor:    opts.CandidateFactor,
		logger:    opts.Logger,
	}
}

// Score extracts at most maxTerms terms from text ordered by fused weight
// descending. Empty text or a non-positive limit yields no terms.
func (s *Scorer) Score(text string, maxTerms int) []ScoredTerm {
	if maxTerms <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	k := maxTerms * s.factor
	freq := s.extractor.ExtractByFrequency(text, k, s.allowPOS)
	cent := s.extractor.ExtractByCentrality(text, k, s.allowPOS)
	terms := Fuse(freq, cent, s.weights, maxTerms)

	s.logger.WithField("action", "extract_terms").
		WithField("frequency_candidates", len(freq)).
		WithField("centrality_candidates", len(cent)).
		WithField("terms", len(terms)).
		Debug("fused term scores")

	return terms
}

// Normalize scales scores by the set's maximum so the top candidate scores
// 1. Repeated terms keep their first score. A non-positive maximum maps
// every term to 0.
func Normalize(cands []segment.Candidate) map[string]float64 {
	out := make(map[string]float64, len(cands))
	maxScore := 0.0
	for _, c := range cands {
		if _, dup := out[c.Term]; dup {
			continue
		}
		out[c.Term] = c.Score
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	for term, v := range out {
		if maxScore > 0 {
			out[term] = v / maxScore
		} else {
			out[term] = 0
		}
	}
	return out
}

// Fuse combines two candidate sets. Each set is normalised independently,
// the union is scored as w.Frequency*freq + w.Centrality*centrality with a
// missing contribution counted as 0, and the result is sorted descending
// and truncated to maxTerms. The union is traversed as the frequency set in
// rank order followed by centrality-only terms in rank order; ties keep
// that order.
func Fuse(freq, cent []segment.Candidate, w Weights, maxTerms int) []ScoredTerm {
	if maxTerms <= 0 {
		return nil
	}
	freqNorm := Normalize(freq)
	centNorm := Normalize(cent)

	seen := make(map[string]struct{}, len(freqNorm)+len(centNorm))
	union := make([]ScoredTerm, 0, len(freqNorm)+len(centNorm))
	add := func(term string) {
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		union = append(union, ScoredTerm{
			Term:   term,
			Weight: w.Frequency*freqNorm[term] + w.Centrality*centNorm[term],
		})
	}
	for _, c := range freq {
		add(c.Term)
	}
	for _, c := range cent {
		add(c.Term)
	}

	sort.SliceStable(union, func(i, j int) bool {
		return union[i].Weight > union[j].Weight
	})
	if len(union) > maxTerms {
		union = union[:maxTerms]
	}
	return union
}
