package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/termgraph/pkg/termgraph/segment"
)

type fakeExtractor struct {
	freq, cent []segment.Candidate
	lastK      int
}

func (f *fakeExtractor) ExtractByFrequency(text string, k int, allowed segment.Tags) []segment.Candidate {
	f.lastK = k
	return f.freq
}

func (f *fakeExtractor) ExtractByCentrality(text string, k int, allowed segment.Tags) []segment.Candidate {
	return f.cent
}

func cand(term string, score float64) segment.Candidate {
	return segment.Candidate{Term: term, Score: score}
}

func terms(st []ScoredTerm) []string {
	out := make([]string, len(st))
	for i, s := range st {
		out[i] = s.Term
	}
	return out
}

func TestNormalize(t *testing.T) {
	norm := Normalize([]segment.Candidate{cand("a", 4), cand("b", 2), cand("a", 1)})
	assert.Equal(t, map[string]float64{"a": 1, "b": 0.5}, norm)
	assert.Empty(t, Normalize(nil))
	assert.Equal(t, map[string]float64{"z": 0}, Normalize([]segment.Candidate{cand("z", 0)}))
}

func TestFuseWeightsAndOrder(t *testing.T) {
	freq := []segment.Candidate{cand("both", 10), cand("freqOnly", 5)}
	cent := []segment.Candidate{cand("centOnly", 1), cand("both", 0.5)}

	got := Fuse(freq, cent, DefaultWeights(), 10)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"both", "centOnly", "freqOnly"}, terms(got))
	assert.InDelta(t, 0.6*1+0.4*0.5, got[0].Weight, 1e-9)
	assert.InDelta(t, 0.4, got[1].Weight, 1e-9)
	assert.InDelta(t, 0.3, got[2].Weight, 1e-9)
}

func TestFuseMonotonic(t *testing.T) {
	freq := []segment.Candidate{cand("x", 1), cand("y", 1)}
	cent := []segment.Candidate{cand("x", 1)}

	got := Fuse(freq, cent, DefaultWeights(), 10)
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].Term)
	assert.GreaterOrEqual(t, got[0].Weight, got[1].Weight)
}

func TestFuseTieBreakIsUnionOrder(t *testing.T) {
	freq := []segment.Candidate{cand("f1", 1), cand("f2", 1)}
	cent := []segment.Candidate{cand("c1", 1), cand("c2", 1)}

	w := Weights{Frequency: 0.5, Centrality: 0.5}
	got := Fuse(freq, cent, w, 3)
	assert.Equal(t, []string{"f1", "f2", "c1"}, terms(got))
}

func TestScorer(t *testing.T) {
	ex := &fakeExtractor{
		freq: []segment.Candidate{cand("机器", 3), cand("学习", 2), cand("数据", 1)},
		cent: []segment.Candidate{cand("学习", 1), cand("机器", 0.9)},
	}
	s := New(Options{Extractor: ex})

	got := s.Score("机器学习需要数据。", 2)
	require.Len(t, got, 2)
	assert.Equal(t, 4, ex.lastK, "candidate sets are twice maxTerms")
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Weight, got[i].Weight)
	}
	assert.Equal(t, "机器", got[0].Term)
}

func TestScorerEdgeCases(t *testing.T) {
	ex := &fakeExtractor{freq: []segment.Candidate{cand("a", 1)}}
	s := New(Options{Extractor: ex})

	assert.Empty(t, s.Score("", 5))
	assert.Empty(t, s.Score("   ", 5))
	assert.Empty(t, s.Score("text", 0))
	assert.Empty(t, s.Score("text", -3))
}
