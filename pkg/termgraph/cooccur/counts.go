package cooccur

import (
	"math"
	"sort"
)

// Counter maintains sentence-level co-occurrence counts.
type Counter struct {
	N   int64            // number of sentences seen
	Nx  map[string]int64 // sentence frequency per term
	Nxy map[Pair]int64   // co-occurrence count per term pair

	order []Pair // pairs in first-seen order
}

// Pair is an unordered term pair stored with T1 < T2.
type Pair struct {
	T1, T2 string
}

// NewPair returns the canonical ordering of a and b.
func NewPair(a, b string) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{T1: a, T2: b}
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{
		Nx:  make(map[string]int64),
		Nxy: make(map[Pair]int64),
	}
}

// AddSentence records one sentence given its distinct terms. Pairs are
// enumerated over the sorted terms so first-seen order is reproducible.
func (c *Counter) AddSentence(unique []string) {
	c.N++
	for _, t := range unique {
		c.Nx[t]++
	}
	if len(unique) < 2 {
		return
	}

	sorted := make([]string, len(unique))
	copy(sorted, unique)
	sort.Strings(sorted)

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			pair := Pair{T1: sorted[i], T2: sorted[j]}
			if _, seen := c.Nxy[pair]; !seen {
				c.order = append(c.order, pair)
			}
			c.Nxy[pair]++
		}
	}
}

// PairCount returns how many sentences contain both a and b.
func (c *Counter) PairCount(a, b string) int64 {
	return c.Nxy[NewPair(a, b)]
}

// TermCount returns how many sentences contain t.
func (c *Counter) TermCount(t string) int64 {
	return c.Nx[t]
}

// UniquePairs returns the number of distinct pairs.
func (c *Counter) UniquePairs() int {
	return len(c.order)
}

// Pairs returns every pair in first-seen order.
func (c *Counter) Pairs() []Pair {
	out := make([]Pair, len(c.order))
	copy(out, c.order)
	return out
}

// NPMI returns the normalised pointwise mutual information of a pair over
// the counted sentences, in [-1, 1]. Pairs that never co-occur score 0.
//
// NPMI(a,b) = log(P(a,b) / (P(a)P(b))) / -log(P(a,b))
func (c *Counter) NPMI(a, b string) float64 {
	nAB := c.PairCount(a, b)
	nA, nB := c.Nx[a], c.Nx[b]
	if c.N == 0 || nAB == 0 || nA == 0 || nB == 0 {
		return 0
	}

	n := float64(c.N)
	pAB := float64(nAB) / n
	if pAB >= 1 {
		return 1
	}
	pmi := math.Log(pAB / ((float64(nA) / n) * (float64(nB) / n)))
	npmi := pmi / -math.Log(pAB)
	return math.Max(-1, math.Min(1, npmi))
}
