package segment

import (
	"sort"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// Token is a segmented word with its part-of-speech tag.
type Token struct {
	Text string
	Pos  string
}

// Tagger segments text into part-of-speech tagged tokens.
type Tagger interface {
	Tag(text string) []Token
}

// Options configures a Statistical extractor.
type Options struct {
	Stopwords []string
	IDF       *IDFTable
	// Window is the TextRank co-occurrence span in tokens.
	Window int
	// Damping is the PageRank damping factor.
	Damping float64
}

// Statistical implements Extractor with TF-IDF (frequency) and TextRank
// (centrality) over the output of a Tagger.
type Statistical struct {
	tagger    Tagger
	stopwords map[string]struct{}
	idf       *IDFTable
	window    int
	damping   float64
}

var _ Extractor = (*Statistical)(nil)

// NewStatistical creates an extractor over tagger.
func NewStatistical(tagger Tagger, opts Options) *Statistical {
	stops := make(map[string]struct{}, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	if opts.Window < 2 {
		opts.Window = 5
	}
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.85
	}
	return &Statistical{
		tagger:    tagger,
		stopwords: stops,
		idf:       opts.IDF,
		window:    opts.Window,
		damping:   opts.Damping,
	}
}

// AddStopword adds a word to the stopword list
func (s *Statistical) AddStopword(word string) {
	s.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (s *Statistical) RemoveStopword(word string) {
	delete(s.stopwords, strings.ToLower(word))
}

// keep applies the candidate filter shared by both methods: at least two
// runes, not a stopword, not numeric or punctuation only, allowed POS.
func (s *Statistical) keep(tok Token, allowed Tags) bool {
	word := strings.TrimSpace(tok.Text)
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	if _, stop := s.stopwords[strings.ToLower(word)]; stop {
		return false
	}
	if isNumericOnly(word) || isPunctOrSpace(word) {
		return false
	}
	return allowed.Allows(tok.Pos)
}

// ExtractByFrequency ranks terms by term frequency times IDF.
func (s *Statistical) ExtractByFrequency(text string, k int, allowed Tags) []Candidate {
	if k <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	total := 0
	for _, tok := range s.tagger.Tag(text) {
		if !s.keep(tok, allowed) {
			continue
		}
		word := strings.TrimSpace(tok.Text)
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
		total++
	}
	if total == 0 {
		return nil
	}

	out := make([]Candidate, len(order))
	for i, word := range order {
		tf := float64(counts[word]) / float64(total)
		out[i] = Candidate{Term: word, Score: tf * s.idf.IDF(word)}
	}
	return topK(out, k)
}

// ExtractByCentrality ranks terms with TextRank: allowed tokens that appear
// within the window of each other are linked, the link weight being the
// number of such co-occurrences, and the resulting graph is ranked with
// edge-weighted PageRank. Scores are scaled so the top term scores 1.
func (s *Statistical) ExtractByCentrality(text string, k int, allowed Tags) []Candidate {
	if k <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	tokens := s.tagger.Tag(text)
	ids := make(map[string]int64)
	var order []string
	idOf := func(word string) int64 {
		if id, ok := ids[word]; ok {
			return id
		}
		id := int64(len(order))
		ids[word] = id
		order = append(order, word)
		return id
	}

	type pair struct{ a, b int64 }
	weights := make(map[pair]float64)
	var pairs []pair
	for i, tok := range tokens {
		if !s.keep(tok, allowed) {
			continue
		}
		a := idOf(strings.TrimSpace(tok.Text))
		for j := i + 1; j < i+s.window && j < len(tokens); j++ {
			if !s.keep(tokens[j], allowed) {
				continue
			}
			b := idOf(strings.TrimSpace(tokens[j].Text))
			if a == b {
				continue
			}
			p := pair{a, b}
			if b < a {
				p = pair{b, a}
			}
			if _, ok := weights[p]; !ok {
				pairs = append(pairs, p)
			}
			weights[p]++
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	g := simple.NewWeightedDirectedGraph(0, 0)
	for _, p := range pairs {
		w := weights[p]
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(p.a), simple.Node(p.b), w))
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(p.b), simple.Node(p.a), w))
	}
	ranks := network.PageRankSparse(g, s.damping, 1e-8)

	maxRank := 0.0
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}
	out := make([]Candidate, 0, len(ranks))
	for id, word := range order {
		r, ok := ranks[int64(id)]
		if !ok {
			continue
		}
		if maxRank > 0 {
			r /= maxRank
		}
		out = append(out, Candidate{Term: word, Score: r})
	}
	return topK(out, k)
}

// topK sorts by score descending, keeping first-occurrence order on ties,
// and truncates to k.
func topK(cands []Candidate, k int) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands
}
