// Package community partitions the term association graph into topical
// groups.
package community

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/cognicore/termgraph/pkg/termgraph/cooccur"
	"github.com/cognicore/termgraph/pkg/termgraph/internalerr"
)

// Partition maps a term to its group id. Terms absent from every edge have
// no entry; callers default them to group 0.
type Partition map[string]int

// Group returns the group of term, or 0 when it has none.
func (p Partition) Group(term string) int {
	return p[term]
}

// Count returns the number of distinct groups.
func (p Partition) Count() int {
	seen := make(map[int]struct{})
	for _, g := range p {
		seen[g] = struct{}{}
	}
	return len(seen)
}

// Detector assigns groups to the vertices of a weighted edge list.
type Detector interface {
	Detect(edges []cooccur.Edge) Partition
}

// Louvain detects communities by modularity maximisation. The zero value
// uses resolution 1 and seed 0.
type Louvain struct {
	Resolution float64
	Seed       uint64
	Logger     logrus.FieldLogger

	// OnFallback, when set, is called after a detection failure.
	OnFallback func(error)

	run func(g graph.Graph, resolution float64, src rand.Source) community.ReducedGraph
}

var _ Detector = (*Louvain)(nil)

// Detect returns the partition of every vertex in edges. Communities are
// numbered from 0 in order of their earliest vertex. Any failure inside the
// algorithm yields a single group 0 holding every vertex.
func (l *Louvain) Detect(edges []cooccur.Edge) Partition {
	if len(edges) == 0 {
		return Partition{}
	}
	logger := l.logger()

	w := newWeighted(edges)
	part, err := l.modularize(w)
	if err != nil {
		logger.WithField("action", "detect_communities").
			WithError(err).
			Warn("community detection failed, assigning a single group")
		if l.OnFallback != nil {
			l.OnFallback(err)
		}
		return Fallback(edges)
	}

	logger.WithField("action", "detect_communities").
		WithField("vertices", len(part)).
		WithField("groups", part.Count()).
		Info("detected communities")
	return part
}

func (l *Louvain) modularize(w *weighted) (part Partition, err error) {
	defer func() {
		if r := recover(); r != nil {
			part = nil
			err = errors.Wrap(internalerr.ErrDetectionFailed, fmt.Sprint(r))
		}
	}()

	resolution := l.Resolution
	if resolution <= 0 {
		resolution = 1
	}
	run := l.run
	if run == nil {
		run = community.Modularize
	}
	reduced := run(w.g, resolution, rand.NewSource(l.Seed))
	communities := reduced.Communities()

	ids := make([][]int64, 0, len(communities))
	for _, c := range communities {
		if len(c) == 0 {
			continue
		}
		members := make([]int64, len(c))
		for i, n := range c {
			members[i] = n.ID()
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		ids = append(ids, members)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i][0] < ids[j][0] })

	part = make(Partition, len(w.terms))
	for group, members := range ids {
		for _, id := range members {
			if id < 0 || int(id) >= len(w.terms) {
				return nil, errors.Wrapf(internalerr.ErrDetectionFailed, "unknown vertex %d", id)
			}
			part[w.terms[id]] = group
		}
	}
	if len(part) != len(w.terms) {
		return nil, errors.Wrapf(internalerr.ErrDetectionFailed,
			"%d of %d vertices assigned", len(part), len(w.terms))
	}
	return part, nil
}

func (l *Louvain) logger() logrus.FieldLogger {
	if l.Logger != nil {
		return l.Logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

// Fallback assigns every vertex of edges to group 0.
func Fallback(edges []cooccur.Edge) Partition {
	part := make(Partition)
	for _, e := range edges {
		part[e.Source] = 0
		part[e.Target] = 0
	}
	return part
}

// Modularity returns the modularity Q of part over the edge list at the
// given resolution. Vertices missing from part are placed in group 0.
func Modularity(edges []cooccur.Edge, part Partition, resolution float64) (q float64, err error) {
	if len(edges) == 0 {
		return 0, nil
	}
	if resolution <= 0 {
		resolution = 1
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(internalerr.ErrInvalidInput, fmt.Sprint(r))
		}
	}()

	w := newWeighted(edges)
	byGroup := make(map[int][]graph.Node)
	for id, term := range w.terms {
		g := part.Group(term)
		byGroup[g] = append(byGroup[g], simple.Node(id))
	}
	groups := make([]int, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	communities := make([][]graph.Node, len(groups))
	for i, g := range groups {
		communities[i] = byGroup[g]
	}
	return community.Q(w.g, communities, resolution), nil
}

// Groups inverts a partition into sorted member lists per group.
func Groups(part Partition) map[int][]string {
	out := make(map[int][]string)
	for term, g := range part {
		out[g] = append(out[g], term)
	}
	for _, members := range out {
		sort.Strings(members)
	}
	return out
}

// weighted is an undirected gonum graph whose node ids index terms in
// first-seen edge order.
type weighted struct {
	g     *simple.WeightedUndirectedGraph
	terms []string
}

func newWeighted(edges []cooccur.Edge) *weighted {
	w := &weighted{g: simple.NewWeightedUndirectedGraph(0, 0)}
	index := make(map[string]int64)
	node := func(term string) graph.Node {
		id, ok := index[term]
		if !ok {
			id = int64(len(w.terms))
			index[term] = id
			w.terms = append(w.terms, term)
			w.g.AddNode(simple.Node(id))
		}
		return simple.Node(id)
	}

	for _, e := range edges {
		from, to := node(e.Source), node(e.Target)
		if from.ID() == to.ID() {
			continue
		}
		weight := float64(e.Weight)
		if existing := w.g.WeightedEdge(from.ID(), to.ID()); existing != nil {
			weight += existing.Weight()
		}
		w.g.SetWeightedEdge(w.g.NewWeightedEdge(from, to, weight))
	}
	return w
}
