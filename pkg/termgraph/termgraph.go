// Package termgraph turns a document into a keyword graph: salient terms
// are scored, synonymous terms merged, sentence co-occurrence linked and
// the resulting graph partitioned into topical groups.
package termgraph

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cognicore/termgraph/pkg/termgraph/community"
	"github.com/cognicore/termgraph/pkg/termgraph/cooccur"
	"github.com/cognicore/termgraph/pkg/termgraph/internalerr"
	"github.com/cognicore/termgraph/pkg/termgraph/lexicon"
	"github.com/cognicore/termgraph/pkg/termgraph/metrics"
	"github.com/cognicore/termgraph/pkg/termgraph/naming"
	"github.com/cognicore/termgraph/pkg/termgraph/score"
	"github.com/cognicore/termgraph/pkg/termgraph/segment"
	"github.com/cognicore/termgraph/pkg/termgraph/store"
	"github.com/cognicore/termgraph/pkg/termgraph/synonym"
	"github.com/cognicore/termgraph/pkg/termgraph/textclean"
	"github.com/cognicore/termgraph/pkg/termgraph/vectors"
)

// DefaultMaxTerms bounds the number of scored terms per document.
const DefaultMaxTerms = 500

// Engine runs the analysis pipeline. It holds no per-document state and is
// safe for concurrent use.
type Engine struct {
	tokenizer  segment.Tokenizer
	scorer     *score.Scorer
	resolver   *synonym.Resolver
	builder    *cooccur.Builder
	detector   community.Detector
	namer      *naming.Namer
	store      store.Store
	metrics    *metrics.Metrics
	logger     logrus.FieldLogger
	maxTerms   int
	resolution float64
	now        func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures an Engine. Tokenizer and Extractor are required.
type Options struct {
	Tokenizer segment.Tokenizer
	Extractor segment.Extractor

	// Scoring
	MaxTerms        int
	AllowPOS        segment.Tags
	Weights         score.Weights
	CandidateFactor int

	// Synonym merging
	Threshold   float64
	AbsorbLimit int
	Workers     int
	Vectors     vectors.Lookup
	Lexicon     *lexicon.Lexicon

	// Community detection. Detector defaults to Louvain with Resolution
	// and Seed.
	Detector   community.Detector
	Resolution float64
	Seed       uint64

	// Optional collaborators
	Namer   *naming.Namer
	Store   store.Store
	Metrics *metrics.Metrics
	Logger  logrus.FieldLogger

	Now func() time.Time
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Tokenizer == nil || opts.Extractor == nil {
		return nil, errors.Wrap(internalerr.ErrInvalidInput, "tokenizer and extractor required")
	}
	if opts.MaxTerms <= 0 {
		opts.MaxTerms = DefaultMaxTerms
	}
	if opts.Resolution <= 0 {
		opts.Resolution = 1
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Detector == nil {
		m := opts.Metrics
		opts.Detector = &community.Louvain{
			Resolution: opts.Resolution,
			Seed:       opts.Seed,
			Logger:     opts.Logger,
			OnFallback: func(error) { m.Fallback() },
		}
	}

	return &Engine{
		tokenizer: opts.Tokenizer,
		scorer: score.New(score.Options{
			Extractor:       opts.Extractor,
			AllowPOS:        opts.AllowPOS,
			Weights:         opts.Weights,
			CandidateFactor: opts.CandidateFactor,
			Logger:          opts.Logger,
		}),
		resolver: synonym.New(synonym.Options{
			Threshold:   opts.Threshold,
			AbsorbLimit: opts.AbsorbLimit,
			Workers:     opts.Workers,
			Vectors:     opts.Vectors,
			Lexicon:     opts.Lexicon,
			Logger:      opts.Logger,
		}),
		builder:    cooccur.NewBuilder(opts.Tokenizer, cooccur.Options{Workers: opts.Workers, Logger: opts.Logger}),
		detector:   opts.Detector,
		namer:      opts.Namer,
		store:      opts.Store,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		maxTerms:   opts.MaxTerms,
		resolution: opts.Resolution,
		now:        opts.Now,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Document is one input to Analyze.
type Document struct {
	Name string
	Text string
	// HTML marks Text as an HTML document whose markup must be stripped.
	HTML bool
}

// Node is a canonical term in the result graph.
type Node struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Group  int     `json:"group"`
}

// Stats summarises the sizes of a result.
type Stats struct {
	Chars  int `json:"chars"`
	Nodes  int `json:"nodes"`
	Links  int `json:"links"`
	Groups int `json:"groups"`
}

// Meta describes how a result was produced.
type Meta struct {
	File       string        `json:"file"`
	ModelUsed  string        `json:"model_used,omitempty"`
	Semantic   bool          `json:"semantic"`
	Duration   time.Duration `json:"duration_ns"`
	Stats      Stats         `json:"stats"`
	Modularity float64       `json:"modularity"`
}

// Result is the keyword graph of one document.
type Result struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Meta       Meta               `json:"meta"`
	Nodes      []Node             `json:"nodes"`
	Links      []cooccur.Edge     `json:"links"`
	GroupNames map[int]string     `json:"group_names"`
	Variants   synonym.VariantMap `json:"variants,omitempty"`
}

// Analyze runs the full pipeline over doc. Empty documents produce an
// empty graph. ctx is checked between stages; each stage runs to
// completion once started.
func (e *Engine) Analyze(ctx context.Context, doc Document) (result Result, err error) {
	start := e.now()
	defer func() { e.metrics.AnalysisDone(err) }()
	logger := e.logger.WithField("action", "analyze").WithField("file", doc.Name)

	text, err := e.prepare(doc)
	if err != nil {
		return Result{}, err
	}
	sentences := textclean.SplitSentences(text)

	stage := time.Now()
	scored := e.scorer.Score(text, e.maxTerms)
	e.metrics.Since(metrics.StageExtract, stage)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	stage = time.Now()
	terms, variants := e.resolver.Merge(scored)
	e.metrics.Since(metrics.StageMerge, stage)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	canonical := make([]string, len(terms))
	for i, t := range terms {
		canonical[i] = t.Term
	}
	stage = time.Now()
	edges := e.builder.Build(sentences, canonical, variants)
	e.metrics.Since(metrics.StageGraph, stage)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	stage = time.Now()
	part := e.detector.Detect(edges)
	e.metrics.Since(metrics.StageDetect, stage)
	modularity, qerr := community.Modularity(edges, part, e.resolution)
	if qerr != nil {
		logger.WithError(qerr).Warn("modularity unavailable")
	}

	nodes := make([]Node, len(terms))
	members := make(map[int][]string)
	for i, t := range terms {
		g := part.Group(t.Term)
		nodes[i] = Node{ID: t.Term, Weight: t.Weight, Group: g}
		members[g] = append(members[g], t.Term)
	}

	stage = time.Now()
	names, model := e.nameGroups(ctx, members)
	e.metrics.Since(metrics.StageName, stage)

	if edges == nil {
		edges = []cooccur.Edge{}
	}
	result = Result{
		ID:        e.newID(start),
		CreatedAt: start,
		Meta: Meta{
			File:      doc.Name,
			ModelUsed: model,
			Semantic:  e.resolver.SemanticEnabled(),
			Stats: Stats{
				Chars:  len([]rune(text)),
				Nodes:  len(nodes),
				Links:  len(edges),
				Groups: len(members),
			},
			Modularity: modularity,
		},
		Nodes:      nodes,
		Links:      edges,
		GroupNames: names,
		Variants:   variants,
	}
	result.Meta.Duration = e.now().Sub(start)
	e.metrics.Counts(len(scored), len(variants), len(edges), len(members))

	if e.store != nil {
		if err := e.save(ctx, result); err != nil {
			return result, err
		}
	}

	logger.WithField("nodes", len(nodes)).
		WithField("links", len(edges)).
		WithField("groups", len(members)).
		WithField("duration", result.Meta.Duration).
		Info("analysis complete")
	return result, nil
}

// Context returns up to limit sentences of text containing every keyword.
func (e *Engine) Context(text string, keywords []string, limit int) []string {
	return textclean.ContextSentences(textclean.SplitSentences(clean(text)), keywords, limit)
}

// Load returns a stored result.
func (e *Engine) Load(ctx context.Context, id string) (Result, error) {
	if e.store == nil {
		return Result{}, errors.Wrap(internalerr.ErrStoreUnavailable, "no store configured")
	}
	a, err := e.store.GetAnalysis(ctx, id)
	if err != nil {
		return Result{}, err
	}
	var r Result
	if err := json.Unmarshal(a.Payload, &r); err != nil {
		return Result{}, errors.Wrapf(err, "decode analysis %s", id)
	}
	return r, nil
}

func (e *Engine) prepare(doc Document) (string, error) {
	text := doc.Text
	if doc.HTML {
		stripped, err := textclean.StripHTML(strings.NewReader(text))
		if err != nil {
			return "", errors.Wrap(internalerr.ErrInvalidInput, err.Error())
		}
		text = stripped
	}
	return clean(text), nil
}

// clean normalises text and strips boilerplate paragraph by paragraph.
func clean(text string) string {
	paragraphs := strings.Split(textclean.Normalize(text), "\n")
	kept := paragraphs[:0]
	for _, p := range paragraphs {
		if p = textclean.CleanParagraph(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

func (e *Engine) nameGroups(ctx context.Context, members map[int][]string) (map[int]string, string) {
	if e.namer == nil {
		return naming.Defaults(members), ""
	}
	return e.namer.Name(ctx, members), e.namer.Model()
}

func (e *Engine) newID(t time.Time) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), e.entropy).String()
}

func (e *Engine) save(ctx context.Context, r Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode result")
	}
	err = e.store.SaveAnalysis(ctx, store.Analysis{
		ID:        r.ID,
		File:      r.Meta.File,
		CreatedAt: r.CreatedAt,
		Nodes:     r.Meta.Stats.Nodes,
		Links:     r.Meta.Stats.Links,
		Groups:    r.Meta.Stats.Groups,
		Payload:   payload,
	})
	return errors.Wrap(err, "save analysis")
}

// GroupKeywords lists the node ids of each group in weight order.
func GroupKeywords(nodes []Node) map[int][]string {
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	out := make(map[int][]string)
	for _, n := range sorted {
		out[n.Group] = append(out[n.Group], n.ID)
	}
	return out
}
