package config

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cognicore/termgraph/internal/llm"
	"github.com/cognicore/termgraph/pkg/termgraph/lexicon"
	"github.com/cognicore/termgraph/pkg/termgraph/segment"
	"github.com/cognicore/termgraph/pkg/termgraph/store"
	"github.com/cognicore/termgraph/pkg/termgraph/store/sqlite"
	"github.com/cognicore/termgraph/pkg/termgraph/vectors"
)

// Segmenter is a tokenizer that also tags parts of speech.
type Segmenter interface {
	segment.Tokenizer
	segment.Tagger
}

// Loader loads every configured resource and constructs components
type Loader struct {
	Config Config
	Logger logrus.FieldLogger

	// Segmenter overrides the gse segmenter built from the configured
	// dictionaries.
	Segmenter Segmenter
}

// Components holds all loaded configuration components. Optional
// capabilities are nil when not configured.
type Components struct {
	Segmenter Segmenter
	Extractor *segment.Statistical
	IDF       *segment.IDFTable
	Lexicon   *lexicon.Lexicon
	Vectors   vectors.Lookup
	Store     store.Store
	Chat      *llm.Client
}

// Close releases the store, if any.
func (c *Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Load reads all configured files and returns initialized components
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	res := cfg.Resources
	logger := l.logger().WithField("action", "load_resources")
	comp := &Components{Segmenter: l.Segmenter}

	if comp.Segmenter == nil {
		seg, err := segment.NewGSE(res.Dictionaries...)
		if err != nil {
			return nil, err
		}
		comp.Segmenter = seg
	}

	var stopwords []string
	if res.Stoplist != "" {
		sl, err := LoadStoplist(res.Stoplist)
		if err != nil {
			return nil, errors.Wrap(err, "load stoplist")
		}
		stopwords = sl.Terms
		logger.WithField("stopwords", len(stopwords)).Debug("loaded stoplist")
	}

	if res.Database != "" {
		st, err := sqlite.OpenSQLite(ctx, res.Database)
		if err != nil {
			return nil, errors.Wrap(err, "open database")
		}
		comp.Store = st
	}

	idf, err := l.loadIDF(ctx, comp.Store)
	if err != nil {
		comp.Close()
		return nil, err
	}
	comp.IDF = idf

	comp.Extractor = segment.NewStatistical(comp.Segmenter, segment.Options{
		Stopwords: stopwords,
		IDF:       idf,
		Window:    cfg.Extraction.TextRankWindow,
		Damping:   cfg.Extraction.TextRankDamping,
	})

	if res.Lexicon != "" {
		lex, err := lexicon.LoadFromYAML(res.Lexicon)
		if err != nil {
			comp.Close()
			return nil, errors.Wrap(err, "load lexicon")
		}
		comp.Lexicon = lex
		logger.WithField("groups", lex.Stats().SynonymGroups).Debug("loaded lexicon")
	}

	if res.Vectors != "" {
		binary := vectors.IsBinaryPath(res.Vectors)
		if res.VectorsBinary != nil {
			binary = *res.VectorsBinary
		}
		model, err := vectors.Load(res.Vectors, binary)
		if err != nil {
			// semantic similarity is optional
			l.logger().WithField("action", "load_vectors").WithError(err).
				Warn("word vectors unavailable, using string similarity only")
		} else {
			comp.Vectors = model
			l.logger().WithField("action", "load_vectors").
				WithField("words", model.Len()).WithField("dim", model.Dim()).
				Info("loaded word vectors")
		}
	}

	if cfg.Naming.Enabled {
		comp.Chat = &llm.Client{
			BaseURL: cfg.Naming.BaseURL,
			Model:   cfg.Naming.Model,
		}
		if cfg.Naming.APIKeyEnv != "" {
			comp.Chat.APIKey = os.Getenv(cfg.Naming.APIKeyEnv)
		}
	}

	return comp, nil
}

// loadIDF prefers an explicit IDF file, then reference corpus statistics
// in the store. Without either, every term has IDF 1.
func (l *Loader) loadIDF(ctx context.Context, st store.Store) (*segment.IDFTable, error) {
	if path := l.Config.Resources.IDF; path != "" {
		table, err := segment.LoadIDFFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "load idf")
		}
		return table, nil
	}
	if st != nil {
		total, err := st.TotalDocs(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "read corpus size")
		}
		if total > 0 {
			return segment.IDFFromStore(ctx, st)
		}
	}
	return segment.NewIDFTable(nil), nil
}

func (l *Loader) logger() logrus.FieldLogger {
	if l.Logger != nil {
		return l.Logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}
