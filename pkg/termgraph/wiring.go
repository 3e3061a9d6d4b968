package termgraph

import (
	"github.com/sirupsen/logrus"

	"github.com/cognicore/termgraph/pkg/termgraph/config"
	"github.com/cognicore/termgraph/pkg/termgraph/metrics"
	"github.com/cognicore/termgraph/pkg/termgraph/naming"
	"github.com/cognicore/termgraph/pkg/termgraph/score"
	"github.com/cognicore/termgraph/pkg/termgraph/segment"
)

// OptionsFromConfig maps a loaded configuration onto engine options.
// Group naming is enabled only when the components carry a chat client.
func OptionsFromConfig(cfg config.Config, comp *config.Components, m *metrics.Metrics, logger logrus.FieldLogger) Options {
	opts := Options{
		Tokenizer:       comp.Segmenter,
		Extractor:       comp.Extractor,
		MaxTerms:        cfg.Extraction.MaxTerms,
		AllowPOS:        segment.ParseAllowPOS(cfg.Extraction.AllowPOS),
		CandidateFactor: cfg.Extraction.CandidateFactor,
		Weights: score.Weights{
			Frequency:  cfg.Extraction.FrequencyWeight,
			Centrality: cfg.Extraction.CentralityWeight,
		},
		Threshold:   cfg.Synonyms.Threshold,
		AbsorbLimit: cfg.Synonyms.AbsorbLimit,
		Workers:     cfg.Synonyms.Workers,
		Lexicon:     comp.Lexicon,
		Resolution:  cfg.Community.Resolution,
		Seed:        cfg.Community.Seed,
		Metrics:     m,
		Logger:      logger,
	}
	if comp.Vectors != nil {
		opts.Vectors = comp.Vectors
	}
	if comp.Store != nil {
		opts.Store = comp.Store
	}
	if comp.Chat != nil {
		opts.Namer = naming.New(naming.Options{
			Chat:        comp.Chat,
			TopKeywords: cfg.Naming.TopKeywords,
			Timeout:     cfg.Naming.Timeout,
			Logger:      logger,
		})
	}
	return opts
}
