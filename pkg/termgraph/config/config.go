// Package config loads termgraph.yaml and the resource files it points to.
package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/termgraph/pkg/termgraph/internalerr"
	"github.com/cognicore/termgraph/pkg/termgraph/segment"
)

// Config is the root of termgraph.yaml.
type Config struct {
	Extraction Extraction `yaml:"extraction"`
	Synonyms   Synonyms   `yaml:"synonyms"`
	Community  Community  `yaml:"community"`
	Resources  Resources  `yaml:"resources"`
	Naming     Naming     `yaml:"naming"`
}

// Extraction configures term scoring.
type Extraction struct {
	MaxTerms         int     `yaml:"max_terms"`
	CandidateFactor  int     `yaml:"candidate_factor"`
	AllowPOS         string  `yaml:"allow_pos"`
	FrequencyWeight  float64 `yaml:"frequency_weight"`
	CentralityWeight float64 `yaml:"centrality_weight"`
	TextRankWindow   int     `yaml:"textrank_window"`
	TextRankDamping  float64 `yaml:"textrank_damping"`
}

// Synonyms configures the synonym resolver.
type Synonyms struct {
	Threshold   float64 `yaml:"threshold"`
	AbsorbLimit int     `yaml:"absorb_limit"`
	Workers     int     `yaml:"workers"`
}

// Community configures community detection.
type Community struct {
	Resolution float64 `yaml:"resolution"`
	Seed       uint64  `yaml:"seed"`
}

// Resources lists optional files. Relative paths are resolved against the
// directory of the config file.
type Resources struct {
	Stoplist      string   `yaml:"stoplist"`
	Dictionaries  []string `yaml:"dictionaries"`
	IDF           string   `yaml:"idf"`
	Lexicon       string   `yaml:"lexicon"`
	Vectors       string   `yaml:"vectors"`
	VectorsBinary *bool    `yaml:"vectors_binary"`
	Database      string   `yaml:"database"`
}

// Naming configures optional group naming through a chat model.
type Naming struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Timeout     time.Duration `yaml:"timeout"`
	TopKeywords int           `yaml:"top_keywords"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Extraction: Extraction{
			MaxTerms:         500,
			CandidateFactor:  2,
			AllowPOS:         segment.DefaultAllowPOS,
			FrequencyWeight:  0.6,
			CentralityWeight: 0.4,
			TextRankWindow:   5,
			TextRankDamping:  0.85,
		},
		Synonyms: Synonyms{
			Threshold:   0.85,
			AbsorbLimit: 500,
		},
		Community: Community{
			Resolution: 1,
			Seed:       1,
		},
		Naming: Naming{
			BaseURL:     "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Timeout:     45 * time.Second,
			TopKeywords: 8,
		},
	}
}

// Load reads a YAML config over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(internalerr.ErrInvalidConfig, "parse %s: %v", path, err)
	}
	cfg.Resources.resolve(filepath.Dir(path))
	return cfg, cfg.Validate()
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	invalid := func(field string, v interface{}) error {
		return errors.Wrapf(internalerr.ErrInvalidConfig, "%s: %v", field, v)
	}
	switch {
	case c.Extraction.MaxTerms <= 0:
		return invalid("extraction.max_terms", c.Extraction.MaxTerms)
	case c.Extraction.CandidateFactor <= 0:
		return invalid("extraction.candidate_factor", c.Extraction.CandidateFactor)
	case c.Extraction.FrequencyWeight < 0:
		return invalid("extraction.frequency_weight", c.Extraction.FrequencyWeight)
	case c.Extraction.CentralityWeight < 0:
		return invalid("extraction.centrality_weight", c.Extraction.CentralityWeight)
	case c.Extraction.FrequencyWeight+c.Extraction.CentralityWeight == 0:
		return invalid("extraction weights", "both zero")
	case c.Extraction.TextRankDamping <= 0 || c.Extraction.TextRankDamping >= 1:
		return invalid("extraction.textrank_damping", c.Extraction.TextRankDamping)
	case c.Synonyms.Threshold <= 0:
		return invalid("synonyms.threshold", c.Synonyms.Threshold)
	case c.Synonyms.AbsorbLimit <= 0:
		return invalid("synonyms.absorb_limit", c.Synonyms.AbsorbLimit)
	case c.Synonyms.Workers < 0:
		return invalid("synonyms.workers", c.Synonyms.Workers)
	case c.Community.Resolution <= 0:
		return invalid("community.resolution", c.Community.Resolution)
	case c.Naming.Enabled && (c.Naming.BaseURL == "" || c.Naming.Model == ""):
		return invalid("naming", "base_url and model required")
	}
	return nil
}

func (r *Resources) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) || dir == "" {
			return p
		}
		return filepath.Join(dir, p)
	}
	r.Stoplist = abs(r.Stoplist)
	r.IDF = abs(r.IDF)
	r.Lexicon = abs(r.Lexicon)
	r.Vectors = abs(r.Vectors)
	r.Database = abs(r.Database)
	for i, d := range r.Dictionaries {
		// bundled dictionary names such as "zh" stay as they are
		if strings.ContainsAny(d, `/\.`) {
			r.Dictionaries[i] = abs(d)
		}
	}
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file with a terms list, or from
// a plain text file with one word per line when the extension is not
// .yaml or .yml.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var sl Stoplist
		if err := yaml.Unmarshal(data, &sl); err != nil {
			return nil, errors.Wrapf(internalerr.ErrInvalidConfig, "parse stoplist %s: %v", path, err)
		}
		return &sl, nil
	}

	sl := &Stoplist{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sl.Terms = append(sl.Terms, line)
	}
	return sl, scanner.Err()
}
