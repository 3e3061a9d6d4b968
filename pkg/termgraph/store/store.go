// Package store defines persistence for analysis results and reference
// corpus statistics. Implementations live in the memstore and sqlite
// subpackages.
package store

import (
	"context"
	"time"
)

// Store persists analysis results and the document frequencies of a
// reference corpus used to weight term extraction.
type Store interface {
	Close() error

	// Analyses
	SaveAnalysis(ctx context.Context, a Analysis) error
	GetAnalysis(ctx context.Context, id string) (Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]Analysis, error)

	// Reference corpus document frequencies
	UpsertTokenDF(ctx context.Context, token string, df int64) error
	GetTokenDF(ctx context.Context, token string) (int64, error)
	AllTokenDF(ctx context.Context) (map[string]int64, error)
	// AddDocument counts one reference document and one occurrence of each
	// of its distinct tokens.
	AddDocument(ctx context.Context, tokens []string) error
	TotalDocs(ctx context.Context) (int64, error)
	SetTotalDocs(ctx context.Context, n int64) error
}

// Analysis is a stored pipeline result. Payload holds the JSON encoded
// result; ListAnalyses leaves it empty.
type Analysis struct {
	ID        string
	File      string
	CreatedAt time.Time
	Nodes     int
	Links     int
	Groups    int
	Payload   []byte
}

// Unique returns tokens with duplicates removed, keeping first occurrence.
func Unique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
