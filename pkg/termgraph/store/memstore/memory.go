package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/cognicore/termgraph/pkg/termgraph/internalerr"
	"github.com/cognicore/termgraph/pkg/termgraph/store"
)

// Store is an in-memory implementation of store.Store for tests and
// one-shot runs.
type Store struct {
	mu        sync.RWMutex
	analyses  map[string]store.Analysis
	tokenDF   map[string]int64
	totalDocs int64
}

var _ store.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		analyses: make(map[string]store.Analysis),
		tokenDF:  make(map[string]int64),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveAnalysis inserts or replaces an analysis keyed by ID.
func (s *Store) SaveAnalysis(ctx context.Context, a store.Analysis) error {
	if a.ID == "" {
		return errors.Wrap(internalerr.ErrInvalidInput, "analysis id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Payload = append([]byte(nil), a.Payload...)
	s.analyses[a.ID] = a
	return nil
}

// GetAnalysis returns the analysis with the given ID.
func (s *Store) GetAnalysis(ctx context.Context, id string) (store.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return store.Analysis{}, errors.Wrapf(internalerr.ErrNotFound, "analysis %s", id)
	}
	a.Payload = append([]byte(nil), a.Payload...)
	return a, nil
}

// ListAnalyses returns the newest analyses first, without payloads.
func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]store.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	out := make([]store.Analysis, 0, len(s.analyses))
	for _, a := range s.analyses {
		a.Payload = nil
		out = append(out, a)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertTokenDF sets the document frequency of a token.
func (s *Store) UpsertTokenDF(ctx context.Context, token string, df int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenDF[token] = df
	return nil
}

// GetTokenDF returns the document frequency of a token, 0 when unknown.
func (s *Store) GetTokenDF(ctx context.Context, token string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenDF[token], nil
}

// AllTokenDF returns a copy of every document frequency.
func (s *Store) AllTokenDF(ctx context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64, len(s.tokenDF))
	for k, v := range s.tokenDF {
		out[k] = v
	}
	return out, nil
}

// AddDocument counts one reference document.
func (s *Store) AddDocument(ctx context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range store.Unique(tokens) {
		s.tokenDF[t]++
	}
	s.totalDocs++
	return nil
}

// TotalDocs returns the number of reference documents.
func (s *Store) TotalDocs(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalDocs, nil
}

// SetTotalDocs overrides the number of reference documents.
func (s *Store) SetTotalDocs(ctx context.Context, n int64) error {
	if n < 0 {
		return errors.Wrap(internalerr.ErrInvalidInput, "negative document count")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalDocs = n
	return nil
}
