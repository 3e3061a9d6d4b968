package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/termgraph/pkg/termgraph/internalerr"
	"github.com/cognicore/termgraph/pkg/termgraph/segment"
	"github.com/cognicore/termgraph/pkg/termgraph/store"
)

func TestAnalyses(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.SaveAnalysis(ctx, store.Analysis{ID: "old", CreatedAt: now.Add(-time.Hour), Payload: []byte("1")}))
	require.NoError(t, s.SaveAnalysis(ctx, store.Analysis{ID: "new", CreatedAt: now, Payload: []byte("2")}))

	got, err := s.GetAnalysis(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got.Payload)

	list, err := s.ListAnalyses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Nil(t, list[0].Payload)

	_, err = s.GetAnalysis(ctx, "none")
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestDocumentFrequenciesFeedIDF(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.AddDocument(ctx, []string{"猫", "狗"}))
	require.NoError(t, s.AddDocument(ctx, []string{"猫", "猫"}))
	require.NoError(t, s.AddDocument(ctx, []string{"鱼"}))

	total, err := s.TotalDocs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	table, err := segment.IDFFromStore(ctx, s)
	require.NoError(t, err)
	assert.Less(t, table.IDF("猫"), table.IDF("狗"))
	assert.Equal(t, table.IDF("狗"), table.IDF("鱼"))
}
