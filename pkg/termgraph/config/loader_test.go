package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/termgraph/pkg/termgraph/segment"
	"github.com/cognicore/termgraph/pkg/termgraph/store/sqlite"
)

type fakeSegmenter struct{}

func (fakeSegmenter) Segment(text string) []string { return strings.Fields(text) }

func (fakeSegmenter) Tag(text string) []segment.Token {
	var out []segment.Token
	for _, w := range strings.Fields(text) {
		out = append(out, segment.Token{Text: w, Pos: "n"})
	}
	return out
}

func TestLoaderMinimal(t *testing.T) {
	l := &Loader{Config: Default(), Segmenter: fakeSegmenter{}}
	comp, err := l.Load(context.Background())
	require.NoError(t, err)
	defer comp.Close()

	assert.NotNil(t, comp.Extractor)
	assert.Nil(t, comp.Store)
	assert.Nil(t, comp.Vectors)
	assert.Nil(t, comp.Lexicon)
	assert.Nil(t, comp.Chat)
	assert.Equal(t, 0, comp.IDF.Len())
}

func TestLoaderResources(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Resources.Stoplist = writeFile(t, dir, "stop.txt", "我们\n")
	cfg.Resources.IDF = writeFile(t, dir, "idf.txt", "猫咪 2.5\n小狗 3.5\n")
	cfg.Resources.Lexicon = writeFile(t, dir, "lexicon.yaml", "synonyms:\n  - canonical: 计算机\n    variants: [电脑]\n")
	cfg.Resources.Vectors = writeFile(t, dir, "vectors.txt", "2 2\n猫咪 1 0\n小狗 0.6 0.8\n")
	cfg.Naming.Enabled = true
	cfg.Naming.APIKeyEnv = "TERMGRAPH_TEST_KEY"
	t.Setenv("TERMGRAPH_TEST_KEY", "k")

	comp, err := (&Loader{Config: cfg, Segmenter: fakeSegmenter{}}).Load(context.Background())
	require.NoError(t, err)
	defer comp.Close()

	assert.Equal(t, 2, comp.IDF.Len())
	assert.Equal(t, 2.5, comp.IDF.IDF("猫咪"))
	require.NotNil(t, comp.Lexicon)
	assert.True(t, comp.Lexicon.SameGroup("电脑", "计算机"))
	require.NotNil(t, comp.Vectors)
	sim, ok := comp.Vectors.Similarity("猫咪", "小狗")
	require.True(t, ok)
	assert.InDelta(t, 0.6, sim, 1e-9)
	require.NotNil(t, comp.Chat)
	assert.Equal(t, "k", comp.Chat.APIKey)

	got := comp.Extractor.ExtractByFrequency("我们 猫咪 小狗 小狗 我们", 10, segment.ParseAllowPOS("n"))
	require.Len(t, got, 2)
	assert.Equal(t, "小狗", got[0].Term)
}

func TestLoaderMissingVectorsIsNotFatal(t *testing.T) {
	cfg := Default()
	cfg.Resources.Vectors = filepath.Join(t.TempDir(), "missing.bin")
	comp, err := (&Loader{Config: cfg, Segmenter: fakeSegmenter{}}).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, comp.Vectors)
}

func TestLoaderIDFFromDatabase(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "termgraph.db")
	st, err := sqlite.OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, st.AddDocument(ctx, []string{"猫", "狗"}))
	require.NoError(t, st.AddDocument(ctx, []string{"猫"}))
	require.NoError(t, st.Close())

	cfg := Default()
	cfg.Resources.Database = dbPath
	comp, err := (&Loader{Config: cfg, Segmenter: fakeSegmenter{}}).Load(ctx)
	require.NoError(t, err)
	defer comp.Close()

	require.NotNil(t, comp.Store)
	assert.Equal(t, 2, comp.IDF.Len())
	assert.Less(t, comp.IDF.IDF("猫"), comp.IDF.IDF("狗"))
}

func TestLoaderBadLexicon(t *testing.T) {
	cfg := Default()
	cfg.Resources.Lexicon = writeFile(t, t.TempDir(), "lexicon.yaml", "synonyms: {")
	_, err := (&Loader{Config: cfg, Segmenter: fakeSegmenter{}}).Load(context.Background())
	assert.Error(t, err)
}
