package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSynonymGroup(t *testing.T) {
	lex := New()
	lex.AddSynonymGroup("机器学习", []string{"ML", "machine learning", "ml"})

	assert.Equal(t, "机器学习", lex.Normalize("ML"))
	assert.Equal(t, "机器学习", lex.Normalize("Machine Learning"))
	assert.Equal(t, "未知", lex.Normalize("未知"))
	assert.Equal(t, []string{"机器学习", "ml", "machine learning"}, lex.Variants("ml"))
	assert.Equal(t, []string{"other"}, lex.Variants("other"))
	assert.True(t, lex.HasSynonyms("ml"))
	assert.False(t, lex.HasSynonyms("深度学习"))
}

func TestSameGroup(t *testing.T) {
	lex := New()
	lex.AddSynonymGroup("人工智能", []string{"AI"})
	lex.AddSynonymGroup("机器学习", []string{"ML"})

	assert.True(t, lex.SameGroup("ai", "人工智能"))
	assert.False(t, lex.SameGroup("ai", "ml"))
	assert.False(t, lex.SameGroup("ai", "unknown"))

	var nilLex *Lexicon
	assert.False(t, nilLex.SameGroup("a", "b"))
}

func TestRegroupCleansReverseIndex(t *testing.T) {
	lex := New()
	lex.AddSynonymGroup("game", []string{"games", "gaming"})
	lex.AddSynonymGroup("game", []string{"gamer"})

	assert.False(t, lex.HasSynonyms("gaming"))
	assert.Equal(t, "game", lex.Normalize("gamer"))
	assert.Equal(t, Stats{SynonymGroups: 1, TotalVariants: 2}, lex.Stats())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	data := `synonyms:
  - canonical: 人工智能
    variants: [AI, 人工智慧]
  - canonical: ""
    variants: [ignored]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	lex, err := LoadFromYAML(path)
	require.NoError(t, err)
	assert.True(t, lex.SameGroup("人工智慧", "ai"))
	assert.False(t, lex.HasSynonyms("ignored"))

	_, err = LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
