package segment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slashTagger reads "word/pos" tokens separated by spaces.
type slashTagger struct{}

func (slashTagger) Tag(text string) []Token {
	var out []Token
	for _, field := range strings.Fields(text) {
		parts := strings.SplitN(field, "/", 2)
		tok := Token{Text: parts[0]}
		if len(parts) == 2 {
			tok.Pos = parts[1]
		}
		out = append(out, tok)
	}
	return out
}

func TestParseAllowPOS(t *testing.T) {
	tags := ParseAllowPOS("n, vn  nr")
	assert.Len(t, tags, 3)
	assert.True(t, tags.Allows("vn"))
	assert.False(t, tags.Allows("v"))
	assert.True(t, Tags{}.Allows("anything"))
}

func TestExtractByFrequency(t *testing.T) {
	ex := NewStatistical(slashTagger{}, Options{Stopwords: []string{"东西"}})
	text := "机器/n 学习/vn 机器/n 东西/n 快速/a 学习/vn 机器/n 12/m"

	got := ex.ExtractByFrequency(text, 10, ParseAllowPOS("n vn"))
	require.Len(t, got, 2)
	assert.Equal(t, "机器", got[0].Term)
	assert.Equal(t, "学习", got[1].Term)
	assert.InDelta(t, 3.0/5.0, got[0].Score, 1e-9)
	assert.InDelta(t, 2.0/5.0, got[1].Score, 1e-9)
}

func TestExtractByFrequencyUsesIDF(t *testing.T) {
	idf := NewIDFTable(map[string]float64{"常见": 0.5, "罕见": 5})
	ex := NewStatistical(slashTagger{}, Options{IDF: idf})

	got := ex.ExtractByFrequency("常见/n 常见/n 罕见/n", 5, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "罕见", got[0].Term)
}

func TestExtractByFrequencyTiesKeepFirstOccurrence(t *testing.T) {
	ex := NewStatistical(slashTagger{}, Options{})
	got := ex.ExtractByFrequency("乙乙/n 甲甲/n 丙丙/n", 2, nil)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"乙乙", "甲甲"}, []string{got[0].Term, got[1].Term})
}

func TestExtractEdgeCases(t *testing.T) {
	ex := NewStatistical(slashTagger{}, Options{})
	assert.Empty(t, ex.ExtractByFrequency("", 5, nil))
	assert.Empty(t, ex.ExtractByFrequency("机器/n", 0, nil))
	assert.Empty(t, ex.ExtractByCentrality("", 5, nil))
	assert.Empty(t, ex.ExtractByCentrality("机器/n", -1, nil))
	assert.Empty(t, ex.ExtractByCentrality("机器/n", 5, nil), "a lone term has no links")
}

func TestExtractByCentrality(t *testing.T) {
	ex := NewStatistical(slashTagger{}, Options{Window: 2})
	// 中心 links to every other term; the others only link to 中心.
	text := "甲方/n 中心/n 乙方/n 中心/n 丙方/n 中心/n 丁方/n"

	got := ex.ExtractByCentrality(text, 10, nil)
	require.Len(t, got, 5)
	assert.Equal(t, "中心", got[0].Term)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	for _, c := range got[1:] {
		assert.Less(t, c.Score, 1.0)
	}
}

type fakeDF struct {
	total int64
	dfs   map[string]int64
}

func (f fakeDF) TotalDocs(context.Context) (int64, error) { return f.total, nil }
func (f fakeDF) AllTokenDF(context.Context) (map[string]int64, error) { return f.dfs, nil }

func TestIDFTable(t *testing.T) {
	table, err := LoadIDF(strings.NewReader("# comment\n机器 3.5\n学习 1.5\n\n数据 2.0\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 3.5, table.IDF("机器"))
	assert.Equal(t, 2.0, table.IDF("未知"), "median for unknown terms")

	var empty *IDFTable
	assert.Equal(t, 1.0, empty.IDF("x"))

	_, err = LoadIDF(strings.NewReader("broken\n"))
	assert.Error(t, err)

	fromStore, err := IDFFromStore(context.Background(), fakeDF{total: 9, dfs: map[string]int64{"rare": 0, "common": 9}})
	require.NoError(t, err)
	assert.Greater(t, fromStore.IDF("rare"), fromStore.IDF("common"))
	assert.InDelta(t, 1.0, fromStore.IDF("common"), 1e-9)
}
