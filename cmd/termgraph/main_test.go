package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/termgraph/pkg/termgraph"
	"github.com/cognicore/termgraph/pkg/termgraph/store"
	"github.com/cognicore/termgraph/pkg/termgraph/store/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"termgraph"}, args...))
	return out.String(), err
}

func TestContextCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("今天天气很好。明天天气预报说下雨。我们去公园。"), 0o644))

	out, err := run(t, "context", "--limit", "5", path, "天气")
	require.NoError(t, err)
	assert.Equal(t, "今天天气很好。\n明天天气预报说下雨。\n", out)

	out, err = run(t, "context", path, "天气", "下雨")
	require.NoError(t, err)
	assert.Equal(t, "明天天气预报说下雨。\n", out)
}

func TestContextCommandNeedsKeyword(t *testing.T) {
	_, err := run(t, "context", "doc.txt")
	assert.Error(t, err)
}

func TestListAndShowCommands(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "termgraph.db")
	st, err := sqlite.OpenSQLite(ctx, db)
	require.NoError(t, err)

	result := termgraph.Result{
		ID:        "01J0000000000000000000TEST",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Meta:      termgraph.Meta{File: "notes.txt", Modularity: 0.42},
		Nodes: []termgraph.Node{
			{ID: "天气", Weight: 0.9, Group: 1},
			{ID: "模型", Weight: 1, Group: 0},
			{ID: "预报", Weight: 0.5, Group: 1},
		},
		GroupNames: map[int]string{0: "机器学习", 1: "气象"},
	}
	payload, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, st.SaveAnalysis(ctx, store.Analysis{
		ID: result.ID, File: "notes.txt", CreatedAt: result.CreatedAt, Nodes: 3, Groups: 2, Payload: payload,
	}))
	require.NoError(t, st.Close())

	out, err := run(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, result.ID)
	assert.Contains(t, out, "notes.txt")

	out, err = run(t, "show", "--db", db, result.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "0.4200")
	assert.Contains(t, out, "机器学习")
	assert.Contains(t, out, "天气, 预报")

	_, err = run(t, "show", "--db", db, "missing")
	assert.Error(t, err)
}

func TestShowWithoutDatabase(t *testing.T) {
	_, err := run(t, "show", "x")
	assert.Error(t, err)
}

func TestCorpusFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.HTML", "c.pdf", "sub/d.md"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	files, err := corpusFiles([]string{dir})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.HTML", "sub/d.md"}, names)
}

func TestWriteResultToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := termgraph.Result{ID: "x", Nodes: []termgraph.Node{{ID: "<a&b>", Weight: 1}}}
	require.NoError(t, writeResult(dir, "/data/report.txt", true, r))

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"<a&b>"`))
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug", "json"))
	assert.Error(t, setupLogging("loud", "text"))
	assert.Error(t, setupLogging("info", "xml"))
	require.NoError(t, setupLogging("info", "text"))
}
