package vectors

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSimilarity(t *testing.T) {
	m := NewModel(map[string][]float64{
		"猫":  {1, 0},
		"猫咪": {2, 0.1},
		"汽车": {0, 1},
		"反向": {-1, 0},
		"零":  {0, 0},
	})

	assert.True(t, m.Contains("猫"))
	assert.False(t, m.Contains("零"), "zero vectors are dropped")

	sim, ok := m.Similarity("猫", "猫咪")
	require.True(t, ok)
	assert.Greater(t, sim, 0.99)

	other, ok := m.Similarity("猫咪", "猫")
	require.True(t, ok)
	assert.Equal(t, sim, other)

	sim, ok = m.Similarity("猫", "汽车")
	require.True(t, ok)
	assert.InDelta(t, 0, sim, 1e-12)

	sim, ok = m.Similarity("猫", "反向")
	require.True(t, ok)
	assert.Equal(t, 0.0, sim, "negative cosine clamps to 0")

	_, ok = m.Similarity("猫", "未知")
	assert.False(t, ok)

	var nilModel *Model
	assert.False(t, nilModel.Contains("猫"))
}

func TestReadText(t *testing.T) {
	in := "3 2\n猫 1 0\n狗 0.9 0.1\n车 0 1\n"
	m, err := ReadText(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 2, m.Dim())

	noHeader, err := ReadText(strings.NewReader("猫 1 0\n狗 0.9 0.1\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, noHeader.Len())

	_, err = ReadText(strings.NewReader("猫 1 x\n"))
	assert.Error(t, err)
}

func writeBinary(t *testing.T, words map[string][]float32, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(order), len(words[order[0]]))
	for _, w := range order {
		buf.WriteString(w + " ")
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, words[w]))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func TestReadBinaryAndLoad(t *testing.T) {
	data := writeBinary(t, map[string][]float32{
		"猫": {1, 0, 0},
		"狗": {0.8, 0.2, 0},
	}, []string{"猫", "狗"})

	m, err := ReadBinary(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 3, m.Dim())

	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	assert.True(t, IsBinaryPath(path))

	loaded, err := Load(path, IsBinaryPath(path))
	require.NoError(t, err)
	sim, ok := loaded.Similarity("猫", "狗")
	require.True(t, ok)
	assert.Greater(t, sim, 0.9)

	_, err = ReadBinary(strings.NewReader("bad header\n"))
	assert.Error(t, err)
}
