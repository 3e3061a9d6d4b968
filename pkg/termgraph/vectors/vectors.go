// Package vectors provides the optional word-vector similarity capability
// used for semantic synonym detection.
package vectors

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Lookup answers similarity queries for terms it knows.
type Lookup interface {
	Contains(term string) bool
	// Similarity returns the similarity of a and b and false when either
	// term is unknown.
	Similarity(a, b string) (float64, bool)
}

// Model is an in-memory set of unit-length word vectors.
type Model struct {
	dim     int
	vectors map[string][]float64
}

var _ Lookup = (*Model)(nil)

// NewModel builds a model from raw vectors. Vectors whose length differs
// from the first vector's, or whose norm is zero, are skipped.
func NewModel(raw map[string][]float64) *Model {
	m := &Model{vectors: make(map[string][]float64, len(raw))}
	for word, v := range raw {
		m.add(word, v)
	}
	return m
}

func (m *Model) add(word string, v []float64) {
	if m.dim == 0 {
		m.dim = len(v)
	}
	if len(v) != m.dim || m.dim == 0 {
		return
	}
	n := floats.Norm(v, 2)
	if n == 0 || math.IsNaN(n) {
		return
	}
	unit := make([]float64, len(v))
	copy(unit, v)
	floats.Scale(1/n, unit)
	m.vectors[word] = unit
}

// Dim returns the vector dimensionality.
func (m *Model) Dim() int { return m.dim }

// Len returns the vocabulary size.
func (m *Model) Len() int { return len(m.vectors) }

// Contains reports whether term has a vector.
func (m *Model) Contains(term string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vectors[term]
	return ok
}

// Similarity returns the cosine similarity of a and b clamped to [0,1].
func (m *Model) Similarity(a, b string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	va, ok := m.vectors[a]
	if !ok {
		return 0, false
	}
	vb, ok := m.vectors[b]
	if !ok {
		return 0, false
	}
	sim := floats.Dot(va, vb)
	switch {
	case sim < 0:
		sim = 0
	case sim > 1:
		sim = 1
	}
	return sim, true
}

// Load reads a word2vec model from path. binary selects the binary format;
// otherwise the text format is expected.
func Load(path string, binary bool) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open vector model")
	}
	defer f.Close()

	if binary {
		return ReadBinary(f)
	}
	return ReadText(f)
}

// IsBinaryPath reports whether path looks like a binary word2vec file.
func IsBinaryPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".bin")
}

// ReadText parses the word2vec text format: an optional "count dim" header
// followed by "word v1 v2 ..." lines.
func ReadText(r io.Reader) (*Model, error) {
	m := &Model{vectors: make(map[string][]float64)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	first := true
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if first {
			first = false
			if len(fields) == 2 && isInt(fields[0]) && isInt(fields[1]) {
				continue
			}
		}
		if len(fields) < 2 {
			return nil, errors.Errorf("vector line %d: missing components", lineNo)
		}
		v := make([]float64, len(fields)-1)
		for i, s := range fields[1:] {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "vector line %d", lineNo)
			}
			v[i] = x
		}
		m.add(fields[0], v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read vector model")
	}
	return m, nil
}

// ReadBinary parses the word2vec binary format: a "count dim" text header,
// then per word the word, a space and dim little-endian float32 values.
func ReadBinary(r io.Reader) (*Model, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "read vector header")
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, errors.Errorf("vector header %q: expected \"count dim\"", strings.TrimSpace(header))
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, errors.Wrap(err, "vector header count")
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return nil, errors.Errorf("vector header dim %q invalid", fields[1])
	}

	m := &Model{vectors: make(map[string][]float64, count)}
	raw := make([]float32, dim)
	for i := 0; i < count; i++ {
		word, err := br.ReadString(' ')
		if err != nil {
			return nil, errors.Wrapf(err, "read word %d", i)
		}
		word = strings.TrimSpace(word)
		if err := binary.Read(br, binary.LittleEndian, raw); err != nil {
			return nil, errors.Wrapf(err, "read vector for %q", word)
		}
		v := make([]float64, dim)
		for j, x := range raw {
			v[j] = float64(x)
		}
		m.add(word, v)
	}
	return m, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
