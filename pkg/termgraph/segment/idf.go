package segment

import (
	"bufio"
	"context"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IDFTable maps terms to inverse document frequencies. Unknown terms get
// the median of the known values, which is how the reference corpora
// shipped with common segmenters are meant to be used.
type IDFTable struct {
	idf    map[string]float64
	median float64
}

// NewIDFTable builds a table from explicit values.
func NewIDFTable(values map[string]float64) *IDFTable {
	t := &IDFTable{idf: make(map[string]float64, len(values))}
	all := make([]float64, 0, len(values))
	for term, v := range values {
		t.idf[term] = v
		all = append(all, v)
	}
	if len(all) > 0 {
		sort.Float64s(all)
		t.median = all[len(all)/2]
	}
	return t
}

// IDF returns the value for term. An empty or nil table returns 1 so that
// frequency extraction degrades to plain term frequency.
func (t *IDFTable) IDF(term string) float64 {
	if t == nil || len(t.idf) == 0 {
		return 1
	}
	if v, ok := t.idf[term]; ok {
		return v
	}
	return t.median
}

// Len returns the number of known terms.
func (t *IDFTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.idf)
}

// LoadIDF reads "term idf" lines. Blank lines and lines starting with # are
// skipped.
func LoadIDF(r io.Reader) (*IDFTable, error) {
	values := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.Errorf("idf line %d: expected \"term value\"", lineNo)
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "idf line %d", lineNo)
		}
		values[strings.Join(fields[:len(fields)-1], " ")] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read idf table")
	}
	return NewIDFTable(values), nil
}

// LoadIDFFile reads an IDF table from path.
func LoadIDFFile(path string) (*IDFTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open idf table")
	}
	defer f.Close()
	return LoadIDF(f)
}

// DFSource exposes document frequencies accumulated from a reference
// corpus.
type DFSource interface {
	TotalDocs(ctx context.Context) (int64, error)
	AllTokenDF(ctx context.Context) (map[string]int64, error)
}

// IDFFromStore derives a smoothed IDF table, ln((1+N)/(1+df)) + 1, from
// stored document frequencies.
func IDFFromStore(ctx context.Context, src DFSource) (*IDFTable, error) {
	total, err := src.TotalDocs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load total docs")
	}
	dfs, err := src.AllTokenDF(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load token df")
	}
	values := make(map[string]float64, len(dfs))
	for term, df := range dfs {
		values[term] = math.Log(float64(1+total)/float64(1+df)) + 1
	}
	return NewIDFTable(values), nil
}
