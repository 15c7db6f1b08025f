package similarity

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// distanceScale converts a unit-scale acoustic distance to the integer
// form stored in the database.
const distanceScale = 1000

// Analyzer produces a fixed-length acoustic feature vector for an audio
// file. Implementations wrap whatever fingerprinting backend is
// available; failures are reported wrapping ErrAnalysisFailed.
type Analyzer interface {
	Analyze(ctx context.Context, filename string) ([]float64, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, filename string) ([]float64, error)

// Analyze implements Analyzer.
func (f AnalyzerFunc) Analyze(ctx context.Context, filename string) ([]float64, error) {
	return f(ctx, filename)
}

type neighbourEdge struct {
	id       int64
	distance int
}

// acousticDistance is the scaled Euclidean distance between two feature
// vectors. Vectors of different lengths are incomparable.
func acousticDistance(a, b []float64) (int, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return int(math.Sqrt(sum) * distanceScale), true
}

// nearestEdges keeps the closest edges seen so far, capped at limit.
// Candidates are held sorted ascending so the cutoff check is the last
// element.
type nearestEdges struct {
	limit int
	edges []neighbourEdge
}

func newNearestEdges(limit int) *nearestEdges {
	return &nearestEdges{limit: limit}
}

func (n *nearestEdges) consider(edge neighbourEdge) {
	if n.limit <= 0 {
		return
	}
	if len(n.edges) == n.limit && edge.distance >= n.edges[len(n.edges)-1].distance {
		return
	}
	at := sort.Search(len(n.edges), func(i int) bool {
		return n.edges[i].distance > edge.distance
	})
	n.edges = append(n.edges, neighbourEdge{})
	copy(n.edges[at+1:], n.edges[at:])
	n.edges[at] = edge
	if len(n.edges) > n.limit {
		n.edges = n.edges[:n.limit]
	}
}

func (n *nearestEdges) all() []neighbourEdge { return n.edges }

func encodeFeatures(features []float64) []byte {
	buf := make([]byte, 8*len(features))
	for i, f := range features {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFeatures(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("feature blob length %d not a multiple of 8", len(blob))
	}
	features := make([]float64, len(blob)/8)
	for i := range features {
		features[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return features, nil
}
