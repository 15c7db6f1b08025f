package similarity

import (
	"container/heap"
	"testing"
)

func TestRequestHeapOrdersByPriorityThenSequence(t *testing.T) {
	var pending requestHeap
	heap.Push(&pending, &request{priority: PriorityWrite, seq: 0})
	heap.Push(&pending, &request{priority: PriorityInteractive, seq: 1})
	heap.Push(&pending, &request{priority: PriorityMatch, seq: 2})
	heap.Push(&pending, &request{priority: PriorityInteractive, seq: 3})

	var order []uint64
	for pending.Len() > 0 {
		order = append(order, heap.Pop(&pending).(*request).seq)
	}
	want := []uint64{1, 3, 2, 0}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("pop order %v, want %v", order, want)
		}
	}
}

func TestNearestEdgesKeepsClosest(t *testing.T) {
	best := newNearestEdges(2)
	for _, edge := range []neighbourEdge{
		{id: 1, distance: 500},
		{id: 2, distance: 100},
		{id: 3, distance: 900},
		{id: 4, distance: 200},
	} {
		best.consider(edge)
	}

	edges := best.all()
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].id != 2 || edges[1].id != 4 {
		t.Fatalf("unexpected edges %+v", edges)
	}
	if edges[0].distance > edges[1].distance {
		t.Fatalf("edges not ascending: %+v", edges)
	}
}

func TestAcousticDistanceRejectsMismatchedVectors(t *testing.T) {
	if _, ok := acousticDistance([]float64{1, 2}, []float64{1}); ok {
		t.Fatal("expected mismatched vectors to be incomparable")
	}
	distance, ok := acousticDistance([]float64{0, 0}, []float64{3, 4})
	if !ok || distance != 5000 {
		t.Fatalf("expected scaled distance 5000, got %d (%v)", distance, ok)
	}
}

func TestFeatureCodecRoundTrip(t *testing.T) {
	features := []float64{0, -1.5, 42.25}
	decoded, err := decodeFeatures(encodeFeatures(features))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(features) {
		t.Fatalf("length mismatch: %d", len(decoded))
	}
	for i := range features {
		if decoded[i] != features[i] {
			t.Fatalf("feature %d: got %f want %f", i, decoded[i], features[i])
		}
	}
	if _, err := decodeFeatures([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}
