package merkle

import (
	"testing"

	"github.com/ccoin/mixer/internal/field"
)

func leafAt(n uint64) field.Element {
	var h [32]byte
	h[0] = byte(n)
	h[1] = byte(n >> 8)
	e, err := field.Decode(h)
	if err != nil {
		panic(err)
	}
	return e
}

func TestNewRejectsBadHeight(t *testing.T) {
	if _, err := New(0); err != ErrHeightOutOfRange {
		t.Fatalf("height 0: got %v", err)
	}
	if _, err := New(MaxHeight + 1); err != ErrHeightOutOfRange {
		t.Fatalf("height over max: got %v", err)
	}
}

func TestEmptyTreeRootNotKnownUntilFirstInsert(t *testing.T) {
	tr, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	if !field.Equal(tr.CurrentRoot(), field.Zero()) {
		t.Fatal("freshly initialized tree must report the zero sentinel as its current root")
	}
	if tr.IsKnownRoot(tr.CurrentRoot()) {
		t.Fatal("the zero sentinel must never be a known root, even as the tree's own current root")
	}
	if _, err := tr.Insert(leafAt(1)); err != nil {
		t.Fatal(err)
	}
	if !tr.IsKnownRoot(tr.CurrentRoot()) {
		t.Fatal("the root produced by the first insert must be known")
	}
}

func TestInsertAdvancesIndexAndRoot(t *testing.T) {
	tr, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	initial := tr.CurrentRoot()

	idx, err := tr.Insert(leafAt(1))
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0 {
		t.Fatalf("first insert should land at index 0, got %d", idx)
	}
	if tr.NextIndex() != 1 {
		t.Fatalf("next index should be 1, got %d", tr.NextIndex())
	}
	if field.Equal(tr.CurrentRoot(), initial) {
		t.Fatal("root must change after insert")
	}
	if !tr.IsKnownRoot(tr.CurrentRoot()) {
		t.Fatal("current root must be known")
	}
}

func TestTreeFullAfterCapacity(t *testing.T) {
	tr, err := New(2) // capacity 4
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 4; i++ {
		if _, err := tr.Insert(leafAt(i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if _, err := tr.Insert(leafAt(5)); err != ErrTreeFull {
		t.Fatalf("expected ErrTreeFull, got %v", err)
	}
}

func TestRootHistoryWindow(t *testing.T) {
	tr, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	roots := make([]field.Element, 0, 40)
	roots = append(roots, tr.CurrentRoot())
	for i := uint64(0); i < 35; i++ {
		if _, err := tr.Insert(leafAt(i)); err != nil {
			t.Fatal(err)
		}
		roots = append(roots, tr.CurrentRoot())
	}
	// The most recent 30 roots (indices len-30..len-1) must all be known.
	n := len(roots)
	for i := n - 30; i < n; i++ {
		if !tr.IsKnownRoot(roots[i]) {
			t.Fatalf("recent root %d should be known", i)
		}
	}
	// A root from before the window (the one produced by the first insert,
	// whose ring slot insert 31 overwrote) must have rolled off.
	if tr.IsKnownRoot(roots[1]) {
		t.Fatal("stale root outside the history window should not be known")
	}
}

func TestZeroRootNeverKnown(t *testing.T) {
	tr, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	if tr.IsKnownRoot(field.Zero()) {
		t.Fatal("zero root must never be considered known")
	}
}

func TestDistinctLeavesGiveDistinctRoots(t *testing.T) {
	a, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Insert(leafAt(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Insert(leafAt(2)); err != nil {
		t.Fatal(err)
	}
	if field.Equal(a.CurrentRoot(), b.CurrentRoot()) {
		t.Fatal("different leaves must produce different roots")
	}
}
