// Package merkle implements the incremental commitment accumulator (C3):
// an append-only Merkle tree of fixed height that keeps a bounded ring
// buffer of historical roots so a withdrawal can prove membership against a
// root that is no longer the newest one. It generalizes the teacher's
// internal/zkp.CommitmentTree (leaf-cache-plus-store design) to operate on
// scalar-field leaves and the bounded root history
// _examples/original_source/src/merkle_tree.rs (insert_leaf, is_known_root)
// specifies, without reproducing that file's broken field arithmetic or
// hash function.
package merkle

import (
	"errors"
	"sync"

	"github.com/ccoin/mixer/internal/field"
	"github.com/ccoin/mixer/internal/mimc"
	"github.com/ccoin/mixer/pkg/types"
)

// MaxHeight mirrors mimc.MaxHeight: the zero-subtree table only covers
// heights up to this bound.
const MaxHeight = mimc.MaxHeight

var (
	// ErrHeightOutOfRange is returned by New when height is 0 or exceeds MaxHeight.
	ErrHeightOutOfRange = errors.New("merkle: height out of range")
	// ErrTreeFull is returned by Insert once the tree holds 2^height leaves.
	ErrTreeFull = errors.New("merkle: tree is full")
)

// Tree is an incremental Merkle tree of fixed height over scalar-field
// leaves, keeping the last types.RootHistorySize roots so a proof generated
// against a slightly stale root remains verifiable (spec.md §3, §4.3).
type Tree struct {
	mu sync.RWMutex

	height int

	// nextIndex is the position the next inserted leaf will occupy.
	nextIndex uint32

	// filledSubtrees[level] holds the most recently computed left-hand
	// node at that level, reused whenever a later insertion's path passes
	// through it as the left sibling. Index 0 is leaf level.
	filledSubtrees []field.Element

	// roots is a fixed-size ring buffer of the last RootHistorySize
	// roots; currentRootIndex points at the most recently written slot.
	roots            [types.RootHistorySize]field.Element
	currentRootIndex int
	rootsWritten     int // caps IsKnownRoot's scan before the buffer has wrapped
}

// New creates an empty tree of the given height (1..MaxHeight). The
// filled-subtree table is seeded with the all-empty subtree values Z[level],
// but roots[0] is seeded with the zero sentinel, not the real empty-tree
// root Z[height]: spec.md §4.7 requires Initialize to seed roots[0] = 0, and
// §4.3's is_known_root must reject the all-zero encoding unconditionally, so
// a freshly initialized pool has no known root until its first Insert.
func New(height int) (*Tree, error) {
	if height <= 0 || height > MaxHeight {
		return nil, ErrHeightOutOfRange
	}
	t := &Tree{
		height:         height,
		filledSubtrees: make([]field.Element, height),
	}
	for level := 0; level < height; level++ {
		t.filledSubtrees[level] = mimc.ZeroSubtree(level)
	}
	t.roots[0] = field.Zero()
	t.currentRootIndex = 0
	t.rootsWritten = 1
	return t, nil
}

// Height returns the tree's fixed height.
func (t *Tree) Height() int {
	return t.height
}

// NextIndex returns the position the next Insert will occupy.
func (t *Tree) NextIndex() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextIndex
}

// Capacity returns 2^height, the maximum number of leaves the tree can hold.
func (t *Tree) Capacity() uint64 {
	return uint64(1) << uint(t.height)
}

// CurrentRoot returns the most recently computed root.
func (t *Tree) CurrentRoot() field.Element {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.roots[t.currentRootIndex]
}

// Insert appends a new leaf, recomputing the path to the root and pushing
// the new root into the ring buffer, evicting the oldest entry once it has
// wrapped. Returns the leaf's position (spec.md §4.3's insert_leaf).
func (t *Tree) Insert(leaf field.Element) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if uint64(t.nextIndex) >= t.Capacity() {
		return 0, ErrTreeFull
	}

	index := t.nextIndex
	current := leaf
	idx := index
	for level := 0; level < t.height; level++ {
		var left, right field.Element
		if idx%2 == 0 {
			// current is the left child; its sibling is the zero
			// subtree at this level since nothing to its right has
			// been inserted yet. Record current as the filled
			// subtree for this level so a future right sibling can
			// reuse it.
			t.filledSubtrees[level] = current
			left = current
			right = mimc.ZeroSubtree(level)
		} else {
			left = t.filledSubtrees[level]
			right = current
		}
		current = mimc.Hash2(left, right)
		idx /= 2
	}

	t.nextIndex++
	t.currentRootIndex = (t.currentRootIndex + 1) % types.RootHistorySize
	t.roots[t.currentRootIndex] = current
	if t.rootsWritten < types.RootHistorySize {
		t.rootsWritten++
	}

	return index, nil
}

// IsKnownRoot reports whether root matches any of the last
// types.RootHistorySize roots produced by this tree. The all-zero root is
// never considered known, matching
// _examples/original_source/src/merkle_tree.rs's is_known_root, which
// rejects a zero root unconditionally.
func (t *Tree) IsKnownRoot(root field.Element) bool {
	if field.Equal(root, field.Zero()) {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	i := t.currentRootIndex
	for n := 0; n < t.rootsWritten; n++ {
		if field.Equal(t.roots[i], root) {
			return true
		}
		i--
		if i < 0 {
			i = types.RootHistorySize - 1
		}
	}
	return false
}
