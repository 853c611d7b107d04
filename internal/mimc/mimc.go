// Package mimc implements the SNARK-friendly 2-to-1 compression function
// (C2) used by the Merkle tree. It is grounded directly on
// gnark-crypto/ecc/bn254/fr/mimc, the same MiMC permutation gnark's
// in-circuit gadget (std/hash/mimc) runs — using the native sibling of the
// circuit gadget, rather than re-deriving constants by hand, is what lets an
// off-chain gnark prover's circuit and this verifier agree bit-for-bit
// (spec.md §4.2; see also the "Open Questions" in spec.md §9 about hash
// mismatches).
package mimc

import (
	"sync"

	bn254mimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/ccoin/mixer/internal/field"
	"github.com/ccoin/mixer/pkg/types"
)

// MaxHeight bounds the zero-subtree table; spec.md §3 caps tree height at 32.
const MaxHeight = 32

// zeroLeaf is the designated domain-separated zero leaf (Z[0] in spec.md
// §4.2), derived by hashing a fixed domain string through MiMC rather than
// using the literal zero field element, so an empty leaf can never collide
// with a real (adversarially chosen) commitment of zero.
var zeroLeaf Element

// Element is a thin alias kept local so callers of this package don't need
// to import internal/field directly for the common case.
type Element = field.Element

// Hash2 computes the 2-to-1 compression H(left, right) by running gnark-
// crypto's MiMC hash in sponge mode over the two field elements, in the same
// way the in-circuit gadget absorbs two field elements and squeezes one.
func Hash2(left, right field.Element) field.Element {
	h := bn254mimc.NewMiMC()
	lb := left.Encode()
	rb := right.Encode()
	// gnark-crypto's MiMC Write expects big-endian field element bytes;
	// our wire encoding is little-endian, so reverse before writing.
	var lbe, rbe [32]byte
	reverseInto(lbe[:], lb[:])
	reverseInto(rbe[:], rb[:])
	_, _ = h.Write(lbe[:])
	_, _ = h.Write(rbe[:])
	sum := h.Sum(nil)
	var out types.Hash
	reverseInto(out[:], sum)
	e, err := field.Decode(out)
	if err != nil {
		// MiMC's output is always a reduced field element by
		// construction; a decode failure here means gnark-crypto's
		// contract changed underneath us.
		panic("mimc: hash output not canonical: " + err.Error())
	}
	return e
}

var zeroOnce sync.Once

func zeroLeafValue() field.Element {
	zeroOnce.Do(func() {
		h := bn254mimc.NewMiMC()
		_, _ = h.Write([]byte("ccoin-mixer/zero-leaf"))
		sum := h.Sum(nil)
		var out types.Hash
		reverseInto(out[:], sum)
		e, err := field.Decode(out)
		if err != nil {
			panic("mimc: zero leaf not canonical: " + err.Error())
		}
		zeroLeaf = e
	})
	return zeroLeaf
}

var (
	zeroSubtree     [MaxHeight + 1]field.Element
	zeroSubtreeOnce sync.Once
)

// ZeroSubtree returns Z[level], the canonical value of an all-empty subtree
// of the given height: Z[0] is the domain-separated zero leaf, and
// Z[i] = H(Z[i-1], Z[i-1]). The table is computed once and is safe for
// concurrent read-only use thereafter, per spec.md §4.2 and §9 ("no global
// mutable state... computed on first use and then immutable").
func ZeroSubtree(level int) field.Element {
	zeroSubtreeOnce.Do(func() {
		zeroSubtree[0] = zeroLeafValue()
		for i := 1; i <= MaxHeight; i++ {
			zeroSubtree[i] = Hash2(zeroSubtree[i-1], zeroSubtree[i-1])
		}
	})
	return zeroSubtree[level]
}

func reverseInto(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[n-1-i]
	}
}
