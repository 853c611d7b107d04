// Package field implements scalar-field arithmetic for the BN254 curve's
// Fr (the field the Groth16 verifier and the MiMC compression function both
// operate in). All arithmetic is delegated to gnark-crypto's fr.Element,
// which implements a correct Montgomery reduction — the original source's
// field_mul (a truncated schoolbook multiply with an ad-hoc conditional
// subtraction, see _examples/original_source/src/merkle_tree.rs) is not
// reproduced anywhere in this package.
package field

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/ccoin/mixer/pkg/types"
)

// ErrNonCanonical is returned when a 32-byte encoding is not strictly less
// than the field modulus.
var ErrNonCanonical = errors.New("field: non-canonical encoding")

// Element is a scalar-field element in canonical (reduced) Montgomery form.
type Element struct {
	inner fr.Element
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.inner.SetOne()
	return e
}

// Decode parses a 32-byte little-endian encoding, rejecting any value that
// is not strictly less than the field modulus p. Decode never silently
// reduces user-supplied input — spec.md §4.1 requires exactly this.
func Decode(b types.Hash) (Element, error) {
	var e Element
	if !isCanonical(b) {
		return e, ErrNonCanonical
	}
	// SetBytes interprets input as big-endian; our wire format is
	// little-endian, so reverse into a scratch buffer first.
	var be [32]byte
	reverseInto(be[:], b[:])
	e.inner.SetBytes(be[:])
	return e, nil
}

// IsCanonical reports whether b, read as a 32-byte little-endian integer, is
// strictly less than the field modulus.
func IsCanonical(b types.Hash) bool {
	return isCanonical(b)
}

func isCanonical(b types.Hash) bool {
	var be [32]byte
	reverseInto(be[:], b[:])
	var candidate fr.Element
	// SetBytes reduces mod p; compare the reduced value's re-encoding
	// against the original bytes to detect whether a reduction occurred.
	candidate.SetBytes(be[:])
	roundTrip := candidate.Bytes()
	return roundTrip == be
}

// Encode returns e's canonical 32-byte little-endian encoding.
func (e Element) Encode() types.Hash {
	be := e.inner.Bytes() // big-endian, canonical, 32 bytes
	var h types.Hash
	reverseInto(h[:], be[:])
	return h
}

// Add returns a + b mod p.
func Add(a, b Element) Element {
	var r Element
	r.inner.Add(&a.inner, &b.inner)
	return r
}

// Mul returns a * b mod p.
func Mul(a, b Element) Element {
	var r Element
	r.inner.Mul(&a.inner, &b.inner)
	return r
}

// Cube returns a^3 mod p.
func Cube(a Element) Element {
	var sq Element
	sq.inner.Square(&a.inner)
	var r Element
	r.inner.Mul(&sq.inner, &a.inner)
	return r
}

// Equal reports whether a and b represent the same field element.
func Equal(a, b Element) bool {
	return a.inner.Equal(&b.inner)
}

// Frfr exposes the underlying gnark-crypto element for packages (mimc,
// groth16verify) that need to hand it directly to gnark-crypto APIs.
func (e Element) Frfr() fr.Element {
	return e.inner
}

// FromFr wraps a gnark-crypto fr.Element that is already known-canonical
// (e.g. produced by another gnark-crypto operation) without re-validating.
func FromFr(x fr.Element) Element {
	return Element{inner: x}
}

func reverseInto(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[n-1-i]
	}
}
