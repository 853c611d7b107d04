// Package types defines the wire-level value types shared across the mixer:
// fixed-size hashes and addresses, and the sizes that govern the persisted
// account layouts in internal/pool.
package types

import "encoding/hex"

const (
	// HashSize is the width of a scalar-field element or hash, 32 bytes
	// little-endian.
	HashSize = 32

	// AddressSize is the width of a recipient/relayer identifier. The
	// host ledger's address format is out of scope (spec.md §1); this
	// repository treats addresses as opaque 32-byte values, matching the
	// zero-padded 32-byte public-input slots spec.md §4.5 specifies for
	// recipient and relayer.
	AddressSize = 32

	// RootHistorySize is the size of the Merkle root ring buffer (N in
	// spec.md §3/§4.3).
	RootHistorySize = 30

	// ProofSize is the fixed Groth16 proof encoding length: G1(64) + G2(128) + G1(64).
	ProofSize = 256

	// PublicInputCount is the number of public scalars a withdrawal binds:
	// root, nullifier_hash, recipient, relayer, fee, refund.
	PublicInputCount = 6

	// PublicInputsSize is PublicInputCount * HashSize.
	PublicInputsSize = PublicInputCount * HashSize
)

// Hash is a 32-byte little-endian encoding of a scalar-field element, a
// Merkle leaf/root, or a nullifier hash.
type Hash [HashSize]byte

// ZeroHash is the all-zero encoding, reserved as a sentinel (spec.md §4.3's
// is_known_root rejects it unconditionally).
var ZeroHash = Hash{}

// IsZero reports whether h is the all-zero encoding.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String renders h as a 0x-prefixed hex string.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns a copy of h's bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// Address is an opaque 32-byte recipient/relayer identifier.
type Address [AddressSize]byte

// ZeroAddress is the all-zero address.
var ZeroAddress = Address{}

// String renders a as a 0x-prefixed hex string.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// HashFromBytes copies b into a Hash, zero-padding on the right if b is
// shorter than HashSize and truncating if longer. Callers that need strict
// length checking should compare len(b) themselves before calling this.
func HashFromBytes(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}

// AddressFromBytes copies b into an Address the same way HashFromBytes does.
func AddressFromBytes(b []byte) Address {
	var a Address
	copy(a[:], b)
	return a
}
