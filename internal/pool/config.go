package pool

import (
	"github.com/ccoin/mixer/internal/groth16verify"
)

// MinHeight and MaxHeight bound a pool's Merkle tree height (spec.md §3:
// "height h ∈ [1, 32]").
const (
	MinHeight = 1
	MaxHeight = 32
)

// Config is the pool's immutable configuration (C6), fixed at creation and
// never mutated afterward (spec.md §4.6).
type Config struct {
	Denomination uint64
	Height       int
	VerifyingKey groth16verify.VerifyingKey
}

// Validate checks the parameter preconditions Initialize enforces (spec.md
// §4.7): denomination must be non-zero and height must be in range. There
// is no dedicated "invalid-parameter" code in spec.md §6's numbered list;
// this surfaces as CodeInvalidInstructionData since both fields originate
// from the Initialize instruction's own payload.
func (c Config) Validate() error {
	if c.Denomination == 0 {
		return ErrInvalidInstructionData
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		return ErrInvalidInstructionData
	}
	return nil
}
