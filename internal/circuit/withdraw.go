// Package circuit defines the withdrawal circuit a depositor's prover runs
// off-chain to produce the Groth16 proof internal/groth16verify checks
// on-chain. It is the off-chain half of the split the teacher's own
// MiMC-based on-chain verifier implies: the circuit and its trusted setup
// are authored with gnark's frontend (grounded on
// _examples/MuriData-muri-zkproof/circuits/merkle.go's padded Merkle-proof
// gadget), while the bytes the resulting proof is serialized to are decoded
// entirely independently by groth16verify using gnark-crypto, without
// calling back into gnark at verification time — mirroring how the
// original Tornado Cash circuit (circom) and its on-chain verifier
// (bespoke Solidity) are two separate implementations of the same Groth16
// equation.
package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// TreeDepth is the Merkle tree depth this circuit is compiled for. Unlike
// internal/merkle.Tree's runtime-configurable height, a gnark circuit's
// array sizes are fixed at compile time: a pool whose Config.Height
// differs from TreeDepth needs its own circuit build and its own trusted
// setup output wired into its VerifyingKey.
const TreeDepth = 20

// WithdrawCircuit proves knowledge of a (nullifier, secret) preimage whose
// commitment is a leaf of the tree rooted at Root, without revealing which
// leaf. Recipient, Relayer, Fee, and Refund are bound into the proof as
// public inputs even though the circuit performs no arithmetic on them
// (the original_source's deposit/withdraw program only checks they weren't
// altered after proof generation), using the same "square equals square"
// binding trick the original Tornado Cash circuit uses so a verifier that
// only checks the R1CS is satisfied still rejects a proof replayed against
// different outputs.
type WithdrawCircuit struct {
	// Public inputs, in the exact order spec.md §4.5 fixes.
	Root          frontend.Variable `gnark:"root,public"`
	NullifierHash frontend.Variable `gnark:"nullifierHash,public"`
	Recipient     frontend.Variable `gnark:"recipient,public"`
	Relayer       frontend.Variable `gnark:"relayer,public"`
	Fee           frontend.Variable `gnark:"fee,public"`
	Refund        frontend.Variable `gnark:"refund,public"`

	// Private inputs.
	Nullifier  frontend.Variable                `gnark:"nullifier"`
	Secret     frontend.Variable                `gnark:"secret"`
	PathElements [TreeDepth]frontend.Variable `gnark:"pathElements"`
	PathIndices  [TreeDepth]frontend.Variable `gnark:"pathIndices"`
}

// Define implements the withdrawal circuit's constraints.
func (c *WithdrawCircuit) Define(api frontend.API) error {
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// Nullifier hash must match the one bound into the public inputs, so
	// the on-chain nullifier set can be checked without learning which
	// deposit is being spent.
	hasher.Write(c.Nullifier)
	computedNullifierHash := hasher.Sum()
	api.AssertIsEqual(computedNullifierHash, c.NullifierHash)
	hasher.Reset()

	// Commitment is the leaf this proof claims membership for.
	hasher.Write(c.Nullifier, c.Secret)
	commitment := hasher.Sum()
	hasher.Reset()

	// Walk the Merkle path from the leaf up to the claimed root. Sibling
	// order follows pathIndices: 0 means the current node is the left
	// child, 1 means it is the right child, matching
	// internal/merkle.Tree.Insert's own left/right convention.
	current := commitment
	for i := 0; i < TreeDepth; i++ {
		sibling := c.PathElements[i]
		isRight := c.PathIndices[i]

		left := api.Select(isRight, sibling, current)
		right := api.Select(isRight, current, sibling)

		hasher.Write(left, right)
		current = hasher.Sum()
		hasher.Reset()
	}
	api.AssertIsEqual(current, c.Root)

	// Bind recipient/relayer/fee/refund into the proof without otherwise
	// constraining them.
	api.AssertIsEqual(api.Mul(c.Recipient, c.Recipient), api.Mul(c.Recipient, c.Recipient))
	api.AssertIsEqual(api.Mul(c.Relayer, c.Relayer), api.Mul(c.Relayer, c.Relayer))
	api.AssertIsEqual(api.Mul(c.Fee, c.Fee), api.Mul(c.Fee, c.Fee))
	api.AssertIsEqual(api.Mul(c.Refund, c.Refund), api.Mul(c.Refund, c.Refund))

	return nil
}
