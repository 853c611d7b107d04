// Package pool implements the transaction processor (C7) and pool
// configuration (C6): the state machine that decodes instructions,
// validates their preconditions, drives the Merkle tree, nullifier set, and
// proof verifier, and performs fund movement through an injected Ledger.
// The precondition/effect ordering in Initialize/Deposit/Withdraw is
// grounded directly on
// _examples/original_source/src/processor.rs's process_initialize/
// process_deposit/process_withdraw, adapted from Solana account-info
// plumbing to a single in-process aggregate (spec.md §9's suggested
// "pool aggregate that contains the tree inline" redesign).
package pool

import (
	"context"
	"sync"

	"github.com/ccoin/mixer/internal/field"
	"github.com/ccoin/mixer/internal/groth16verify"
	"github.com/ccoin/mixer/internal/merkle"
	"github.com/ccoin/mixer/internal/nullifier"
	"github.com/ccoin/mixer/pkg/types"
)

// Processor owns one pool instance: its configuration, Merkle tree,
// nullifier set, commitment dedup set, and the ledger it moves funds
// through. All three operations take the processor's lock for their
// entire duration, matching spec.md §5's "processor runs straight-line,
// single-threaded" scheduling model — the host ledger is assumed to
// serialize transactions against the same pool; this lock is this
// in-process stand-in for that serialization.
type Processor struct {
	mu sync.Mutex

	initialized bool
	config      Config
	custody     types.Address

	tree        *merkle.Tree
	nullifiers  *nullifier.Set
	commitments *nullifier.Set // reused as a generic canonical-digest dedup set

	ledger Ledger
}

// NewProcessor creates an uninitialised processor bound to custody (the
// address that holds deposited funds in ledger) and ledger. Initialize
// must be called before Deposit or Withdraw will succeed.
func NewProcessor(custody types.Address, ledger Ledger) *Processor {
	return &Processor{
		custody:     custody,
		nullifiers:  nullifier.New(nullifier.NewMemoryStore()),
		commitments: nullifier.New(nullifier.NewMemoryStore()),
		ledger:      ledger,
	}
}

// IsInitialized reports whether Initialize has already run.
func (p *Processor) IsInitialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// Config returns the pool's configuration. Only meaningful once
// IsInitialized is true.
func (p *Processor) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// Initialize creates the pool record and its empty tree (spec.md §4.7).
// Fails ErrAccountAlreadyInitialized if already initialised.
func (p *Processor) Initialize(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return ErrAccountAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tree, err := merkle.New(cfg.Height)
	if err != nil {
		return ErrInvalidInstructionData
	}

	p.config = cfg
	p.tree = tree
	p.initialized = true
	return nil
}

// Deposit locks Config.Denomination from payer and inserts commitment into
// the tree, returning the new leaf's index (spec.md §4.7's Deposit).
func (p *Processor) Deposit(ctx context.Context, payer types.Address, commitment types.Hash) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return 0, ErrAccountNotInitialized
	}

	leaf, err := field.Decode(commitment)
	if err != nil {
		return 0, ErrMalformedCommitment
	}

	has, err := p.commitments.Has(ctx, commitment)
	if err != nil {
		return 0, err
	}
	if has {
		return 0, ErrDuplicateCommitment
	}

	if uint64(p.tree.NextIndex()) >= p.tree.Capacity() {
		return 0, ErrTreeFull
	}

	// Effect 1: pull funds in before touching tree state, so a transfer
	// failure leaves the tree untouched.
	if err := p.ledger.Transfer(ctx, payer, p.custody, p.config.Denomination); err != nil {
		return 0, ErrInsufficientFunds
	}

	// Effect 2: insert the leaf and record the commitment as seen.
	index, err := p.tree.Insert(leaf)
	if err != nil {
		return 0, ErrTreeFull
	}
	if err := p.commitments.Insert(ctx, commitment); err != nil {
		return 0, ErrDuplicateCommitment
	}

	return index, nil
}

// WithdrawRequest bundles a withdrawal's arguments, mirroring the six
// public inputs a proof binds plus the proof bytes themselves (spec.md
// §4.5, §6).
type WithdrawRequest struct {
	Proof         []byte
	Root          types.Hash
	NullifierHash types.Hash
	Recipient     types.Address
	Relayer       types.Address
	Fee           uint64
	Refund        uint64
}

// Withdraw validates req and, if the proof checks out, pays recipient
// Denomination-Fee and relayer Fee (spec.md §4.7's Withdraw). Effects run
// in the exact order the spec requires: the nullifier is inserted before
// either outbound transfer is attempted.
func (p *Processor) Withdraw(ctx context.Context, req WithdrawRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrAccountNotInitialized
	}
	if req.Fee > p.config.Denomination {
		return ErrInvalidFee
	}
	if req.Refund != 0 {
		return ErrInvalidRefund
	}

	nullifierCanonical := field.IsCanonical(req.NullifierHash)
	if !nullifierCanonical {
		return ErrMalformedNullifier
	}
	spent, err := p.nullifiers.Has(ctx, req.NullifierHash)
	if err != nil {
		return err
	}
	if spent {
		return ErrNullifierSpent
	}

	rootElem, err := field.Decode(req.Root)
	if err != nil {
		return ErrUnknownRoot
	}
	if !p.tree.IsKnownRoot(rootElem) {
		return ErrUnknownRoot
	}

	proof, err := groth16verify.DecodeProof(req.Proof)
	if err != nil {
		return ErrInvalidProof
	}

	publicInputs, err := buildPublicInputs(req)
	if err != nil {
		return ErrInvalidProof
	}

	ok, err := groth16verify.Verify(proof, publicInputs, p.config.VerifyingKey)
	if err != nil || !ok {
		return ErrInvalidProof
	}

	// Effect 1: commit the nullifier before any outbound transfer.
	if err := p.nullifiers.Insert(ctx, req.NullifierHash); err != nil {
		return ErrNullifierSpent
	}

	// Effect 2: pay the recipient.
	payout := p.config.Denomination - req.Fee
	if err := p.ledger.Transfer(ctx, p.custody, req.Recipient, payout); err != nil {
		return ErrInsufficientFunds
	}

	// Effect 3: pay the relayer, only if there is a fee to pay.
	if req.Fee > 0 {
		if err := p.ledger.Transfer(ctx, p.custody, req.Relayer, req.Fee); err != nil {
			return ErrInsufficientFunds
		}
	}

	return nil
}

func buildPublicInputs(req WithdrawRequest) ([types.PublicInputCount]field.Element, error) {
	var out [types.PublicInputCount]field.Element

	root, err := field.Decode(req.Root)
	if err != nil {
		return out, err
	}
	nh, err := field.Decode(req.NullifierHash)
	if err != nil {
		return out, err
	}
	recipient, err := field.Decode(types.Hash(req.Recipient))
	if err != nil {
		return out, err
	}
	relayer, err := field.Decode(types.Hash(req.Relayer))
	if err != nil {
		return out, err
	}
	fee, err := field.Decode(uint64Hash(req.Fee))
	if err != nil {
		return out, err
	}
	refund, err := field.Decode(uint64Hash(req.Refund))
	if err != nil {
		return out, err
	}

	out[0] = root
	out[1] = nh
	out[2] = recipient
	out[3] = relayer
	out[4] = fee
	out[5] = refund
	return out, nil
}

// uint64Hash zero-pads a little-endian u64 out to a 32-byte field element
// encoding, matching spec.md §4.5's "integers zero-padded, little-endian".
func uint64Hash(v uint64) types.Hash {
	var h types.Hash
	for i := 0; i < 8; i++ {
		h[i] = byte(v)
		v >>= 8
	}
	return h
}
