package pool

import (
	"context"
	"testing"

	"github.com/ccoin/mixer/internal/groth16verify"
	"github.com/ccoin/mixer/pkg/types"
)

// degenerateConfig returns a Config whose VerifyingKey has every curve
// point at infinity and AlphaBeta set to GT's multiplicative identity. As
// in internal/groth16verify's own test, this makes the pairing equation
// trivially hold regardless of the public inputs supplied, which lets
// these tests exercise Withdraw's precondition ordering and fund movement
// without a real trusted setup.
func degenerateConfig(denomination uint64, height int) Config {
	var vk groth16verify.VerifyingKey
	vk.AlphaBeta.SetOne()
	return Config{Denomination: denomination, Height: height, VerifyingKey: vk}
}

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func leafHash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func newTestProcessor(t *testing.T, denomination uint64, height int) (*Processor, *MemoryLedger, types.Address) {
	t.Helper()
	custody := addr(0xff)
	ledger := NewMemoryLedger()
	p := NewProcessor(custody, ledger)
	if err := p.Initialize(degenerateConfig(denomination, height)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return p, ledger, custody
}

// S1
func TestInitializeHappyPathAndReinitRejected(t *testing.T) {
	p, _, _ := newTestProcessor(t, 100_000_000, 20)
	if !p.IsInitialized() {
		t.Fatal("processor should be initialised")
	}
	if err := p.Initialize(degenerateConfig(100_000_000, 20)); err != ErrAccountAlreadyInitialized {
		t.Fatalf("expected ErrAccountAlreadyInitialized, got %v", err)
	}
}

func TestInitializeRejectsBadParameters(t *testing.T) {
	custody := addr(1)
	p := NewProcessor(custody, NewMemoryLedger())
	if err := p.Initialize(degenerateConfig(0, 10)); err != ErrInvalidInstructionData {
		t.Fatalf("zero denomination: got %v", err)
	}
	p2 := NewProcessor(custody, NewMemoryLedger())
	if err := p2.Initialize(degenerateConfig(10, 0)); err != ErrInvalidInstructionData {
		t.Fatalf("zero height: got %v", err)
	}
	p3 := NewProcessor(custody, NewMemoryLedger())
	if err := p3.Initialize(degenerateConfig(10, 33)); err != ErrInvalidInstructionData {
		t.Fatalf("height over max: got %v", err)
	}
}

// S2
func TestDepositAndDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	p, ledger, custody := newTestProcessor(t, 100_000_000, 20)
	payer := addr(1)
	ledger.Credit(payer, 200_000_000)

	commitment := leafHash(0x01)
	idx, err := p.Deposit(ctx, payer, commitment)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected first leaf index 0, got %d", idx)
	}

	bal, _ := ledger.Balance(ctx, custody)
	if bal != 100_000_000 {
		t.Fatalf("custody balance should be denomination, got %d", bal)
	}

	if _, err := p.Deposit(ctx, payer, commitment); err != ErrDuplicateCommitment {
		t.Fatalf("expected ErrDuplicateCommitment, got %v", err)
	}
	// state unchanged: custody balance must not have moved on the failed deposit
	bal2, _ := ledger.Balance(ctx, custody)
	if bal2 != bal {
		t.Fatal("custody balance must be unchanged after a failed deposit")
	}
}

// S3
func TestDepositRejectsNonCanonicalCommitment(t *testing.T) {
	ctx := context.Background()
	p, ledger, _ := newTestProcessor(t, 100_000_000, 20)
	payer := addr(2)
	ledger.Credit(payer, 200_000_000)

	// The field modulus itself, little-endian, is never canonical.
	modulusBE := [32]byte{
		0x30, 0x64, 0x4e, 0x72, 0xe1, 0x31, 0xa0, 0x29, 0xb8, 0x50, 0x45, 0xb6,
		0x81, 0x81, 0x58, 0x5d, 0x28, 0x33, 0xe8, 0x48, 0x79, 0xb9, 0x70, 0x91,
		0x43, 0xe1, 0xf5, 0x93, 0xf0, 0x00, 0x00, 0x01,
	}
	var nonCanonical types.Hash
	for i := 0; i < 32; i++ {
		nonCanonical[i] = modulusBE[31-i]
	}

	before, _ := ledger.Balance(ctx, payer)
	if _, err := p.Deposit(ctx, payer, nonCanonical); err != ErrMalformedCommitment {
		t.Fatalf("expected ErrMalformedCommitment, got %v", err)
	}
	after, _ := ledger.Balance(ctx, payer)
	if before != after {
		t.Fatal("no transfer should occur on a malformed commitment")
	}
}

func depositedWithdrawRequest(t *testing.T, p *Processor, root types.Hash) WithdrawRequest {
	t.Helper()
	return WithdrawRequest{
		Proof:         make([]byte, types.ProofSize),
		Root:          root,
		NullifierHash: leafHash(0x42),
		Recipient:     addr(0x10),
		Relayer:       addr(0x20),
		Fee:           1_000_000,
		Refund:        0,
	}
}

// S4 and S5 (conservation + double-spend) combined happy-path check.
func TestWithdrawHappyPathThenDoubleSpendRejected(t *testing.T) {
	ctx := context.Background()
	p, ledger, custody := newTestProcessor(t, 100_000_000, 20)
	payer := addr(3)
	ledger.Credit(payer, 200_000_000)

	if _, err := p.Deposit(ctx, payer, leafHash(0x01)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	root := p.tree.CurrentRoot().Encode()

	req := depositedWithdrawRequest(t, p, root)
	if err := p.Withdraw(ctx, req); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	recipientBal, _ := ledger.Balance(ctx, req.Recipient)
	if recipientBal != 99_000_000 {
		t.Fatalf("recipient should receive denomination-fee, got %d", recipientBal)
	}
	relayerBal, _ := ledger.Balance(ctx, req.Relayer)
	if relayerBal != 1_000_000 {
		t.Fatalf("relayer should receive fee, got %d", relayerBal)
	}
	custodyBal, _ := ledger.Balance(ctx, custody)
	if custodyBal != 0 {
		t.Fatalf("custody should be fully debited, got %d", custodyBal)
	}

	// S5 double-spend
	if err := p.Withdraw(ctx, req); err != ErrNullifierSpent {
		t.Fatalf("expected ErrNullifierSpent on replay, got %v", err)
	}
	recipientBal2, _ := ledger.Balance(ctx, req.Recipient)
	if recipientBal2 != recipientBal {
		t.Fatal("no further transfer should occur on a rejected double-spend")
	}
}

// S6 stale root
func TestWithdrawRejectsStaleRoot(t *testing.T) {
	ctx := context.Background()
	p, ledger, _ := newTestProcessor(t, 100_000_000, 20)
	payer := addr(4)
	ledger.Credit(payer, uint64(40)*100_000_000)

	if _, err := p.Deposit(ctx, payer, leafHash(0x01)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	staleRoot := p.tree.CurrentRoot().Encode()

	for i := byte(2); i < byte(2+types.RootHistorySize+1); i++ {
		if _, err := p.Deposit(ctx, payer, leafHash(i)); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	req := depositedWithdrawRequest(t, p, staleRoot)
	if err := p.Withdraw(ctx, req); err != ErrUnknownRoot {
		t.Fatalf("expected ErrUnknownRoot for evicted root, got %v", err)
	}
}

// S7
func TestWithdrawRejectsFeeAboveDenomination(t *testing.T) {
	ctx := context.Background()
	p, ledger, _ := newTestProcessor(t, 100_000_000, 20)
	payer := addr(5)
	ledger.Credit(payer, 200_000_000)
	if _, err := p.Deposit(ctx, payer, leafHash(0x01)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	root := p.tree.CurrentRoot().Encode()

	req := depositedWithdrawRequest(t, p, root)
	req.Fee = 100_000_001
	if err := p.Withdraw(ctx, req); err != ErrInvalidFee {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
}

// S8
func TestDepositRejectedOnceTreeFull(t *testing.T) {
	ctx := context.Background()
	p, ledger, _ := newTestProcessor(t, 1, 2) // capacity 4
	payer := addr(6)
	ledger.Credit(payer, 100)

	for i := byte(1); i <= 4; i++ {
		if _, err := p.Deposit(ctx, payer, leafHash(i)); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}
	if _, err := p.Deposit(ctx, payer, leafHash(5)); err != ErrTreeFull {
		t.Fatalf("expected ErrTreeFull, got %v", err)
	}
}

func TestWithdrawRejectsNonZeroRefund(t *testing.T) {
	ctx := context.Background()
	p, ledger, _ := newTestProcessor(t, 100_000_000, 20)
	payer := addr(7)
	ledger.Credit(payer, 200_000_000)
	if _, err := p.Deposit(ctx, payer, leafHash(0x01)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	root := p.tree.CurrentRoot().Encode()

	req := depositedWithdrawRequest(t, p, root)
	req.Refund = 1
	if err := p.Withdraw(ctx, req); err != ErrInvalidRefund {
		t.Fatalf("expected ErrInvalidRefund, got %v", err)
	}
}

func TestInstructionEncodeDecodeRoundTrip(t *testing.T) {
	init := InitializeArgs{Denomination: 100_000_000, Height: 20}
	tag, decoded, err := Decode(EncodeInitialize(init))
	if err != nil {
		t.Fatal(err)
	}
	if tag != TagInitialize || decoded.(InitializeArgs) != init {
		t.Fatalf("initialize round trip mismatch: %+v", decoded)
	}

	dep := DepositArgs{Commitment: leafHash(0x09)}
	tag, decoded, err = Decode(EncodeDeposit(dep))
	if err != nil {
		t.Fatal(err)
	}
	if tag != TagDeposit || decoded.(DepositArgs) != dep {
		t.Fatalf("deposit round trip mismatch: %+v", decoded)
	}

	wd := WithdrawArgs{
		Proof:         make([]byte, types.ProofSize),
		Root:          leafHash(1),
		NullifierHash: leafHash(2),
		Recipient:     addr(3),
		Relayer:       addr(4),
		Fee:           1000,
		Refund:        0,
	}
	tag, decoded, err = Decode(EncodeWithdraw(wd))
	if err != nil {
		t.Fatal(err)
	}
	got := decoded.(WithdrawArgs)
	if tag != TagWithdraw || got.Root != wd.Root || got.Fee != wd.Fee || len(got.Proof) != types.ProofSize {
		t.Fatalf("withdraw round trip mismatch: %+v", got)
	}
}

func TestDecodeRejectsBadWithdrawProofLength(t *testing.T) {
	wd := WithdrawArgs{Proof: make([]byte, 10)}
	if _, _, err := Decode(EncodeWithdraw(wd)); err != ErrInvalidInstruction {
		t.Fatalf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	if _, _, err := Decode([]byte{0xff, 0x00}); err != ErrInvalidInstruction {
		t.Fatalf("expected ErrInvalidInstruction, got %v", err)
	}
}
