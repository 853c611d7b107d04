package pool

import (
	"encoding/binary"
	"errors"

	"github.com/ccoin/mixer/pkg/types"
)

// Tag identifies which instruction a wire payload encodes (spec.md §6: one
// byte, 0x00 Initialize, 0x01 Deposit, 0x02 Withdraw).
type Tag byte

const (
	TagInitialize Tag = 0x00
	TagDeposit    Tag = 0x01
	TagWithdraw   Tag = 0x02
)

// ErrInvalidInstruction is returned by Decode when the tag byte is
// unrecognized or the remaining payload doesn't match the tag's fixed or
// length-prefixed layout.
var ErrInvalidInstruction = errors.New("pool: invalid instruction data")

// InitializeArgs is the Initialize instruction's payload: denomination (u64
// little-endian) followed by height (u8).
type InitializeArgs struct {
	Denomination uint64
	Height       uint8
}

// DepositArgs is the Deposit instruction's payload: a 32-byte commitment.
type DepositArgs struct {
	Commitment types.Hash
}

// WithdrawArgs is the Withdraw instruction's payload: a length-prefixed
// proof followed by the six public inputs (root, nullifier hash, recipient,
// relayer, then the fee/refund integers), in the exact field order spec.md
// §6 fixes.
type WithdrawArgs struct {
	Proof         []byte
	Root          types.Hash
	NullifierHash types.Hash
	Recipient     types.Address
	Relayer       types.Address
	Fee           uint64
	Refund        uint64
}

// EncodeInitialize serializes an Initialize instruction.
func EncodeInitialize(a InitializeArgs) []byte {
	buf := make([]byte, 1+8+1)
	buf[0] = byte(TagInitialize)
	binary.LittleEndian.PutUint64(buf[1:9], a.Denomination)
	buf[9] = a.Height
	return buf
}

// EncodeDeposit serializes a Deposit instruction.
func EncodeDeposit(a DepositArgs) []byte {
	buf := make([]byte, 1+types.HashSize)
	buf[0] = byte(TagDeposit)
	copy(buf[1:], a.Commitment[:])
	return buf
}

// EncodeWithdraw serializes a Withdraw instruction. proof_len is written as
// a 4-byte little-endian length prefix ahead of the proof bytes, per
// spec.md §6.
func EncodeWithdraw(a WithdrawArgs) []byte {
	size := 1 + 4 + len(a.Proof) + types.HashSize*2 + types.AddressSize*2 + 8 + 8
	buf := make([]byte, size)
	off := 0
	buf[off] = byte(TagWithdraw)
	off++
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(a.Proof)))
	off += 4
	off += copy(buf[off:], a.Proof)
	off += copy(buf[off:], a.Root[:])
	off += copy(buf[off:], a.NullifierHash[:])
	off += copy(buf[off:], a.Recipient[:])
	off += copy(buf[off:], a.Relayer[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], a.Fee)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], a.Refund)
	off += 8
	return buf
}

// Decode parses any of the three instruction payloads from their wire
// encoding, dispatching on the leading tag byte the way
// _examples/original_source/src/processor.rs's Processor::process does
// after Borsh-deserializing a TornadoInstruction enum — here the tag and
// field layout are read directly per spec.md §6 instead of going through a
// host-specific serialization framework.
func Decode(data []byte) (Tag, interface{}, error) {
	if len(data) < 1 {
		return 0, nil, ErrInvalidInstruction
	}
	tag := Tag(data[0])
	body := data[1:]

	switch tag {
	case TagInitialize:
		if len(body) != 8+1 {
			return 0, nil, ErrInvalidInstruction
		}
		return tag, InitializeArgs{
			Denomination: binary.LittleEndian.Uint64(body[0:8]),
			Height:       body[8],
		}, nil

	case TagDeposit:
		if len(body) != types.HashSize {
			return 0, nil, ErrInvalidInstruction
		}
		return tag, DepositArgs{Commitment: types.HashFromBytes(body)}, nil

	case TagWithdraw:
		if len(body) < 4 {
			return 0, nil, ErrInvalidInstruction
		}
		proofLen := int(binary.LittleEndian.Uint32(body[0:4]))
		if proofLen != types.ProofSize {
			return 0, nil, ErrInvalidInstruction
		}
		rest := body[4:]
		want := proofLen + types.HashSize*2 + types.AddressSize*2 + 8 + 8
		if len(rest) != want {
			return 0, nil, ErrInvalidInstruction
		}

		off := 0
		proof := make([]byte, proofLen)
		off += copy(proof, rest[off:off+proofLen])
		root := types.HashFromBytes(rest[off : off+types.HashSize])
		off += types.HashSize
		nullifierHash := types.HashFromBytes(rest[off : off+types.HashSize])
		off += types.HashSize
		recipient := types.AddressFromBytes(rest[off : off+types.AddressSize])
		off += types.AddressSize
		relayer := types.AddressFromBytes(rest[off : off+types.AddressSize])
		off += types.AddressSize
		fee := binary.LittleEndian.Uint64(rest[off : off+8])
		off += 8
		refund := binary.LittleEndian.Uint64(rest[off : off+8])

		return tag, WithdrawArgs{
			Proof:         proof,
			Root:          root,
			NullifierHash: nullifierHash,
			Recipient:     recipient,
			Relayer:       relayer,
			Fee:           fee,
			Refund:        refund,
		}, nil

	default:
		return 0, nil, ErrInvalidInstruction
	}
}
