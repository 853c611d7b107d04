package relaynet

import (
	"encoding/binary"
	"errors"
)

// ErrMalformedMessage is returned when a gossip message cannot be decoded.
var ErrMalformedMessage = errors.New("relaynet: malformed message")

// encodeFeeQuote/decodeFeeQuote use a small length-prefixed wire format:
// poolID (4-byte length prefix + bytes), relayer address (4-byte length
// prefix + bytes), fee amount (u64 little-endian), valid-until (i64
// little-endian).
func encodeFeeQuote(q FeeQuote) []byte {
	buf := make([]byte, 0, 4+len(q.PoolID)+4+len(q.RelayerAddr)+8+8)
	buf = appendLenPrefixed(buf, []byte(q.PoolID))
	buf = appendLenPrefixed(buf, q.RelayerAddr)
	buf = appendUint64(buf, q.FeeAmount)
	buf = appendUint64(buf, uint64(q.ValidUntilNs))
	return buf
}

func decodeFeeQuote(data []byte) (FeeQuote, error) {
	var q FeeQuote
	r := reader{data: data}

	poolID, err := r.lenPrefixed()
	if err != nil {
		return q, err
	}
	relayerAddr, err := r.lenPrefixed()
	if err != nil {
		return q, err
	}
	fee, err := r.uint64()
	if err != nil {
		return q, err
	}
	validUntil, err := r.uint64()
	if err != nil {
		return q, err
	}

	q.PoolID = string(poolID)
	q.RelayerAddr = relayerAddr
	q.FeeAmount = fee
	q.ValidUntilNs = int64(validUntil)
	return q, nil
}

func encodeWithdrawJob(j WithdrawJob) []byte {
	buf := make([]byte, 0, 4+len(j.PoolID)+4+len(j.NullifierHash)+4+len(j.SubmittedBy))
	buf = appendLenPrefixed(buf, []byte(j.PoolID))
	buf = appendLenPrefixed(buf, j.NullifierHash)
	buf = appendLenPrefixed(buf, j.SubmittedBy)
	return buf
}

func decodeWithdrawJob(data []byte) (WithdrawJob, error) {
	var j WithdrawJob
	r := reader{data: data}

	poolID, err := r.lenPrefixed()
	if err != nil {
		return j, err
	}
	nullifierHash, err := r.lenPrefixed()
	if err != nil {
		return j, err
	}
	submittedBy, err := r.lenPrefixed()
	if err != nil {
		return j, err
	}

	j.PoolID = string(poolID)
	j.NullifierHash = nullifierHash
	j.SubmittedBy = submittedBy
	return j, nil
}

func appendLenPrefixed(buf, b []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, b...)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) lenPrefixed() ([]byte, error) {
	if len(r.data)-r.off < 4 {
		return nil, ErrMalformedMessage
	}
	n := int(binary.LittleEndian.Uint32(r.data[r.off : r.off+4]))
	r.off += 4
	if n < 0 || len(r.data)-r.off < n {
		return nil, ErrMalformedMessage
	}
	out := make([]byte, n)
	copy(out, r.data[r.off:r.off+n])
	r.off += n
	return out, nil
}

func (r *reader) uint64() (uint64, error) {
	if len(r.data)-r.off < 8 {
		return 0, ErrMalformedMessage
	}
	v := binary.LittleEndian.Uint64(r.data[r.off : r.off+8])
	r.off += 8
	return v, nil
}
