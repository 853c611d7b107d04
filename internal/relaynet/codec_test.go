package relaynet

import "testing"

func TestFeeQuoteRoundTrip(t *testing.T) {
	q := FeeQuote{
		PoolID:       "pool-100000000-20",
		RelayerAddr:  []byte{1, 2, 3, 4},
		FeeAmount:    1_000_000,
		ValidUntilNs: 1234567890,
	}
	got, err := decodeFeeQuote(encodeFeeQuote(q))
	if err != nil {
		t.Fatal(err)
	}
	if got.PoolID != q.PoolID || got.FeeAmount != q.FeeAmount || got.ValidUntilNs != q.ValidUntilNs {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestWithdrawJobRoundTrip(t *testing.T) {
	j := WithdrawJob{
		PoolID:        "pool-100000000-20",
		NullifierHash: []byte{9, 9, 9},
		SubmittedBy:   []byte{7, 7},
	}
	got, err := decodeWithdrawJob(encodeWithdrawJob(j))
	if err != nil {
		t.Fatal(err)
	}
	if got.PoolID != j.PoolID || string(got.NullifierHash) != string(j.NullifierHash) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeFeeQuoteRejectsTruncated(t *testing.T) {
	if _, err := decodeFeeQuote([]byte{1, 2, 3}); err != ErrMalformedMessage {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}
