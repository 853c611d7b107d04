package nullifier

import (
	"context"
	"testing"

	"github.com/ccoin/mixer/pkg/types"
)

func TestInsertThenHas(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	var n types.Hash
	n[0] = 0x7

	has, err := s.Has(ctx, n)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("fresh nullifier should not be spent yet")
	}

	if err := s.Insert(ctx, n); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	has, err = s.Has(ctx, n)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("nullifier should be marked spent after insert")
	}
}

func TestInsertRejectsReplay(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	var n types.Hash
	n[0] = 0x9

	if err := s.Insert(ctx, n); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.Insert(ctx, n); err != ErrAlreadySpent {
		t.Fatalf("expected ErrAlreadySpent, got %v", err)
	}
}

func TestDistinctNullifiersIndependent(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	var a, b types.Hash
	a[0] = 1
	b[0] = 2

	if err := s.Insert(ctx, a); err != nil {
		t.Fatal(err)
	}
	has, err := s.Has(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("unrelated nullifier must not be affected")
	}
}
