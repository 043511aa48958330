package lsdb

import (
	"testing"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/wire"
)

func TestOffer_AcceptNewOriginator(t *testing.T) {
	db := New()

	if got := db.Offer(wire.LSA{Origin: "r1", Seq: 1}); got != Accepted {
		t.Fatalf("expected Accepted, got %v", got)
	}
	if db.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", db.Len())
	}
}

func TestOffer_MonotonicSequence(t *testing.T) {
	db := New()
	db.Offer(wire.LSA{Origin: "r1", Seq: 5})

	if got := db.Offer(wire.LSA{Origin: "r1", Seq: 5}); got != Duplicate {
		t.Errorf("same seq: expected Duplicate, got %v", got)
	}
	if got := db.Offer(wire.LSA{Origin: "r1", Seq: 4}); got != Stale {
		t.Errorf("lower seq: expected Stale, got %v", got)
	}
	if got := db.Offer(wire.LSA{Origin: "r1", Seq: 6}); got != Accepted {
		t.Errorf("higher seq: expected Accepted, got %v", got)
	}

	stored, ok := db.Get("r1")
	if !ok || stored.Seq != 6 {
		t.Errorf("expected stored seq 6, got %+v (ok=%v)", stored, ok)
	}
}

func TestOffer_StaleNeverReplaces(t *testing.T) {
	db := New()
	db.Offer(wire.LSA{Origin: "r2", Seq: 10, Stubs: []string{"10.0.25.0/24"}})
	db.Offer(wire.LSA{Origin: "r2", Seq: 3})

	stored, _ := db.Get("r2")
	if stored.Seq != 10 || len(stored.Stubs) != 1 {
		t.Errorf("stale LSA overwrote stored entry: %+v", stored)
	}
}

func TestSnapshot_Isolated(t *testing.T) {
	db := New()
	db.Offer(wire.LSA{Origin: "r1", Seq: 1})

	snap := db.Snapshot()
	db.Offer(wire.LSA{Origin: "r1", Seq: 2})
	db.Offer(wire.LSA{Origin: "r3", Seq: 1})

	if snap["r1"].Seq != 1 {
		t.Errorf("snapshot mutated: %+v", snap["r1"])
	}
	if len(snap) != 1 {
		t.Errorf("snapshot grew: %d entries", len(snap))
	}
}

func TestOrigins_Sorted(t *testing.T) {
	db := New()
	db.Offer(wire.LSA{Origin: "r3", Seq: 1})
	db.Offer(wire.LSA{Origin: "r1", Seq: 1})
	db.Offer(wire.LSA{Origin: "r2", Seq: 1})

	ids := db.Origins()
	if len(ids) != 3 || ids[0] != "r1" || ids[1] != "r2" || ids[2] != "r3" {
		t.Errorf("unexpected order: %v", ids)
	}
}

func TestRemove(t *testing.T) {
	db := New()
	db.Offer(wire.LSA{Origin: "r1", Seq: 1})
	db.Remove("r1")

	if _, ok := db.Get("r1"); ok {
		t.Error("expected entry to be removed")
	}
	// Re-offering after removal starts the sequence space fresh.
	if got := db.Offer(wire.LSA{Origin: "r1", Seq: 1}); got != Accepted {
		t.Errorf("expected Accepted after removal, got %v", got)
	}
}
