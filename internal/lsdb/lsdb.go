// Package lsdb stores the latest accepted link-state advertisement per
// originator. The database is owned by the daemon event loop; all access
// happens between suspension points, so it carries no lock of its own.
package lsdb

import (
	"sort"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/wire"
)

// Outcome classifies the result of offering an LSA to the database.
type Outcome int

const (
	// Accepted means the LSA was newer than anything stored and replaced it.
	Accepted Outcome = iota
	// Duplicate means the stored LSA has the same sequence number.
	Duplicate
	// Stale means the stored LSA has a higher sequence number.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// DB maps originator router-id to its latest accepted LSA.
// Invariant: for any originator the stored sequence number is the largest
// ever accepted from it.
type DB struct {
	entries map[string]wire.LSA
}

// New creates an empty database.
func New() *DB {
	return &DB{entries: make(map[string]wire.LSA)}
}

// Offer applies the acceptance rule to an incoming LSA.
// Only Accepted mutates the database.
func (db *DB) Offer(lsa wire.LSA) Outcome {
	stored, ok := db.entries[lsa.Origin]
	if ok {
		if lsa.Seq == stored.Seq {
			return Duplicate
		}
		if lsa.Seq < stored.Seq {
			return Stale
		}
	}
	db.entries[lsa.Origin] = lsa
	return Accepted
}

// Get returns the stored LSA for an originator.
func (db *DB) Get(origin string) (wire.LSA, bool) {
	lsa, ok := db.entries[origin]
	return lsa, ok
}

// Remove drops the entry for an originator, if any.
func (db *DB) Remove(origin string) {
	delete(db.entries, origin)
}

// Len returns the number of originators present.
func (db *DB) Len() int {
	return len(db.entries)
}

// Origins returns all originator ids in sorted order.
func (db *DB) Origins() []string {
	ids := make([]string, 0, len(db.entries))
	for id := range db.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the database contents. The path engine runs on
// snapshots so a recomputation pass never observes interleaved mutation.
func (db *DB) Snapshot() map[string]wire.LSA {
	cp := make(map[string]wire.LSA, len(db.entries))
	for id, lsa := range db.entries {
		cp[id] = lsa
	}
	return cp
}
