// Package intent holds the per-flow constraint table consumed by the path
// engine. Intents are keyed by (src, dst); a new record replaces the old.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Key identifies one flow.
type Key struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// Intent is one installed constraint record. Nil pointers mean the
// constraint is not set; a record with neither constraint set is valid and
// equivalent to no intent.
type Intent struct {
	Src          string    `json:"src"`
	Dst          string    `json:"dst"`
	MinBandwidth *float64  `json:"min_bandwidth,omitempty"`
	MaxLatency   *float64  `json:"max_latency,omitempty"`
	InstalledAt  time.Time `json:"installed_at"`
}

// Constrained reports whether the intent carries at least one constraint.
func (i Intent) Constrained() bool {
	return i.MinBandwidth != nil || i.MaxLatency != nil
}

// Store is the intent table. It is owned by the daemon event loop and is
// not safe for concurrent use. When path is non-empty the table is persisted
// as JSON after every mutation so operator intents survive a restart.
type Store struct {
	entries map[Key]Intent
	path    string

	now func() time.Time
}

// NewStore creates an intent store. path may be empty to disable
// persistence.
func NewStore(path string) *Store {
	return &Store{
		entries: make(map[Key]Intent),
		path:    path,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for InstalledAt stamps.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Put validates and installs an intent, replacing any record with the same
// (src, dst) key.
func (s *Store) Put(in Intent) error {
	if in.Src == "" || in.Dst == "" {
		return errors.New("intent: src and dst are required")
	}
	if in.MinBandwidth != nil && *in.MinBandwidth < 0 {
		return fmt.Errorf("intent %s->%s: negative min_bandwidth", in.Src, in.Dst)
	}
	if in.MaxLatency != nil && *in.MaxLatency < 0 {
		return fmt.Errorf("intent %s->%s: negative max_latency", in.Src, in.Dst)
	}

	in.InstalledAt = s.now()
	s.entries[Key{Src: in.Src, Dst: in.Dst}] = in
	return s.save()
}

// Delete removes the intent keyed by (src, dst). Returns true if it existed.
func (s *Store) Delete(src, dst string) bool {
	k := Key{Src: src, Dst: dst}
	if _, ok := s.entries[k]; !ok {
		return false
	}
	delete(s.entries, k)
	if err := s.save(); err != nil {
		slog.Warn("intent persist failed", "error", err)
	}
	return true
}

// Get returns the intent for a flow key.
func (s *Store) Get(src, dst string) (Intent, bool) {
	in, ok := s.entries[Key{Src: src, Dst: dst}]
	return in, ok
}

// ForDst returns every intent whose dst matches, sorted by src. The path
// engine consumes intents per destination.
func (s *Store) ForDst(dst string) []Intent {
	var out []Intent
	for k, in := range s.entries {
		if k.Dst == dst {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Src < out[j].Src })
	return out
}

// List enumerates all intents sorted by (src, dst) for operators.
func (s *Store) List() []Intent {
	out := make([]Intent, 0, len(s.entries))
	for _, in := range s.entries {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Dst < out[j].Dst
	})
	return out
}

// Len returns the number of installed intents.
func (s *Store) Len() int { return len(s.entries) }

// persistFile is the on-disk JSON shape.
type persistFile struct {
	Intents []Intent `json:"intents"`
}

// save writes the table to disk atomically (write temp file, then rename).
// A nil return with persistence disabled is the common case.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(persistFile{Intents: s.List()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal intents: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load restores the table from disk. A missing file is not an error.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // no previous state
		}
		return fmt.Errorf("read intents file: %w", err)
	}

	var pf persistFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("unmarshal intents: %w", err)
	}

	for _, in := range pf.Intents {
		s.entries[Key{Src: in.Src, Dst: in.Dst}] = in
	}
	return nil
}
