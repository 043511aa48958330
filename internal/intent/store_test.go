package intent

import (
	"path/filepath"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestPut_Validation(t *testing.T) {
	s := NewStore("")

	if err := s.Put(Intent{Src: "", Dst: "pc5"}); err == nil {
		t.Error("expected error for empty src")
	}
	if err := s.Put(Intent{Src: "pc1", Dst: ""}); err == nil {
		t.Error("expected error for empty dst")
	}
	if err := s.Put(Intent{Src: "pc1", Dst: "pc5", MinBandwidth: f(-1)}); err == nil {
		t.Error("expected error for negative min_bandwidth")
	}
	if err := s.Put(Intent{Src: "pc1", Dst: "pc5", MaxLatency: f(-0.5)}); err == nil {
		t.Error("expected error for negative max_latency")
	}
	if s.Len() != 0 {
		t.Errorf("invalid intents must not be stored, have %d", s.Len())
	}
}

func TestPut_ReplacesByKey(t *testing.T) {
	s := NewStore("")
	now := time.Unix(1000, 0)
	s.SetClock(func() time.Time { return now })

	if err := s.Put(Intent{Src: "pc1", Dst: "pc5", MinBandwidth: f(30)}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	now = now.Add(time.Minute)
	if err := s.Put(Intent{Src: "pc1", Dst: "pc5", MaxLatency: f(50)}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("expected 1 intent, got %d", s.Len())
	}
	in, ok := s.Get("pc1", "pc5")
	if !ok {
		t.Fatal("intent not found")
	}
	if in.MinBandwidth != nil {
		t.Error("replacement must drop the old constraint set")
	}
	if in.MaxLatency == nil || *in.MaxLatency != 50 {
		t.Errorf("unexpected constraint: %+v", in)
	}
	if !in.InstalledAt.Equal(time.Unix(1060, 0)) {
		t.Errorf("unexpected install time: %v", in.InstalledAt)
	}
}

func TestDelete(t *testing.T) {
	s := NewStore("")
	s.Put(Intent{Src: "pc1", Dst: "pc5"})

	if !s.Delete("pc1", "pc5") {
		t.Error("expected delete to report existing record")
	}
	if s.Delete("pc1", "pc5") {
		t.Error("expected delete of missing record to report false")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestForDst(t *testing.T) {
	s := NewStore("")
	s.Put(Intent{Src: "pc2", Dst: "pc5", MinBandwidth: f(10)})
	s.Put(Intent{Src: "pc1", Dst: "pc5", MinBandwidth: f(30)})
	s.Put(Intent{Src: "pc1", Dst: "pc4"})

	got := s.ForDst("pc5")
	if len(got) != 2 || got[0].Src != "pc1" || got[1].Src != "pc2" {
		t.Errorf("unexpected intents for pc5: %+v", got)
	}
}

func TestConstrained(t *testing.T) {
	if (Intent{Src: "a", Dst: "b"}).Constrained() {
		t.Error("empty constraint set must not count as constrained")
	}
	if !(Intent{Src: "a", Dst: "b", MinBandwidth: f(1)}).Constrained() {
		t.Error("min_bandwidth must count as constrained")
	}
}

func TestPersistence_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.json")

	s := NewStore(path)
	if err := s.Put(Intent{Src: "pc1", Dst: "pc5", MinBandwidth: f(30)}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(Intent{Src: "pc1", Dst: "pc4", MaxLatency: f(10)}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	restored := NewStore(path)
	if err := restored.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 intents after restart, got %d", restored.Len())
	}
	in, ok := restored.Get("pc1", "pc5")
	if !ok || in.MinBandwidth == nil || *in.MinBandwidth != 30 {
		t.Errorf("unexpected restored intent: %+v (ok=%v)", in, ok)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
}
