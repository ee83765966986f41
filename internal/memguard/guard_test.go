package memguard

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/cache"
)

type releasable struct {
	released int
	err      error
}

func (r *releasable) Release() error {
	r.released++
	return r.err
}

func TestCleanupReleasesIdleObjects(t *testing.T) {
	g := New(Config{}, zerolog.Nop())
	clock := time.Now()
	now = func() time.Time { return clock }
	defer func() { now = time.Now }()

	idle := &releasable{}
	busy := &releasable{}
	g.Register("idle", idle, 100, false)
	g.Register("busy", busy, 100, false)

	clock = clock.Add(time.Hour)
	g.MarkUsed("busy")

	if got := g.Cleanup(30*time.Minute, false); got != 1 {
		t.Fatalf("released %d, want 1", got)
	}
	if idle.released != 1 {
		t.Fatal("idle object not released")
	}
	if busy.released != 0 {
		t.Fatal("recently used object released")
	}
	if st := g.Stats(); st.Tracked != 1 {
		t.Fatalf("tracked = %d, want 1", st.Tracked)
	}
}

func TestCleanupForceIncludesEssential(t *testing.T) {
	g := New(Config{}, zerolog.Nop())
	clock := time.Now()
	now = func() time.Time { return clock }
	defer func() { now = time.Now }()

	essential := &releasable{}
	g.Register("essential", essential, 10, true)
	clock = clock.Add(time.Hour)

	if got := g.Cleanup(30*time.Minute, false); got != 0 {
		t.Fatalf("released %d essential objects without force", got)
	}
	if got := g.Cleanup(30*time.Minute, true); got != 1 {
		t.Fatalf("released %d, want 1", got)
	}
	if essential.released != 1 {
		t.Fatal("forced cleanup skipped an idle essential object")
	}
}

func TestEssentialSurvivesEmergency(t *testing.T) {
	g := New(Config{}, zerolog.Nop())
	essential := &releasable{}
	expendable := &releasable{}
	g.Register("essential", essential, 500, true)
	g.Register("expendable", expendable, 100, false)

	c := cache.New("results", 0)
	c.Set("k", "v", time.Hour)
	g.AttachCache(c)

	if got := g.EmergencyCleanup(); got != 1 {
		t.Fatalf("released %d, want 1", got)
	}
	if essential.released != 0 {
		t.Fatal("essential object released")
	}
	if expendable.released != 1 {
		t.Fatal("expendable object survived emergency")
	}
	if c.Len() != 0 {
		t.Fatal("attached cache not purged")
	}
	st := g.Stats()
	if st.Tracked != 1 || st.Essential != 1 || st.TotalSizeMB != 500 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestReleaseErrorStillDropsEntry(t *testing.T) {
	g := New(Config{}, zerolog.Nop())
	clock := time.Now()
	now = func() time.Time { return clock }
	defer func() { now = time.Now }()

	broken := &releasable{err: errors.New("busy")}
	g.Register("broken", broken, 10, false)
	clock = clock.Add(time.Hour)

	g.Cleanup(time.Minute, false)
	if st := g.Stats(); st.Tracked != 0 {
		t.Fatal("failed release left entry tracked")
	}
}

func TestCheckThresholds(t *testing.T) {
	g := New(Config{HighPercent: 80, CriticalPercent: 90}, zerolog.Nop())
	obj := &releasable{}
	g.Register("obj", obj, 10, false)
	c := cache.New("results", 0)
	c.Set("k", "v", time.Hour)
	g.AttachCache(c)

	g.memPercent = func() float64 { return 50 }
	g.Check()
	if obj.released != 0 || c.Len() != 1 {
		t.Fatal("cleanup ran below the high threshold")
	}

	// High pressure trims caches but keeps recently used objects.
	g.memPercent = func() float64 { return 85 }
	g.Check()
	if obj.released != 0 {
		t.Fatal("high pressure released a recently used object")
	}

	g.memPercent = func() float64 { return 95 }
	g.Check()
	if obj.released != 1 {
		t.Fatal("critical pressure kept a non-essential object")
	}
	if c.Len() != 0 {
		t.Fatal("critical pressure left cache entries")
	}
}

func TestUnregisterWithoutRelease(t *testing.T) {
	g := New(Config{}, zerolog.Nop())
	obj := &releasable{}
	g.Register("obj", obj, 10, false)
	g.Unregister("obj")
	g.Cleanup(0, true)
	if obj.released != 0 {
		t.Fatal("unregistered object released")
	}
}
