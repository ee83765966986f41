package sysinfo

import (
	"testing"

	"github.com/rs/zerolog"

	"inferd/pkg/types"
)

func TestHostProfilerNeverFails(t *testing.T) {
	p := NewHostProfiler(t.TempDir(), zerolog.Nop())
	// Force the GPU probe down the failure path.
	p.probeVRAM = func() float64 { return 0 }
	prof := p.Measure()
	if prof.RAMGB < 0 || prof.FreeDiskGB < 0 || prof.VRAMGB != 0 {
		t.Fatalf("unexpected profile: %+v", prof)
	}
}

func TestHostProfilerBadDiskPathDegrades(t *testing.T) {
	p := NewHostProfiler("/definitely/not/a/mount", zerolog.Nop())
	p.probeVRAM = func() float64 { return 0 }
	prof := p.Measure()
	if prof.FreeDiskGB != 0 {
		t.Fatalf("expected zero free disk for bad path, got %v", prof.FreeDiskGB)
	}
}

func TestFixedProfiler(t *testing.T) {
	want := types.SystemProfile{RAMGB: 16, VRAMGB: 8, FreeDiskGB: 100}
	f := Fixed{Profile: want}
	if got := f.Measure(); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}
