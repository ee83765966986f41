// Package sysinfo measures host capability (RAM, VRAM, free disk) for model
// tier selection. Measurement is a pure read and must never fail: any probe
// error degrades the affected field to a conservative zero so downstream
// selection still works on a CPU-only assumption.
package sysinfo

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"inferd/pkg/types"
)

// Profiler produces host capability snapshots.
type Profiler interface {
	Measure() types.SystemProfile
}

const gib = 1024 * 1024 * 1024

// HostProfiler measures the real host. DiskPath is the mount whose free
// space matters (the models directory); empty means "/".
type HostProfiler struct {
	DiskPath string
	Log      zerolog.Logger

	// probeVRAM is swappable for tests.
	probeVRAM func() float64
}

func NewHostProfiler(diskPath string, log zerolog.Logger) *HostProfiler {
	p := &HostProfiler{DiskPath: diskPath, Log: log}
	p.probeVRAM = nvidiaVRAMGB
	return p
}

// Measure reads RAM, VRAM and free disk. No side effects.
func (p *HostProfiler) Measure() types.SystemProfile {
	var prof types.SystemProfile
	if vm, err := mem.VirtualMemory(); err == nil {
		prof.RAMGB = float64(vm.Total) / gib
	} else {
		p.Log.Warn().Err(err).Msg("ram probe failed, assuming zero")
	}
	path := p.DiskPath
	if path == "" {
		path = "/"
	}
	if du, err := disk.Usage(path); err == nil {
		prof.FreeDiskGB = float64(du.Free) / gib
	} else {
		p.Log.Warn().Err(err).Str("path", path).Msg("disk probe failed, assuming zero")
	}
	prof.VRAMGB = p.probeVRAM()
	return prof
}

// nvidiaVRAMGB asks nvidia-smi for total memory of the first GPU.
// Absent or failing tooling means zero VRAM (CPU-only host).
func nvidiaVRAMGB() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=memory.total", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return 0
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	if !sc.Scan() {
		return 0
	}
	mib, err := strconv.ParseFloat(strings.TrimSpace(sc.Text()), 64)
	if err != nil || mib <= 0 {
		return 0
	}
	return mib / 1024
}

// Fixed is a profiler returning a constant profile. Used in tests and for
// operator overrides of detected hardware.
type Fixed struct {
	Profile types.SystemProfile
}

func (f Fixed) Measure() types.SystemProfile { return f.Profile }
