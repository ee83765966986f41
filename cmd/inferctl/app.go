package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/common/fsutil"
	"inferd/internal/fetch"
	"inferd/internal/manager"
	"inferd/internal/sysinfo"
	"inferd/pkg/types"
)

// app holds the locally-wired subsystems the commands operate on.
type app struct {
	cat      *catalog.Catalog
	profiler sysinfo.Profiler
	mgr      *manager.AutoManager
}

func newApp(modelsDir, logLevel string, assumeRAM, assumeVRAM float64) (*app, error) {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	dir, err := fsutil.ExpandHome(modelsDir)
	if err != nil {
		return nil, err
	}
	cat := catalog.New()
	var profiler sysinfo.Profiler = sysinfo.NewHostProfiler(dir, log)
	if assumeRAM > 0 || assumeVRAM > 0 {
		profiler = assumeProfiler{inner: profiler, ramGB: assumeRAM, vramGB: assumeVRAM}
	}
	mgr, err := manager.New(manager.Config{Dir: dir}, cat, profiler, fetch.New(dir, log), log)
	if err != nil {
		return nil, err
	}
	return &app{cat: cat, profiler: profiler, mgr: mgr}, nil
}

// assumeProfiler overrides measured hardware with operator-asserted values,
// leaving unset fields to the real measurement.
type assumeProfiler struct {
	inner  sysinfo.Profiler
	ramGB  float64
	vramGB float64
}

func (a assumeProfiler) Measure() types.SystemProfile {
	p := a.inner.Measure()
	if a.ramGB > 0 {
		p.RAMGB = a.ramGB
	}
	if a.vramGB > 0 {
		p.VRAMGB = a.vramGB
	}
	return p
}

func (a *app) list(w io.Writer, kind string) error {
	profile := a.profiler.Measure()
	installed := map[string]bool{}
	for _, im := range a.mgr.Installed() {
		installed[im.TierID] = true
	}
	compatible := map[string]bool{}
	for _, k := range []string{catalog.KindLLM, catalog.KindVLM} {
		for _, t := range a.cat.Compatible(profile, k) {
			compatible[t.ID] = true
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tLEVEL\tPARAMS\tSIZE\tINSTALLED\tCOMPATIBLE")
	for _, t := range a.cat.List(kind) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0fB\t%.1fGB\t%s\t%s\n",
			t.ID, t.Kind, t.Level, t.ParamsB, t.SizeGB,
			mark(installed[t.ID]), mark(compatible[t.ID]))
	}
	return tw.Flush()
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func (a *app) recommend(w io.Writer, kind string) error {
	profile := a.profiler.Measure()
	tier, err := a.cat.RecommendStrict(profile, kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%s, %.1fGB on disk, needs %.0fGB RAM)\n", tier.ID, tier.Level, tier.SizeGB, tier.MinRAMGB)
	return nil
}

// fetch downloads the named tier, or the host recommendation when override is
// empty. The recommendation is strict here: an operator asking to provision a
// host that fits nothing gets a nonzero exit, not the lightest-tier fallback
// the daemon serves with.
func (a *app) fetch(ctx context.Context, w io.Writer, kind, override string) error {
	if override == "" {
		tier, err := a.cat.RecommendStrict(a.profiler.Measure(), kind)
		if err != nil {
			return err
		}
		override = tier.ID
	}
	tier, path, err := a.mgr.EnsureAvailable(ctx, kind, override)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s -> %s\n", tier.ID, path)
	return nil
}

func (a *app) remove(w io.Writer, tierID string) error {
	if err := a.mgr.Remove(tierID); err != nil {
		return err
	}
	fmt.Fprintf(w, "removed %s\n", tierID)
	return nil
}
