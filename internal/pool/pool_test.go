package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/llm"
	"inferd/pkg/types"
)

func tier(id, kind string, caps ...types.Capability) types.Tier {
	if caps == nil {
		caps = []types.Capability{types.CapTextGeneration, types.CapEmbeddings}
	}
	return types.Tier{ID: id, Kind: kind, Capabilities: caps}
}

// fakeResolver serves a fixed tier per kind and honors overrides by id.
type fakeResolver struct {
	mu        sync.Mutex
	tiers     map[string]types.Tier
	byKind    map[string]string
	ensureErr error
	marked    []string
}

func newFakeResolver(tiers ...types.Tier) *fakeResolver {
	r := &fakeResolver{tiers: map[string]types.Tier{}, byKind: map[string]string{}}
	for _, t := range tiers {
		r.tiers[t.ID] = t
		if _, ok := r.byKind[t.Kind]; !ok {
			r.byKind[t.Kind] = t.ID
		}
	}
	return r
}

func (r *fakeResolver) Resolve(kind, override string) (types.Tier, types.SystemProfile, error) {
	id := override
	if id == "" {
		id = r.byKind[kind]
	}
	t, ok := r.tiers[id]
	if !ok {
		return types.Tier{}, types.SystemProfile{}, errors.New("no such tier: " + id)
	}
	return t, types.SystemProfile{RAMGB: 16}, nil
}

func (r *fakeResolver) EnsureAvailable(ctx context.Context, kind, override string) (types.Tier, string, error) {
	t, _, err := r.Resolve(kind, override)
	if err != nil {
		return types.Tier{}, "", err
	}
	r.mu.Lock()
	ensureErr := r.ensureErr
	r.mu.Unlock()
	if ensureErr != nil {
		return t, "", ensureErr
	}
	return t, "/models/" + t.ID + ".gguf", nil
}

func (r *fakeResolver) MarkUsed(id string) {
	r.mu.Lock()
	r.marked = append(r.marked, id)
	r.mu.Unlock()
}

type fakeEngine struct{ closed atomic.Bool }

func (e *fakeEngine) Generate(context.Context, string, llm.GenParams) (string, error) {
	return "ok", nil
}
func (e *fakeEngine) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }
func (e *fakeEngine) Close() error {
	e.closed.Store(true)
	return nil
}

// fakeFactory counts constructions and can inject delay or failure.
type fakeFactory struct {
	constructs atomic.Int64
	delay      time.Duration
	err        error
	gate       chan struct{} // when non-nil, Construct blocks until closed
}

func (f *fakeFactory) Construct(path string, contextWindow, gpuLayers int) (llm.Engine, error) {
	f.constructs.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &fakeEngine{}, nil
}

func newTestPool(t *testing.T, cfg Config, r Resolver, f llm.Factory) *Pool {
	t.Helper()
	p := New(cfg, r, f, zerolog.Nop())
	t.Cleanup(p.Shutdown)
	return p
}

func TestAcquireConcurrentSingleLoad(t *testing.T) {
	r := newFakeResolver(tier("small", "llm"))
	f := &fakeFactory{delay: 20 * time.Millisecond}
	p := newTestPool(t, Config{MaxLoaded: 2}, r, f)

	const n = 16
	handles := make([]*Handle, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = p.Acquire(context.Background(), "general", "", nil)
		}(i)
	}
	wg.Wait()

	if got := f.constructs.Load(); got != 1 {
		t.Fatalf("constructs = %d, want 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("acquire %d: %v", i, errs[i])
		}
		if handles[i].inst != handles[0].inst {
			t.Fatalf("acquire %d resolved to a different instance", i)
		}
	}
	statuses, _, _ := p.Status()
	if len(statuses) != 1 {
		t.Fatalf("instances = %d, want 1", len(statuses))
	}
	if statuses[0].Refs != n {
		t.Fatalf("refs = %d, want %d", statuses[0].Refs, n)
	}
	for _, h := range handles {
		h.Release()
	}
	statuses, _, _ = p.Status()
	if statuses[0].InUse {
		t.Fatal("instance still in use after releasing every handle")
	}
}

func TestAcquireLoadFailureFansOut(t *testing.T) {
	r := newFakeResolver(tier("small", "llm"))
	wantErr := errors.New("mmap failed")
	f := &fakeFactory{delay: 10 * time.Millisecond, err: wantErr}
	p := newTestPool(t, Config{MaxLoaded: 2}, r, f)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = p.Acquire(context.Background(), "general", "", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !IsEngineLoad(err) {
			t.Fatalf("acquire %d: got %v, want engine load error", i, err)
		}
		if !errors.Is(err, wantErr) {
			t.Fatalf("acquire %d: cause not preserved: %v", i, err)
		}
	}
	if statuses, _, _ := p.Status(); len(statuses) != 0 {
		t.Fatalf("failed load left %d instances resident", len(statuses))
	}
}

func TestAcquireEvictsLRUIdle(t *testing.T) {
	r := newFakeResolver(tier("a", "llm"), tier("b", "llm"), tier("c", "llm"))
	f := &fakeFactory{}
	p := newTestPool(t, Config{MaxLoaded: 2}, r, f)

	// Monotonic fake clock so release order decides LRU deterministically.
	clock := time.Now()
	var clockMu sync.Mutex
	now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	defer func() { now = time.Now }()

	hA := mustAcquire(t, p, "a")
	hB := mustAcquire(t, p, "b")
	hA.Release()
	hB.Release()

	// Both idle; a has the older stamp, so loading c must evict a.
	hC := mustAcquire(t, p, "c")
	defer hC.Release()

	statuses, _, evictions := p.Status()
	if evictions != 1 {
		t.Fatalf("evictions = %d, want 1", evictions)
	}
	ids := map[string]bool{}
	for _, s := range statuses {
		ids[s.TierID] = true
	}
	if ids["a"] {
		t.Fatal("LRU instance a survived eviction")
	}
	if !ids["b"] || !ids["c"] {
		t.Fatalf("resident set = %v, want b and c", ids)
	}
}

func mustAcquire(t *testing.T, p *Pool, tierID string) *Handle {
	t.Helper()
	h, err := p.Acquire(context.Background(), "", tierID, []types.Capability{types.CapTextGeneration})
	if err != nil {
		t.Fatalf("acquire %s: %v", tierID, err)
	}
	return h
}

func TestAcquireNeverEvictsInUse(t *testing.T) {
	r := newFakeResolver(tier("a", "llm"), tier("b", "llm"), tier("c", "llm"))
	f := &fakeFactory{}
	p := newTestPool(t, Config{MaxLoaded: 2}, r, f)

	hA := mustAcquire(t, p, "a")
	defer hA.Release()
	hB := mustAcquire(t, p, "b")
	defer hB.Release()

	_, err := p.Acquire(context.Background(), "", "c", nil)
	if !IsExhausted(err) {
		t.Fatalf("got %v, want pool exhausted", err)
	}
	statuses, _, _ := p.Status()
	if len(statuses) != 2 {
		t.Fatalf("resident set changed: %d instances", len(statuses))
	}
}

func TestAcquireCapabilityMismatch(t *testing.T) {
	r := newFakeResolver(tier("text-only", "llm", types.CapTextGeneration))
	p := newTestPool(t, Config{}, r, &fakeFactory{})

	_, err := p.Acquire(context.Background(), "", "", []types.Capability{types.CapEmbeddings})
	if !IsCapabilityMismatch(err) {
		t.Fatalf("got %v, want capability mismatch", err)
	}
}

func TestAcquireAbandonedWaitParksIdle(t *testing.T) {
	r := newFakeResolver(tier("small", "llm"))
	f := &fakeFactory{gate: make(chan struct{})}
	p := newTestPool(t, Config{MaxLoaded: 2}, r, f)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := p.Acquire(ctx, "general", "", nil)
		errCh <- err
	}()

	// Wait for the load to be in flight, then abandon.
	waitFor(t, func() bool {
		statuses, _, _ := p.Status()
		return len(statuses) == 1 && statuses[0].State == string(StateLoading)
	})
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("abandoned acquire: got %v, want context.Canceled", err)
	}

	// The load finishes anyway and the instance parks idle.
	close(f.gate)
	waitFor(t, func() bool {
		statuses, _, _ := p.Status()
		return len(statuses) == 1 && statuses[0].State == string(StateReady) && !statuses[0].InUse
	})

	// A later acquire claims it without a second construction.
	h, err := p.Acquire(context.Background(), "general", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	h.Release()
	if got := f.constructs.Load(); got != 1 {
		t.Fatalf("constructs = %d, want 1", got)
	}
}

func TestSweepIdleUnloadsOldInstances(t *testing.T) {
	r := newFakeResolver(tier("a", "llm"), tier("b", "llm"))
	f := &fakeFactory{}
	p := newTestPool(t, Config{MaxLoaded: 2, IdleUnload: time.Hour}, r, f)

	hA := mustAcquire(t, p, "a")
	hB := mustAcquire(t, p, "b")
	hA.Release()

	// Backdate a's last-used past the idle threshold; b stays in use.
	p.mu.Lock()
	p.instances["a"].lastUsed = time.Now().Add(-2 * time.Hour)
	p.mu.Unlock()

	if got := p.SweepIdle(time.Hour); got != 1 {
		t.Fatalf("swept %d, want 1", got)
	}
	statuses, _, _ := p.Status()
	if len(statuses) != 1 || statuses[0].TierID != "b" {
		t.Fatalf("resident set after sweep = %+v, want only b", statuses)
	}
	hB.Release()

	// Zero threshold is the pressure path: everything idle goes.
	if got := p.SweepIdle(0); got != 1 {
		t.Fatalf("pressure sweep removed %d, want 1", got)
	}
}

func TestShutdownFailsLaterAcquires(t *testing.T) {
	r := newFakeResolver(tier("small", "llm"))
	p := New(Config{}, r, &fakeFactory{}, zerolog.Nop())

	h, err := p.Acquire(context.Background(), "general", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	eng := h.Engine().(*fakeEngine)
	h.Release()

	p.Shutdown()
	if !eng.closed.Load() {
		t.Fatal("engine not closed on shutdown")
	}
	if _, err := p.Acquire(context.Background(), "general", "", nil); !IsClosed(err) {
		t.Fatalf("got %v, want pool closed", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
