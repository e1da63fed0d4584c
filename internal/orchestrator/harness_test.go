package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("404 Module not found")

// testModule records what the orchestrator did to it.
type testModule struct {
	name     string
	requires []string
	params   module.Params

	mu           sync.Mutex
	state        string
	disposeCalls int
	initCalls    int
	modules      map[string]any
}

func (m *testModule) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeCalls++
	m.state = "disposed"
}

func (m *testModule) snapshot() (state string, disposeCalls, initCalls int, modules map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.disposeCalls, m.initCalls, m.modules
}

type moduleSpec struct {
	ctorErr   error
	ctorPanic any
	initErr   error
}

type moduleOpt func(*moduleSpec)

func withConstructorError(err error) moduleOpt {
	return func(s *moduleSpec) { s.ctorErr = err }
}

func withConstructorPanic(v any) moduleOpt {
	return func(s *moduleSpec) { s.ctorPanic = v }
}

func withInitError(err error) moduleOpt {
	return func(s *moduleSpec) { s.initErr = err }
}

type deferredErr struct {
	module string
	err    error
}

// harness builds test modules and serves them through a class callback
// whose answers can be held back per name.
type harness struct {
	t *testing.T

	mu        sync.Mutex
	all       []*testModule
	latest    map[string]*testModule
	ctorCalls map[string]int
	classes   map[string]module.Constructor
	gates     map[string]chan struct{}
	fetches   map[string]int

	deferred chan deferredErr
	bus      *events.Bus
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:         t,
		latest:    make(map[string]*testModule),
		ctorCalls: make(map[string]int),
		classes:   make(map[string]module.Constructor),
		gates:     make(map[string]chan struct{}),
		fetches:   make(map[string]int),
		deferred:  make(chan deferredErr, 16),
		bus:       events.NewBus(),
	}
}

func testModuleConfig() config.ModuleConfig {
	return config.ModuleConfig{
		"active":              {"active": "true"},
		"inactive":            {"active": false},
		"inactive0":           {"active": 0},
		"inactiveString0":     {"active": "0"},
		"inactiveStringFalse": {"active": "False"},
		"inactiveStringNO":    {"active": "NO"},
	}
}

func (h *harness) orchestrator(opts ...func(*Config)) *Orchestrator {
	cfg := Config{
		ModuleConfig: testModuleConfig(),
		ClassFunc:    h.classFunc,
		Bus:          h.bus,
		DeferredErrorHandler: func(name string, err error) {
			h.deferred <- deferredErr{module: name, err: err}
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg)
}

// ctor returns a constructor for a test module. A nil requires list means
// the module never calls Require.
func (h *harness) ctor(name string, requires []string, opts ...moduleOpt) module.Constructor {
	var spec moduleSpec
	for _, opt := range opts {
		opt(&spec)
	}

	return func(hd *module.Handle, params module.Params) (any, error) {
		h.mu.Lock()
		h.ctorCalls[name]++
		h.mu.Unlock()

		if spec.ctorPanic != nil {
			panic(spec.ctorPanic)
		}
		if spec.ctorErr != nil {
			return nil, spec.ctorErr
		}

		m := &testModule{name: name, requires: requires, params: params, state: "created"}
		h.mu.Lock()
		h.latest[name] = m
		h.all = append(h.all, m)
		h.mu.Unlock()

		if requires == nil {
			m.state = "active"
			return m, nil
		}

		err := hd.Require(requires, func(mods map[string]any) error {
			m.mu.Lock()
			m.initCalls++
			m.state = "active"
			m.modules = mods
			m.mu.Unlock()
			return spec.initErr
		})
		return m, err
	}
}

// provide makes a class available through the class callback. A nil
// constructor makes the callback fail for that name.
func (h *harness) provide(name string, ctor module.Constructor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.classes[name] = ctor
}

// hold makes the class callback for name block until release is called.
func (h *harness) hold(name string) (release func()) {
	ch := make(chan struct{})
	h.mu.Lock()
	h.gates[name] = ch
	h.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (h *harness) classFunc(ctx context.Context, name string) (module.Constructor, error) {
	h.mu.Lock()
	h.fetches[name]++
	gate := h.gates[name]
	h.mu.Unlock()

	if gate != nil {
		<-gate
	}

	h.mu.Lock()
	ctor := h.classes[name]
	h.mu.Unlock()
	if ctor == nil {
		return nil, errNotFound
	}
	return ctor, nil
}

func (h *harness) constructed(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctorCalls[name]
}

func (h *harness) instance(name string) *testModule {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest[name]
}

// verifyModules checks that exactly the named modules are active, that no
// instance was disposed twice, and that every initialised module received
// exactly the modules it required.
func (h *harness) verifyModules(active ...string) {
	h.t.Helper()

	h.mu.Lock()
	all := append([]*testModule(nil), h.all...)
	h.mu.Unlock()

	got := []string{}
	for _, m := range all {
		state, disposeCalls, initCalls, mods := m.snapshot()
		if state == "active" {
			got = append(got, m.name)
		}
		if state == "disposed" {
			assert.Equal(h.t, 1, disposeCalls, "module %s disposed more than once", m.name)
		}
		if m.requires != nil && initCalls > 0 {
			assert.Equal(h.t, 1, initCalls, "module %s initialised more than once", m.name)
			assert.Len(h.t, mods, len(m.requires), "module %s received wrong module set", m.name)
			for _, r := range m.requires {
				dep, ok := mods[r].(*testModule)
				if assert.True(h.t, ok, "module %s did not receive %s", m.name, r) {
					assert.Equal(h.t, r, dep.name)
				}
			}
		}
	}
	assert.ElementsMatch(h.t, active, got)
}

func waitForState(t *testing.T, o *Orchestrator, name string, state module.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, ok := o.State(name)
		return ok && s == state
	}, 2*time.Second, time.Millisecond, "module %s never reached %s", name, state)
}

// loadAsync runs LoadBundle on its own goroutine.
func loadAsync(t *testing.T, o *Orchestrator, bundle map[string]module.Constructor) <-chan Result {
	t.Helper()
	ch := make(chan Result, 1)
	go func() {
		res, err := o.LoadBundle(context.Background(), bundle)
		assert.NoError(t, err)
		ch <- res
	}()
	return ch
}

func awaitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("load did not complete")
		return Result{}
	}
}

func mustLoadBundle(t *testing.T, o *Orchestrator, bundle map[string]module.Constructor) Result {
	t.Helper()
	res, err := o.LoadBundle(context.Background(), bundle)
	require.NoError(t, err)
	return res
}

func moduleName(t *testing.T, v any) string {
	t.Helper()
	m, ok := v.(*testModule)
	require.True(t, ok, "expected *testModule, got %T", v)
	return m.name
}
