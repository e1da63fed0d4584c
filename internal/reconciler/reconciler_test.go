package reconciler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainModule struct{ name string }

func newPlain(name string) module.Constructor {
	return func(*module.Handle, module.Params) (any, error) {
		return &plainModule{name: name}, nil
	}
}

func newRequiring(name string, requires ...string) module.Constructor {
	return func(h *module.Handle, _ module.Params) (any, error) {
		return &plainModule{name: name}, h.Require(requires, nil)
	}
}

// scriptedLoad returns the configurations it was given, one per call.
type scriptedLoad struct {
	mu      sync.Mutex
	configs []config.ModuleConfig
	errs    []error
}

func (s *scriptedLoad) push(cfg config.ModuleConfig, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = append(s.configs, cfg)
	s.errs = append(s.errs, err)
}

func (s *scriptedLoad) load(string) (config.ModuleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.configs) == 0 {
		return config.ModuleConfig{}, nil
	}
	cfg, err := s.configs[0], s.errs[0]
	s.configs, s.errs = s.configs[1:], s.errs[1:]
	return cfg, err
}

func newLoadedOrchestrator(t *testing.T, initial config.ModuleConfig) *orchestrator.Orchestrator {
	t.Helper()
	o := orchestrator.New(orchestrator.Config{ModuleConfig: initial})
	res, err := o.LoadBundle(context.Background(), map[string]module.Constructor{
		"a": newPlain("a"),
		"b": newRequiring("b", "a"),
	})
	require.NoError(t, err)
	require.False(t, res.HasErrors())
	return o
}

func stateOf(t *testing.T, o *orchestrator.Orchestrator, name string) module.State {
	t.Helper()
	s, ok := o.State(name)
	require.True(t, ok, "module %s not loaded", name)
	return s
}

func TestReconcile_DeactivatesAndActivates(t *testing.T) {
	initial := config.ModuleConfig{"a": {}}
	o := newLoadedOrchestrator(t, initial)
	loader := &scriptedLoad{}
	r := New(Config{Path: "modules.yaml", Target: o, Initial: initial, Load: loader.load})

	loader.push(config.ModuleConfig{"a": {"active": false}}, nil)
	report := r.Reconcile(context.Background())

	require.NoError(t, report.Err)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, Action{Module: "a", Type: ActionDeactivate}, report.Actions[0])
	assert.Equal(t, module.StateDeactivated, stateOf(t, o, "a"))
	assert.Equal(t, module.StateBlocked, stateOf(t, o, "b"))

	loader.push(config.ModuleConfig{"a": {"active": true}}, nil)
	report = r.Reconcile(context.Background())

	require.Len(t, report.Actions, 1)
	assert.Equal(t, ActionActivate, report.Actions[0].Type)
	assert.NoError(t, report.Actions[0].Err)
	assert.Equal(t, module.StateReady, stateOf(t, o, "a"))
	assert.Equal(t, module.StateReady, stateOf(t, o, "b"))

	summary := r.Metrics().Summary()
	assert.Equal(t, int64(2), summary.Reloads)
	assert.Equal(t, int64(1), summary.Activations)
	assert.Equal(t, int64(1), summary.Deactivations)
}

func TestReconcile_RemovedEntryReactivates(t *testing.T) {
	initial := config.ModuleConfig{"a": {"active": "no"}}
	o := orchestrator.New(orchestrator.Config{ModuleConfig: initial})
	res, err := o.LoadBundle(context.Background(), map[string]module.Constructor{"a": newPlain("a")})
	require.NoError(t, err)
	require.True(t, module.IsDeactivated(res.Errors["a"]))

	loader := &scriptedLoad{}
	r := New(Config{Path: "modules.yaml", Target: o, Initial: initial, Load: loader.load})

	loader.push(config.ModuleConfig{}, nil)
	report := r.Reconcile(context.Background())

	require.Len(t, report.Actions, 1)
	assert.Equal(t, ActionActivate, report.Actions[0].Type)
	assert.Equal(t, module.StateReady, stateOf(t, o, "a"))
}

func TestReconcile_LeavesUnchangedModulesAlone(t *testing.T) {
	initial := config.ModuleConfig{"a": {}, "b": {}}
	o := newLoadedOrchestrator(t, initial)
	require.NoError(t, o.Deactivate("b"))

	loader := &scriptedLoad{}
	r := New(Config{Path: "modules.yaml", Target: o, Initial: initial, Load: loader.load})

	loader.push(config.ModuleConfig{"a": {"color": "red"}, "b": {}}, nil)
	report := r.Reconcile(context.Background())

	assert.Empty(t, report.Actions)
	assert.Equal(t, module.StateDeactivated, stateOf(t, o, "b"))
	assert.Equal(t, module.Params{"color": "red"}, o.Params("a"))
}

func TestReconcile_SkipsModulesNotLoaded(t *testing.T) {
	o := orchestrator.New(orchestrator.Config{})
	loader := &scriptedLoad{}
	r := New(Config{Path: "modules.yaml", Target: o, Load: loader.load})

	loader.push(config.ModuleConfig{"later": {"active": false}}, nil)
	report := r.Reconcile(context.Background())

	require.Len(t, report.Actions, 1)
	assert.Equal(t, Action{Module: "later", Type: ActionSkip, Reason: "not loaded"}, report.Actions[0])
	assert.False(t, report.Failed())
}

func TestReconcile_LoadFailureKeepsConfiguration(t *testing.T) {
	initial := config.ModuleConfig{"a": {"color": "blue"}}
	o := newLoadedOrchestrator(t, initial)
	bus := events.NewBus()
	sub, unsubscribe := bus.Subscribe(0)
	defer unsubscribe()

	loader := &scriptedLoad{}
	r := New(Config{Path: "modules.yaml", Target: o, Initial: initial, Load: loader.load, Bus: bus})

	loadErr := errors.New("broken yaml")
	loader.push(nil, loadErr)
	report := r.Reconcile(context.Background())

	assert.ErrorIs(t, report.Err, loadErr)
	assert.True(t, report.Failed())
	assert.Equal(t, module.Params{"color": "blue"}, o.Params("a"))

	summary := r.Metrics().Summary()
	assert.Equal(t, int64(1), summary.ReloadFailures)
	assert.InDelta(t, 1.0, summary.ReloadFailureRate, 0.0001)

	select {
	case ev := <-sub:
		assert.Equal(t, events.ReasonConfigReloaded, ev.Reason)
		assert.Equal(t, "Module configuration reloaded with errors: broken yaml", ev.Message)
	default:
		t.Fatal("expected a ConfigReloaded event")
	}
}

func TestMergeOperations(t *testing.T) {
	tests := []struct {
		old, new ChangeOperation
		want     ChangeOperation
	}{
		{OperationCreate, OperationUpdate, OperationCreate},
		{OperationCreate, OperationDelete, OperationDelete},
		{OperationUpdate, OperationUpdate, OperationUpdate},
		{OperationUpdate, OperationDelete, OperationDelete},
		{OperationDelete, OperationUpdate, OperationCreate},
		{OperationDelete, OperationCreate, OperationCreate},
	}

	for _, tt := range tests {
		t.Run(string(tt.old)+"+"+string(tt.new), func(t *testing.T) {
			assert.Equal(t, tt.want, mergeOperations(tt.old, tt.new))
		})
	}
}

func TestFileDetector_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: {}\n"), 0o644))

	d := NewFileDetector(path, 50*time.Millisecond)
	changes := make(chan ChangeEvent, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx, changes))
	defer d.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a: {active: false}\n"), 0o644))
	}

	select {
	case ev := <-changes:
		assert.Equal(t, d.Path(), ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
	}

	select {
	case ev := <-changes:
		t.Fatalf("unexpected second event: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileDetector_StopIsIdempotent(t *testing.T) {
	d := NewFileDetector(filepath.Join(t.TempDir(), "modules.yaml"), 0)
	require.NoError(t, d.Start(context.Background(), make(chan ChangeEvent, 1)))
	assert.NoError(t, d.Stop())
	assert.NoError(t, d.Stop())
}

func TestRun_ReconcilesOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: {}\n"), 0o644))

	initial, err := config.LoadModuleConfig(path)
	require.NoError(t, err)
	o := newLoadedOrchestrator(t, initial)

	reports := make(chan Report, 4)
	r := New(Config{
		Path:             path,
		Target:           o,
		Initial:          initial,
		DebounceInterval: 20 * time.Millisecond,
		OnReconcile:      func(rep Report) { reports <- rep },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Give the watcher a moment to register before writing.
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte("a:\n  active: false\n"), 0o644); err != nil {
			return false
		}
		select {
		case rep := <-reports:
			reports <- rep
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	rep := <-reports
	require.NoError(t, rep.Err)
	assert.Equal(t, module.StateDeactivated, stateOf(t, o, "a"))
	assert.Equal(t, module.StateBlocked, stateOf(t, o, "b"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
