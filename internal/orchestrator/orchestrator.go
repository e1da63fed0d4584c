package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/dependency"
	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/internal/provider"
	"github.com/jirenius/modapp/pkg/logging"
)

// DeferredErrorHandler receives failures of require callbacks. It is called
// on its own goroutine, never from within a resolution.
type DeferredErrorHandler func(moduleName string, err error)

// Config holds the configuration for the orchestrator.
type Config struct {
	// ModuleConfig holds the static parameters per module.
	ModuleConfig config.ModuleConfig
	// Query holds parameter overrides, as returned by config.ParseQuery.
	Query config.Query
	// ClassFunc fetches constructors for modules that were not loaded
	// through a bundle. Optional.
	ClassFunc provider.ClassFunc
	// Bus receives lifecycle events. Optional.
	Bus *events.Bus
	// DeferredErrorHandler receives require callback failures. Defaults to logging them.
	DeferredErrorHandler DeferredErrorHandler
	// MaxConcurrentRequires limits how many requirements of one module
	// resolve in parallel. Zero means no limit.
	MaxConcurrentRequires int
}

// Result is the outcome of loading a set of modules, keyed by the requested
// names. Errors is nil when every requested module is ready.
type Result struct {
	Modules map[string]any
	Errors  map[string]error
}

// HasErrors reports whether any requested module failed.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// ModuleStatus is a snapshot of one module record.
type ModuleStatus struct {
	Name       string       `json:"name" yaml:"name"`
	State      module.State `json:"state" yaml:"state"`
	Explicit   bool         `json:"explicit" yaml:"explicit"`
	Requires   []string     `json:"requires,omitempty" yaml:"requires,omitempty"`
	Dependants []string     `json:"dependants,omitempty" yaml:"dependants,omitempty"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	Generation uint64       `json:"generation" yaml:"generation"`
	Err        error        `json:"-" yaml:"-"`
}

// Orchestrator creates modules on demand, wires their requirements and
// tears them down again while keeping the dependency graph consistent.
//
// One mutex guards every record. Constructors, require callbacks, class
// fetches and disposal hooks always run without it, so they may call back
// into the orchestrator.
type Orchestrator struct {
	provider      *provider.Provider
	bus           *events.Bus
	onDeferred    DeferredErrorHandler
	maxConcurrent int

	mu           sync.Mutex
	modules      map[string]*module.Record
	graph        *dependency.Graph
	moduleConfig config.ModuleConfig
	query        config.Query

	deferred sync.WaitGroup
}

// New creates a new orchestrator.
func New(cfg Config) *Orchestrator {
	onDeferred := cfg.DeferredErrorHandler
	if onDeferred == nil {
		onDeferred = func(name string, err error) {
			logging.Error("Orchestrator", err, "Require callback of module %s failed", name)
		}
	}

	return &Orchestrator{
		provider:      provider.New(cfg.ClassFunc),
		bus:           cfg.Bus,
		onDeferred:    onDeferred,
		maxConcurrent: cfg.MaxConcurrentRequires,
		modules:       make(map[string]*module.Record),
		graph:         dependency.New(),
		moduleConfig:  cfg.ModuleConfig.Clone(),
		query:         cfg.Query,
	}
}

// LoadBundle registers the constructors of a bundle and loads every module
// in it explicitly. It fails without loading anything if one of the names
// already has a class.
func (o *Orchestrator) LoadBundle(ctx context.Context, bundle map[string]module.Constructor) (Result, error) {
	names := make([]string, 0, len(bundle))
	for name := range bundle {
		if o.provider.Has(name) {
			return Result{}, fmt.Errorf("load bundle: module %s: %w", name, module.ErrClassRegistered)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := o.provider.Register(name, bundle[name]); err != nil {
			return Result{}, fmt.Errorf("load bundle: %w", err)
		}
	}

	logging.Info("Orchestrator", "Loading bundle of %d modules", len(names))
	return o.LoadModules(ctx, names), nil
}

// LoadModules loads the named modules explicitly, together with everything
// they require. It never fails: module failures are reported in the result.
func (o *Orchestrator) LoadModules(ctx context.Context, names []string) Result {
	outcomes := o.loadInstances(ctx, names, "")

	result := Result{Modules: make(map[string]any)}
	for i, name := range names {
		out := outcomes[i]
		if out.err != nil {
			if result.Errors == nil {
				result.Errors = make(map[string]error)
			}
			result.Errors[name] = out.err
			continue
		}
		result.Modules[name] = out.instance
	}
	return result
}

// GetModule returns the instance of a ready module.
func (o *Orchestrator) GetModule(name string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec, ok := o.modules[name]
	if !ok || rec.State != module.StateReady {
		return nil, false
	}
	return rec.Instance, true
}

// Require exists so the orchestrator can be handed around where a module
// handle is expected. Requirements can only be registered through the
// handle passed to a constructor, so this always fails.
func (o *Orchestrator) Require(names []string, callback module.RequireCallback) error {
	return module.ErrRequireOutsideConstruction
}

// State returns the current state of a module record.
func (o *Orchestrator) State(name string) (module.State, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec, ok := o.modules[name]
	if !ok {
		return "", false
	}
	return rec.State, true
}

// Status returns a snapshot of every record, sorted by name.
func (o *Orchestrator) Status() []ModuleStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	statuses := make([]ModuleStatus, 0, len(o.modules))
	for _, rec := range o.modules {
		st := ModuleStatus{
			Name:       rec.Name,
			State:      rec.State,
			Explicit:   rec.Explicit,
			Requires:   append([]string(nil), rec.Requires...),
			Dependants: append([]string(nil), rec.Dependants...),
			Generation: rec.Generation,
			Err:        rec.Err,
		}
		if rec.Err != nil {
			st.Error = rec.Err.Error()
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// SetModuleConfig replaces the static module configuration. It applies to
// constructions started afterwards.
func (o *Orchestrator) SetModuleConfig(cfg config.ModuleConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.moduleConfig = cfg.Clone()
}

// Params returns the merged parameters a module would be constructed with.
func (o *Orchestrator) Params(name string) module.Params {
	o.mu.Lock()
	defer o.mu.Unlock()
	return config.MergeParams(o.moduleConfig, o.query, name)
}

// Classes returns the names of all known module classes.
func (o *Orchestrator) Classes() []string {
	return o.provider.Names()
}

// WaitDeferred blocks until every reported require callback failure has
// been handed to the DeferredErrorHandler.
func (o *Orchestrator) WaitDeferred() {
	o.deferred.Wait()
}

// emit publishes the transition of rec from old. Must be called with o.mu held.
func (o *Orchestrator) emit(rec *module.Record, old module.State) {
	if rec.Err != nil {
		logging.Debug("Orchestrator", "Module %s: %s -> %s: %v", rec.Name, old, rec.State, rec.Err)
	} else {
		logging.Debug("Orchestrator", "Module %s: %s -> %s", rec.Name, old, rec.State)
	}
	if o.bus != nil {
		o.bus.Emit(events.ReasonForState(rec.State), events.DataFor(rec, old))
	}
}
