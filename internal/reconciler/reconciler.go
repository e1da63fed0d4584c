package reconciler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/pkg/logging"
)

// LoadFunc reads the module configuration at path.
type LoadFunc func(path string) (config.ModuleConfig, error)

// Config configures a Reconciler.
type Config struct {
	// Path is the module configuration file to watch.
	Path string
	// Target receives the configuration and the resulting actions.
	Target Target
	// Initial is the configuration the target was started with.
	Initial config.ModuleConfig
	// Bus receives a ConfigReloaded event per reconciliation. Optional.
	Bus *events.Bus
	// Metrics defaults to a fresh instance.
	Metrics *Metrics
	// Load defaults to config.LoadModuleConfig.
	Load LoadFunc
	// DebounceInterval defaults to DefaultDebounceInterval.
	DebounceInterval time.Duration
	// OnReconcile is called after every reconciliation triggered by a file
	// change. Optional.
	OnReconcile func(Report)
}

// Reconciler keeps the active flags of a running orchestrator in line with
// its configuration file.
//
// Only modules whose effective active flag changes are touched, so a module
// deactivated by hand stays deactivated across unrelated edits.
type Reconciler struct {
	target      Target
	bus         *events.Bus
	metrics     *Metrics
	load        LoadFunc
	detector    *FileDetector
	onReconcile func(Report)

	// mu serializes reconciliations.
	mu    sync.Mutex
	known map[string]struct{}
}

// New creates a new reconciler.
func New(cfg Config) *Reconciler {
	load := cfg.Load
	if load == nil {
		load = config.LoadModuleConfig
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	r := &Reconciler{
		target:      cfg.Target,
		bus:         cfg.Bus,
		metrics:     metrics,
		load:        load,
		detector:    NewFileDetector(cfg.Path, cfg.DebounceInterval),
		onReconcile: cfg.OnReconcile,
		known:       make(map[string]struct{}),
	}
	for name := range cfg.Initial {
		r.known[name] = struct{}{}
	}
	return r
}

// Metrics returns the reconciliation counters.
func (r *Reconciler) Metrics() *Metrics {
	return r.metrics
}

// Path returns the watched configuration file.
func (r *Reconciler) Path() string {
	return r.detector.Path()
}

// Run watches the configuration file and reconciles on every change until
// ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	changes := make(chan ChangeEvent, 16)
	if err := r.detector.Start(ctx, changes); err != nil {
		return fmt.Errorf("watch %s: %w", r.detector.Path(), err)
	}
	defer r.detector.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-changes:
			logging.Info("Reconciler", "Configuration %s changed (%s)", ev.Path, ev.Operation)
			report := r.Reconcile(ctx)
			if r.onReconcile != nil {
				r.onReconcile(report)
			}
		}
	}
}

// Reconcile loads the configuration file, hands it to the target and
// deactivates or activates every module whose active flag changed. If the
// file cannot be loaded nothing changes.
func (r *Reconciler) Reconcile(ctx context.Context) Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := Report{Path: r.detector.Path()}

	cfg, err := r.load(report.Path)
	r.metrics.RecordReload(err)
	if err != nil {
		report.Err = err
		r.emitReloaded(report)
		return report
	}

	for name := range cfg {
		r.known[name] = struct{}{}
	}
	names := make([]string, 0, len(r.known))
	for name := range r.known {
		names = append(names, name)
	}
	sort.Strings(names)

	before := make(map[string]bool, len(names))
	for _, name := range names {
		before[name] = config.IsActive(r.target.Params(name))
	}

	r.target.SetModuleConfig(cfg)

	for _, name := range names {
		after := config.IsActive(r.target.Params(name))
		if after == before[name] {
			continue
		}
		action := r.apply(ctx, name, after)
		r.metrics.RecordAction(action)
		report.Actions = append(report.Actions, action)
	}

	r.emitReloaded(report)
	return report
}

func (r *Reconciler) apply(ctx context.Context, name string, active bool) Action {
	state, loaded := r.target.State(name)
	if !loaded {
		return Action{Module: name, Type: ActionSkip, Reason: "not loaded"}
	}

	if !active {
		switch state {
		case module.StateDeactivated:
			return Action{Module: name, Type: ActionSkip, Reason: "already deactivated"}
		case module.StateLoading, module.StateRequire:
			return Action{Module: name, Type: ActionSkip, Reason: "still resolving"}
		}
		err := r.target.Deactivate(name)
		if err != nil {
			logging.Error("Reconciler", err, "Failed to deactivate module %s", name)
		}
		return Action{Module: name, Type: ActionDeactivate, Err: err}
	}

	if state != module.StateDeactivated {
		return Action{Module: name, Type: ActionSkip, Reason: fmt.Sprintf("module is %s", state)}
	}
	_, err := r.target.Activate(ctx, name)
	if err != nil {
		logging.Warn("Reconciler", "Activation of module %s failed: %v", name, err)
	}
	return Action{Module: name, Type: ActionActivate, Err: err}
}

func (r *Reconciler) emitReloaded(report Report) {
	if r.bus == nil {
		return
	}
	data := events.EventData{Name: report.Path}
	if report.Err != nil {
		data.Error = report.Err.Error()
		data.Err = report.Err
	} else if report.Failed() {
		data.Error = "some modules could not be switched"
	}
	r.bus.Emit(events.ReasonConfigReloaded, data)
}
