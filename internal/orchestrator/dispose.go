package orchestrator

import (
	"context"
	"sync"

	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/pkg/logging"
)

// disposal is a disposal hook to run once the lock is released.
type disposal struct {
	name     string
	instance any
}

// Deactivate disposes a loaded module and, transitively, every module
// depending on it. Dependants end up blocked; implicit modules nobody needs
// any more are released. Deactivating a deactivated module is a no-op.
func (o *Orchestrator) Deactivate(name string) error {
	o.mu.Lock()
	rec, ok := o.modules[name]
	if !ok {
		o.mu.Unlock()
		return &module.StateError{Module: name, Op: "deactivate"}
	}

	switch rec.State {
	case module.StateDeactivated:
		o.mu.Unlock()
		return nil
	case module.StateLoading, module.StateRequire:
		o.mu.Unlock()
		return &module.StateError{Module: name, Op: "deactivate", State: rec.State}
	}

	var disposals []disposal
	o.dispose(rec, module.StateDeactivated, &disposals)
	o.mu.Unlock()

	logging.Info("Orchestrator", "Deactivated module %s", name)
	o.runDisposals(disposals)
	return nil
}

// Activate reloads a deactivated module and returns its instance. Modules
// that were blocked waiting for it are reloaded as well, recursively, before
// Activate returns. Their failures do not fail the call; they show up as
// events and in Status.
func (o *Orchestrator) Activate(ctx context.Context, name string) (any, error) {
	o.mu.Lock()
	rec, ok := o.modules[name]
	if !ok || rec.State != module.StateDeactivated {
		var state module.State
		if ok {
			state = rec.State
		}
		o.mu.Unlock()
		return nil, &module.StateError{Module: name, Op: "activate", State: state}
	}

	old := rec.Reset()
	o.emit(rec, old)
	attempt, _ := rec.BeginAttempt()
	o.mu.Unlock()

	logging.Info("Orchestrator", "Activating module %s", name)
	o.resolve(ctx, rec, attempt, false)

	out := o.settle(rec)
	if out.err != nil {
		return nil, out.err
	}

	o.ripple(ctx, rec)
	return out.instance, nil
}

// ripple reloads the blocked dependants of rec, then theirs, and waits for
// all of them.
func (o *Orchestrator) ripple(ctx context.Context, rec *module.Record) {
	type reload struct {
		rec     *module.Record
		attempt *module.Attempt
	}

	o.mu.Lock()
	var reloads []reload
	for _, depName := range rec.Dependants {
		dep, ok := o.modules[depName]
		if !ok || dep.State != module.StateBlocked {
			continue
		}
		old := dep.Reset()
		o.emit(dep, old)
		attempt, _ := dep.BeginAttempt()
		reloads = append(reloads, reload{rec: dep, attempt: attempt})
	}
	o.mu.Unlock()

	var wg sync.WaitGroup
	for _, r := range reloads {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.resolve(ctx, r.rec, r.attempt, false)
			if out := o.settle(r.rec); out.err != nil {
				logging.Warn("Orchestrator", "Reloading %s after activation of %s failed: %v", r.rec.Name, rec.Name, out.err)
				return
			}
			o.ripple(ctx, r.rec)
		}()
	}
	wg.Wait()
}

// dispose moves rec to state, which is one of deactivated, blocked or
// passive, and tears down what depended on its instance. Hooks to run are
// appended to out in cascade order. Must be called with o.mu held.
func (o *Orchestrator) dispose(rec *module.Record, state module.State, out *[]disposal) {
	if rec.State == module.StateDeactivated {
		return
	}

	instance := rec.LiveInstance()

	var old module.State
	switch state {
	case module.StateBlocked:
		blockedBy := make(map[string]error)
		for _, req := range rec.Requires {
			if dep, ok := o.modules[req]; ok && dep.Err != nil {
				blockedBy[req] = dep.Err
			}
		}
		old = rec.MarkBlocked(blockedBy)
	case module.StatePassive:
		old = rec.MarkPassive()
	default:
		old = rec.MarkDeactivated()
	}
	o.emit(rec, old)

	if instance == nil {
		return
	}

	for _, depName := range rec.Dependants {
		dep, ok := o.modules[depName]
		if !ok || !(dep.IsActive() || dep.State == module.StateBlocked) {
			continue
		}
		o.dispose(dep, module.StateBlocked, out)
	}

	*out = append(*out, disposal{name: rec.Name, instance: instance})

	o.cleanImplicits(rec.Requires, out)
}

// cleanImplicits releases every named module that was only loaded as a
// requirement and has no active dependant left. Must be called with o.mu held.
func (o *Orchestrator) cleanImplicits(names []string, out *[]disposal) {
	for _, name := range names {
		rec, ok := o.modules[name]
		if !ok || rec.Explicit || rec.State == module.StatePassive {
			continue
		}
		if o.hasActiveDependant(rec) {
			continue
		}
		logging.Debug("Orchestrator", "Releasing implicit module %s", name)
		o.dispose(rec, module.StatePassive, out)
	}
}

func (o *Orchestrator) hasActiveDependant(rec *module.Record) bool {
	for _, depName := range rec.Dependants {
		if dep, ok := o.modules[depName]; ok && dep.IsActive() {
			return true
		}
	}
	return false
}

// runDisposals calls the disposal hooks collected by dispose. Must be called
// without o.mu held.
func (o *Orchestrator) runDisposals(disposals []disposal) {
	for _, d := range disposals {
		disposer, ok := d.instance.(module.Disposer)
		if !ok {
			continue
		}
		o.callDispose(d.name, disposer)
		if o.bus != nil {
			o.bus.Emit(events.ReasonModuleDisposed, events.EventData{Name: d.name})
		}
	}
}

func (o *Orchestrator) callDispose(name string, disposer module.Disposer) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Orchestrator", panicError(r), "Dispose of module %s panicked", name)
		}
	}()
	disposer.Dispose()
}
