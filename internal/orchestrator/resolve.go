package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/dependency"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/pkg/logging"

	"golang.org/x/sync/errgroup"
)

var errNoInstance = errors.New("constructor returned no instance")

// outcome is what a requester learns about a settled record.
type outcome struct {
	instance any
	err      error
}

// loadInstances resolves every name concurrently. dependant is the module
// requiring them, or empty for an explicit request.
func (o *Orchestrator) loadInstances(ctx context.Context, names []string, dependant string) []outcome {
	outcomes := make([]outcome, len(names))
	if len(names) == 0 {
		return outcomes
	}

	var g errgroup.Group
	if o.maxConcurrent > 0 {
		g.SetLimit(o.maxConcurrent)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			outcomes[i] = o.loadInstance(ctx, name, dependant)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// loadInstance returns the settled outcome for name, starting a resolution
// attempt if none exists. Only the caller that starts an attempt runs it;
// everybody else waits for it.
func (o *Orchestrator) loadInstance(ctx context.Context, name, dependant string) outcome {
	o.mu.Lock()
	checkActive := true
	rec, ok := o.modules[name]
	if !ok {
		rec = module.NewRecord(name)
		o.modules[name] = rec
	} else if rec.State == module.StatePassive {
		old := rec.Reset()
		o.emit(rec, old)
		checkActive = false
	}

	if dependant != "" {
		rec.AddDependant(dependant)
	} else {
		rec.Explicit = true
	}

	attempt, started := rec.BeginAttempt()
	if started && ok && !checkActive {
		logging.Debug("Orchestrator", "Reviving passive module %s", name)
	}
	o.mu.Unlock()

	if started {
		o.resolve(ctx, rec, attempt, checkActive)
	}
	return o.settle(rec)
}

// settle waits until rec has no attempt in flight and reports its state.
func (o *Orchestrator) settle(rec *module.Record) outcome {
	for {
		o.mu.Lock()
		attempt := rec.CurrentAttempt()
		if attempt != nil {
			select {
			case <-attempt.Done():
			default:
				o.mu.Unlock()
				<-attempt.Done()
				continue
			}
		}

		var out outcome
		switch {
		case rec.State == module.StateReady:
			out.instance = rec.Instance
		case rec.Err != nil:
			out.err = rec.Err
		default:
			out.err = fmt.Errorf("module %s is %s", rec.Name, rec.State)
		}
		o.mu.Unlock()
		return out
	}
}

// current reports whether attempt is still the live attempt of rec and rec
// is in the given state. Must be called with o.mu held.
func current(rec *module.Record, attempt *module.Attempt, state module.State) bool {
	return rec.CurrentAttempt() == attempt && rec.State == state
}

// resolve runs one resolution attempt of rec to a terminal state. A phase
// that finds the record changed underneath it (disposed, marked circular or
// restarted) leaves the state alone.
func (o *Orchestrator) resolve(ctx context.Context, rec *module.Record, attempt *module.Attempt, checkActive bool) {
	defer attempt.Finish()
	name := rec.Name

	// Once started, a resolution runs to completion.
	ctor, fetchErr := o.provider.Class(context.WithoutCancel(ctx), name)

	o.mu.Lock()
	if !current(rec, attempt, module.StateLoading) {
		o.mu.Unlock()
		return
	}
	if fetchErr != nil {
		old := rec.MarkUnavailable(fetchErr)
		o.emit(rec, old)
		o.mu.Unlock()
		return
	}
	params := config.MergeParams(o.moduleConfig, o.query, name)
	if checkActive && !config.IsActive(params) {
		old := rec.MarkDeactivated()
		o.emit(rec, old)
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	instance, h, ctorErr := o.construct(name, ctor, params)
	requires, callback, captured := h.Seal()

	o.mu.Lock()
	if !current(rec, attempt, module.StateLoading) {
		o.mu.Unlock()
		logging.Debug("Orchestrator", "Discarding instance of %s constructed for a superseded attempt", name)
		return
	}
	if ctorErr != nil {
		old := rec.MarkFailed(ctorErr)
		o.emit(rec, old)
		o.mu.Unlock()
		return
	}

	rec.SetConstructed(instance)
	if !captured {
		old := rec.MarkReady()
		o.emit(rec, old)
		o.mu.Unlock()
		return
	}

	old := rec.MarkRequire(requires)
	o.emit(rec, old)
	if o.markCycle(rec) {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	outcomes := o.loadInstances(ctx, requires, name)

	var (
		loaded  []string
		blocked map[string]error
		modules = make(map[string]any, len(requires))
	)
	for i, req := range requires {
		out := outcomes[i]
		if out.err != nil {
			if blocked == nil {
				blocked = make(map[string]error)
			}
			blocked[req] = out.err
			continue
		}
		loaded = append(loaded, req)
		modules[req] = out.instance
	}

	o.mu.Lock()
	if !current(rec, attempt, module.StateRequire) || blocked != nil {
		if current(rec, attempt, module.StateRequire) {
			old := rec.MarkBlocked(blocked)
			o.emit(rec, old)
		}
		var disposals []disposal
		o.cleanImplicits(loaded, &disposals)
		o.mu.Unlock()
		o.runDisposals(disposals)
		return
	}

	old = rec.MarkReady()
	o.emit(rec, old)
	o.mu.Unlock()

	// Waiters are released by the deferred Finish, after the callback has
	// wired the instance.
	o.runContinuation(name, callback, modules)
}

// construct calls the constructor with a fresh handle, turning a panic into
// an error.
func (o *Orchestrator) construct(name string, ctor module.Constructor, params module.Params) (instance any, h *module.Handle, err error) {
	h = module.NewHandle(name, o)
	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, panicError(r)
		}
	}()

	instance, err = ctor(h, params)
	if err == nil && instance == nil {
		err = errNoInstance
	}
	return instance, h, err
}

// markCycle checks the require list rec just declared for a cycle and, if
// there is one, fails every module of the chain that still waits for its
// requirements. Must be called with o.mu held.
func (o *Orchestrator) markCycle(rec *module.Record) bool {
	deps := make([]dependency.NodeID, len(rec.Requires))
	for i, r := range rec.Requires {
		deps[i] = dependency.NodeID(r)
	}
	o.graph.AddNode(dependency.Node{ID: dependency.NodeID(rec.Name), DependsOn: deps})

	err := o.graph.CheckCycle(dependency.NodeID(rec.Name), func(id dependency.NodeID) bool {
		r, ok := o.modules[string(id)]
		return ok && r.State == module.StateRequire
	})

	var cycleErr *dependency.CycleError
	if !errors.As(err, &cycleErr) {
		return false
	}

	logging.Warn("Orchestrator", "Circular dependency detected: %v", cycleErr)
	for _, id := range cycleErr.Chain {
		member, ok := o.modules[string(id)]
		if !ok || member.State != module.StateRequire {
			continue
		}
		chain := cycleErr.ChainFrom(id)
		names := make([]string, len(chain))
		for i, n := range chain {
			names[i] = string(n)
		}
		old := member.MarkCircular(names)
		o.emit(member, old)
	}
	return true
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
