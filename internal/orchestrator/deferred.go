package orchestrator

import (
	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/pkg/logging"
)

// runContinuation calls the require callback of a module that just became
// ready. Its failure is reported out of band and never reaches the
// resolution that triggered it.
func (o *Orchestrator) runContinuation(name string, callback module.RequireCallback, modules map[string]any) {
	if callback == nil {
		return
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
			}
		}()
		return callback(modules)
	}()
	if err != nil {
		o.deferError(name, err)
	}
}

func (o *Orchestrator) deferError(name string, err error) {
	logging.Warn("Orchestrator", "Require callback of module %s failed, deferring: %v", name, err)
	if o.bus != nil {
		o.bus.Emit(events.ReasonContinuationFailed, events.EventData{
			Name:     name,
			OldState: module.StateReady,
			NewState: module.StateReady,
			Error:    err.Error(),
			Err:      err,
		})
	}

	o.deferred.Add(1)
	go func() {
		defer o.deferred.Done()
		o.onDeferred(name, err)
	}()
}
