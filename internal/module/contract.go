package module

import (
	"sync"
)

// Params are the merged configuration parameters passed to a constructor.
type Params map[string]any

// Constructor builds a module instance. It plays the role of a module class:
// the orchestrator calls it at most once per resolution attempt, passing a
// handle that is only valid for the duration of the call.
//
// A constructor that needs other modules registers them with h.Require and
// defers any externally visible registration to the require callback, since
// the instance is discarded if a requirement fails.
type Constructor func(h *Handle, params Params) (any, error)

// RequireCallback receives the required modules, keyed by name, once all of
// them are ready. An error returned (or a panic raised) by the callback is
// reported out of band and does not affect the module's state.
//
// Other requesters of the module are released only after the callback
// returns. A callback must therefore not wait for a load that needs its own
// module; such loads have to be started on another goroutine.
type RequireCallback func(modules map[string]any) error

// Disposer is implemented by module instances that release resources when
// they are disposed. Dispose is called at most once per instance.
type Disposer interface {
	Dispose()
}

// Host is the part of the orchestrator a constructor may use.
type Host interface {
	GetModule(name string) (any, bool)
}

// Handle is the capability handed to a constructor. It captures at most one
// require registration and stops accepting registrations once sealed.
type Handle struct {
	name string
	host Host

	mu       sync.Mutex
	sealed   bool
	captured bool
	requires []string
	callback RequireCallback
}

// NewHandle returns an open handle for the construction of the named module.
func NewHandle(name string, host Host) *Handle {
	return &Handle{name: name, host: host}
}

// Name returns the name of the module being constructed.
func (h *Handle) Name() string {
	return h.name
}

// Module returns a ready module from the host.
func (h *Handle) Module(name string) (any, bool) {
	if h.host == nil {
		return nil, false
	}
	return h.host.GetModule(name)
}

// Require registers the modules this module depends on together with the
// callback to run once they are all ready. An empty list still registers the
// callback, which is then called with an empty map.
func (h *Handle) Require(names []string, callback RequireCallback) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sealed {
		return ErrRequireOutsideConstruction
	}
	if h.captured {
		return ErrRequireAlreadyCalled
	}

	h.captured = true
	h.requires = append([]string(nil), names...)
	h.callback = callback
	return nil
}

// Seal closes the handle and returns the captured registration, if any.
func (h *Handle) Seal() (requires []string, callback RequireCallback, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sealed = true
	return h.requires, h.callback, h.captured
}
