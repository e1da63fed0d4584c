package module

import (
	"sync"
)

// State is the lifecycle state of a module record.
type State string

const (
	StateLoading            State = "loading"
	StateRequire            State = "require"
	StateReady              State = "ready"
	StatePassive            State = "passive"
	StateDeactivated        State = "deactivated"
	StateBlocked            State = "blocked"
	StateUnavailable        State = "unavailable"
	StateCircularDependency State = "circularDependency"
	StateFailed             State = "error"
)

// AllStates lists every state in display order.
var AllStates = []State{
	StateLoading,
	StateRequire,
	StateReady,
	StatePassive,
	StateDeactivated,
	StateBlocked,
	StateUnavailable,
	StateCircularDependency,
	StateFailed,
}

// IsActive reports whether a module in this state is loaded or on its way to
// being loaded.
func (s State) IsActive() bool {
	return s == StateLoading || s == StateRequire || s == StateReady
}

// IsFailure reports whether the state carries an error.
func (s State) IsFailure() bool {
	switch s {
	case StateDeactivated, StateBlocked, StateUnavailable, StateCircularDependency, StateFailed:
		return true
	}
	return false
}

// Attempt is the shared outcome of one resolution of a record. Every caller
// asking for a record while it resolves waits on the same attempt.
type Attempt struct {
	Generation uint64

	once sync.Once
	done chan struct{}
}

// Done is closed once the attempt has settled.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Finish settles the attempt. Further calls are no-ops.
func (a *Attempt) Finish() {
	a.once.Do(func() { close(a.done) })
}

// Record is the orchestrator's bookkeeping for one module name.
//
// Record is not safe for concurrent use; the orchestrator guards every
// record with its own lock.
type Record struct {
	Name string
	// Instance is non-nil only while State is ready.
	Instance any
	State    State
	// Requires is the list captured by the last construction.
	Requires []string
	// Dependants are the modules that have required this one.
	Dependants []string
	// Explicit is set once the module has been requested by name.
	Explicit bool
	// Err is non-nil only in failure states.
	Err error
	// Generation increases with every resolution attempt.
	Generation uint64

	constructed any
	attempt     *Attempt
}

// NewRecord returns a record in the loading state.
func NewRecord(name string) *Record {
	return &Record{Name: name, State: StateLoading}
}

// IsActive reports whether the record is loading, requiring or ready.
func (r *Record) IsActive() bool {
	return r.State.IsActive()
}

// AddDependant records that the named module requires this one.
func (r *Record) AddDependant(name string) {
	for _, d := range r.Dependants {
		if d == name {
			return
		}
	}
	r.Dependants = append(r.Dependants, name)
}

// BeginAttempt returns the current attempt. If none is in flight, a new one
// is started with a bumped generation and started is true.
func (r *Record) BeginAttempt() (attempt *Attempt, started bool) {
	if r.attempt != nil {
		return r.attempt, false
	}
	r.Generation++
	r.attempt = &Attempt{Generation: r.Generation, done: make(chan struct{})}
	return r.attempt, true
}

// CurrentAttempt returns the attempt in flight, or nil.
func (r *Record) CurrentAttempt() *Attempt {
	return r.attempt
}

// SetConstructed stores the instance returned by the constructor while its
// requirements resolve.
func (r *Record) SetConstructed(instance any) {
	r.constructed = instance
}

// LiveInstance returns the ready instance, or the constructed one still
// waiting for its requirements.
func (r *Record) LiveInstance() any {
	if r.Instance != nil {
		return r.Instance
	}
	return r.constructed
}

// Reset returns the record to loading and forgets the previous attempt.
func (r *Record) Reset() State {
	old := r.State
	r.State = StateLoading
	r.Err = nil
	r.Instance = nil
	r.constructed = nil
	r.attempt = nil
	return old
}

// MarkRequire moves a constructed record into the require state.
func (r *Record) MarkRequire(requires []string) State {
	old := r.State
	r.State = StateRequire
	r.Requires = requires
	r.Err = nil
	return old
}

// MarkReady publishes the constructed instance.
func (r *Record) MarkReady() State {
	old := r.State
	r.State = StateReady
	r.Instance = r.constructed
	r.constructed = nil
	r.Err = nil
	return old
}

// MarkPassive drops the instance of a module nobody depends on.
func (r *Record) MarkPassive() State {
	return r.transition(StatePassive, nil)
}

// MarkDeactivated moves the record to the deactivated state.
func (r *Record) MarkDeactivated() State {
	return r.transition(StateDeactivated, &DeactivatedError{Module: r.Name})
}

// MarkBlocked moves the record to the blocked state.
func (r *Record) MarkBlocked(blockedBy map[string]error) State {
	return r.transition(StateBlocked, &BlockedError{Module: r.Name, BlockedBy: blockedBy})
}

// MarkUnavailable records that the class could not be obtained.
func (r *Record) MarkUnavailable(cause error) State {
	return r.transition(StateUnavailable, &UnavailableError{Module: r.Name, Err: cause})
}

// MarkCircular records the require chain that leads back to this module.
func (r *Record) MarkCircular(chain []string) State {
	return r.transition(StateCircularDependency, &CircularDependencyError{Module: r.Name, Chain: chain})
}

// MarkFailed records a constructor failure.
func (r *Record) MarkFailed(cause error) State {
	return r.transition(StateFailed, &UnknownError{Module: r.Name, Err: cause})
}

func (r *Record) transition(state State, err error) State {
	old := r.State
	r.State = state
	r.Err = err
	r.Instance = nil
	r.constructed = nil
	return old
}
