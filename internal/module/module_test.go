package module

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Predicates(t *testing.T) {
	tests := []struct {
		state   State
		active  bool
		failure bool
	}{
		{StateLoading, true, false},
		{StateRequire, true, false},
		{StateReady, true, false},
		{StatePassive, false, false},
		{StateDeactivated, false, true},
		{StateBlocked, false, true},
		{StateUnavailable, false, true},
		{StateCircularDependency, false, true},
		{StateFailed, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.active, tt.state.IsActive())
			assert.Equal(t, tt.failure, tt.state.IsFailure())
		})
	}
	assert.Len(t, AllStates, len(tests))
}

func TestRecord_Transitions(t *testing.T) {
	r := NewRecord("a")
	assert.Equal(t, StateLoading, r.State)
	assert.Nil(t, r.Instance)

	inst := &struct{ n int }{1}
	r.SetConstructed(inst)
	old := r.MarkRequire([]string{"b"})
	assert.Equal(t, StateLoading, old)
	assert.Nil(t, r.Instance, "instance must not be published before ready")
	assert.Same(t, inst, r.LiveInstance())

	old = r.MarkReady()
	assert.Equal(t, StateRequire, old)
	assert.Same(t, inst, r.Instance)
	assert.NoError(t, r.Err)

	r.MarkPassive()
	assert.Equal(t, StatePassive, r.State)
	assert.Nil(t, r.Instance)
	assert.NoError(t, r.Err)
}

func TestRecord_FailureStatesCarryTypedErrors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name  string
		mark  func(r *Record)
		state State
		is    func(error) bool
		msg   string
	}{
		{
			name:  "deactivated",
			mark:  func(r *Record) { r.MarkDeactivated() },
			state: StateDeactivated,
			is:    IsDeactivated,
			msg:   "Module m is deactivated.",
		},
		{
			name: "blocked",
			mark: func(r *Record) {
				r.MarkBlocked(map[string]error{"z": cause, "b": cause})
			},
			state: StateBlocked,
			is:    IsBlocked,
			msg:   "Module m is blocked by b, z.",
		},
		{
			name:  "unavailable",
			mark:  func(r *Record) { r.MarkUnavailable(cause) },
			state: StateUnavailable,
			is:    IsUnavailable,
			msg:   "Module m is unavailable: boom",
		},
		{
			name:  "circular",
			mark:  func(r *Record) { r.MarkCircular([]string{"m", "b", "c"}) },
			state: StateCircularDependency,
			is:    IsCircularDependency,
			msg:   "Circular dependency: m > b > c > m.",
		},
		{
			name:  "error",
			mark:  func(r *Record) { r.MarkFailed(cause) },
			state: StateFailed,
			is:    IsUnknown,
			msg:   "Module m encountered an error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord("m")
			r.SetConstructed("instance")
			tt.mark(r)

			assert.Equal(t, tt.state, r.State)
			assert.Nil(t, r.Instance)
			assert.Nil(t, r.LiveInstance())
			require.Error(t, r.Err)
			assert.True(t, tt.is(r.Err))
			assert.Equal(t, tt.msg, r.Err.Error())
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", r.Err)))
		})
	}
}

func TestUnavailableAndUnknown_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	assert.ErrorIs(t, &UnavailableError{Module: "a", Err: cause}, cause)
	assert.ErrorIs(t, &UnknownError{Module: "a", Err: cause}, cause)
	assert.ErrorIs(t, &UnavailableError{Module: "a", Err: ErrNoClassProvider}, ErrNoClassProvider)
}

func TestRecord_AddDependantDeduplicates(t *testing.T) {
	r := NewRecord("a")
	r.AddDependant("b")
	r.AddDependant("c")
	r.AddDependant("b")
	assert.Equal(t, []string{"b", "c"}, r.Dependants)
}

func TestRecord_Attempts(t *testing.T) {
	r := NewRecord("a")

	first, started := r.BeginAttempt()
	require.True(t, started)
	assert.Equal(t, uint64(1), first.Generation)

	again, started := r.BeginAttempt()
	assert.False(t, started)
	assert.Same(t, first, again)

	first.Finish()
	first.Finish()
	select {
	case <-first.Done():
	default:
		t.Fatal("attempt should be settled")
	}

	r.Reset()
	assert.Nil(t, r.CurrentAttempt())
	second, started := r.BeginAttempt()
	require.True(t, started)
	assert.Equal(t, uint64(2), second.Generation)
}

func TestStateError_Messages(t *testing.T) {
	tests := []struct {
		err  *StateError
		want string
	}{
		{&StateError{Module: "a", Op: "deactivate"}, "Module a is not loaded."},
		{&StateError{Module: "a", Op: "activate", State: StateReady}, "Module a is not deactivated."},
		{&StateError{Module: "a", Op: "deactivate", State: StateRequire}, "cannot deactivate module a while in state require"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
		assert.True(t, IsStateError(tt.err))
	}
}

type fakeHost map[string]any

func (h fakeHost) GetModule(name string) (any, bool) {
	m, ok := h[name]
	return m, ok
}

func TestHandle_Require(t *testing.T) {
	h := NewHandle("a", fakeHost{"b": 42})
	assert.Equal(t, "a", h.Name())

	m, ok := h.Module("b")
	assert.True(t, ok)
	assert.Equal(t, 42, m)

	names := []string{"b", "c"}
	called := false
	require.NoError(t, h.Require(names, func(map[string]any) error {
		called = true
		return nil
	}))
	names[0] = "mutated"

	err := h.Require([]string{"x"}, nil)
	assert.ErrorIs(t, err, ErrRequireAlreadyCalled)

	requires, cb, captured := h.Seal()
	require.True(t, captured)
	assert.Equal(t, []string{"b", "c"}, requires)
	require.NoError(t, cb(nil))
	assert.True(t, called)

	err = h.Require([]string{"x"}, nil)
	assert.ErrorIs(t, err, ErrRequireOutsideConstruction)
}

func TestHandle_SealWithoutRequire(t *testing.T) {
	h := NewHandle("a", nil)
	_, ok := h.Module("anything")
	assert.False(t, ok)

	requires, cb, captured := h.Seal()
	assert.False(t, captured)
	assert.Nil(t, requires)
	assert.Nil(t, cb)
}
