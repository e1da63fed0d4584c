// Package orchestrator is the module resolution and lifecycle engine of
// modapp.
//
// The orchestrator turns requested module names into running instances. It
// fetches constructors through the provider, constructs modules with their
// merged parameters, resolves the requirements each constructor declares,
// detects circular requirements, and propagates failures to the modules that
// depend on them.
//
// # Loading
//
//	o := orchestrator.New(orchestrator.Config{
//	    ModuleConfig: cfg,
//	    ClassFunc:    catalog.ClassFunc,
//	    Bus:          bus,
//	})
//
//	result, err := o.LoadBundle(ctx, map[string]module.Constructor{
//	    "login": newLogin,
//	})
//
// Loading never fails because of a module. The result holds an instance or
// an error for every requested name; the error types in package module
// explain why a module did not load.
//
// # Requirements
//
// A constructor declares its requirements through the handle it receives:
//
//	func newLogin(h *module.Handle, params module.Params) (any, error) {
//	    l := &Login{}
//	    err := h.Require([]string{"api", "screen"}, func(m map[string]any) error {
//	        return l.init(m["api"].(*API), m["screen"].(*Screen))
//	    })
//	    return l, err
//	}
//
// Requirements resolve concurrently. If any of them fails the module is
// blocked and the requirements that did load are released again unless they
// were requested explicitly or still have another active dependant.
//
// # Deactivation
//
// Deactivate disposes a module and blocks everything depending on it.
// Activate reloads it and ripples the reload out to the modules that were
// blocked by it.
//
// # Concurrency
//
// Every record has at most one resolution attempt in flight; concurrent
// requests for a module wait for the same attempt. State changes happen
// under a single lock, while constructors, require callbacks, class fetches
// and disposal hooks run outside of it.
package orchestrator
