// Package reconciler keeps a running orchestrator in line with its module
// configuration file.
//
// A FileDetector watches the file through fsnotify and debounces bursts of
// writes into a single ChangeEvent. For every change the Reconciler reloads
// the file, hands the new configuration to the orchestrator and compares the
// effective active flag of every module before and after:
//
//   - a module that turned inactive is deactivated, which blocks its
//     dependants
//   - a deactivated module that turned active is activated, which reloads
//     the dependants it had blocked
//
// Modules that have not been loaded yet pick up the new configuration on
// their first load. A file that fails to parse leaves everything as it was.
//
//	r := reconciler.New(reconciler.Config{
//	    Path:    path,
//	    Target:  orch,
//	    Initial: cfg,
//	    Bus:     bus,
//	})
//	err := r.Run(ctx)
package reconciler
