// Package logging provides subsystem-tagged structured logging for modapp,
// built on the standard slog package.
//
// Every entry carries a "subsystem" attribute naming the component that
// produced it (Orchestrator, Provider, Reconciler, ...), and error entries
// carry an "error" attribute.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatText, os.Stderr)
//
//	logging.Info("Orchestrator", "Module %s is ready", name)
//	logging.Debug("Provider", "Fetching class for %s", name)
//	logging.Warn("Reconciler", "Ignoring change to %s", path)
//	logging.Error("Orchestrator", err, "Continuation of %s failed", name)
//
// Init may be called again to switch level, handler format or writer; tests
// use this to capture output in a buffer.
package logging
