package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/jirenius/modapp/internal/formatting"
	"github.com/jirenius/modapp/internal/reconciler"
	"github.com/jirenius/modapp/internal/shell"
	"github.com/jirenius/modapp/pkg/logging"
)

// ErrNoConfigPath is returned by RunWatch when there is no file to watch.
var ErrNoConfigPath = errors.New("no module configuration file to watch (use --config)")

// sdNotify is swapped in tests.
var sdNotify = daemon.SdNotify

// RunShell starts the interactive shell on the application's orchestrator
// and returns when the user leaves it.
func (a *Application) RunShell(ctx context.Context, formatter formatting.Formatter) error {
	s := shell.New(shell.Config{
		Target:    a.services.Orchestrator,
		Formatter: formatter,
		Bus:       a.services.Bus,
	})
	return s.Run(ctx)
}

// RunWatch keeps the loaded modules in line with the configuration file
// until ctx is done or the process receives SIGINT or SIGTERM. Every
// reconciliation report is handed to onReport.
//
// When started by systemd with Type=notify, readiness is reported once the
// watcher runs and stopping is reported on shutdown.
func (a *Application) RunWatch(ctx context.Context, onReport func(reconciler.Report)) error {
	if a.config.ConfigPath == "" {
		return ErrNoConfigPath
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := reconciler.New(reconciler.Config{
		Path:        a.config.ConfigPath,
		Target:      a.services.Orchestrator,
		Initial:     a.services.ModuleConfig,
		Bus:         a.services.Bus,
		OnReconcile: onReport,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(ctx)
	}()

	notifySystemd(daemon.SdNotifyReady)
	logging.Info("Watch", "Watching %s. Press Ctrl+C to stop.", r.Path())

	err := <-errCh
	notifySystemd(daemon.SdNotifyStopping)

	summary := r.Metrics().Summary()
	logging.Info("Watch", "Stopped watching after %d reloads (%d failed)", summary.Reloads, summary.ReloadFailures)
	return err
}

func notifySystemd(state string) {
	sent, err := sdNotify(false, state)
	if err != nil {
		logging.Warn("Watch", "Failed to notify systemd (%s): %v", state, err)
		return
	}
	if sent {
		logging.Debug("Watch", "Notified systemd: %s", state)
	}
}
