package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/pkg/logging"
)

// Application represents the main application structure that bootstraps
// the module orchestrator from a manifest and a configuration file.
//
// Example usage:
//
//	cfg := app.NewConfig(false, "modules.yaml", "app.yaml", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	defer application.Shutdown()
//	res, err := application.Load(ctx, nil)
type Application struct {
	config   *Config
	services *Services

	mu           sync.Mutex
	bundleLoaded bool
}

// NewApplication configures logging and initializes every service.
func NewApplication(cfg *Config) (*Application, error) {
	initLogging(cfg)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

func initLogging(cfg *Config) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}

	var output io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		output = cfg.LogOutput
	}
	if cfg.Silent {
		output = io.Discard
	}

	format := logging.FormatText
	if cfg.LogFormat == string(logging.FormatJSON) {
		format = logging.FormatJSON
	}
	logging.Init(level, format, output)
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Orchestrator returns the application's orchestrator.
func (a *Application) Orchestrator() *orchestrator.Orchestrator {
	return a.services.Orchestrator
}

// Load loads the named modules. Without names it loads the manifest bundle:
// its constructors are registered and loaded, and provided bundle entries
// are loaded through the class callback. The bundle is registered once per
// application; later calls only load it again.
func (a *Application) Load(ctx context.Context, names []string) (orchestrator.Result, error) {
	orch := a.services.Orchestrator
	if len(names) > 0 {
		return orch.LoadModules(ctx, names), nil
	}

	catalog := a.services.Catalog

	a.mu.Lock()
	register := !a.bundleLoaded
	a.bundleLoaded = true
	a.mu.Unlock()

	if !register {
		return orch.LoadModules(ctx, catalog.Manifest().Bundle), nil
	}

	res, err := orch.LoadBundle(ctx, catalog.Bundle())
	if err != nil {
		return orchestrator.Result{}, err
	}

	if explicit := catalog.Explicit(); len(explicit) > 0 {
		res = mergeResults(res, orch.LoadModules(ctx, explicit))
	}
	return res, nil
}

func mergeResults(a, b orchestrator.Result) orchestrator.Result {
	out := orchestrator.Result{Modules: make(map[string]any)}
	for _, r := range []orchestrator.Result{a, b} {
		for name, inst := range r.Modules {
			out.Modules[name] = inst
		}
		for name, err := range r.Errors {
			if out.Errors == nil {
				out.Errors = make(map[string]error)
			}
			out.Errors[name] = err
		}
	}
	return out
}

// Shutdown waits for pending require callback failures to be reported and
// closes the event bus.
func (a *Application) Shutdown() {
	a.services.Orchestrator.WaitDeferred()
	a.services.Bus.Close()
}
