package app

import (
	"errors"
	"fmt"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/manifest"
	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/pkg/logging"
)

// ErrNoManifest is returned when no manifest path is configured.
var ErrNoManifest = errors.New("no module manifest given (use --manifest)")

// Services holds the components an application is built from.
type Services struct {
	// Bus carries lifecycle events of the orchestrator and the reconciler.
	Bus *events.Bus

	// Catalog serves the constructors described by the manifest.
	Catalog *manifest.Catalog

	// ModuleConfig is the configuration the orchestrator was started with.
	ModuleConfig config.ModuleConfig

	// Query holds the parsed parameter overrides.
	Query config.Query

	// Orchestrator owns every module record.
	Orchestrator *orchestrator.Orchestrator
}

// InitializeServices loads the manifest and the module configuration and
// builds an orchestrator on top of them.
func InitializeServices(cfg *Config) (*Services, error) {
	if cfg.ManifestPath == "" {
		return nil, ErrNoManifest
	}

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest %s: %w", cfg.ManifestPath, err)
	}
	logging.Info("Bootstrap", "Loaded manifest with %d modules from %s", len(m.Modules), cfg.ManifestPath)

	moduleConfig := config.ModuleConfig{}
	if cfg.ConfigPath != "" {
		moduleConfig, err = config.LoadModuleConfig(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	namespace := cfg.QueryNamespace
	if namespace == "" {
		namespace = config.DefaultQueryNamespace
	}
	query := config.ParseQuery(cfg.Query, namespace)
	if len(query) > 0 {
		logging.Debug("Bootstrap", "Applying query overrides for %d modules", len(query))
	}

	bus := events.NewBus()
	catalog := manifest.NewCatalog(m)

	orch := orchestrator.New(orchestrator.Config{
		ModuleConfig:          moduleConfig,
		Query:                 query,
		ClassFunc:             catalog.ClassFunc,
		Bus:                   bus,
		MaxConcurrentRequires: cfg.MaxConcurrentRequires,
	})

	return &Services{
		Bus:          bus,
		Catalog:      catalog,
		ModuleConfig: moduleConfig,
		Query:        query,
		Orchestrator: orch,
	}, nil
}
