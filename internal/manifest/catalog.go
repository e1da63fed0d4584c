package manifest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/pkg/logging"
)

// ErrNotInManifest is returned by the class callback for undescribed modules.
var ErrNotInManifest = errors.New("module not described in manifest")

// Instance is the module a catalog constructor builds. It only records what
// happened to it.
type Instance struct {
	Name     string
	Requires []string
	Params   module.Params

	mu       sync.Mutex
	modules  map[string]any
	disposed bool
}

// Dispose marks the instance disposed.
func (i *Instance) Dispose() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.disposed = true
}

// Disposed reports whether Dispose was called.
func (i *Instance) Disposed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposed
}

// Modules returns the names of the modules handed to the require callback,
// sorted. It is nil until the callback ran.
func (i *Instance) Modules() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.modules == nil {
		return nil
	}
	names := make([]string, 0, len(i.modules))
	for name := range i.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (i *Instance) String() string {
	return i.Name
}

// Catalog turns a manifest into constructors and a class callback.
type Catalog struct {
	manifest *Manifest

	mu          sync.Mutex
	constructed map[string]int
	instances   map[string]*Instance
	fetches     map[string]int
}

// NewCatalog creates a catalog for m.
func NewCatalog(m *Manifest) *Catalog {
	return &Catalog{
		manifest:    m,
		constructed: make(map[string]int),
		instances:   make(map[string]*Instance),
		fetches:     make(map[string]int),
	}
}

// Manifest returns the manifest the catalog was built from.
func (c *Catalog) Manifest() *Manifest {
	return c.manifest
}

// Bundle returns the constructors of the bundle entries that are registered
// up front.
func (c *Catalog) Bundle() map[string]module.Constructor {
	bundle := make(map[string]module.Constructor)
	for _, name := range c.manifest.Bundle {
		if c.manifest.Modules[name].Provided {
			continue
		}
		bundle[name] = c.Constructor(name)
	}
	return bundle
}

// Explicit returns the bundle entries that are loaded by name only, sorted.
func (c *Catalog) Explicit() []string {
	var names []string
	for _, name := range c.manifest.Bundle {
		if c.manifest.Modules[name].Provided {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Constructor returns the constructor for a described module.
func (c *Catalog) Constructor(name string) module.Constructor {
	spec := c.manifest.Modules[name]

	return func(h *module.Handle, params module.Params) (any, error) {
		c.mu.Lock()
		c.constructed[name]++
		c.mu.Unlock()

		if spec.ConstructorError != "" {
			return nil, errors.New(spec.ConstructorError)
		}

		inst := &Instance{Name: name, Requires: spec.Requires, Params: params}
		c.mu.Lock()
		c.instances[name] = inst
		c.mu.Unlock()

		requires := spec.Requires
		if requires == nil && spec.ContinuationError == "" {
			return inst, nil
		}
		if requires == nil {
			requires = []string{}
		}

		err := h.Require(requires, func(modules map[string]any) error {
			inst.mu.Lock()
			inst.modules = modules
			inst.mu.Unlock()
			if spec.ContinuationError != "" {
				return errors.New(spec.ContinuationError)
			}
			return nil
		})
		return inst, err
	}
}

// ClassFunc serves the class of every described module, honouring the
// fetch delay and fetch error of its spec.
func (c *Catalog) ClassFunc(ctx context.Context, name string) (module.Constructor, error) {
	c.mu.Lock()
	c.fetches[name]++
	c.mu.Unlock()

	spec, ok := c.manifest.Modules[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotInManifest)
	}

	if spec.FetchDelay.Duration > 0 {
		logging.Debug("Manifest", "Delaying class of %s by %s", name, spec.FetchDelay.Duration)
		timer := time.NewTimer(spec.FetchDelay.Duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if spec.FetchError != "" {
		return nil, errors.New(spec.FetchError)
	}
	return c.Constructor(name), nil
}

// Constructed returns how often the constructor of name ran.
func (c *Catalog) Constructed(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.constructed[name]
}

// Fetches returns how often the class callback was asked for name.
func (c *Catalog) Fetches(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches[name]
}

// Instance returns the most recently constructed instance of name.
func (c *Catalog) Instance(name string) (*Instance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.instances[name]
	return inst, ok
}
