package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/pkg/logging"

	"golang.org/x/sync/singleflight"
)

// ClassFunc fetches the constructor for a module that was not registered up
// front, for instance by loading it from a catalog or a plugin directory.
type ClassFunc func(ctx context.Context, name string) (module.Constructor, error)

// Provider resolves module names to constructors. Registered and fetched
// constructors are cached for the lifetime of the provider.
type Provider struct {
	fetch ClassFunc

	mu      sync.RWMutex
	classes map[string]module.Constructor

	// singleflight group to deduplicate concurrent fetches of the same class
	fetchGroup singleflight.Group
}

// New creates a provider. fetch may be nil, in which case only registered
// classes resolve.
func New(fetch ClassFunc) *Provider {
	return &Provider{
		fetch:   fetch,
		classes: make(map[string]module.Constructor),
	}
}

// Register adds a constructor for name. Registering a name that already has
// a class fails with module.ErrClassRegistered.
func (p *Provider) Register(name string, ctor module.Constructor) error {
	if ctor == nil {
		return fmt.Errorf("register %s: nil constructor", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.classes[name]; exists {
		return fmt.Errorf("register %s: %w", name, module.ErrClassRegistered)
	}
	p.classes[name] = ctor
	logging.Debug("Provider", "Registered class %s", name)
	return nil
}

// Has reports whether a class for name is cached.
func (p *Provider) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.classes[name]
	return ok
}

// Names returns the sorted names of all cached classes.
func (p *Provider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.classes))
	for name := range p.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Class returns the constructor for name, fetching and caching it when it is
// not yet known.
func (p *Provider) Class(ctx context.Context, name string) (module.Constructor, error) {
	p.mu.RLock()
	ctor, ok := p.classes[name]
	p.mu.RUnlock()
	if ok {
		return ctor, nil
	}

	if p.fetch == nil {
		return nil, module.ErrNoClassProvider
	}

	result, err, shared := p.fetchGroup.Do(name, func() (interface{}, error) {
		// Double-check cache after acquiring the singleflight slot
		p.mu.RLock()
		ctor, ok := p.classes[name]
		p.mu.RUnlock()
		if ok {
			return ctor, nil
		}

		logging.Debug("Provider", "Fetching class for %s", name)
		ctor, err := p.doFetch(ctx, name)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		if existing, ok := p.classes[name]; ok {
			ctor = existing
		} else {
			p.classes[name] = ctor
		}
		p.mu.Unlock()
		return ctor, nil
	})
	if err != nil {
		logging.Debug("Provider", "Fetching class for %s failed: %v", name, err)
		return nil, err
	}
	if shared {
		logging.Debug("Provider", "Shared class fetch for %s", name)
	}

	return result.(module.Constructor), nil
}

func (p *Provider) doFetch(ctx context.Context, name string) (ctor module.Constructor, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctor, err = nil, fmt.Errorf("class callback panicked: %v", r)
		}
	}()

	ctor, err = p.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if ctor == nil {
		return nil, fmt.Errorf("class callback returned no constructor for %s", name)
	}
	return ctor, nil
}
