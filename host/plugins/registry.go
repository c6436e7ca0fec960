package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/edigermatthew/wonder-alt/host/config"
	logpkg "github.com/edigermatthew/wonder-alt/host/logger"
	"github.com/edigermatthew/wonder-alt/host/media"
)

// Deps are the host components handed to a plugin factory.
type Deps struct {
	Config   *config.Config
	Logger   *logpkg.Logger
	Media    *media.Service
	Recorder alttext.Recorder
}

// Contribution describes what a plugin attached to the host.
type Contribution struct {
	Hooks []string
}

// Factory creates a plugin contribution from host dependencies.
type Factory func(deps Deps) (*Contribution, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers a plugin factory by name.
func Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("plugin name required")
	}
	if factory == nil {
		return fmt.Errorf("plugin factory required")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	factories[name] = factory
	return nil
}

// Get returns a registered factory by name.
func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := factories[name]
	return factory, ok
}

// Names returns all registered plugin names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	nameList := make([]string, 0, len(factories))
	for name := range factories {
		nameList = append(nameList, name)
	}
	sort.Strings(nameList)
	return nameList
}
