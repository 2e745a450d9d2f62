package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/navvy-ai/navvy/logging"
)

// Registry maps capability names to implementations. Registration happens
// once at setup time, before any run is processed; reads during a run are
// lock-protected but effectively read-only.
type Registry struct {
	mu     sync.RWMutex
	caps   map[string]Capability
	logger logging.Logger
}

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		caps:   map[string]Capability{},
		logger: opts.Logger,
	}
}

// Register adds a capability, rejecting empty and duplicate names.
func (r *Registry) Register(c Capability) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("capability must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.caps[c.Name()]; exists {
		return fmt.Errorf("capability %q already registered", c.Name())
	}

	r.caps[c.Name()] = c
	r.logger.Debug("capability.registered", "name", c.Name())
	return nil
}

// Get returns the capability for name and whether it exists.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[name]
	return c, ok
}

// Lookup returns the capability for name or ErrNotRegistered.
func (r *Registry) Lookup(name string) (Capability, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return c, nil
}

// Names returns all registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered capabilities ordered by name.
func (r *Registry) All() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]Capability, 0, len(r.caps))
	for _, c := range r.caps {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name() < caps[j].Name() })
	return caps
}

// MarkupSpecs returns the markup calling forms of every capability that
// declares one, ordered by tag.
func (r *Registry) MarkupSpecs() []*MarkupSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*MarkupSpec, 0, len(r.caps))
	for _, c := range r.caps {
		if spec := c.Markup(); spec != nil {
			specs = append(specs, spec)
		}
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Tag < specs[j].Tag })
	return specs
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.caps)
}
