package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrComponentExists is returned when a component name is registered twice.
var ErrComponentExists = errors.New("component already registered")

// Checkpoint is a stage of project load, in the order they are reached.
type Checkpoint int

// Load checkpoints.
const (
	// ProjectInitialCapabilitiesEstablished - the capability set is known.
	ProjectInitialCapabilitiesEstablished Checkpoint = iota

	// ProjectFactoryCompleted - the project object has been created.
	ProjectFactoryCompleted

	// AfterLoadInitialConfiguration - the initial active configuration is loaded.
	AfterLoadInitialConfiguration
)

// Checkpoints lists every checkpoint in load order.
var Checkpoints = []Checkpoint{
	ProjectInitialCapabilitiesEstablished,
	ProjectFactoryCompleted,
	AfterLoadInitialConfiguration,
}

// String returns a human-readable checkpoint name.
func (c Checkpoint) String() string {
	switch c {
	case ProjectInitialCapabilitiesEstablished:
		return "ProjectInitialCapabilitiesEstablished"
	case ProjectFactoryCompleted:
		return "ProjectFactoryCompleted"
	case AfterLoadInitialConfiguration:
		return "AfterLoadInitialConfiguration"
	default:
		return fmt.Sprintf("Checkpoint(%d)", int(c))
	}
}

// LoadFunc starts a component.
type LoadFunc func(ctx context.Context) error

// Component is one registry entry.
type Component struct {
	// Name identifies the component in logs and errors.
	Name string

	// AppliesTo is the applicability expression, e.g. "CSharp | VisualBasic".
	// Empty applies to every project.
	AppliesTo string

	// StartAfter is the checkpoint at which the component activates.
	StartAfter Checkpoint

	// Load starts the component. May be nil for components that only need
	// to be reported as active.
	Load LoadFunc

	predicate Predicate
}

// Matches reports whether the component applies to caps.
func (c Component) Matches(caps Set) bool {
	if c.predicate == nil {
		return true
	}
	return c.predicate(caps)
}

// Registry is the table of (applicability, checkpoint) -> component.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	names      map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register adds a component. The AppliesTo expression is compiled here so a
// malformed expression fails at registration, not at load.
func (r *Registry) Register(c Component) error {
	pred, err := ParseExpression(c.AppliesTo)
	if err != nil {
		return fmt.Errorf("register %s: %w", c.Name, err)
	}
	c.predicate = pred

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[c.Name] {
		return fmt.Errorf("%w: %s", ErrComponentExists, c.Name)
	}
	r.names[c.Name] = true
	r.components = append(r.components, c)
	return nil
}

// Activate returns, in registration order, the components that apply to caps
// and start at checkpoint cp.
func (r *Registry) Activate(caps Set, cp Checkpoint) []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Component
	for _, c := range r.components {
		if c.StartAfter == cp && c.Matches(caps) {
			out = append(out, c)
		}
	}
	return out
}

// Applicable returns every component that applies to caps, at any checkpoint.
func (r *Registry) Applicable(caps Set) []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Component
	for _, c := range r.components {
		if c.Matches(caps) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}
