package langservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/projsys/internal/project"
	"github.com/dshills/projsys/internal/property"
)

// MetadataReferenceKind classifies a metadata reference.
type MetadataReferenceKind int

// Reference kinds.
const (
	KindAssembly MetadataReferenceKind = iota
	KindModule
)

// String returns the kind name.
func (k MetadataReferenceKind) String() string {
	switch k {
	case KindAssembly:
		return "Assembly"
	case KindModule:
		return "Module"
	default:
		return fmt.Sprintf("MetadataReferenceKind(%d)", int(k))
	}
}

// ProjectContext is the language service's view of one project.
type ProjectContext interface {
	AddMetadataReference(path string, kind MetadataReferenceKind) error
	RemoveMetadataReference(path string) error
}

// Host is the language-service host of a project.
type Host interface {
	// Initialized is closed once the host can accept context mutations.
	Initialized() <-chan struct{}

	// ActiveProjectContext returns the context of the active configuration.
	ActiveProjectContext() ProjectContext
}

// ActiveConfiguredProject evaluates properties of the active configuration.
type ActiveConfiguredProject interface {
	GetEvaluatedPropertyValue(ctx context.Context, name string) (string, error)
}

// activeProject binds a property accessor to one project.
type activeProject struct {
	project  *project.Project
	accessor property.Accessor
}

// NewActiveProject returns an ActiveConfiguredProject reading p's
// properties through accessor.
func NewActiveProject(p *project.Project, accessor property.Accessor) ActiveConfiguredProject {
	return &activeProject{project: p, accessor: accessor}
}

func (a *activeProject) GetEvaluatedPropertyValue(ctx context.Context, name string) (string, error) {
	return a.accessor.GetEvaluatedPropertyValue(ctx, a.project, name)
}

// Errors returned by Context.
var (
	ErrReferenceExists   = errors.New("metadata reference already present")
	ErrReferenceNotFound = errors.New("metadata reference not found")
)

// Reference is a metadata reference held by a Context.
type Reference struct {
	Path string
	Kind MetadataReferenceKind
}

// Context is an in-memory ProjectContext. Paths compare case-insensitively.
type Context struct {
	mu   sync.Mutex
	refs []Reference
}

var _ ProjectContext = (*Context)(nil)

// AddMetadataReference implements ProjectContext.
func (c *Context) AddMetadataReference(path string, kind MetadataReferenceKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(path) >= 0 {
		return fmt.Errorf("%w: %s", ErrReferenceExists, path)
	}
	c.refs = append(c.refs, Reference{Path: path, Kind: kind})
	return nil
}

// RemoveMetadataReference implements ProjectContext.
func (c *Context) RemoveMetadataReference(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(path)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrReferenceNotFound, path)
	}
	c.refs = append(c.refs[:i], c.refs[i+1:]...)
	return nil
}

// References returns the references in insertion order.
func (c *Context) References() []Reference {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Reference, len(c.refs))
	copy(out, c.refs)
	return out
}

func (c *Context) indexOf(path string) int {
	for i, r := range c.refs {
		if strings.EqualFold(r.Path, path) {
			return i
		}
	}
	return -1
}

// Workspace is an in-memory Host with a single project context.
type Workspace struct {
	ctx       *Context
	ready     chan struct{}
	readyOnce sync.Once
}

var _ Host = (*Workspace)(nil)

// NewWorkspace creates an uninitialized workspace.
func NewWorkspace() *Workspace {
	return &Workspace{ctx: &Context{}, ready: make(chan struct{})}
}

// MarkInitialized signals that the workspace accepts mutations.
// Safe to call more than once.
func (w *Workspace) MarkInitialized() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// Initialized implements Host.
func (w *Workspace) Initialized() <-chan struct{} {
	return w.ready
}

// ActiveProjectContext implements Host.
func (w *Workspace) ActiveProjectContext() ProjectContext {
	return w.ctx
}

// Context returns the workspace's project context.
func (w *Workspace) Context() *Context {
	return w.ctx
}
