package langservice

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/projsys/internal/lifecycle"
	"github.com/dshills/projsys/internal/logging"
	"github.com/dshills/projsys/internal/project/vfs"
	"github.com/dshills/projsys/internal/property"
	"github.com/dshills/projsys/internal/requires"
)

// Default runtime assemblies, added in this order.
const (
	MscorlibAssembly    = "mscorlib.dll"
	VisualBasicAssembly = "Microsoft.VisualBasic.dll"
)

// DefaultRuntimeAssemblies lists the assemblies RuntimeReferences probes by
// default.
var DefaultRuntimeAssemblies = []string{MscorlibAssembly, VisualBasicAssembly}

// RuntimeOption configures RuntimeReferences.
type RuntimeOption func(*RuntimeReferences)

// WithAssemblies replaces the probed assembly file names.
func WithAssemblies(names ...string) RuntimeOption {
	return func(r *RuntimeReferences) {
		if len(names) > 0 {
			r.assemblies = append([]string(nil), names...)
		}
	}
}

// WithPathProperty sets the property holding the framework directory.
// Defaults to FrameworkPathOverride.
func WithPathProperty(name string) RuntimeOption {
	return func(r *RuntimeReferences) {
		if name != "" {
			r.pathProperty = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) RuntimeOption {
	return func(r *RuntimeReferences) {
		r.logger = logging.OrNull(l)
	}
}

// RuntimeReferences adds the framework runtime assemblies to the active
// project context of projects that set a framework path override. Projects
// without one are left untouched.
//
// Load performs the work at most once.
type RuntimeReferences struct {
	active       ActiveConfiguredProject
	host         Host
	fs           vfs.FS
	assemblies   []string
	pathProperty string
	logger       hclog.Logger

	once *lifecycle.Once
}

// NewRuntimeReferences creates the synchronizer. All arguments are required.
func NewRuntimeReferences(active ActiveConfiguredProject, host Host, fs vfs.FS, opts ...RuntimeOption) (*RuntimeReferences, error) {
	if err := requires.NotNilAll(active, "active", host, "host", fs, "fs"); err != nil {
		return nil, err
	}
	r := &RuntimeReferences{
		active:       active,
		host:         host,
		fs:           fs,
		assemblies:   DefaultRuntimeAssemblies,
		pathProperty: property.FrameworkPathOverride,
		logger:       hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.once = lifecycle.New(r.initialize, nil)
	return r, nil
}

// Load runs the one-time initialization. Later calls return the outcome of
// the first.
func (r *RuntimeReferences) Load(ctx context.Context) error {
	return r.once.Initialize(ctx)
}

// State returns the lifecycle state.
func (r *RuntimeReferences) State() lifecycle.State {
	return r.once.State()
}

// Close disposes the synchronizer. It holds no resources.
func (r *RuntimeReferences) Close(ctx context.Context) error {
	return r.once.Dispose(ctx)
}

func (r *RuntimeReferences) initialize(ctx context.Context) error {
	sdkPath, err := r.active.GetEvaluatedPropertyValue(ctx, r.pathProperty)
	if err != nil {
		return fmt.Errorf("read %s: %w", r.pathProperty, err)
	}
	// Only framework projects set the override.
	if sdkPath == "" {
		r.logger.Trace("no framework path override, skipping runtime references")
		return nil
	}

	for _, name := range r.assemblies {
		if err := r.addReference(ctx, CombinePath(sdkPath, name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RuntimeReferences) addReference(ctx context.Context, path string) error {
	exists, err := r.fs.FileExists(path)
	if err != nil {
		return fmt.Errorf("probe %s: %w", path, err)
	}
	if !exists {
		r.logger.Debug("runtime assembly not found", "path", path)
		return nil
	}

	select {
	case <-r.host.Initialized():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := r.host.ActiveProjectContext().AddMetadataReference(path, KindAssembly); err != nil {
		return fmt.Errorf("add reference %s: %w", path, err)
	}
	r.logger.Debug("added runtime reference", "path", path)
	return nil
}
