// Package app wires the project-system components together.
//
// An App owns the process-wide services: configuration, the root logger,
// the telemetry service, the file system and the shared error list. Each
// opened project gets a Project composition root that builds the dimension
// providers and resolver, registers its components in a capability
// registry, and activates them checkpoint by checkpoint.
package app

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/projsys/internal/build"
	"github.com/dshills/projsys/internal/config"
	"github.com/dshills/projsys/internal/logging"
	"github.com/dshills/projsys/internal/project/vfs"
	"github.com/dshills/projsys/internal/telemetry"
)

// Options configures the application. Zero fields take defaults.
type Options struct {
	// Config is the configuration. Nil uses config.Default().
	Config *config.Config

	// Logger is the root logger. Nil builds one from Config.Logging.
	Logger hclog.Logger

	// Telemetry overrides the service selected by Config.Telemetry.
	Telemetry telemetry.Service

	// TracerProvider is used by the otel exporter. Nil uses the global one.
	TracerProvider trace.TracerProvider

	// FS is the file system projects read from. Nil uses the OS.
	FS vfs.FS
}

// App holds the services shared by every open project.
type App struct {
	cfg       config.Config
	logger    hclog.Logger
	telemetry telemetry.Service
	fs        vfs.FS
	errors    *build.ErrorList

	mu       sync.Mutex
	projects map[string]*Project
	loading  map[string]struct{}
	closed   bool
}

// New creates an application.
func New(opts Options) (*App, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.Config{
			Level: cfg.LogLevel(),
			Name:  "projsys",
			JSON:  cfg.Logging.JSON,
		})
	}

	svc := opts.Telemetry
	if svc == nil {
		svc = newTelemetry(cfg.Telemetry, logger, opts.TracerProvider)
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = vfs.NewOSFS()
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		telemetry: svc,
		fs:        fsys,
		errors:    build.NewErrorList(logging.WithComponent(logger, "errorlist")),
		projects:  make(map[string]*Project),
		loading:   make(map[string]struct{}),
	}, nil
}

// newTelemetry selects the telemetry service for the configured exporter.
func newTelemetry(cfg config.TelemetryConfig, logger hclog.Logger, tp trace.TracerProvider) telemetry.Service {
	switch cfg.Exporter {
	case config.ExporterLog:
		return telemetry.NewLogService(logging.WithComponent(logger, "telemetry"), cfg.HashSalt)
	case config.ExporterOTel:
		return telemetry.NewOTelService(tp, cfg.HashSalt)
	default:
		return telemetry.Nop{Hasher: telemetry.Hasher{Salt: cfg.HashSalt}}
	}
}

// Config returns the effective configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the root logger.
func (a *App) Logger() hclog.Logger { return a.logger }

// Telemetry returns the telemetry service.
func (a *App) Telemetry() telemetry.Service { return a.telemetry }

// FS returns the file system.
func (a *App) FS() vfs.FS { return a.fs }

// ErrorList returns the error list that project error tables join.
func (a *App) ErrorList() *build.ErrorList { return a.errors }

// Projects returns the open projects ordered by path.
func (a *App) Projects() []*Project {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Project, 0, len(a.projects))
	for _, p := range a.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// Project returns the open project for path. A project still loading is
// not reported.
func (a *App) Project(path string) (*Project, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.projects[path]
	return p, ok
}

// Open opens a project and activates its components.
func (a *App) Open(ctx context.Context, opts OpenOptions) (*Project, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	_, open := a.projects[opts.ProjectPath]
	_, loading := a.loading[opts.ProjectPath]
	if open || loading {
		a.mu.Unlock()
		return nil, NewComponentError("app", "open "+opts.ProjectPath, ErrProjectOpen)
	}
	a.loading[opts.ProjectPath] = struct{}{}
	a.mu.Unlock()

	p, err := openProject(ctx, a, opts)

	a.mu.Lock()
	delete(a.loading, opts.ProjectPath)
	if err != nil || a.closed {
		a.mu.Unlock()
		if err != nil {
			return nil, err
		}
		_ = p.Close(ctx)
		return nil, ErrClosed
	}
	a.projects[opts.ProjectPath] = p
	a.mu.Unlock()
	return p, nil
}

// forget drops a closed project.
func (a *App) forget(p *Project) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.projects[p.Path()] == p {
		delete(a.projects, p.Path())
	}
}

// Close closes every open project. Later calls return nil.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	open := make([]*Project, 0, len(a.projects))
	for _, p := range a.projects {
		open = append(open, p)
	}
	a.mu.Unlock()

	var result *multierror.Error
	for _, p := range open {
		if err := p.Close(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
