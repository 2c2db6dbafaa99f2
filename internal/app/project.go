package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/projsys/internal/build"
	"github.com/dshills/projsys/internal/capability"
	"github.com/dshills/projsys/internal/config"
	"github.com/dshills/projsys/internal/dimension"
	"github.com/dshills/projsys/internal/langservice"
	"github.com/dshills/projsys/internal/logging"
	"github.com/dshills/projsys/internal/project"
	"github.com/dshills/projsys/internal/project/watcher"
	"github.com/dshills/projsys/internal/property"
)

// Component names registered for every project.
const (
	ComponentDimensions        = "dimension-providers"
	ComponentBuildLogger       = "design-time-build-logger"
	ComponentRuntimeReferences = "runtime-references"
	ComponentLanguageService   = "language-service-host"
	ComponentSnapshotWatcher   = "snapshot-watcher"
)

// SnapshotSuffix is appended to the project file name, without extension,
// to find its property snapshot.
const SnapshotSuffix = ".props.json"

// DefaultSnapshotPath returns the snapshot path used when none is given,
// e.g. /src/App/App.csproj -> /src/App/App.props.json.
func DefaultSnapshotPath(projectPath string) string {
	return strings.TrimSuffix(projectPath, filepath.Ext(projectPath)) + SnapshotSuffix
}

// OpenOptions describes a project to open.
type OpenOptions struct {
	// ProjectPath is the project file. Required.
	ProjectPath string

	// SnapshotPath is the evaluated-property snapshot. Empty uses
	// DefaultSnapshotPath.
	SnapshotPath string

	// Capabilities is the project's capability set.
	Capabilities capability.Set

	// ProjectGUID identifies the project in its error table.
	ProjectGUID uuid.UUID

	// Hierarchy is the host's project node, passed through to the error table.
	Hierarchy any

	// OnReload, when set, is called after each watcher-triggered reload.
	OnReload func(events []dimension.ChangeEvent, err error)
}

// Project is one open project and its components.
type Project struct {
	app          *App
	project      *project.Project
	snapshotPath string
	logger       hclog.Logger
	onReload     func([]dimension.ChangeEvent, error)

	store     *property.Store
	providers []*dimension.Provider
	resolver  *dimension.Resolver
	registry  *capability.Registry
	workspace *langservice.Workspace

	buildLog *build.LoggerProvider
	runtime  *langservice.RuntimeReferences
	watch    watcher.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	loads  errgroup.Group
	bg     sync.WaitGroup

	metrics Metrics

	mu     sync.Mutex
	active []string
	dims   []dimension.Dimension

	closeOnce sync.Once
	closeErr  error
}

func openProject(ctx context.Context, a *App, opts OpenOptions) (*Project, error) {
	prj, err := project.New(opts.ProjectPath, opts.Capabilities)
	if err != nil {
		return nil, NewComponentError("project", "open", err)
	}

	snapshot := opts.SnapshotPath
	if snapshot == "" {
		snapshot = DefaultSnapshotPath(opts.ProjectPath)
	}

	p := &Project{
		app:          a,
		project:      prj,
		snapshotPath: snapshot,
		logger:       logging.WithComponent(a.logger, "project").With("project", prj.Name()),
		store:        property.NewStore(),
		registry:     capability.NewRegistry(),
		workspace:    langservice.NewWorkspace(),
		onReload:     opts.OnReload,
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	if err := p.store.Load(a.fs, prj.Path(), snapshot); err != nil {
		p.cancel()
		return nil, NewComponentError("properties", "load", err)
	}

	if err := p.buildDimensions(a.cfg); err != nil {
		p.cancel()
		return nil, err
	}

	if err := p.registerComponents(opts); err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	for _, cp := range capability.Checkpoints {
		if err := p.advance(ctx, cp); err != nil {
			_ = p.Close(ctx)
			return nil, err
		}
	}

	dims, err := p.resolver.Dimensions(ctx, prj)
	if err != nil {
		_ = p.Close(ctx)
		return nil, NewComponentError(ComponentDimensions, "resolve", err)
	}
	p.dims = dims

	p.logger.Info("project opened", "capabilities", prj.Capabilities().String(), "components", len(p.active))
	return p, nil
}

// buildDimensions creates the built-in and configured providers and the
// resolver over them.
func (p *Project) buildDimensions(cfg config.Config) error {
	opts := []dimension.Option{
		dimension.WithTelemetry(p.app.telemetry),
		dimension.WithLogger(logging.WithComponent(p.logger, "dimension")),
	}

	builtins := []func() (*dimension.Provider, error){
		func() (*dimension.Provider, error) {
			return dimension.NewConfigurationProvider(p.project, p.store, opts...)
		},
		func() (*dimension.Provider, error) {
			return dimension.NewPlatformProvider(p.project, p.store, opts...)
		},
		func() (*dimension.Provider, error) {
			return dimension.NewTargetFrameworkProvider(p.project, p.store, opts...)
		},
	}
	for _, newProvider := range builtins {
		dp, err := newProvider()
		if err != nil {
			return NewComponentError(ComponentDimensions, "create", err)
		}
		p.providers = append(p.providers, dp)
	}

	for _, d := range cfg.Dimensions {
		dcfg := dimension.Config{
			Name:                       d.Name,
			PropertyName:               d.Property,
			ValueContainsSensitiveData: d.Sensitive,
		}
		var (
			dp  *dimension.Provider
			err error
		)
		if d.Editable {
			dp, err = dimension.NewEditableProvider(dcfg, p.project, p.store, opts...)
		} else {
			dp, err = dimension.NewProvider(dcfg, p.project, p.store, opts...)
		}
		if err != nil {
			return NewComponentError(ComponentDimensions, "create "+d.Name, err)
		}
		p.providers = append(p.providers, dp)
	}

	dps := make([]dimension.DimensionProvider, len(p.providers))
	for i, dp := range p.providers {
		dps[i] = dp
	}
	resolver, err := dimension.NewResolver(dps...)
	if err != nil {
		return NewComponentError(ComponentDimensions, "create", err)
	}
	p.resolver = resolver
	return nil
}

// registerComponents fills the project's registry. Components only load
// for projects whose capabilities match.
func (p *Project) registerComponents(opts OpenOptions) error {
	cfg := p.app.cfg
	components := []capability.Component{
		{
			Name:       ComponentDimensions,
			StartAfter: capability.ProjectInitialCapabilitiesEstablished,
			Load:       p.initializeProviders,
		},
		{
			Name:       ComponentBuildLogger,
			AppliesTo:  capability.CSharpOrVisualBasic,
			StartAfter: capability.ProjectFactoryCompleted,
			Load: func(context.Context) error {
				lp, err := build.NewLoggerProvider(p.project,
					build.WithProjectGUID(opts.ProjectGUID),
					build.WithHierarchy(opts.Hierarchy),
					build.WithTableManagerProvider(p.app.errors),
					build.WithTableID(cfg.Build.TableID),
					build.WithLogger(logging.WithComponent(p.logger, "build")),
				)
				if err != nil {
					return err
				}
				p.buildLog = lp
				return nil
			},
		},
		{
			Name:       ComponentRuntimeReferences,
			AppliesTo:  capability.VisualBasic,
			StartAfter: capability.ProjectFactoryCompleted,
			Load:       func(context.Context) error { return p.startRuntimeReferences(cfg.RuntimeReferences) },
		},
		{
			Name:       ComponentLanguageService,
			AppliesTo:  capability.CSharpOrVisualBasic,
			StartAfter: capability.AfterLoadInitialConfiguration,
			Load: func(context.Context) error {
				p.workspace.MarkInitialized()
				return nil
			},
		},
	}
	if cfg.Watch.Enabled {
		components = append(components, capability.Component{
			Name:       ComponentSnapshotWatcher,
			StartAfter: capability.AfterLoadInitialConfiguration,
			Load:       func(context.Context) error { return p.startWatcher(cfg.Watch) },
		})
	}

	for _, c := range components {
		if err := p.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// advance loads the components that start at cp.
func (p *Project) advance(ctx context.Context, cp capability.Checkpoint) error {
	for _, c := range p.registry.Activate(p.project.Capabilities(), cp) {
		if err := loadComponent(ctx, c); err != nil {
			p.logger.Error("component failed to load", "component", c.Name, "checkpoint", cp, "error", err)
			return NewComponentError(c.Name, "load", err)
		}
		p.logger.Debug("component loaded", "component", c.Name, "checkpoint", cp)

		p.mu.Lock()
		p.active = append(p.active, c.Name)
		p.mu.Unlock()
	}
	return nil
}

// loadComponent runs c.Load, turning a panic into an error.
func loadComponent(ctx context.Context, c capability.Component) (err error) {
	if c.Load == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return c.Load(ctx)
}

func (p *Project) initializeProviders(ctx context.Context) error {
	var g errgroup.Group
	for _, dp := range p.providers {
		g.Go(func() error { return dp.Initialize(ctx) })
	}
	return g.Wait()
}

// startRuntimeReferences starts the synchronizer in the background; it
// waits for the language service host, which initializes at a later
// checkpoint.
func (p *Project) startRuntimeReferences(cfg config.RuntimeReferencesConfig) error {
	rr, err := langservice.NewRuntimeReferences(
		langservice.NewActiveProject(p.project, p.store),
		p.workspace,
		p.app.fs,
		langservice.WithPathProperty(cfg.Property),
		langservice.WithAssemblies(cfg.Assemblies...),
		langservice.WithLogger(logging.WithComponent(p.logger, "langservice")),
	)
	if err != nil {
		return err
	}
	p.runtime = rr
	p.loads.Go(func() error { return rr.Load(p.ctx) })
	return nil
}

func (p *Project) startWatcher(cfg config.WatchConfig) error {
	fsw, err := watcher.NewFSNotifyWatcher(watcher.WithLogger(logging.WithComponent(p.logger, "watcher")))
	if err != nil {
		return err
	}
	dw := watcher.NewDebouncedWatcher(fsw, cfg.Debounce.Std())
	if err := dw.Watch(p.snapshotPath); err != nil {
		_ = dw.Close()
		return fmt.Errorf("watch %s: %w", p.snapshotPath, err)
	}
	p.watch = dw

	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		watcher.Run(p.ctx, dw, p.onSnapshotEvent, func(err error) {
			p.logger.Warn("snapshot watch error", "error", err)
		})
	}()
	return nil
}

func (p *Project) onSnapshotEvent(evt watcher.Event) {
	if !evt.Op.Changed() {
		return
	}
	events, err := p.Reload(p.ctx)
	switch {
	case errors.Is(err, ErrSnapshotMissing):
		p.logger.Debug("snapshot removed, keeping last properties", "path", evt.Path)
	case err != nil:
		p.logger.Warn("snapshot reload failed", "path", evt.Path, "op", evt.Op, "error", err)
	default:
		p.logger.Debug("snapshot reloaded", "path", evt.Path, "changes", len(events))
	}
	if p.onReload != nil {
		p.onReload(events, err)
	}
}

// Reload re-reads the property snapshot and reports the dimension changes
// to their providers as after-change events. The events are returned in the
// order they were delivered. Provider failures do not stop delivery and are
// returned combined.
func (p *Project) Reload(ctx context.Context) ([]dimension.ChangeEvent, error) {
	timer := StartTimer()

	exists, err := p.app.fs.FileExists(p.snapshotPath)
	if err == nil && !exists {
		err = ErrSnapshotMissing
	}
	if err == nil {
		err = p.store.Load(p.app.fs, p.project.Path(), p.snapshotPath)
	}
	if err != nil {
		p.metrics.RecordReloadError()
		return nil, NewComponentError("properties", "reload", err)
	}

	after, err := p.resolver.Dimensions(ctx, p.project)
	if err != nil {
		p.metrics.RecordReloadError()
		return nil, NewComponentError(ComponentDimensions, "resolve", err)
	}

	p.mu.Lock()
	before := p.dims
	p.dims = after
	p.mu.Unlock()

	events := dimension.Diff(p.project, before, after)
	var result *multierror.Error
	for _, evt := range events {
		if err := p.resolver.NotifyChange(ctx, evt); err != nil {
			p.metrics.RecordNotifyError()
			result = multierror.Append(result, err)
		}
	}
	p.metrics.RecordReload(timer.Elapsed(), len(events))
	return events, result.ErrorOrNil()
}

// App returns the application the project belongs to.
func (p *Project) App() *App { return p.app }

// Path returns the project file path.
func (p *Project) Path() string { return p.project.Path() }

// SnapshotPath returns the property snapshot path.
func (p *Project) SnapshotPath() string { return p.snapshotPath }

// Project returns the unconfigured project.
func (p *Project) Project() *project.Project { return p.project }

// Store returns the evaluated-property store.
func (p *Project) Store() *property.Store { return p.store }

// Resolver returns the configuration resolver.
func (p *Project) Resolver() *dimension.Resolver { return p.resolver }

// Registry returns the project's component registry.
func (p *Project) Registry() *capability.Registry { return p.registry }

// Workspace returns the language service host of the project.
func (p *Project) Workspace() *langservice.Workspace { return p.workspace }

// BuildLoggers returns the design-time build logger provider, or nil when
// the project is not C# or Visual Basic.
func (p *Project) BuildLoggers() *build.LoggerProvider { return p.buildLog }

// RuntimeReferences returns the runtime reference synchronizer, or nil when
// the project is not Visual Basic.
func (p *Project) RuntimeReferences() *langservice.RuntimeReferences { return p.runtime }

// Metrics returns the reload counters.
func (p *Project) Metrics() MetricsSnapshot { return p.metrics.Snapshot() }

// Active returns the loaded components in load order.
func (p *Project) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.active...)
}

// Dimensions returns the dimensions as of the last load or reload.
func (p *Project) Dimensions() []dimension.Dimension {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dimension.Dimension(nil), p.dims...)
}

// WaitReferences waits for the background runtime reference load and
// returns its error.
func (p *Project) WaitReferences() error {
	return p.loads.Wait()
}

// Close stops background work and closes every component. Later calls
// return the first result.
func (p *Project) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.cancel()

		var result *multierror.Error
		if p.watch != nil {
			if err := p.watch.Close(); err != nil {
				result = multierror.Append(result, NewComponentError(ComponentSnapshotWatcher, "close", err))
			}
		}
		p.bg.Wait()
		if err := p.loads.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Debug("runtime references load failed", "error", err)
		}

		if p.runtime != nil {
			if err := p.runtime.Close(ctx); err != nil {
				result = multierror.Append(result, NewComponentError(ComponentRuntimeReferences, "close", err))
			}
		}
		if p.buildLog != nil {
			if err := p.buildLog.Close(ctx); err != nil {
				result = multierror.Append(result, NewComponentError(ComponentBuildLogger, "close", err))
			}
		}
		if p.resolver != nil {
			if err := p.resolver.Close(ctx); err != nil {
				result = multierror.Append(result, NewComponentError(ComponentDimensions, "close", err))
			}
		}
		p.store.Remove(p.project.Path())
		p.app.forget(p)

		p.closeErr = result.ErrorOrNil()
		p.logger.Info("project closed")
	})
	return p.closeErr
}
