package dimension

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/projsys/internal/lifecycle"
	"github.com/dshills/projsys/internal/logging"
	"github.com/dshills/projsys/internal/project"
	"github.com/dshills/projsys/internal/property"
	"github.com/dshills/projsys/internal/requires"
	"github.com/dshills/projsys/internal/telemetry"
)

// ChangeHandler is a dimension's reaction to a value change.
// It must tolerate values it does not recognize without failing.
type ChangeHandler interface {
	HandleDimensionChange(ctx context.Context, p *Provider, evt ChangeEvent) error
}

// ChangeHandlerFunc is a function adapter for ChangeHandler.
type ChangeHandlerFunc func(ctx context.Context, p *Provider, evt ChangeEvent) error

// HandleDimensionChange implements ChangeHandler.
func (f ChangeHandlerFunc) HandleDimensionChange(ctx context.Context, p *Provider, evt ChangeEvent) error {
	return f(ctx, p, evt)
}

// Config describes one dimension.
type Config struct {
	// Name is the dimension name, e.g. "TargetFramework".
	Name string

	// PropertyName is the evaluated property holding the values,
	// e.g. "TargetFrameworks".
	PropertyName string

	// ValueContainsSensitiveData hashes values before they reach telemetry.
	ValueContainsSensitiveData bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithTelemetry sets the telemetry service. Defaults to telemetry.Nop.
func WithTelemetry(svc telemetry.Service) Option {
	return func(p *Provider) {
		if svc != nil {
			p.telemetry = svc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *Provider) {
		p.logger = logging.OrNull(l)
	}
}

// WithChangeHandler sets the dimension's change reaction.
func WithChangeHandler(h ChangeHandler) Option {
	return func(p *Provider) {
		p.handler = h
	}
}

// Provider serves one configuration dimension of one project.
//
// Provider is safe for concurrent use.
type Provider struct {
	cfg       Config
	owner     *project.Project
	accessor  property.Accessor
	telemetry telemetry.Service
	logger    hclog.Logger
	handler   ChangeHandler

	once *lifecycle.Once

	mu   sync.RWMutex
	guid uuid.UUID
}

// NewProvider creates a provider for the dimension described by cfg.
// owner is the project whose GUID is reported with telemetry.
func NewProvider(cfg Config, owner *project.Project, accessor property.Accessor, opts ...Option) (*Provider, error) {
	if err := requires.NotNilAll(owner, "owner", accessor, "accessor"); err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:       cfg,
		owner:     owner,
		accessor:  accessor,
		telemetry: telemetry.Nop{},
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("dimension", cfg.Name)
	p.once = lifecycle.New(p.initialize, func(context.Context, bool) error { return nil })
	return p, nil
}

// Name returns the dimension name.
func (p *Provider) Name() string {
	return p.cfg.Name
}

// PropertyName returns the evaluated property that supplies the values.
func (p *Provider) PropertyName() string {
	return p.cfg.PropertyName
}

// ValueContainsSensitiveData reports whether values are hashed for telemetry.
func (p *Provider) ValueContainsSensitiveData() bool {
	return p.cfg.ValueContainsSensitiveData
}

// Owner returns the project the provider belongs to.
func (p *Provider) Owner() *project.Project {
	return p.owner
}

// Accessor returns the property accessor.
func (p *Provider) Accessor() property.Accessor {
	return p.accessor
}

// GUID returns the owning project's GUID, or uuid.Nil before initialization
// or when the ProjectGuid property is missing or malformed.
func (p *Provider) GUID() uuid.UUID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.guid
}

// State returns the provider's lifecycle state.
func (p *Provider) State() lifecycle.State {
	return p.once.State()
}

// Initialize resolves the owning project's GUID. It runs once; concurrent
// callers share the in-flight run.
func (p *Provider) Initialize(ctx context.Context) error {
	return p.once.Initialize(ctx)
}

func (p *Provider) initialize(ctx context.Context) error {
	raw, err := p.accessor.GetEvaluatedPropertyValue(ctx, p.owner, property.ProjectGUID)
	if err != nil {
		return fmt.Errorf("read project guid: %w", err)
	}
	if raw == "" {
		return nil
	}
	guid, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		p.logger.Debug("ignoring malformed project guid", "value", raw, "error", err)
		return nil
	}
	p.mu.Lock()
	p.guid = guid
	p.mu.Unlock()
	return nil
}

// Close disposes the provider. Later requests fail with lifecycle.ErrDisposed.
func (p *Provider) Close(ctx context.Context) error {
	return p.once.Dispose(ctx)
}

// OrderedValues returns the dimension's legal values for prj, in property
// order. An empty property yields an empty, non-nil slice.
func (p *Provider) OrderedValues(ctx context.Context, prj *project.Project) ([]string, error) {
	if err := requires.NotNil(prj, "project"); err != nil {
		return nil, err
	}
	if p.once.IsDisposed() {
		return nil, lifecycle.ErrDisposed
	}

	raw, err := p.accessor.GetEvaluatedPropertyValue(ctx, prj, p.cfg.PropertyName)
	if err != nil {
		return nil, fmt.Errorf("read %s values: %w", p.cfg.Name, err)
	}
	return property.ParseValues(raw), nil
}

// DefaultValues returns the default value of the dimension: empty when the
// dimension has no values, otherwise a single pair holding the first value.
func (p *Provider) DefaultValues(ctx context.Context, prj *project.Project) ([]DimensionValue, error) {
	values, err := p.OrderedValues(ctx, prj)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []DimensionValue{}, nil
	}
	return []DimensionValue{{Name: p.cfg.Name, Value: values[0]}}, nil
}

// Dimensions returns the dimension with all its values: empty when the
// dimension has no values, otherwise a single entry.
func (p *Provider) Dimensions(ctx context.Context, prj *project.Project) ([]Dimension, error) {
	values, err := p.OrderedValues(ctx, prj)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []Dimension{}, nil
	}
	return []Dimension{{Name: p.cfg.Name, Values: values}}, nil
}

// OnDimensionValueChanged reacts to a change of this dimension. Events for
// other dimensions are ignored.
func (p *Provider) OnDimensionValueChanged(ctx context.Context, evt ChangeEvent) error {
	if !strings.EqualFold(evt.DimensionName, p.cfg.Name) {
		return nil
	}
	if evt.Project == nil {
		evt.Project = p.owner
	}
	if err := p.once.Initialize(ctx); err != nil {
		return err
	}

	if p.handler != nil {
		if err := p.handler.HandleDimensionChange(ctx, p, evt); err != nil {
			return err
		}
	}

	if evt.Stage == StageAfter && !p.once.IsDisposed() {
		p.postChange(ctx, evt)
	}
	return nil
}

// HashValueIfNeeded returns value, hashed when the dimension is sensitive.
func (p *Provider) HashValueIfNeeded(value string) string {
	if p.cfg.ValueContainsSensitiveData {
		return p.telemetry.HashValue(value)
	}
	return value
}

func (p *Provider) postChange(ctx context.Context, evt ChangeEvent) {
	props := map[string]string{
		"DimensionName": p.cfg.Name,
		"ChangeKind":    evt.Kind.String(),
		"Value":         p.HashValueIfNeeded(evt.Value()),
		"ProjectGuid":   p.GUID().String(),
	}
	if evt.Kind == ChangeRename {
		props["OldValue"] = p.HashValueIfNeeded(evt.OldValue)
	}
	p.telemetry.PostEvent(ctx, TelemetryEventName, props)
	p.logger.Trace("dimension changed", "kind", evt.Kind, "stage", evt.Stage)
}
