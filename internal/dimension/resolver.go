package dimension

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/projsys/internal/project"
	"github.com/dshills/projsys/internal/requires"
)

// DimensionProvider is the behaviour the resolver needs from a dimension.
// *Provider implements it.
type DimensionProvider interface {
	Name() string
	Dimensions(ctx context.Context, p *project.Project) ([]Dimension, error)
	DefaultValues(ctx context.Context, p *project.Project) ([]DimensionValue, error)
	OnDimensionValueChanged(ctx context.Context, evt ChangeEvent) error
	Close(ctx context.Context) error
}

var _ DimensionProvider = (*Provider)(nil)

// Resolver combines the dimension providers of a project into its
// configuration space.
type Resolver struct {
	providers []DimensionProvider
}

// NewResolver creates a resolver over providers, in registration order.
// Dimension names must be unique, ignoring case.
func NewResolver(providers ...DimensionProvider) (*Resolver, error) {
	seen := make(map[string]struct{}, len(providers))
	for i, dp := range providers {
		if err := requires.NotNil(dp, fmt.Sprintf("providers[%d]", i)); err != nil {
			return nil, err
		}
		key := strings.ToLower(dp.Name())
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDimension, dp.Name())
		}
		seen[key] = struct{}{}
	}
	return &Resolver{providers: append([]DimensionProvider(nil), providers...)}, nil
}

// Providers returns the providers in registration order.
func (r *Resolver) Providers() []DimensionProvider {
	return append([]DimensionProvider(nil), r.providers...)
}

// Dimensions returns every non-empty dimension of p, in registration order.
// Providers are queried concurrently.
func (r *Resolver) Dimensions(ctx context.Context, p *project.Project) ([]Dimension, error) {
	results := make([][]Dimension, len(r.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, dp := range r.providers {
		g.Go(func() error {
			dims, err := dp.Dimensions(gctx, p)
			if err != nil {
				return err
			}
			results[i] = dims
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []Dimension{}
	for _, dims := range results {
		out = append(out, dims...)
	}
	return out, nil
}

// DefaultConfiguration returns the configuration made of every dimension's
// default value.
func (r *Resolver) DefaultConfiguration(ctx context.Context, p *project.Project) (Configuration, error) {
	var values []DimensionValue
	for _, dp := range r.providers {
		defaults, err := dp.DefaultValues(ctx, p)
		if err != nil {
			return Configuration{}, err
		}
		values = append(values, defaults...)
	}
	return NewConfiguration(values...), nil
}

// Configurations returns the cross product of all dimension values. The first
// registered dimension varies slowest. No dimensions yields no configurations.
func (r *Resolver) Configurations(ctx context.Context, p *project.Project) ([]Configuration, error) {
	dims, err := r.Dimensions(ctx, p)
	if err != nil {
		return nil, err
	}
	return CrossProduct(dims), nil
}

// CrossProduct expands dims into every combination of their values.
func CrossProduct(dims []Dimension) []Configuration {
	if len(dims) == 0 {
		return []Configuration{}
	}

	combos := [][]DimensionValue{{}}
	for _, d := range dims {
		next := make([][]DimensionValue, 0, len(combos)*len(d.Values))
		for _, prefix := range combos {
			for _, v := range d.Values {
				row := make([]DimensionValue, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, DimensionValue{Name: d.Name, Value: v}))
			}
		}
		combos = next
	}

	out := make([]Configuration, len(combos))
	for i, c := range combos {
		out[i] = Configuration{values: c}
	}
	return out
}

// NotifyChange routes evt to the provider owning its dimension. Events for
// unknown dimensions are dropped.
func (r *Resolver) NotifyChange(ctx context.Context, evt ChangeEvent) error {
	dp := r.provider(evt.DimensionName)
	if dp == nil {
		return nil
	}
	return dp.OnDimensionValueChanged(ctx, evt)
}

func (r *Resolver) provider(name string) DimensionProvider {
	for _, dp := range r.providers {
		if strings.EqualFold(dp.Name(), name) {
			return dp
		}
	}
	return nil
}

// Diff compares two dimension sets and returns StageAfter Add and Delete
// events for values that appeared or disappeared. Deletes come before adds
// within a dimension.
func Diff(p *project.Project, before, after []Dimension) []ChangeEvent {
	index := func(dims []Dimension) map[string][]string {
		m := make(map[string][]string, len(dims))
		for _, d := range dims {
			m[d.Name] = d.Values
		}
		return m
	}
	old, cur := index(before), index(after)

	var names []string
	seen := make(map[string]bool)
	for _, dims := range [][]Dimension{before, after} {
		for _, d := range dims {
			if !seen[d.Name] {
				seen[d.Name] = true
				names = append(names, d.Name)
			}
		}
	}

	var events []ChangeEvent
	for _, name := range names {
		for _, v := range old[name] {
			if !containsFold(cur[name], v) {
				events = append(events, ChangeEvent{
					Project: p, Kind: ChangeDelete, Stage: StageAfter,
					DimensionName: name, OldValue: v,
				})
			}
		}
		for _, v := range cur[name] {
			if !containsFold(old[name], v) {
				events = append(events, ChangeEvent{
					Project: p, Kind: ChangeAdd, Stage: StageAfter,
					DimensionName: name, NewValue: v,
				})
			}
		}
	}
	return events
}

func containsFold(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// Close closes every provider and returns all failures combined.
func (r *Resolver) Close(ctx context.Context) error {
	var result *multierror.Error
	for _, dp := range r.providers {
		if err := dp.Close(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", dp.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
