package dimension

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/projsys/internal/project"
	"github.com/dshills/projsys/internal/property"
)

// ListEditor rewrites a dimension's list property when values are added,
// removed or renamed. It acts at StageBefore only.
type ListEditor struct {
	writer property.Writer
}

// NewListEditor returns an editor writing through accessor. It fails with
// ErrReadOnlyProperties when accessor cannot write.
func NewListEditor(accessor property.Accessor) (*ListEditor, error) {
	w, ok := accessor.(property.Writer)
	if !ok {
		return nil, ErrReadOnlyProperties
	}
	return &ListEditor{writer: w}, nil
}

// HandleDimensionChange implements ChangeHandler.
func (e *ListEditor) HandleDimensionChange(ctx context.Context, p *Provider, evt ChangeEvent) error {
	if evt.Stage != StageBefore {
		return nil
	}

	values, err := p.OrderedValues(ctx, evt.Project)
	if err != nil {
		return err
	}

	next, changed := editValues(values, evt)
	if !changed {
		return nil
	}
	if err := e.writer.SetPropertyValue(ctx, evt.Project, p.PropertyName(), property.JoinValues(next)); err != nil {
		return fmt.Errorf("update %s: %w", p.PropertyName(), err)
	}
	return nil
}

// editValues applies evt to values. Unknown values leave the list unchanged.
func editValues(values []string, evt ChangeEvent) ([]string, bool) {
	idx := func(v string) int {
		return slices.IndexFunc(values, func(s string) bool { return strings.EqualFold(s, v) })
	}

	switch evt.Kind {
	case ChangeAdd:
		if evt.NewValue == "" || idx(evt.NewValue) >= 0 {
			return values, false
		}
		return append(slices.Clone(values), evt.NewValue), true

	case ChangeDelete:
		i := idx(evt.OldValue)
		if i < 0 {
			return values, false
		}
		return slices.Delete(slices.Clone(values), i, i+1), true

	case ChangeRename:
		i := idx(evt.OldValue)
		if i < 0 || evt.NewValue == "" || idx(evt.NewValue) >= 0 {
			return values, false
		}
		out := slices.Clone(values)
		out[i] = evt.NewValue
		return out, true
	}
	return values, false
}

// NewTargetFrameworkProvider returns the TargetFramework dimension, read from
// the TargetFrameworks property. It has no project-side reaction to changes.
func NewTargetFrameworkProvider(owner *project.Project, accessor property.Accessor, opts ...Option) (*Provider, error) {
	return NewProvider(Config{
		Name:         TargetFrameworkDimension,
		PropertyName: property.TargetFrameworks,
	}, owner, accessor, opts...)
}

// NewPlatformProvider returns the Platform dimension. Its values are
// sensitive and edits rewrite the Platforms property.
func NewPlatformProvider(owner *project.Project, rw property.ReadWriter, opts ...Option) (*Provider, error) {
	return newEditableProvider(Config{
		Name:                       PlatformDimension,
		PropertyName:               property.Platforms,
		ValueContainsSensitiveData: true,
	}, owner, rw, opts...)
}

// NewConfigurationProvider returns the Configuration dimension. Its values
// are sensitive and edits rewrite the Configurations property.
func NewConfigurationProvider(owner *project.Project, rw property.ReadWriter, opts ...Option) (*Provider, error) {
	return newEditableProvider(Config{
		Name:                       ConfigurationDimension,
		PropertyName:               property.Configurations,
		ValueContainsSensitiveData: true,
	}, owner, rw, opts...)
}

// NewEditableProvider returns a provider whose list property is rewritten on
// Add, Delete and Rename. accessor must also implement property.Writer.
func NewEditableProvider(cfg Config, owner *project.Project, accessor property.Accessor, opts ...Option) (*Provider, error) {
	return newEditableProvider(cfg, owner, accessor, opts...)
}

func newEditableProvider(cfg Config, owner *project.Project, accessor property.Accessor, opts ...Option) (*Provider, error) {
	p, err := NewProvider(cfg, owner, accessor, opts...)
	if err != nil {
		return nil, err
	}
	editor, err := NewListEditor(accessor)
	if err != nil {
		return nil, err
	}
	p.handler = editor
	return p, nil
}
