package dimension

import (
	"fmt"
	"strings"

	"github.com/dshills/projsys/internal/project"
)

// Built-in dimension names.
const (
	TargetFrameworkDimension = "TargetFramework"
	PlatformDimension        = "Platform"
	ConfigurationDimension   = "Configuration"
)

// TelemetryEventName is posted whenever a dimension value changes.
const TelemetryEventName = "DimensionChanged"

// Dimension is a dimension name with its ordered legal values.
type Dimension struct {
	Name   string
	Values []string
}

// Default returns the first value, or "" when there are none.
func (d Dimension) Default() string {
	if len(d.Values) == 0 {
		return ""
	}
	return d.Values[0]
}

// DimensionValue is a single (dimension, value) pair.
type DimensionValue struct {
	Name  string
	Value string
}

// ChangeKind says what happened to a dimension value.
type ChangeKind int

// Change kinds.
const (
	ChangeAdd ChangeKind = iota
	ChangeDelete
	ChangeRename
	ChangeSet
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "Add"
	case ChangeDelete:
		return "Delete"
	case ChangeRename:
		return "Rename"
	case ChangeSet:
		return "Set"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// ChangeStage says whether an event precedes or follows the change.
type ChangeStage int

// Change stages.
const (
	StageBefore ChangeStage = iota
	StageAfter
)

// String returns the stage name.
func (s ChangeStage) String() string {
	switch s {
	case StageBefore:
		return "Before"
	case StageAfter:
		return "After"
	default:
		return fmt.Sprintf("ChangeStage(%d)", int(s))
	}
}

// ChangeEvent describes a dimension value change.
//
// Add carries the new value in NewValue, Delete the removed value in
// OldValue, Rename and Set carry both.
type ChangeEvent struct {
	Project       *project.Project
	Kind          ChangeKind
	Stage         ChangeStage
	DimensionName string
	OldValue      string
	NewValue      string
}

// Value returns the value the event is about: NewValue, or OldValue for deletes.
func (e ChangeEvent) Value() string {
	if e.Kind == ChangeDelete {
		return e.OldValue
	}
	return e.NewValue
}

// Configuration is one point in the configuration space: an ordered list of
// dimension values.
type Configuration struct {
	values []DimensionValue
}

// NewConfiguration creates a configuration from values in dimension order.
func NewConfiguration(values ...DimensionValue) Configuration {
	cp := make([]DimensionValue, len(values))
	copy(cp, values)
	return Configuration{values: cp}
}

// Values returns the dimension values in order.
func (c Configuration) Values() []DimensionValue {
	out := make([]DimensionValue, len(c.values))
	copy(out, c.values)
	return out
}

// Value returns the value of the named dimension.
func (c Configuration) Value(name string) (string, bool) {
	for _, v := range c.values {
		if strings.EqualFold(v.Name, name) {
			return v.Value, true
		}
	}
	return "", false
}

// Len returns the number of dimensions.
func (c Configuration) Len() int {
	return len(c.values)
}

// Name returns the values joined with "|", e.g. "Debug|AnyCPU|net461".
func (c Configuration) Name() string {
	parts := make([]string, len(c.values))
	for i, v := range c.values {
		parts[i] = v.Value
	}
	return strings.Join(parts, "|")
}

// String implements fmt.Stringer.
func (c Configuration) String() string {
	return c.Name()
}
