package property

import (
	"context"
	"strings"

	"github.com/dshills/projsys/internal/project"
)

// Well-known evaluated property names.
const (
	ProjectGUID           = "ProjectGuid"
	TargetFrameworks      = "TargetFrameworks"
	Platforms             = "Platforms"
	Configurations        = "Configurations"
	FrameworkPathOverride = "FrameworkPathOverride"
)

// Delimiter separates the values of a multi-valued property.
const Delimiter = ";"

// Accessor reads evaluated property values.
type Accessor interface {
	// GetEvaluatedPropertyValue returns the evaluated value of name for p.
	// An undefined property yields "" and no error.
	GetEvaluatedPropertyValue(ctx context.Context, p *project.Project, name string) (string, error)
}

// Writer changes a property in the project's build description.
type Writer interface {
	SetPropertyValue(ctx context.Context, p *project.Project, name, value string) error
}

// ReadWriter combines Accessor and Writer.
type ReadWriter interface {
	Accessor
	Writer
}

// ParseValues splits a delimited property value into its tokens.
// Tokens are trimmed and empty tokens are dropped. Tokens that differ only
// in case are the same value; the first spelling is kept. The result is never
// nil.
func ParseValues(value string) []string {
	out := []string{}
	if value == "" {
		return out
	}
	for _, tok := range strings.Split(value, Delimiter) {
		tok = strings.TrimSpace(tok)
		if tok == "" || containsFold(out, tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func containsFold(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// JoinValues is the inverse of ParseValues.
func JoinValues(values []string) string {
	return strings.Join(values, Delimiter)
}
