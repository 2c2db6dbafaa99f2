package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/projsys/internal/capability"
)

// ErrEmptyPath indicates a project was created without a file path.
var ErrEmptyPath = errors.New("project path is empty")

// Project is an unconfigured project. It is immutable.
type Project struct {
	path         string
	capabilities capability.Set
}

// New creates a project for the project file at path.
func New(path string, caps capability.Set) (*Project, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	return &Project{path: path, capabilities: caps}, nil
}

// Path returns the full path of the project file.
func (p *Project) Path() string {
	return p.path
}

// Dir returns the directory holding the project file.
func (p *Project) Dir() string {
	return filepath.Dir(p.path)
}

// Name returns the project file name without its extension.
func (p *Project) Name() string {
	base := filepath.Base(p.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Capabilities returns the project's capability set.
func (p *Project) Capabilities() capability.Set {
	return p.capabilities
}

// String implements fmt.Stringer.
func (p *Project) String() string {
	return fmt.Sprintf("%s (%s)", p.Name(), p.path)
}
