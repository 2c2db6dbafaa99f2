package property

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/projsys/internal/project"
	"github.com/dshills/projsys/internal/project/vfs"
)

// propertiesKey is the root object of a snapshot document.
const propertiesKey = "Properties"

// Store holds one evaluated-property snapshot per project path.
//
// Store is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[string]string
}

// Ensure Store implements ReadWriter.
var _ ReadWriter = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]string)}
}

// Put replaces the snapshot for projectPath.
func (s *Store) Put(projectPath string, doc []byte) error {
	if !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		return &Error{Op: "load", Project: projectPath, Err: ErrInvalidSnapshot}
	}
	props := gjson.GetBytes(doc, propertiesKey)
	if props.Exists() && !props.IsObject() {
		return &Error{Op: "load", Project: projectPath, Err: ErrInvalidSnapshot}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[projectPath] = string(doc)
	return nil
}

// Load reads the snapshot file at snapshotPath for projectPath.
func (s *Store) Load(fsys vfs.FS, projectPath, snapshotPath string) error {
	data, err := fsys.ReadFile(snapshotPath)
	if err != nil {
		return &Error{Op: "load", Project: projectPath, Err: err}
	}
	return s.Put(projectPath, data)
}

// SetProperties replaces the snapshot for projectPath with props.
func (s *Store) SetProperties(projectPath string, props map[string]string) error {
	doc := `{"` + propertiesKey + `":{}}`
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var err error
		doc, err = sjson.Set(doc, propertyPath(k), props[k])
		if err != nil {
			return &Error{Op: "set", Project: projectPath, Property: k, Err: err}
		}
	}
	return s.Put(projectPath, []byte(doc))
}

// Remove forgets the snapshot for projectPath.
func (s *Store) Remove(projectPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, projectPath)
}

// Snapshot returns the raw snapshot document for projectPath.
func (s *Store) Snapshot(projectPath string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[projectPath]
	return []byte(doc), ok
}

// Properties returns every string-valued property of projectPath.
func (s *Store) Properties(projectPath string) map[string]string {
	s.mu.RLock()
	doc, ok := s.docs[projectPath]
	s.mu.RUnlock()

	out := make(map[string]string)
	if !ok {
		return out
	}
	gjson.Get(doc, propertiesKey).ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.String()
		return true
	})
	return out
}

// GetEvaluatedPropertyValue implements Accessor.
func (s *Store) GetEvaluatedPropertyValue(ctx context.Context, p *project.Project, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	doc, ok := s.docs[p.Path()]
	s.mu.RUnlock()

	if !ok {
		return "", &Error{Op: "get", Project: p.Path(), Property: name, Err: ErrProjectNotLoaded}
	}
	return gjson.Get(doc, propertyPath(name)).String(), nil
}

// SetPropertyValue implements Writer.
func (s *Store) SetPropertyValue(ctx context.Context, p *project.Project, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[p.Path()]
	if !ok {
		return &Error{Op: "set", Project: p.Path(), Property: name, Err: ErrProjectNotLoaded}
	}
	next, err := sjson.Set(doc, propertyPath(name), value)
	if err != nil {
		return &Error{Op: "set", Project: p.Path(), Property: name, Err: err}
	}
	s.docs[p.Path()] = next
	return nil
}

// propertyPath builds the gjson/sjson path for a property, escaping path
// syntax characters in the name.
func propertyPath(name string) string {
	var b strings.Builder
	b.WriteString(propertiesKey)
	b.WriteByte('.')
	for _, r := range name {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
