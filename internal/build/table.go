package build

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/projsys/internal/broadcast"
	"github.com/dshills/projsys/internal/logging"
	"github.com/dshills/projsys/internal/requires"
)

// Table identity.
const (
	// TableDisplayName is the name shown for design-time build tables.
	TableDisplayName = "Design-time Build Errors"

	// TableIdentifier identifies design-time build tables.
	TableIdentifier = TableDisplayName

	// ErrorsTableID is the error table that design-time build tables join.
	ErrorsTableID = "ErrorsTable"

	// SourceTypeIdentifier is the source type of error table data sources.
	SourceTypeIdentifier = "ErrorsTable"
)

// Sink receives table changes.
type Sink interface {
	AddEntries(entries []*Entry)
	RemoveAllEntries()
}

// TableDataSource is a table a TableManager can host.
type TableDataSource interface {
	DisplayName() string
	Identifier() string
	SourceTypeIdentifier() string
	Subscribe(sink Sink) (*Subscription, error)
}

// ErrorTable fans the design-time build diagnostics of one project out to
// its subscribers.
//
// Publishing takes a snapshot of the subscribers and never blocks on
// Subscribe or Unsubscribe. A subscriber removed during a publish may still
// receive that publication.
type ErrorTable struct {
	projectGUID uuid.UUID
	projectPath string
	hierarchy   any
	logger      hclog.Logger

	subs broadcast.Set[Sink]
}

var _ TableDataSource = (*ErrorTable)(nil)

// NewErrorTable creates the table of the project at projectPath. hierarchy
// is an opaque project handle copied into every entry.
func NewErrorTable(projectGUID uuid.UUID, projectPath string, hierarchy any, logger hclog.Logger) *ErrorTable {
	return &ErrorTable{
		projectGUID: projectGUID,
		projectPath: projectPath,
		hierarchy:   hierarchy,
		logger:      logging.OrNull(logger),
	}
}

// DisplayName implements TableDataSource.
func (t *ErrorTable) DisplayName() string { return TableDisplayName }

// Identifier implements TableDataSource.
func (t *ErrorTable) Identifier() string { return TableIdentifier }

// SourceTypeIdentifier implements TableDataSource.
func (t *ErrorTable) SourceTypeIdentifier() string { return SourceTypeIdentifier }

// ProjectGUID returns the owning project's GUID.
func (t *ErrorTable) ProjectGUID() uuid.UUID { return t.projectGUID }

// ProjectPath returns the owning project's path.
func (t *ErrorTable) ProjectPath() string { return t.projectPath }

// Hierarchy returns the owning project's handle.
func (t *ErrorTable) Hierarchy() any { return t.hierarchy }

// Subscribers returns the number of current subscriptions.
func (t *ErrorTable) Subscribers() int { return t.subs.Len() }

// Subscribe registers sink for future publications. Subscribing the same
// sink twice creates two subscriptions.
func (t *ErrorTable) Subscribe(sink Sink) (*Subscription, error) {
	if err := requires.NotNil(sink, "sink"); err != nil {
		return nil, err
	}
	return &Subscription{table: t, token: t.subs.Add(sink)}, nil
}

// Unsubscribe removes sub. It returns ErrSubscriptionNotFound when sub is
// not a current subscription of t.
func (t *ErrorTable) Unsubscribe(sub *Subscription) error {
	if err := requires.NotNil(sub, "sub"); err != nil {
		return err
	}
	if sub.table != t || !t.subs.Remove(sub.token) {
		return ErrSubscriptionNotFound
	}
	return nil
}

// AddEntry publishes entry to the current subscribers.
func (t *ErrorTable) AddEntry(entry *Entry) error {
	if err := requires.NotNil(entry, "entry"); err != nil {
		return err
	}
	entries := []*Entry{entry}
	for _, sink := range t.subs.Snapshot() {
		sink.AddEntries(entries)
	}
	return nil
}

// RemoveAllEntries tells the current subscribers to drop their entries.
func (t *ErrorTable) RemoveAllEntries() {
	for _, sink := range t.subs.Snapshot() {
		sink.RemoveAllEntries()
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	table *ErrorTable
	token *broadcast.Token[Sink]
}

// Sink returns the subscribed sink.
func (s *Subscription) Sink() Sink {
	return s.token.Value()
}

// Close unsubscribes. Closing an already closed subscription logs a warning
// and does nothing else.
func (s *Subscription) Close() error {
	if err := s.table.Unsubscribe(s); err != nil {
		s.table.logger.Warn("unsubscribe failed", "table", s.table.projectPath, "error", err)
	}
	return nil
}
