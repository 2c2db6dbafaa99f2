package build

import (
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/projsys/internal/logging"
	"github.com/dshills/projsys/internal/requires"
)

// EntryList is a Sink that keeps the entries it has been sent.
type EntryList struct {
	mu      sync.Mutex
	entries []*Entry

	// notifyMu is taken before mu is released so onChange sees changes in
	// the order they were made.
	notifyMu sync.Mutex
	onChange func([]*Entry)
}

var _ Sink = (*EntryList)(nil)

// NewEntryList creates a list. onChange, if not nil, is called with the
// current entries after every change. Calls are serialized; onChange must
// not modify the list.
func NewEntryList(onChange func([]*Entry)) *EntryList {
	return &EntryList{onChange: onChange}
}

// AddEntries implements Sink.
func (l *EntryList) AddEntries(entries []*Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, entries...)
	snapshot := slices.Clone(l.entries)
	l.notifyMu.Lock()
	l.mu.Unlock()
	defer l.notifyMu.Unlock()
	l.notify(snapshot)
}

// RemoveAllEntries implements Sink.
func (l *EntryList) RemoveAllEntries() {
	l.mu.Lock()
	l.entries = nil
	l.notifyMu.Lock()
	l.mu.Unlock()
	defer l.notifyMu.Unlock()
	l.notify(nil)
}

// Entries returns the current entries in arrival order.
func (l *EntryList) Entries() []*Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

func (l *EntryList) notify(entries []*Entry) {
	if l.onChange != nil {
		l.onChange(entries)
	}
}

// ErrorList is an in-memory TableManagerProvider. Each table manager
// subscribes to the sources added to it and keeps their entries.
type ErrorList struct {
	logger hclog.Logger

	mu       sync.Mutex
	managers map[string]*ListManager
}

var _ TableManagerProvider = (*ErrorList)(nil)

// NewErrorList creates an empty error list.
func NewErrorList(logger hclog.Logger) *ErrorList {
	return &ErrorList{
		logger:   logging.OrNull(logger),
		managers: make(map[string]*ListManager),
	}
}

// GetTableManager implements TableManagerProvider. Managers are created on
// first use.
func (e *ErrorList) GetTableManager(tableID string) TableManager {
	return e.Manager(tableID)
}

// Manager returns the manager of tableID, creating it if needed.
func (e *ErrorList) Manager(tableID string) *ListManager {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.managers[tableID]
	if !ok {
		m = &ListManager{id: tableID, logger: e.logger.With("table", tableID)}
		e.managers[tableID] = m
	}
	return m
}

// ListManager is the TableManager of one table in an ErrorList.
type ListManager struct {
	id     string
	logger hclog.Logger

	mu      sync.Mutex
	sources []*listSource
}

var _ TableManager = (*ListManager)(nil)

type listSource struct {
	src     TableDataSource
	columns []string
	list    *EntryList
	sub     *Subscription
}

// ID returns the table id.
func (m *ListManager) ID() string {
	return m.id
}

// AddSource implements TableManager. The manager subscribes to src.
func (m *ListManager) AddSource(src TableDataSource, columns ...string) error {
	if err := requires.NotNil(src, "src"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(src) >= 0 {
		return ErrSourceExists
	}

	list := NewEntryList(nil)
	sub, err := src.Subscribe(list)
	if err != nil {
		return err
	}
	m.sources = append(m.sources, &listSource{
		src:     src,
		columns: slices.Clone(columns),
		list:    list,
		sub:     sub,
	})
	m.logger.Debug("table source added", "source", src.Identifier(), "columns", columns)
	return nil
}

// RemoveSource implements TableManager. The manager unsubscribes from src
// and drops its entries.
func (m *ListManager) RemoveSource(src TableDataSource) error {
	m.mu.Lock()
	i := m.find(src)
	if i < 0 {
		m.mu.Unlock()
		return ErrSourceNotFound
	}
	ls := m.sources[i]
	m.sources = slices.Delete(m.sources, i, i+1)
	m.mu.Unlock()

	return ls.sub.Close()
}

// Sources returns the number of sources.
func (m *ListManager) Sources() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Columns returns the columns src was added with.
func (m *ListManager) Columns(src TableDataSource) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(src); i >= 0 {
		return slices.Clone(m.sources[i].columns)
	}
	return nil
}

// Entries returns the entries of every source, in source order.
func (m *ListManager) Entries() []*Entry {
	m.mu.Lock()
	sources := slices.Clone(m.sources)
	m.mu.Unlock()

	var out []*Entry
	for _, ls := range sources {
		out = append(out, ls.list.Entries()...)
	}
	return out
}

func (m *ListManager) find(src TableDataSource) int {
	return slices.IndexFunc(m.sources, func(ls *listSource) bool { return ls.src == src })
}
