package build

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/projsys/internal/logging"
	"github.com/dshills/projsys/internal/project"
	"github.com/dshills/projsys/internal/requires"
)

// TableManager hosts table data sources.
type TableManager interface {
	AddSource(src TableDataSource, columns ...string) error
	RemoveSource(src TableDataSource) error
}

// TableManagerProvider returns the manager of a table.
type TableManagerProvider interface {
	GetTableManager(tableID string) TableManager
}

// Option configures a LoggerProvider.
type Option func(*LoggerProvider)

// WithProjectGUID sets the GUID copied into entries.
func WithProjectGUID(id uuid.UUID) Option {
	return func(p *LoggerProvider) { p.guid = id }
}

// WithHierarchy sets the project handle copied into entries.
func WithHierarchy(h any) Option {
	return func(p *LoggerProvider) { p.hierarchy = h }
}

// WithTableManagerProvider registers the error table with tmp.
func WithTableManagerProvider(tmp TableManagerProvider) Option {
	return func(p *LoggerProvider) { p.tables = tmp }
}

// WithTableID overrides the table the error table joins.
// Defaults to ErrorsTableID.
func WithTableID(id string) Option {
	return func(p *LoggerProvider) {
		if id != "" {
			p.tableID = id
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *LoggerProvider) { p.logger = logging.OrNull(l) }
}

// LoggerProvider supplies the design-time build logger of one project.
type LoggerProvider struct {
	project   *project.Project
	guid      uuid.UUID
	hierarchy any
	tables    TableManagerProvider
	tableID   string
	logger    hclog.Logger

	table      *ErrorTable
	buildLog   *Logger
	registered TableManager

	closeOnce sync.Once
	closeErr  error
}

// NewLoggerProvider creates the provider and its error table. When a table
// manager provider is configured the table is added to it.
func NewLoggerProvider(p *project.Project, opts ...Option) (*LoggerProvider, error) {
	if err := requires.NotNil(p, "project"); err != nil {
		return nil, err
	}
	lp := &LoggerProvider{
		project: p,
		tableID: ErrorsTableID,
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(lp)
	}

	lp.table = NewErrorTable(lp.guid, p.Path(), lp.hierarchy, lp.logger)
	lp.buildLog = newLogger(lp.table, lp.logger)

	if lp.tables != nil {
		mgr := lp.tables.GetTableManager(lp.tableID)
		if err := mgr.AddSource(lp.table, SupportedColumns...); err != nil {
			return nil, fmt.Errorf("register %s table: %w", lp.tableID, err)
		}
		lp.registered = mgr
	}
	return lp, nil
}

// Table returns the project's error table.
func (lp *LoggerProvider) Table() *ErrorTable {
	return lp.table
}

// GetLoggers returns the loggers to attach to a design-time build of
// targets. It always returns the provider's single Logger. A cancelled ctx
// yields no loggers.
func (lp *LoggerProvider) GetLoggers(ctx context.Context, targets []string, properties map[string]string) ([]*Logger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lp.logger.Trace("design-time build loggers requested", "targets", targets, "properties", len(properties))
	return []*Logger{lp.buildLog}, nil
}

// Close shuts the logger down and removes the table from its manager.
func (lp *LoggerProvider) Close(context.Context) error {
	lp.closeOnce.Do(func() {
		lp.buildLog.Shutdown()
		if lp.registered == nil {
			return
		}
		if err := lp.registered.RemoveSource(lp.table); err != nil {
			lp.closeErr = fmt.Errorf("unregister %s table: %w", lp.tableID, err)
		}
	})
	return lp.closeErr
}
