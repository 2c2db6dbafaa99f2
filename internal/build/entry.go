package build

import (
	"fmt"
	"maps"
	"slices"
)

// Standard table column names.
const (
	ColumnErrorSource   = "errorsource"
	ColumnProjectName   = "projectname"
	ColumnText          = "text"
	ColumnErrorSeverity = "errorseverity"
	ColumnErrorCode     = "errorcode"
	ColumnDocumentName  = "documentname"
	ColumnLine          = "line"
	ColumnColumn        = "column"

	// ColumnProject holds the project's hierarchy handle.
	ColumnProject = "project"
	// ColumnProjectGUID holds the project GUID.
	ColumnProjectGUID = "projectguid"
)

// SupportedColumns are the columns a design-time build table offers.
var SupportedColumns = []string{
	ColumnErrorSource,
	ColumnProjectName,
	ColumnText,
	ColumnErrorSeverity,
	ColumnErrorCode,
	ColumnDocumentName,
	ColumnLine,
	ColumnColumn,
}

// Severity is an entry's error category.
type Severity int

// Severities.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityMessage
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityMessage:
		return "message"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ErrorSource classifies where an entry came from.
type ErrorSource int

// Error sources.
const (
	SourceOther ErrorSource = iota
	SourceBuild
)

// String returns the source name.
func (s ErrorSource) String() string {
	switch s {
	case SourceOther:
		return "Other"
	case SourceBuild:
		return "Build"
	default:
		return fmt.Sprintf("ErrorSource(%d)", int(s))
	}
}

// Entry is one row of an error table. Entries are read-only.
type Entry struct {
	values map[string]any
}

// NewEntry creates an entry for a build error or warning raised while
// building the table's project.
func NewEntry(table *ErrorTable, evt Event, severity Severity) *Entry {
	values := map[string]any{
		ColumnErrorSource:   SourceOther,
		ColumnProjectName:   table.ProjectPath(),
		ColumnText:          evt.Message,
		ColumnErrorSeverity: severity,
		ColumnProject:       table.Hierarchy(),
		ColumnProjectGUID:   table.ProjectGUID(),
	}
	if evt.Code != "" {
		values[ColumnErrorCode] = evt.Code
	}
	if evt.File != "" {
		values[ColumnDocumentName] = evt.File
	}
	if evt.Line > 0 {
		values[ColumnLine] = evt.Line
	}
	if evt.Column > 0 {
		values[ColumnColumn] = evt.Column
	}
	return &Entry{values: values}
}

// TryGetValue returns the value of a column.
func (e *Entry) TryGetValue(column string) (any, bool) {
	v, ok := e.values[column]
	return v, ok
}

// CanSetValue reports whether a column is writable. It never is.
func (e *Entry) CanSetValue(string) bool {
	return false
}

// TrySetValue always fails; entries are read-only.
func (e *Entry) TrySetValue(string, any) bool {
	return false
}

// Identity returns nil; entries have no identity beyond their pointer.
func (e *Entry) Identity() any {
	return nil
}

// Columns returns the names of the columns the entry holds, sorted.
func (e *Entry) Columns() []string {
	return slices.Sorted(maps.Keys(e.values))
}

// Text returns the message text.
func (e *Entry) Text() string {
	s, _ := e.values[ColumnText].(string)
	return s
}

// Severity returns the entry's severity.
func (e *Entry) Severity() Severity {
	s, _ := e.values[ColumnErrorSeverity].(Severity)
	return s
}

// Code returns the diagnostic code, or "".
func (e *Entry) Code() string {
	s, _ := e.values[ColumnErrorCode].(string)
	return s
}

// String formats the entry like a compiler diagnostic.
func (e *Entry) String() string {
	loc, _ := e.values[ColumnDocumentName].(string)
	if loc == "" {
		loc, _ = e.values[ColumnProjectName].(string)
	}
	if line, ok := e.values[ColumnLine].(int); ok {
		loc = fmt.Sprintf("%s(%d", loc, line)
		if col, ok := e.values[ColumnColumn].(int); ok {
			loc = fmt.Sprintf("%s,%d", loc, col)
		}
		loc += ")"
	}
	if code := e.Code(); code != "" {
		return fmt.Sprintf("%s: %s %s: %s", loc, e.Severity(), code, e.Text())
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Severity(), e.Text())
}
