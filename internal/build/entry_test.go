package build

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewEntry(t *testing.T) {
	table := newTestTable(nil)
	e := NewEntry(table, Event{
		Kind:    EventBuildError,
		Message: "The name 'x' does not exist",
		Code:    "CS0103",
		File:    "/src/App/Program.cs",
		Line:    12,
		Column:  5,
	}, SeverityError)

	tests := []struct {
		column string
		want   any
	}{
		{ColumnErrorSource, SourceOther},
		{ColumnProjectName, "/src/App/App.csproj"},
		{ColumnText, "The name 'x' does not exist"},
		{ColumnErrorSeverity, SeverityError},
		{ColumnProject, "hierarchy"},
		{ColumnProjectGUID, testGUID},
		{ColumnErrorCode, "CS0103"},
		{ColumnDocumentName, "/src/App/Program.cs"},
		{ColumnLine, 12},
		{ColumnColumn, 5},
	}
	for _, tt := range tests {
		got, ok := e.TryGetValue(tt.column)
		if !ok {
			t.Errorf("TryGetValue(%q) missing", tt.column)
			continue
		}
		if got != tt.want {
			t.Errorf("TryGetValue(%q) = %v, want %v", tt.column, got, tt.want)
		}
	}

	if _, ok := e.TryGetValue("nonexistent"); ok {
		t.Error("TryGetValue(nonexistent) found a value")
	}
	if got := e.String(); got != "/src/App/Program.cs(12,5): error CS0103: The name 'x' does not exist" {
		t.Errorf("String() = %q", got)
	}
}

func TestEntryReadOnly(t *testing.T) {
	e := NewEntry(newTestTable(nil), Event{Message: "CS0001"}, SeverityWarning)

	if e.CanSetValue(ColumnText) {
		t.Error("CanSetValue() = true")
	}
	if e.TrySetValue(ColumnText, "changed") {
		t.Error("TrySetValue() = true")
	}
	if e.Text() != "CS0001" {
		t.Errorf("Text() = %q after TrySetValue", e.Text())
	}
	if e.Identity() != nil {
		t.Error("Identity() != nil")
	}
}

func TestEntryOptionalColumns(t *testing.T) {
	e := NewEntry(newTestTable(nil), Event{Message: "warn"}, SeverityWarning)
	want := []string{
		ColumnErrorSeverity,
		ColumnErrorSource,
		ColumnProject,
		ColumnProjectGUID,
		ColumnProjectName,
		ColumnText,
	}
	if diff := cmp.Diff(want, e.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
	if got := e.String(); got != "/src/App/App.csproj: warning: warn" {
		t.Errorf("String() = %q", got)
	}
}
