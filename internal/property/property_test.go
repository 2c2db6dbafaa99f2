package property

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"single", "net461", []string{"net461"}},
		{"two", "net461;netcoreapp1.1", []string{"net461", "netcoreapp1.1"}},
		{"trimmed", "  Debug ; Release  ", []string{"Debug", "Release"}},
		{"empty tokens", ";;AnyCPU;;x64;", []string{"AnyCPU", "x64"}},
		{"whitespace only", " ; ", []string{}},
		{"duplicates keep first", "x64;AnyCPU;x64", []string{"x64", "AnyCPU"}},
		{"duplicates ignore case", "Debug;Release;debug;RELEASE", []string{"Debug", "Release"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValues(tt.input)
			if got == nil {
				t.Fatal("ParseValues returned nil")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseValues(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestJoinValues(t *testing.T) {
	if got := JoinValues([]string{"Debug", "Release"}); got != "Debug;Release" {
		t.Errorf("JoinValues() = %q", got)
	}
	if got := JoinValues(nil); got != "" {
		t.Errorf("JoinValues(nil) = %q", got)
	}
}
