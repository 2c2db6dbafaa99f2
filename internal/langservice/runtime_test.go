package langservice

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/projsys/internal/lifecycle"
	"github.com/dshills/projsys/internal/requires"
)

// fakeFS is a map-backed vfs.FS that counts existence probes.
type fakeFS struct {
	mu     sync.Mutex
	files  map[string]bool
	probes []string
	err    error
}

func newFakeFS(paths ...string) *fakeFS {
	f := &fakeFS{files: make(map[string]bool)}
	for _, p := range paths {
		f.files[p] = true
	}
	return f
}

func (f *fakeFS) FileExists(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, path)
	if f.err != nil {
		return false, f.err
	}
	return f.files[path], nil
}

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
}

func (f *fakeFS) WriteFile(path string, _ []byte, _ fs.FileMode) error {
	return &fs.PathError{Op: "write", Path: path, Err: fs.ErrPermission}
}

func (f *fakeFS) Stat(path string) (fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func (f *fakeFS) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.probes)
}

// staticProject serves fixed property values.
type staticProject map[string]string

func (s staticProject) GetEvaluatedPropertyValue(_ context.Context, name string) (string, error) {
	return s[name], nil
}

type failingProject struct{ err error }

func (f failingProject) GetEvaluatedPropertyValue(context.Context, string) (string, error) {
	return "", f.err
}

func referencePaths(c *Context) []string {
	var out []string
	for _, r := range c.References() {
		out = append(out, r.Path)
	}
	return out
}

func TestRuntimeReferencesLoad(t *testing.T) {
	tests := []struct {
		name       string
		sdk        string
		files      []string
		want       []string
		wantProbes int
	}{
		{
			name:       "both present",
			sdk:        `C:\sdk`,
			files:      []string{`C:\sdk\mscorlib.dll`, `C:\sdk\Microsoft.VisualBasic.dll`},
			want:       []string{`C:\sdk\mscorlib.dll`, `C:\sdk\Microsoft.VisualBasic.dll`},
			wantProbes: 2,
		},
		{
			name:       "only second present",
			sdk:        `C:\sdk\`,
			files:      []string{`C:\sdk\Microsoft.VisualBasic.dll`},
			want:       []string{`C:\sdk\Microsoft.VisualBasic.dll`},
			wantProbes: 2,
		},
		{
			name:       "files elsewhere",
			sdk:        "/opt/sdk",
			files:      []string{"/usr/lib/mscorlib.dll"},
			want:       nil,
			wantProbes: 2,
		},
		{
			name:       "no override",
			sdk:        "",
			files:      []string{"mscorlib.dll"},
			want:       nil,
			wantProbes: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := newFakeFS(tt.files...)
			ws := NewWorkspace()
			ws.MarkInitialized()

			r, err := NewRuntimeReferences(staticProject{"FrameworkPathOverride": tt.sdk}, ws, fsys)
			if err != nil {
				t.Fatalf("NewRuntimeReferences() error = %v", err)
			}
			if err := r.Load(context.Background()); err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, referencePaths(ws.Context())); diff != "" {
				t.Errorf("references mismatch (-want +got):\n%s", diff)
			}
			if got := fsys.probeCount(); got != tt.wantProbes {
				t.Errorf("probes = %d, want %d", got, tt.wantProbes)
			}
			for _, ref := range ws.Context().References() {
				if ref.Kind != KindAssembly {
					t.Errorf("reference %s kind = %v", ref.Path, ref.Kind)
				}
			}
		})
	}
}

func TestRuntimeReferencesLoadOnce(t *testing.T) {
	fsys := newFakeFS("/sdk/mscorlib.dll", "/sdk/Microsoft.VisualBasic.dll")
	ws := NewWorkspace()
	ws.MarkInitialized()
	r, err := NewRuntimeReferences(staticProject{"FrameworkPathOverride": "/sdk"}, ws, fsys)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.Load(ctx)
		}()
	}
	wg.Wait()
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for i, err := range errs {
		if err != nil {
			t.Errorf("Load() #%d error = %v", i, err)
		}
	}
	if got := fsys.probeCount(); got != 2 {
		t.Errorf("probes = %d, want 2", got)
	}
	if got := len(ws.Context().References()); got != 2 {
		t.Errorf("references = %d, want 2", got)
	}
	if r.State() != lifecycle.StateInitialized {
		t.Errorf("State() = %v", r.State())
	}
}

func TestRuntimeReferencesWaitsForHost(t *testing.T) {
	fsys := newFakeFS("/sdk/mscorlib.dll")
	ws := NewWorkspace()
	r, err := NewRuntimeReferences(staticProject{"FrameworkPathOverride": "/sdk"}, ws, fsys)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- r.Load(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("Load() returned %v before host initialized", err)
	case <-time.After(20 * time.Millisecond):
	}
	if n := len(ws.Context().References()); n != 0 {
		t.Fatalf("%d references added before host initialized", n)
	}

	ws.MarkInitialized()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Load() did not finish after host initialized")
	}
	if diff := cmp.Diff([]string{"/sdk/mscorlib.dll"}, referencePaths(ws.Context())); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}
}

func TestRuntimeReferencesCancelledWait(t *testing.T) {
	fsys := newFakeFS("/sdk/mscorlib.dll")
	ws := NewWorkspace()
	r, err := NewRuntimeReferences(staticProject{"FrameworkPathOverride": "/sdk"}, ws, fsys)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestRuntimeReferencesErrors(t *testing.T) {
	boom := errors.New("boom")
	ws := NewWorkspace()
	ws.MarkInitialized()

	r, err := NewRuntimeReferences(failingProject{boom}, ws, newFakeFS())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Load() error = %v, want boom", err)
	}
	// The first outcome sticks.
	if err := r.Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("second Load() error = %v, want boom", err)
	}

	fsys := newFakeFS()
	fsys.err = fs.ErrPermission
	r, err = NewRuntimeReferences(staticProject{"FrameworkPathOverride": "/sdk"}, ws, fsys)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Load(context.Background()); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Load() error = %v, want ErrPermission", err)
	}
}

func TestRuntimeReferencesOptions(t *testing.T) {
	fsys := newFakeFS("/sdk/System.dll")
	ws := NewWorkspace()
	ws.MarkInitialized()
	r, err := NewRuntimeReferences(staticProject{"SdkDir": "/sdk"}, ws, fsys,
		WithPathProperty("SdkDir"), WithAssemblies("System.dll"))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/sdk/System.dll"}, referencePaths(ws.Context())); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRuntimeReferencesNilArguments(t *testing.T) {
	ws := NewWorkspace()
	fsys := newFakeFS()
	proj := staticProject{}

	tests := []struct {
		name string
		fn   func() error
		arg  string
	}{
		{"active", func() error { _, err := NewRuntimeReferences(nil, ws, fsys); return err }, "active"},
		{"host", func() error { _, err := NewRuntimeReferences(proj, nil, fsys); return err }, "host"},
		{"fs", func() error { _, err := NewRuntimeReferences(proj, ws, nil); return err }, "fs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var argErr *requires.ArgumentError
			if err := tt.fn(); !errors.As(err, &argErr) || argErr.Name != tt.arg {
				t.Errorf("error = %v, want ArgumentError for %s", err, tt.arg)
			}
		})
	}
}

func TestRuntimeReferencesClose(t *testing.T) {
	ws := NewWorkspace()
	fsys := newFakeFS()
	r, err := NewRuntimeReferences(staticProject{}, ws, fsys)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.Load(context.Background()); !errors.Is(err, lifecycle.ErrDisposed) {
		t.Errorf("Load() after Close error = %v, want ErrDisposed", err)
	}
	if fsys.probeCount() != 0 {
		t.Error("disposed synchronizer probed the file system")
	}
}
