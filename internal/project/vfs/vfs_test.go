package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// TestFSInterface runs the same checks against the in-memory and OS backends.
func TestFSInterface(t *testing.T) {
	t.Run("MemFS", func(t *testing.T) {
		testFSOperations(t, NewMemFS(), "/root")
	})

	t.Run("OSFS", func(t *testing.T) {
		testFSOperations(t, NewOSFS(), t.TempDir())
	})
}

func testFSOperations(t *testing.T, fsys FS, root string) {
	t.Run("WriteFile_ReadFile", func(t *testing.T) {
		path := filepath.Join(root, "sdk", "mscorlib.dll")
		if err := fsys.WriteFile(path, []byte("MZ"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		got, err := fsys.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(got) != "MZ" {
			t.Errorf("content mismatch: got %q", got)
		}
	})

	t.Run("FileExists", func(t *testing.T) {
		path := filepath.Join(root, "exists.txt")
		if err := fsys.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		ok, err := fsys.FileExists(path)
		if err != nil || !ok {
			t.Errorf("FileExists(existing) = %v, %v; want true, nil", ok, err)
		}

		ok, err = fsys.FileExists(filepath.Join(root, "missing.txt"))
		if err != nil || ok {
			t.Errorf("FileExists(missing) = %v, %v; want false, nil", ok, err)
		}

		ok, err = fsys.FileExists(root)
		if err != nil || ok {
			t.Errorf("FileExists(dir) = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("Stat", func(t *testing.T) {
		path := filepath.Join(root, "stat.txt")
		if err := fsys.WriteFile(path, []byte("12345"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		info, err := fsys.Stat(path)
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if info.Size() != 5 {
			t.Errorf("Size: got %d, want 5", info.Size())
		}

		_, err = fsys.Stat(filepath.Join(root, "nope"))
		if !errors.Is(err, fs.ErrNotExist) && !os.IsNotExist(err) {
			t.Errorf("Stat(missing) error = %v, want not-exist", err)
		}
	})
}

func TestFileExists_PropagatesErrors(t *testing.T) {
	fsys := New(&failingFs{Fs: afero.NewMemMapFs(), err: errors.New("device not ready")})
	_, err := fsys.FileExists("/x")
	if err == nil {
		t.Fatal("expected error from failing file system")
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) || pathErr.Path != "/x" {
		t.Errorf("expected *fs.PathError for /x, got %v", err)
	}
}

type failingFs struct {
	afero.Fs
	err error
}

func (f *failingFs) Stat(name string) (os.FileInfo, error) {
	return nil, f.err
}
