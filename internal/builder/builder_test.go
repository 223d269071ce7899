package builder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/venvman/venvman/internal/backend"
	"github.com/venvman/venvman/internal/envpath"
)

type fakeSystem struct {
	dirs     map[string]bool
	files    map[string]bool
	symlinks map[string]string
	written  map[string][]byte

	symlinkErr error
	writeErr   error
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		dirs:     map[string]bool{},
		files:    map[string]bool{},
		symlinks: map[string]string{},
		written:  map[string][]byte{},
	}
}

func (s *fakeSystem) Stat(name string) (os.FileInfo, error) {
	if s.files[name] || s.dirs[name] {
		return fakeFileInfo{name: filepath.Base(name), dir: s.dirs[name]}, nil
	}
	if _, ok := s.symlinks[name]; ok {
		return fakeFileInfo{name: filepath.Base(name)}, nil
	}
	if _, ok := s.written[name]; ok {
		return fakeFileInfo{name: filepath.Base(name)}, nil
	}
	return nil, os.ErrNotExist
}

func (s *fakeSystem) Lstat(name string) (os.FileInfo, error) { return s.Stat(name) }

func (s *fakeSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	if !s.dirs[name] {
		return nil, os.ErrNotExist
	}
	var entries []fs.DirEntry
	for f := range s.files {
		if filepath.Dir(f) == name {
			entries = append(entries, fakeDirEntry{name: filepath.Base(f)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (s *fakeSystem) MkdirAll(path string, _ os.FileMode) error {
	s.dirs[path] = true
	return nil
}

func (s *fakeSystem) Symlink(oldname, newname string) error {
	if s.symlinkErr != nil {
		return s.symlinkErr
	}
	s.symlinks[newname] = oldname
	return nil
}

func (s *fakeSystem) WriteFile(name string, data []byte, _ os.FileMode) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.written[name] = data
	return nil
}

type fakeFileInfo struct {
	name string
	dir  bool
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() os.FileMode  { return 0o755 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.dir }
func (f fakeFileInfo) Sys() any           { return nil }

type fakeDirEntry struct {
	name string
}

func (e fakeDirEntry) Name() string               { return e.name }
func (e fakeDirEntry) IsDir() bool                { return false }
func (e fakeDirEntry) Type() fs.FileMode          { return 0 }
func (e fakeDirEntry) Info() (fs.FileInfo, error) { return fakeFileInfo{name: e.name}, nil }

func TestBuildReturnsBackendStatus(t *testing.T) {
	sys := newFakeSystem()
	var got invocationSpec
	b := New(sys, "/cache", &bytes.Buffer{}, &bytes.Buffer{})
	b.runCommand = func(_ context.Context, inv invocationSpec) (int, error) {
		got = inv
		return 3, nil
	}

	inv := backend.Invocation{Exe: "virtualenv", Args: []string{"--quiet", "/R/v/env"}}
	status, err := b.Build(context.Background(), inv, false)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if status != 3 {
		t.Fatalf("status = %d, want 3", status)
	}
	if got.exe != "virtualenv" || got.dir != "/cache" {
		t.Fatalf("invocation = %+v", got)
	}
	if !sys.dirs["/cache"] {
		t.Fatal("cache dir must be created before the build runs")
	}
}

func TestBuildQuietDiscardsStdout(t *testing.T) {
	sys := newFakeSystem()
	stdout := &bytes.Buffer{}
	b := New(sys, "/cache", stdout, &bytes.Buffer{})
	var sink io.Writer
	b.runCommand = func(_ context.Context, inv invocationSpec) (int, error) {
		sink = inv.stdout
		return 0, nil
	}

	if _, err := b.Build(context.Background(), backend.Invocation{Exe: "conda"}, true); err != nil {
		t.Fatal(err)
	}
	if sink != io.Discard {
		t.Fatal("quiet build must discard backend stdout")
	}
	b.runCommand = func(_ context.Context, inv invocationSpec) (int, error) {
		sink = inv.stdout
		return 0, nil
	}
	if _, err := b.Build(context.Background(), backend.Invocation{Exe: "conda"}, false); err != nil {
		t.Fatal(err)
	}
	if sink != stdout {
		t.Fatal("non-quiet build must stream backend stdout")
	}
}

func TestBuildStartFailure(t *testing.T) {
	sys := newFakeSystem()
	b := New(sys, "/cache", &bytes.Buffer{}, &bytes.Buffer{})
	b.runCommand = func(_ context.Context, _ invocationSpec) (int, error) {
		return -1, errors.New("no such file or directory")
	}

	status, err := b.Build(context.Background(), backend.Invocation{Exe: "missing-tool"}, false)
	if err == nil {
		t.Fatal("expected start failure to surface as an error")
	}
	if status != -1 {
		t.Fatalf("status = %d, want -1", status)
	}
	if !strings.Contains(err.Error(), "missing-tool") {
		t.Fatalf("error = %v", err)
	}
}

func TestFixupLinksConfigExecutables(t *testing.T) {
	sys := newFakeSystem()
	sys.dirs["/R/versions/3.9.0/bin"] = true
	sys.files["/R/versions/3.9.0/bin/python"] = true
	sys.files["/R/versions/3.9.0/bin/python3-config"] = true
	sys.files["/R/versions/3.9.0/bin/python3.9-config"] = true
	sys.files["/R/versions/3.9.0/bin/2to3"] = true

	paths := envpath.Paths{Name: "tools", Canonical: "/R/versions/3.9.0/envs/tools"}
	b := New(sys, "/cache", &bytes.Buffer{}, &bytes.Buffer{})
	b.Fixup(context.Background(), "/R/versions/3.9.0", paths)

	for _, name := range []string{"python3-config", "python3.9-config"} {
		link := filepath.Join(paths.BinDir(), name)
		if sys.symlinks[link] != filepath.Join("/R/versions/3.9.0/bin", name) {
			t.Errorf("missing symlink for %s: %v", name, sys.symlinks)
		}
	}
	if _, ok := sys.symlinks[filepath.Join(paths.BinDir(), "2to3")]; ok {
		t.Error("2to3 is not a config executable and must not be linked")
	}
	if _, ok := sys.symlinks[filepath.Join(paths.BinDir(), "python")]; ok {
		t.Error("the interpreter itself must not be linked")
	}
}

func TestFixupSkipsExistingTargets(t *testing.T) {
	sys := newFakeSystem()
	sys.dirs["/R/versions/3.9.0/bin"] = true
	sys.files["/R/versions/3.9.0/bin/python3-config"] = true

	paths := envpath.Paths{Name: "tools", Canonical: "/R/versions/3.9.0/envs/tools"}
	existing := filepath.Join(paths.BinDir(), "python3-config")
	sys.files[existing] = true

	b := New(sys, "/cache", &bytes.Buffer{}, &bytes.Buffer{})
	b.Fixup(context.Background(), "/R/versions/3.9.0", paths)

	if _, ok := sys.symlinks[existing]; ok {
		t.Fatal("existing target must be left alone")
	}
}

func TestFixupWritesPydocWrapper(t *testing.T) {
	sys := newFakeSystem()
	paths := envpath.Paths{Name: "tools", Canonical: "/R/versions/3.9.0/envs/tools"}

	b := New(sys, "/cache", &bytes.Buffer{}, &bytes.Buffer{})
	b.Fixup(context.Background(), "/R/versions/3.9.0", paths)

	wrapper := filepath.Join(paths.BinDir(), "pydoc")
	data, ok := sys.written[wrapper]
	if !ok {
		t.Fatal("pydoc wrapper not written")
	}
	if !strings.Contains(string(data), "python -m pydoc") {
		t.Fatalf("wrapper content = %q", data)
	}

	// Running again with the wrapper present leaves it untouched.
	delete(sys.written, wrapper)
	sys.files[wrapper] = true
	b.Fixup(context.Background(), "/R/versions/3.9.0", paths)
	if _, ok := sys.written[wrapper]; ok {
		t.Fatal("existing pydoc must not be overwritten")
	}
}

func TestFixupWarnsOnSymlinkFailure(t *testing.T) {
	sys := newFakeSystem()
	sys.dirs["/R/versions/3.9.0/bin"] = true
	sys.files["/R/versions/3.9.0/bin/python3-config"] = true
	sys.symlinkErr = errors.New("permission denied")

	stderr := &bytes.Buffer{}
	paths := envpath.Paths{Name: "tools", Canonical: "/R/versions/3.9.0/envs/tools"}
	b := New(sys, "/cache", &bytes.Buffer{}, stderr)
	b.Fixup(context.Background(), "/R/versions/3.9.0", paths)

	if !strings.Contains(stderr.String(), "python3-config") {
		t.Fatalf("stderr = %q, want a warning naming the executable", stderr.String())
	}
}
