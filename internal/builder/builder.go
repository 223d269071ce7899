// Package builder invokes the chosen backend as a subprocess and performs the
// idempotent post-build fixups every environment receives.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"zombiezen.com/go/log"

	"github.com/venvman/venvman/internal/backend"
	"github.com/venvman/venvman/internal/envpath"
	"github.com/venvman/venvman/internal/messages"
)

// System abstracts the filesystem operations the builder performs.
// Package-local per the codebase convention so tests can run in parallel
// without shared global state.
type System interface {
	Stat(name string) (os.FileInfo, error)
	Lstat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	MkdirAll(path string, perm os.FileMode) error
	Symlink(oldname, newname string) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// Lstat returns a FileInfo without following symlinks.
func (RealSystem) Lstat(name string) (os.FileInfo, error) { return os.Lstat(name) }

// ReadDir reads the named directory.
func (RealSystem) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

// MkdirAll creates a directory along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Symlink creates newname as a symbolic link to oldname.
func (RealSystem) Symlink(oldname, newname string) error { return os.Symlink(oldname, newname) }

// WriteFile writes data to the named file.
func (RealSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Builder runs backend invocations and fixups.
type Builder struct {
	sys      System
	cacheDir string
	stdout   io.Writer
	stderr   io.Writer

	// runCommand is a test seam over exec.
	runCommand func(ctx context.Context, inv invocationSpec) (int, error)
}

type invocationSpec struct {
	exe    string
	args   []string
	dir    string
	stdout io.Writer
	stderr io.Writer
}

// New returns a Builder that works from cacheDir so bootstrap downloads are
// shared across invocations instead of littering the caller's directory.
func New(sys System, cacheDir string, stdout, stderr io.Writer) *Builder {
	return &Builder{
		sys:        sys,
		cacheDir:   cacheDir,
		stdout:     stdout,
		stderr:     stderr,
		runCommand: runInvocation,
	}
}

func runInvocation(ctx context.Context, inv invocationSpec) (int, error) {
	cmd := exec.CommandContext(ctx, inv.exe, inv.args...)
	cmd.Dir = inv.dir
	cmd.Stdout = inv.stdout
	cmd.Stderr = inv.stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Build runs the translated backend invocation and returns its exit status.
// A non-zero status is not an error here; the orchestrator decides between
// cleanup and success.
func (b *Builder) Build(ctx context.Context, inv backend.Invocation, quiet bool) (int, error) {
	if err := b.sys.MkdirAll(b.cacheDir, 0o755); err != nil {
		return -1, fmt.Errorf(messages.FailedCreateDirFmt, b.cacheDir, err)
	}
	stdout := b.stdout
	if quiet {
		stdout = io.Discard
	}
	log.Debugf(ctx, "running %s %s", inv.Exe, strings.Join(inv.Args, " "))
	status, err := b.runCommand(ctx, invocationSpec{
		exe:    inv.Exe,
		args:   inv.Args,
		dir:    b.cacheDir,
		stdout: stdout,
		stderr: b.stderr,
	})
	if err != nil {
		return -1, fmt.Errorf(messages.BuildStartFailedFmt, inv.Exe, err)
	}
	return status, nil
}

// Fixup performs the idempotent post-build adjustments: interpreter-config
// auxiliary executables are linked from the source prefix into the new
// environment, and a pydoc wrapper is synthesized when the backend did not
// provide one. Fixups never fail the build; problems are reported as warnings.
func (b *Builder) Fixup(ctx context.Context, sourcePrefix string, paths envpath.Paths) {
	b.linkConfigExecutables(ctx, sourcePrefix, paths)
	b.writePydocWrapper(ctx, paths)
}

// linkConfigExecutables symlinks python*-config helpers from the source
// prefix into the environment's bin directory when not already present.
func (b *Builder) linkConfigExecutables(ctx context.Context, sourcePrefix string, paths envpath.Paths) {
	sourceBin := filepath.Join(sourcePrefix, "bin")
	entries, err := b.sys.ReadDir(sourceBin)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, "-config") || !strings.HasPrefix(name, "python") {
			continue
		}
		target := filepath.Join(paths.BinDir(), name)
		if _, err := b.sys.Lstat(target); err == nil {
			continue
		}
		if err := b.sys.Symlink(filepath.Join(sourceBin, name), target); err != nil {
			_, _ = fmt.Fprintf(b.stderr, messages.FixupSymlinkFailedFmt, name, err)
			continue
		}
		log.Debugf(ctx, "linked %s into %s", name, paths.BinDir())
	}
}

const pydocWrapper = `#!/bin/sh
# Installed by venvman: the backend did not provide a pydoc entry point.
exec python -m pydoc "$@"
`

// writePydocWrapper synthesizes a small pydoc launcher when absent.
func (b *Builder) writePydocWrapper(ctx context.Context, paths envpath.Paths) {
	target := filepath.Join(paths.BinDir(), "pydoc")
	if _, err := b.sys.Stat(target); err == nil {
		return
	}
	if err := b.sys.WriteFile(target, []byte(pydocWrapper), 0o755); err != nil {
		_, _ = fmt.Fprintf(b.stderr, messages.FixupWrapperFailedFmt, err)
		return
	}
	log.Debugf(ctx, "installed pydoc wrapper at %s", target)
}
