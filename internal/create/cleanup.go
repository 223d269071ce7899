package create

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/venvman/venvman/internal/backend"
	"github.com/venvman/venvman/internal/envpath"
	"github.com/venvman/venvman/internal/messages"
)

// buildAttempt is the transient record of one build: created before the build
// step, consulted by the cleanup guard, discarded when the process exits.
type buildAttempt struct {
	paths  envpath.Paths
	choice backend.Choice
	// preExisted records whether the canonical path existed before this run
	// started; cleanup only removes paths created by this run.
	preExisted bool
	exitStatus int
}

// cleanupGuard undoes partial state when a build fails or is interrupted.
// It is registered before the build step and disarmed on confirmed success,
// so every exit path in between runs it exactly once. Running it again is a
// no-op.
type cleanupGuard struct {
	sys     System
	stderr  io.Writer
	attempt *buildAttempt
	armed   bool
}

// newCleanupGuard snapshots the pre-run state of the attempt's canonical path
// and returns an armed guard.
func newCleanupGuard(sys System, stderr io.Writer, attempt *buildAttempt) *cleanupGuard {
	_, err := sys.Stat(attempt.paths.Canonical)
	attempt.preExisted = err == nil
	return &cleanupGuard{
		sys:     sys,
		stderr:  stderr,
		attempt: attempt,
		armed:   true,
	}
}

// disarm cancels the guard after confirmed success.
func (g *cleanupGuard) disarm() {
	g.armed = false
}

// run removes the partial canonical tree and any compatibility symlink left
// dangling by the failed build. Safe to call whether or not anything was
// created.
func (g *cleanupGuard) run() {
	if !g.armed {
		return
	}
	g.armed = false

	if !g.attempt.preExisted {
		if err := g.sys.RemoveAll(g.attempt.paths.Canonical); err != nil && !errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintf(g.stderr, messages.CleanupRemoveFailedFmt, g.attempt.paths.Canonical, err)
		}
		g.removeDanglingCompatLink()
	}
}

// removeDanglingCompatLink deletes the legacy symlink when it points at the
// canonical path this run failed to create.
func (g *cleanupGuard) removeDanglingCompatLink() {
	paths := g.attempt.paths
	if !paths.NeedsCompatLink() {
		return
	}
	info, err := g.sys.Lstat(paths.Legacy)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return
	}
	target, err := g.sys.Readlink(paths.Legacy)
	if err != nil || target != paths.Canonical {
		return
	}
	if _, err := g.sys.Stat(paths.Canonical); err == nil {
		return
	}
	if err := g.sys.Remove(paths.Legacy); err != nil {
		_, _ = fmt.Fprintf(g.stderr, messages.CleanupRemoveFailedFmt, paths.Legacy, err)
	}
}
