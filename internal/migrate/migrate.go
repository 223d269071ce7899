// Package migrate preserves installed packages across an upgrade-in-place.
// The old environment is renamed aside rather than deleted, so a failed
// reinstall leaves an inspectable rollback copy.
package migrate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"zombiezen.com/go/log"

	"github.com/venvman/venvman/internal/fsutil"
	"github.com/venvman/venvman/internal/messages"
)

// Migration tracks one upgrade's snapshot state.
type Migration struct {
	// Canonical is the environment being upgraded.
	Canonical string
	// AsidePath is where the previous environment was moved, empty until
	// Snapshot succeeds.
	AsidePath string
	// PackagesFile is the frozen package list, empty until Snapshot succeeds.
	PackagesFile string

	frozen string
}

// Migrator runs pip inside environments to freeze and reinstall packages.
type Migrator struct {
	stderr io.Writer

	// Seams for tests.
	runPip  func(ctx context.Context, envBin string, args []string, stdout io.Writer) error
	newSeed func() string
	rename  func(oldpath, newpath string) error
}

// New returns a Migrator reporting warnings to stderr.
func New(stderr io.Writer) *Migrator {
	return &Migrator{
		stderr: stderr,
		runPip: func(ctx context.Context, envBin string, args []string, stdout io.Writer) error {
			cmd := exec.CommandContext(ctx, filepath.Join(envBin, "pip"), args...)
			cmd.Stdout = stdout
			cmd.Stderr = nil
			return cmd.Run()
		},
		newSeed: func() string { return uuid.NewString()[:8] },
		rename:  os.Rename,
	}
}

// Snapshot freezes the installed package list of the existing environment to
// a sibling file and renames the environment aside to a uniquely seeded path.
// The rename preserves a rollback copy; nothing is deleted here.
func (m *Migrator) Snapshot(ctx context.Context, canonical string) (*Migration, error) {
	mig := &Migration{Canonical: canonical}

	var frozen bytes.Buffer
	if err := m.runPip(ctx, filepath.Join(canonical, "bin"), []string{"freeze"}, &frozen); err != nil {
		return nil, fmt.Errorf(messages.MigrateFreezeFailedFmt, canonical, err)
	}
	mig.frozen = frozen.String()

	seed := m.newSeed()
	mig.PackagesFile = canonical + ".migrate-" + seed + ".txt"
	if err := fsutil.WriteFileAtomic(mig.PackagesFile, frozen.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf(messages.FailedWriteFmt, mig.PackagesFile, err)
	}

	aside := canonical + ".rollback-" + seed
	if err := m.rename(canonical, aside); err != nil {
		_ = os.Remove(mig.PackagesFile)
		return nil, fmt.Errorf(messages.MigrateAsideFailedFmt, canonical, err)
	}
	mig.AsidePath = aside
	log.Debugf(ctx, "moved %s aside to %s", canonical, aside)
	return mig, nil
}

// Reinstall installs the frozen package list into the rebuilt environment.
// Failure is non-fatal by contract: the rebuilt environment is already usable,
// so a warning naming the rollback copy and the package list is emitted and
// both are left in place for inspection.
func (m *Migrator) Reinstall(ctx context.Context, mig *Migration, verbose bool) error {
	if strings.TrimSpace(mig.frozen) == "" {
		_, _ = fmt.Fprint(m.stderr, messages.MigrateNothingToMigrate)
		m.finish(mig)
		return nil
	}

	envBin := filepath.Join(mig.Canonical, "bin")
	if err := m.runPip(ctx, envBin, []string{"install", "-r", mig.PackagesFile}, io.Discard); err != nil {
		warnColor := color.New(color.FgYellow)
		_, _ = warnColor.Fprintf(m.stderr, messages.MigrateReinstallWarningFmt,
			mig.Canonical, err, mig.AsidePath, mig.PackagesFile)
		return nil
	}

	if verbose {
		m.printPackageDiff(ctx, mig, envBin)
	}
	m.finish(mig)
	return nil
}

// printPackageDiff shows what changed between the old and new package lists.
func (m *Migrator) printPackageDiff(ctx context.Context, mig *Migration, envBin string) {
	var after bytes.Buffer
	if err := m.runPip(ctx, envBin, []string{"freeze"}, &after); err != nil {
		log.Debugf(ctx, "freeze after reinstall: %v", err)
		return
	}
	diff := udiff.Unified("before", "after", mig.frozen, after.String())
	if diff == "" {
		return
	}
	_, _ = fmt.Fprintf(m.stderr, messages.MigrateDiffHeaderFmt, mig.Canonical)
	_, _ = fmt.Fprint(m.stderr, diff)
}

// finish removes the frozen list and the rollback copy after a successful
// migration.
func (m *Migrator) finish(mig *Migration) {
	if mig.PackagesFile != "" {
		_ = os.Remove(mig.PackagesFile)
	}
	if mig.AsidePath != "" {
		_ = os.RemoveAll(mig.AsidePath)
	}
}
