// Package create sequences an environment build: validation, backend
// detection, confirmation, hooks, the build itself, bootstrap tooling,
// package migration, and cleanup of partial state on failure.
package create

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"zombiezen.com/go/log"

	"github.com/venvman/venvman/internal/backend"
	"github.com/venvman/venvman/internal/bootstrap"
	"github.com/venvman/venvman/internal/builder"
	"github.com/venvman/venvman/internal/config"
	"github.com/venvman/venvman/internal/envpath"
	"github.com/venvman/venvman/internal/hooks"
	"github.com/venvman/venvman/internal/messages"
	"github.com/venvman/venvman/internal/migrate"
	"github.com/venvman/venvman/internal/options"
	"github.com/venvman/venvman/internal/pyenv"
)

// ExitStatusError carries a backend's original non-zero exit status to the
// process boundary.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Params wires the orchestrator's collaborators. Zero-value fields fall back
// to the real implementations.
type Params struct {
	Cfg        *config.Config
	Runner     pyenv.Runner
	Sys        System
	DetectSys  backend.System
	BuilderSys builder.System
	Prompter   Prompter
	Fetcher    bootstrap.Fetcher
	Migrator   *migrate.Migrator
	Stdout     io.Writer
	Stderr     io.Writer
}

func (p *Params) fillDefaults() error {
	if p.Cfg == nil {
		return errors.New(messages.ConfigRequired)
	}
	if p.Runner == nil {
		return errors.New(messages.PyenvRunnerRequired)
	}
	if p.Sys == nil {
		p.Sys = RealSystem{}
	}
	if p.DetectSys == nil {
		p.DetectSys = backend.RealSystem{}
	}
	if p.BuilderSys == nil {
		p.BuilderSys = builder.RealSystem{}
	}
	if p.Prompter == nil {
		p.Prompter = NewHuhPrompter()
	}
	if p.Fetcher == nil {
		p.Fetcher = bootstrap.NewHTTPFetcher()
	}
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Stderr == nil {
		p.Stderr = os.Stderr
	}
	if p.Migrator == nil {
		p.Migrator = migrate.New(p.Stderr)
	}
	return nil
}

// Run executes the full create lifecycle. The caller's context should be
// cancelled on interrupt signals; cancellation kills the backend subprocess
// and routes through the same cleanup as a build failure.
func Run(ctx context.Context, p Params, parsed options.Parsed) error {
	if err := p.fillDefaults(); err != nil {
		return err
	}
	opts := parsed.Options

	sourceVersion, name, err := resolvePositionals(ctx, p.Runner, parsed.Positionals)
	if err != nil {
		return err
	}

	// Resolving the prefix both validates the source version and feeds the
	// path resolver's version-segment reuse. Failure here precedes any
	// filesystem mutation.
	prefix, err := resolvePrefix(ctx, p.Runner, sourceVersion)
	if err != nil {
		return err
	}

	opts.PythonOverride = resolveInterpreterOverride(ctx, p.Runner, sourceVersion, opts.PythonOverride)

	paths, err := envpath.Resolve(p.Cfg.Root, sourceVersion, name, prefixSegmentLookup(p.Cfg, prefix))
	if err != nil {
		return err
	}
	log.Debugf(ctx, "resolved environment %s (canonical %s)", paths.Name, paths.Canonical)

	det, err := backend.Detect(ctx, p.DetectSys, prefix, opts.PythonOverride, sourceVersion == envpath.SystemVersion)
	if err != nil {
		return err
	}
	inv, err := backend.Translate(det, opts, parsed.Passthrough, paths.Canonical)
	if err != nil {
		return err
	}

	if err := confirmExisting(p, det.Choice, opts, paths); err != nil {
		return err
	}

	hookList, err := hooks.Discover(ctx, p.Runner, "virtualenv", p.Cfg.HookPaths)
	if err != nil {
		return err
	}
	hookEnv := []string{
		"VENVMAN_SOURCE_VERSION=" + sourceVersion,
		"VENVMAN_ENV_NAME=" + paths.Name,
		"VENVMAN_ENV_PATH=" + paths.Canonical,
	}

	attempt := &buildAttempt{paths: paths, choice: det.Choice}
	guard := newCleanupGuard(p.Sys, p.Stderr, attempt)
	defer guard.run()

	if err := hookList.Run(ctx, append(hookEnv, "VENVMAN_HOOK_PHASE=pre")); err != nil {
		return err
	}

	bootstrapper := bootstrap.New(p.Cfg, p.Fetcher, p.Stderr)

	var migration *migrate.Migration
	if opts.Upgrade && det.Choice != backend.Venv && attempt.preExisted {
		migration, err = p.Migrator.Snapshot(ctx, paths.Canonical)
		if err != nil {
			return err
		}
	}

	if det.InstallVirtualenv {
		if err := bootstrapper.InstallVirtualenv(ctx, prefix); err != nil {
			return err
		}
	}

	if err := p.Sys.MkdirAll(filepath.Dir(paths.Canonical), 0o755); err != nil {
		return fmt.Errorf(messages.FailedCreateDirFmt, filepath.Dir(paths.Canonical), err)
	}

	if !opts.Quiet {
		_, _ = fmt.Fprintf(p.Stderr, messages.BuildCreatingFmt, det.Choice, paths.Canonical)
	}
	b := builder.New(p.BuilderSys, p.Cfg.CacheDir, p.Stdout, p.Stderr)
	status, err := b.Build(ctx, inv, opts.Quiet)
	if err != nil {
		return err
	}
	attempt.exitStatus = status

	// Fixups run regardless of the build status and never fail the build.
	b.Fixup(ctx, prefix, paths)

	if status != 0 {
		if ctx.Err() != nil {
			_, _ = fmt.Fprintln(p.Stderr, messages.InterruptedMsg)
		} else {
			_, _ = fmt.Fprintf(p.Stderr, messages.BuildFailedFmt+"\n", det.Choice, status)
		}
		return &ExitStatusError{Code: status}
	}

	maintainCompatLink(p, paths)
	guard.disarm()

	// A bootstrap failure is fatal but leaves the built environment in
	// place: it is still usable, if incomplete.
	if !opts.SkipPip && det.Choice != backend.Conda {
		if err := bootstrapper.EnsurePip(ctx, paths.BinDir(), opts.SkipSetuptools); err != nil {
			return err
		}
	}

	if migration != nil {
		if err := p.Migrator.Reinstall(ctx, migration, opts.Verbose); err != nil {
			return err
		}
	}

	if err := hookList.Run(ctx, append(hookEnv, "VENVMAN_HOOK_PHASE=post")); err != nil {
		return err
	}

	if err := p.Runner.Rehash(ctx); err != nil {
		return fmt.Errorf(messages.RehashFailedFmt, err)
	}

	if !opts.Quiet {
		_, _ = color.New(color.FgGreen).Fprintf(p.Stderr, messages.BuildDoneFmt, paths.Canonical)
	}
	return nil
}

// resolvePositionals maps the positional arguments onto source version and
// environment name, defaulting the version to the active one.
func resolvePositionals(ctx context.Context, runner pyenv.Runner, positionals []string) (string, string, error) {
	switch len(positionals) {
	case 0:
		return "", "", errors.New(messages.CreateMissingName)
	case 1:
		version, err := runner.VersionName(ctx)
		if err != nil {
			return "", "", err
		}
		return version, positionals[0], nil
	case 2:
		return positionals[0], positionals[1], nil
	default:
		return "", "", errors.New(messages.CreateTooManyPositional)
	}
}

// resolvePrefix validates the source version against the installed set,
// falling back to the latest matching installed version.
func resolvePrefix(ctx context.Context, runner pyenv.Runner, version string) (string, error) {
	prefix, err := runner.Prefix(ctx, version)
	if err == nil {
		return prefix, nil
	}
	if !errors.Is(err, pyenv.ErrNotFound) {
		return "", err
	}
	latest, latestErr := runner.Latest(ctx, version)
	if latestErr != nil {
		return "", fmt.Errorf(messages.ValidateVersionMissingFmt, version, version)
	}
	prefix, err = runner.Prefix(ctx, latest)
	if err != nil {
		return "", fmt.Errorf(messages.ValidateVersionMissingFmt, version, version)
	}
	return prefix, nil
}

// resolveInterpreterOverride expands a bare interpreter name through the
// version manager's which helper. Explicit paths pass through untouched, and
// an unresolvable name is kept verbatim for the backend to report.
func resolveInterpreterOverride(ctx context.Context, runner pyenv.Runner, version, override string) string {
	if override == "" || strings.ContainsRune(override, '/') {
		return override
	}
	resolved, err := runner.Which(ctx, version, override)
	if err != nil || resolved == "" {
		return override
	}
	log.Debugf(ctx, "resolved interpreter %s to %s", override, resolved)
	return resolved
}

// prefixSegmentLookup derives the on-disk version segment from a resolved
// installation prefix under the versions directory.
func prefixSegmentLookup(cfg *config.Config, prefix string) envpath.PrefixLookup {
	return func(string) (string, bool) {
		rel, err := filepath.Rel(cfg.VersionsDir(), prefix)
		if err != nil {
			return "", false
		}
		rel = filepath.ToSlash(rel)
		if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
			return "", false
		}
		segment, _, _ := strings.Cut(rel, "/")
		return segment, true
	}
}

// confirmExisting enforces the confirm-or-force rule when the canonical path
// already holds a populated executable directory.
func confirmExisting(p Params, choice backend.Choice, opts options.Set, paths envpath.Paths) error {
	entries, err := p.Sys.ReadDir(paths.BinDir())
	if err != nil || len(entries) == 0 {
		return nil
	}
	if backend.EffectiveForce(choice, opts) {
		return nil
	}
	confirmed, err := p.Prompter.ConfirmRebuild(paths.Canonical)
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrDeclined
	}
	return nil
}

// maintainCompatLink keeps the legacy-shaped path as a symlink to the
// canonical environment for older tooling. Only symlinks are ever replaced.
func maintainCompatLink(p Params, paths envpath.Paths) {
	if !paths.NeedsCompatLink() {
		return
	}
	if info, err := p.Sys.Lstat(paths.Legacy); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return
		}
		if err := p.Sys.Remove(paths.Legacy); err != nil {
			_, _ = fmt.Fprintf(p.Stderr, messages.CleanupRemoveFailedFmt, paths.Legacy, err)
			return
		}
	}
	if err := p.Sys.Symlink(paths.Canonical, paths.Legacy); err != nil {
		_, _ = fmt.Fprintf(p.Stderr, messages.FixupSymlinkFailedFmt, paths.Legacy, err)
	}
}
