// Package pyenv wraps the version manager's helper commands. Each helper is an
// opaque executable with a documented contract: arguments in, one value (or one
// value per line) on stdout, non-zero exit status signaling not-found.
package pyenv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/venvman/venvman/internal/config"
	"github.com/venvman/venvman/internal/messages"
)

// ErrNotFound reports that a collaborator signaled not-found via exit status.
var ErrNotFound = errors.New("not found")

// Runner abstracts the version manager collaborators needed by venvman.
// This interface is intentionally package-owned so the orchestrator and tests
// can substitute fakes without touching a real pyenv installation.
type Runner interface {
	// Prefix returns the installation prefix for a version. The sentinel
	// "system" resolves to the system interpreter's prefix.
	Prefix(ctx context.Context, version string) (string, error)
	// VersionName returns the currently active version name.
	VersionName(ctx context.Context) (string, error)
	// Versions lists installed version names, one per line.
	Versions(ctx context.Context) ([]string, error)
	// Latest resolves the newest installed version matching prefix.
	Latest(ctx context.Context, prefix string) (string, error)
	// Which returns the full path of an executable within a version.
	Which(ctx context.Context, version, name string) (string, error)
	// HookScripts lists plugin hook scripts for the named hook kind.
	HookScripts(ctx context.Context, kind string) ([]string, error)
	// Rehash refreshes the version manager's shims.
	Rehash(ctx context.Context) error
}

// CommandRunner implements Runner by invoking pyenv's helper commands.
type CommandRunner struct {
	cfg *config.Config
	// runCommand is a test seam over exec. extraEnv entries are appended to
	// the inherited environment.
	runCommand func(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error)
}

// NewCommandRunner returns a Runner that shells out to pyenv helpers.
func NewCommandRunner(cfg *config.Config) *CommandRunner {
	return &CommandRunner{cfg: cfg, runCommand: runHelperCommand}
}

func runHelperCommand(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// run invokes pyenv-<helper> and returns trimmed stdout. A non-zero exit maps
// to ErrNotFound per the collaborator contract.
func (r *CommandRunner) run(ctx context.Context, extraEnv []string, helper string, args ...string) (string, error) {
	out, err := r.runCommand(ctx, extraEnv, "pyenv-"+helper, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf(messages.PyenvCommandFailedFmt, helper, ErrNotFound)
		}
		return "", fmt.Errorf(messages.PyenvCommandFailedFmt, helper, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Prefix returns the installation prefix for a version.
func (r *CommandRunner) Prefix(ctx context.Context, version string) (string, error) {
	return r.run(ctx, nil, "prefix", version)
}

// VersionName returns the currently active version name.
func (r *CommandRunner) VersionName(ctx context.Context) (string, error) {
	name, err := r.run(ctx, nil, "version-name")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New(messages.PyenvNoActiveVersion)
	}
	return name, nil
}

// Versions lists installed version names.
func (r *CommandRunner) Versions(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, nil, "versions", "--bare")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Latest resolves the newest installed version matching prefix.
func (r *CommandRunner) Latest(ctx context.Context, prefix string) (string, error) {
	return r.run(ctx, nil, "latest", prefix)
}

// Which returns the full path of an executable within a version. The version
// is scoped through PYENV_VERSION per the helper's contract.
func (r *CommandRunner) Which(ctx context.Context, version, name string) (string, error) {
	out, err := r.run(ctx, []string{"PYENV_VERSION=" + version}, "which", name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf(messages.PyenvNotFoundFmt, "which", name)
		}
		return "", err
	}
	return out, nil
}

// HookScripts lists plugin hook scripts for the named hook kind.
func (r *CommandRunner) HookScripts(ctx context.Context, kind string) ([]string, error) {
	out, err := r.run(ctx, nil, "hooks", kind)
	if err != nil {
		// No hooks registered is not an error.
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return splitLines(out), nil
}

// Rehash refreshes the version manager's shims.
func (r *CommandRunner) Rehash(ctx context.Context) error {
	_, err := r.run(ctx, nil, "rehash")
	return err
}

func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
