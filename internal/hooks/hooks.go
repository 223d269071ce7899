// Package hooks discovers and runs plugin hook scripts around the build.
// Hooks are opaque callables: venvman assumes nothing about their internals
// beyond "runs, may fail, may mutate filesystem state".
package hooks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"zombiezen.com/go/log"

	"github.com/venvman/venvman/internal/messages"
	"github.com/venvman/venvman/internal/pyenv"
)

// Hook is one discovered callable, invoked in registration order.
type Hook struct {
	// Path is the script location.
	Path string
}

// List is an ordered collection of hooks.
type List struct {
	hooks []Hook

	// runScript is a test seam over exec.
	runScript func(ctx context.Context, path string, env []string) error
}

// Discover collects hook scripts for the named kind: first the version
// manager's registered plugin hooks, then any *.bash scripts under the
// configured extra hook paths. Order within a directory is lexical so runs
// are deterministic.
func Discover(ctx context.Context, runner pyenv.Runner, kind string, extraPaths []string) (*List, error) {
	list := &List{runScript: runScript}

	scripts, err := runner.HookScripts(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, script := range scripts {
		list.hooks = append(list.hooks, Hook{Path: script})
	}

	for _, dir := range extraPaths {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, kind, "**", "*.bash"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, match := range matches {
			list.hooks = append(list.hooks, Hook{Path: match})
		}
	}
	log.Debugf(ctx, "discovered %d %s hooks", len(list.hooks), kind)
	return list, nil
}

// Len returns the number of registered hooks.
func (l *List) Len() int {
	return len(l.hooks)
}

// Run invokes every hook in registration order with env appended to the
// process environment. The first failure stops the run and propagates.
func (l *List) Run(ctx context.Context, env []string) error {
	for _, hook := range l.hooks {
		log.Debugf(ctx, "running hook %s", hook.Path)
		if err := l.runScript(ctx, hook.Path, env); err != nil {
			return fmt.Errorf(messages.HookFailedFmt, hook.Path, err)
		}
	}
	return nil
}

func runScript(ctx context.Context, path string, env []string) error {
	cmd := exec.CommandContext(ctx, "bash", path)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
