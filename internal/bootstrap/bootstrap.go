// Package bootstrap installs the tooling a fresh environment needs: the
// virtualenv backend itself when absent from the source prefix, and
// pip/setuptools inside environments built without them. Downloads land in the
// shared cache directory so repeated builds reuse them.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"zombiezen.com/go/log"

	"github.com/venvman/venvman/internal/config"
	"github.com/venvman/venvman/internal/messages"
)

// Bootstrapper installs backend tooling and post-build pip/setuptools.
type Bootstrapper struct {
	cfg     *config.Config
	fetcher Fetcher
	stderr  io.Writer

	// runCommand is a test seam over exec.
	runCommand func(ctx context.Context, dir string, name string, args ...string) error
}

// New returns a Bootstrapper using fetcher for downloads.
func New(cfg *config.Config, fetcher Fetcher, stderr io.Writer) *Bootstrapper {
	return &Bootstrapper{
		cfg:     cfg,
		fetcher: fetcher,
		stderr:  stderr,
		runCommand: func(ctx context.Context, dir string, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			cmd.Dir = dir
			cmd.Stdout = nil
			cmd.Stderr = nil
			return cmd.Run()
		},
	}
}

// InstallVirtualenv installs the virtualenv tool into the source prefix using
// its pip, honoring the configured version pin.
func (b *Bootstrapper) InstallVirtualenv(ctx context.Context, sourcePrefix string) error {
	pip := filepath.Join(sourcePrefix, "bin", "pip")
	spec := "virtualenv"
	if b.cfg.VirtualenvVersion != "" {
		spec = "virtualenv==" + b.cfg.VirtualenvVersion
	}
	_, _ = fmt.Fprintf(b.stderr, messages.BootstrapInstallVirtualenvFmt, sourcePrefix)
	if err := b.runCommand(ctx, b.cfg.CacheDir, pip, "install", spec); err != nil {
		return fmt.Errorf(messages.BootstrapInstallFailedFmt, spec, err)
	}
	return nil
}

// EnsurePip bootstraps pip (and setuptools) into a freshly built environment
// whose backend did not provide them. The get-pip script is cached and its
// download resumed across invocations.
func (b *Bootstrapper) EnsurePip(ctx context.Context, envBinDir string, skipSetuptools bool) error {
	python := filepath.Join(envBinDir, "python")
	if _, err := os.Stat(filepath.Join(envBinDir, "pip")); err == nil {
		log.Debugf(ctx, "pip already present in %s", envBinDir)
		return nil
	}

	script, err := b.ensureScript(ctx, b.cfg.GetPipURL)
	if err != nil {
		return fmt.Errorf(messages.BootstrapPipFailedFmt, envBinDir, err)
	}

	args := []string{script}
	if skipSetuptools {
		args = append(args, "--no-setuptools")
	}
	if err := b.runCommand(ctx, b.cfg.CacheDir, python, args...); err != nil {
		return fmt.Errorf(messages.BootstrapPipFailedFmt, envBinDir, err)
	}

	// An explicit setuptools bootstrap script overrides whatever get-pip
	// installed.
	if !skipSetuptools && b.cfg.SetuptoolsURL != "" {
		setupScript, err := b.ensureScript(ctx, b.cfg.SetuptoolsURL)
		if err != nil {
			return fmt.Errorf(messages.BootstrapPipFailedFmt, envBinDir, err)
		}
		if err := b.runCommand(ctx, b.cfg.CacheDir, python, setupScript); err != nil {
			return fmt.Errorf(messages.BootstrapPipFailedFmt, envBinDir, err)
		}
	}
	return nil
}

// ensureScript returns the cached path for url, downloading it under the
// cache lock when absent.
func (b *Bootstrapper) ensureScript(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(b.cfg.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf(messages.FailedCreateDirFmt, b.cfg.CacheDir, err)
	}
	dest := filepath.Join(b.cfg.CacheDir, filepath.Base(url))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if b.cfg.NoNetwork {
		return "", fmt.Errorf(messages.BootstrapNoNetworkFmt, url, config.EnvNoNetwork)
	}

	lockPath := dest + ".lock"
	err := withFileLock(lockPath, func() error {
		if _, err := os.Stat(dest); err == nil {
			return nil
		}
		_, _ = fmt.Fprintf(b.stderr, messages.BootstrapDownloadFmt, url)
		return b.fetcher.Fetch(ctx, url, dest)
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}
