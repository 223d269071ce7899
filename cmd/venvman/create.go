package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/venvman/venvman/internal/config"
	"github.com/venvman/venvman/internal/create"
	"github.com/venvman/venvman/internal/messages"
	"github.com/venvman/venvman/internal/options"
	"github.com/venvman/venvman/internal/pyenv"
)

var getenv = os.Getenv

// backendVersionOutput is a test seam around the backend version probe.
var backendVersionOutput = func(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "virtualenv", "--version").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// backendHelp is a test seam around the backend help delegation.
var backendHelp = func(ctx context.Context, cmd *cobra.Command) {
	help := exec.CommandContext(ctx, "virtualenv", "--help")
	help.Stdout = cmd.OutOrStdout()
	help.Stderr = cmd.ErrOrStderr()
	_ = help.Run()
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.CreateUse,
		Short: messages.CreateShort,
		// The create surface clusters single-dash flags getopt-style and
		// forwards unrecognized flags to the backend, so cobra must hand the
		// raw vector to the option translator.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := options.Parse(args)
			if err != nil {
				return err
			}

			cfg, err := config.Load(getenv)
			if err != nil {
				return err
			}
			initLogging(cfg.Debug || parsed.Options.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := pyenv.NewCommandRunner(cfg)

			switch {
			case parsed.Options.Help:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.CreateUsageHint)
				printCreateOptions(cmd.OutOrStdout())
				backendHelp(ctx, cmd)
				return nil
			case parsed.Options.Version:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), createVersionBanner(ctx))
				return nil
			case parsed.Options.Complete:
				return listVersionsForCompletion(ctx, cmd, runner)
			}

			err = create.Run(ctx, create.Params{
				Cfg:    cfg,
				Runner: runner,
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			}, parsed)
			if errors.Is(err, create.ErrDeclined) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), messages.PromptDeclined)
				return &SilentExitError{Code: 1}
			}
			return err
		},
	}
	return cmd
}

// printCreateOptions lists the options handled by venvman itself; everything
// else is forwarded to the backend, whose help follows.
func printCreateOptions(out io.Writer) {
	rows := []struct{ flag, help string }{
		{"-f, --force", messages.CreateFlagForce},
		{"-u, --upgrade", messages.CreateFlagUpgrade},
		{"-q, --quiet", messages.CreateFlagQuiet},
		{"-v, --verbose", messages.CreateFlagVerbose},
		{"--no-pip", messages.CreateFlagNoPip},
		{"--no-setuptools", messages.CreateFlagNoSetuptools},
		{"-p, --python <interpreter>", messages.CreateFlagPython},
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(out, "  %-28s %s\n", row.flag, row.help)
	}
}

// createVersionBanner formats the tool version together with the detected
// backend's own version string.
func createVersionBanner(ctx context.Context) string {
	banner := versionString()
	if backendVersion := backendVersionOutput(ctx); backendVersion != "" {
		return fmt.Sprintf(messages.VersionBackendFmt, banner, backendVersion)
	}
	return banner
}

// listVersionsForCompletion prints installed source versions one per line for
// shell completion.
func listVersionsForCompletion(ctx context.Context, cmd *cobra.Command, runner pyenv.Runner) error {
	versions, err := runner.Versions(ctx)
	if err != nil {
		return err
	}
	for _, version := range versions {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
	}
	return nil
}
