package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func setVersionInfo(t *testing.T, version, commit, buildDate string) {
	t.Helper()
	oldVersion, oldCommit, oldDate := Version, Commit, BuildDate
	Version, Commit, BuildDate = version, commit, buildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = oldVersion, oldCommit, oldDate
	})
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		want      string
	}{
		{name: "bare", version: "dev", commit: "unknown", buildDate: "unknown", want: "dev"},
		{name: "commit only", version: "1.2.0", commit: "abc1234", buildDate: "unknown", want: "1.2.0 (commit abc1234)"},
		{name: "full", version: "1.2.0", commit: "abc1234", buildDate: "2026-01-02", want: "1.2.0 (commit abc1234, built 2026-01-02)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setVersionInfo(t, tt.version, tt.commit, tt.buildDate)
			if got := versionString(); got != tt.want {
				t.Errorf("versionString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreateVersionBanner(t *testing.T) {
	setVersionInfo(t, "1.2.0", "unknown", "unknown")

	oldProbe := backendVersionOutput
	t.Cleanup(func() { backendVersionOutput = oldProbe })

	backendVersionOutput = func(context.Context) string { return "virtualenv 20.25.0" }
	if got := createVersionBanner(context.Background()); got != "1.2.0 (virtualenv 20.25.0)" {
		t.Errorf("banner = %q", got)
	}

	backendVersionOutput = func(context.Context) string { return "" }
	if got := createVersionBanner(context.Background()); got != "1.2.0" {
		t.Errorf("banner without backend = %q", got)
	}
}

func TestRunMainVersionFlag(t *testing.T) {
	setVersionInfo(t, "1.2.0", "unknown", "unknown")

	stdout := &bytes.Buffer{}
	exitCode := -1
	runMain([]string{"venvman", "--version"}, stdout, &bytes.Buffer{}, func(code int) { exitCode = code })

	if exitCode != -1 {
		t.Fatalf("exit(%d) called for a clean run", exitCode)
	}
	if got := strings.TrimSpace(stdout.String()); got != "1.2.0" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestRunMainUnknownCommand(t *testing.T) {
	stderr := &bytes.Buffer{}
	exitCode := -1
	runMain([]string{"venvman", "no-such-command"}, &bytes.Buffer{}, stderr, func(code int) { exitCode = code })

	if exitCode != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode)
	}
	if stderr.Len() == 0 {
		t.Fatal("unknown command must be reported on stderr")
	}
}

func TestCreateHelpDelegatesToBackend(t *testing.T) {
	oldHelp := backendHelp
	oldGetenv := getenv
	t.Cleanup(func() {
		backendHelp = oldHelp
		getenv = oldGetenv
	})
	delegated := false
	backendHelp = func(_ context.Context, _ *cobra.Command) { delegated = true }
	root := t.TempDir()
	getenv = func(key string) string {
		if key == "VENVMAN_ROOT" {
			return root
		}
		return ""
	}

	stdout := &bytes.Buffer{}
	exitCode := -1
	runMain([]string{"venvman", "create", "--help"}, stdout, &bytes.Buffer{}, func(code int) { exitCode = code })

	if exitCode != -1 {
		t.Fatalf("exit(%d) called for help", exitCode)
	}
	if !strings.Contains(stdout.String(), "usage: venvman create") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if !delegated {
		t.Fatal("help must also show the backend's own options")
	}
}
