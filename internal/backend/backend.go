// Package backend decides which environment-creation backend serves a build
// and translates the uniform option surface into backend-specific invocations.
package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"zombiezen.com/go/log"

	"github.com/venvman/venvman/internal/messages"
)

// Choice identifies the environment-creation backend. It is selected once per
// invocation and never changes mid-run.
type Choice string

// Conda, Virtualenv, and Venv are the supported backends, in priority order.
const (
	Conda      Choice = "conda"
	Virtualenv Choice = "virtualenv"
	Venv       Choice = "venv"
)

// Detection is the result of probing the source installation prefix.
type Detection struct {
	Choice Choice
	// CondaExe and VirtualenvExe are set when found in the prefix.
	CondaExe      string
	VirtualenvExe string
	// VenvPython is the interpreter that supports `-m venv`, when probed.
	VenvPython string
	// InstallVirtualenv means the external tool was chosen but is absent and
	// must be installed on demand.
	InstallVirtualenv bool
}

// System abstracts the probes the detector performs.
type System interface {
	Stat(name string) (os.FileInfo, error)
	// ProbeVenv runs `<python> -m venv --help` and reports success.
	ProbeVenv(ctx context.Context, python string) bool
}

// RealSystem implements System against the OS.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ProbeVenv runs `<python> -m venv --help` and reports success.
func (RealSystem) ProbeVenv(ctx context.Context, python string) bool {
	cmd := exec.CommandContext(ctx, python, "-m", "venv", "--help")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// Detect inspects the source prefix and returns exactly one backend choice.
//
// Priority is fixed: a conda executable wins outright; otherwise the external
// virtualenv tool is preferred, and the builtin venv module is chosen only when
// venv support was probed, the external tool is absent, and no explicit
// interpreter override was supplied. When virtualenv wins but is absent it is
// installed on demand.
func Detect(ctx context.Context, sys System, prefix string, pythonOverride string, systemSource bool) (Detection, error) {
	if sys == nil {
		return Detection{}, fmt.Errorf(messages.SystemRequired)
	}
	binDir := filepath.Join(prefix, "bin")

	det := Detection{}
	if exe := existingExecutable(sys, filepath.Join(binDir, "conda")); exe != "" {
		det.Choice = Conda
		det.CondaExe = exe
		log.Debugf(ctx, "detected conda at %s", exe)
		return det, nil
	}

	if exe := existingExecutable(sys, filepath.Join(binDir, "virtualenv")); exe != "" {
		det.VirtualenvExe = exe
		log.Debugf(ctx, "detected virtualenv at %s", exe)
	}

	for _, name := range venvProbeOrder(systemSource) {
		python := filepath.Join(binDir, name)
		if existingExecutable(sys, python) == "" {
			continue
		}
		if sys.ProbeVenv(ctx, python) {
			det.VenvPython = python
			log.Debugf(ctx, "%s supports the venv module", python)
			break
		}
	}

	if det.VenvPython != "" && det.VirtualenvExe == "" && pythonOverride == "" {
		det.Choice = Venv
		return det, nil
	}

	det.Choice = Virtualenv
	if det.VirtualenvExe == "" {
		if det.VenvPython == "" && pythonOverride == "" && !hasAnyPython(sys, binDir, systemSource) {
			return Detection{}, fmt.Errorf(messages.BackendNoneDetectedFmt, prefix)
		}
		det.InstallVirtualenv = true
	}
	return det, nil
}

// venvProbeOrder ranks the interpreter names probed for venv support. The
// generic system installation may expose several; a managed version has
// exactly one python.
func venvProbeOrder(systemSource bool) []string {
	if systemSource {
		return []string{"python3", "python", "python2"}
	}
	return []string{"python"}
}

func hasAnyPython(sys System, binDir string, systemSource bool) bool {
	for _, name := range venvProbeOrder(systemSource) {
		if existingExecutable(sys, filepath.Join(binDir, name)) != "" {
			return true
		}
	}
	return false
}

// existingExecutable returns path when it exists and is a regular executable
// file, and "" otherwise.
func existingExecutable(sys System, path string) string {
	info, err := sys.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	if info.Mode().Perm()&0o111 == 0 {
		return ""
	}
	return path
}
