package backend

import (
	"fmt"
	"path/filepath"

	"github.com/venvman/venvman/internal/messages"
	"github.com/venvman/venvman/internal/options"
)

// Invocation is a fully translated backend command line.
type Invocation struct {
	// Exe is the executable to run. For Venv this is the probe interpreter.
	Exe string
	// Args are the arguments, ending with the target path.
	Args []string
}

// Translate projects the uniform option set and passthrough flags into a
// backend-specific command line targeting canonicalPath.
//
// The python override is never forwarded verbatim: conda receives it as a
// `python=` spec, virtualenv as `--python=`, and venv swaps the invoking
// interpreter itself. Upgrade maps to venv's native --upgrade; for the other
// backends the orchestrator handles upgrade as force plus migration.
func Translate(det Detection, opts options.Set, passthrough []string, canonicalPath string) (Invocation, error) {
	switch det.Choice {
	case Conda:
		return translateConda(det, opts, passthrough, canonicalPath), nil
	case Virtualenv:
		return translateVirtualenv(det, opts, passthrough, canonicalPath), nil
	case Venv:
		return translateVenv(det, opts, passthrough, canonicalPath)
	}
	return Invocation{}, fmt.Errorf("unknown backend %q", det.Choice)
}

func translateConda(det Detection, opts options.Set, passthrough []string, canonicalPath string) Invocation {
	args := []string{"create", "--yes"}
	if opts.Quiet {
		args = append(args, "--quiet")
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	args = append(args, passthrough...)
	args = append(args, "--prefix", canonicalPath)
	if opts.PythonOverride != "" {
		// conda takes the interpreter as a package spec, not a path.
		args = append(args, "python="+filepath.Base(opts.PythonOverride))
	} else {
		args = append(args, "python")
	}
	return Invocation{Exe: det.CondaExe, Args: args}
}

func translateVirtualenv(det Detection, opts options.Set, passthrough []string, canonicalPath string) Invocation {
	var args []string
	if opts.Quiet {
		args = append(args, "--quiet")
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	if opts.SkipPip {
		args = append(args, "--no-pip")
	}
	if opts.SkipSetuptools {
		args = append(args, "--no-setuptools")
	}
	if opts.PythonOverride != "" {
		args = append(args, "--python="+opts.PythonOverride)
	}
	args = append(args, passthrough...)
	args = append(args, canonicalPath)
	exe := det.VirtualenvExe
	if exe == "" {
		exe = "virtualenv"
	}
	return Invocation{Exe: exe, Args: args}
}

func translateVenv(det Detection, opts options.Set, passthrough []string, canonicalPath string) (Invocation, error) {
	python := det.VenvPython
	if opts.PythonOverride != "" {
		// The venv module has no interpreter flag; the override becomes the
		// invoking interpreter. quiet/verbose have no venv equivalent, and
		// silently ignoring them alongside an override would mask intent.
		if opts.Quiet || opts.Verbose {
			return Invocation{}, fmt.Errorf(messages.OptionsVenvOverrideUnsupported)
		}
		python = opts.PythonOverride
	}
	args := []string{"-m", "venv"}
	if opts.Upgrade {
		args = append(args, "--upgrade")
	}
	if opts.SkipPip {
		args = append(args, "--without-pip")
	}
	args = append(args, passthrough...)
	args = append(args, canonicalPath)
	return Invocation{Exe: python, Args: args}, nil
}

// EffectiveForce reports whether the build should treat an existing target as
// rebuildable without prompting. Upgrade implies force except under venv,
// whose native --upgrade rebuilds in place.
func EffectiveForce(choice Choice, opts options.Set) bool {
	if opts.Force {
		return true
	}
	return opts.Upgrade && choice != Venv
}
