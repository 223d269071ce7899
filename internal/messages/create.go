package messages

// Create pipeline messages: validation, path resolution, backends, builds.
const (
	// ValidateNameReserved rejects the reserved sentinel name.
	ValidateNameReserved      = "`system' is a reserved name and cannot be used as an environment name"
	ValidateNameWhitespaceFmt = "environment name %q must not contain whitespace"
	ValidateNameShapeFmt      = "environment name %q may contain at most one path segment unless it matches <version>/envs/<name>"
	ValidateVersionRequired   = "source version is required"
	ValidateVersionMissingFmt = "version %q is not installed (run `pyenv install %s')"

	// OptionsUnknownValueFmt rejects flags that require a value but got none.
	OptionsUnknownValueFmt         = "option %s requires a value"
	OptionsQuietVerboseConflict    = "cannot use --quiet and --verbose together"
	OptionsVenvOverrideUnsupported = "the venv module does not support --quiet or --verbose with an explicit --python interpreter"

	// BackendNoneDetectedFmt reports that no usable backend was found in the prefix.
	BackendNoneDetectedFmt = "no environment backend found in %s (looked for conda, virtualenv, and the venv module)"

	// BuildFailedFmt reports a non-zero backend exit.
	BuildFailedFmt      = "%s failed with status %d"
	BuildStartFailedFmt = "failed to start %s: %w"
	BuildCreatingFmt    = "venvman: creating %s environment in %s\n"
	BuildDoneFmt        = "venvman: environment ready at %s\n"

	// FixupSymlinkFailedFmt is a non-fatal warning for auxiliary binary links.
	FixupSymlinkFailedFmt = "Warning: could not link %s into the environment: %v\n"
	FixupWrapperFailedFmt = "Warning: could not install the pydoc wrapper: %v\n"

	// BootstrapInstallVirtualenvFmt announces the on-demand virtualenv install.
	BootstrapInstallVirtualenvFmt = "venvman: installing virtualenv into %s\n"
	BootstrapInstallFailedFmt     = "install %s: %w"
	BootstrapDownloadFmt          = "venvman: downloading %s\n"
	BootstrapDownloadFailedFmt    = "download %s: %w"
	BootstrapBadStatusFmt         = "download %s: unexpected status %s"
	BootstrapPipFailedFmt         = "bootstrap pip into %s: %w"
	BootstrapNoNetworkFmt         = "cannot download %s: network access is disabled (%s)"

	// MigrateFreezeFailedFmt reports a failure to snapshot installed packages.
	MigrateFreezeFailedFmt     = "freeze installed packages of %s: %w"
	MigrateAsideFailedFmt      = "move %s aside for upgrade: %w"
	MigrateReinstallWarningFmt = "Warning: failed to reinstall packages into %s: %v\nThe previous environment is preserved at %s and the package list at %s\n"
	MigrateDiffHeaderFmt       = "venvman: package changes for %s:\n"
	MigrateNothingToMigrate    = "venvman: no packages to migrate\n"

	// HookFailedFmt reports a hook script failure.
	HookFailedFmt = "hook %s failed: %w"

	// CleanupRemoveFailedFmt is a best-effort cleanup warning.
	CleanupRemoveFailedFmt = "Warning: could not remove %s during cleanup: %v\n"

	// RehashFailedFmt reports a shim refresh failure after a successful build.
	RehashFailedFmt = "refresh shims: %w"

	// InterruptedMsg is printed when a signal aborts the build.
	InterruptedMsg = "venvman: interrupted"
)
