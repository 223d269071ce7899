package messages

// System and collaborator messages shared across packages.
const (
	// ConfigResolveHomeFmt formats home directory resolution errors.
	ConfigResolveHomeFmt = "resolve home directory: %w"
	ConfigInvalidTOMLFmt = "invalid config %s: %w"
	ConfigFailedReadFmt  = "failed to read %s: %w"
	ConfigGetenvRequired = "config getenv function is required"

	// PyenvCommandFailedFmt formats collaborator command failures.
	PyenvCommandFailedFmt = "pyenv-%s: %w"
	PyenvNotFoundFmt      = "pyenv-%s: %s not found"
	PyenvRunnerRequired   = "pyenv runner is required"
	PyenvNoActiveVersion  = "no active pyenv version; pass a source version explicitly"

	// SystemRequired guards nil System injections.
	SystemRequired = "system is required"
	ConfigRequired = "config is required"

	// FailedCreateDirFmt formats directory creation failures.
	FailedCreateDirFmt = "failed to create directory %s: %w"
	FailedWriteFmt     = "failed to write %s: %w"

	// LockOpenFmt formats lock file open failures.
	LockOpenFmt    = "open lock file %s: %w"
	LockFmt        = "lock %s: %w"
	LockTimeoutFmt = "timed out waiting %s for download lock"

	// PromptRequiresTerminal is returned when confirmation is needed without a TTY.
	PromptRequiresTerminal = "cannot prompt for confirmation without a terminal; re-run with --force"
)
