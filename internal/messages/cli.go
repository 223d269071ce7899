package messages

// CLI messages for user-facing commands and flags.
const (
	// RootUse is the CLI command name.
	RootUse = "venvman"
	// RootShort is the short description for the root command.
	RootShort = "Isolated Python environments on top of pyenv versions"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"
	// VersionBackendFmt appends the detected backend banner to the tool version.
	VersionBackendFmt = "%s (%s)"

	// CreateUse is the create command usage.
	CreateUse   = "create [-f|--force] [--upgrade] [--quiet] [--verbose] [--no-pip] [--no-setuptools] [-p|--python <interpreter>] [<version>] <name>"
	CreateShort = "Create an isolated Python environment from an installed version"

	CreateFlagForce         = "Rebuild the environment even if the target directory already exists"
	CreateFlagUpgrade       = "Upgrade an existing environment in place, migrating installed packages"
	CreateFlagQuiet         = "Suppress backend output"
	CreateFlagVerbose       = "Show verbose backend output"
	CreateFlagNoPip         = "Skip the pip bootstrap after the environment is built"
	CreateFlagNoSetuptools  = "Skip the setuptools bootstrap after the environment is built"
	CreateFlagPython        = "Interpreter the backend should build the environment from"
	CreateMissingName       = "environment name is required"
	CreateUsageHint         = "usage: venvman create [<version>] <name>"
	CreateTooManyPositional = "too many arguments: expected [<version>] <name>"

	// PromptOverwriteFmt asks before rebuilding an existing environment.
	PromptOverwriteFmt = "venvman: %s already exists. Rebuild it?"
	PromptDeclined     = "venvman: aborted"
)
