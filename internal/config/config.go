// Package config builds the explicit venvman configuration once at process
// entry. Components never read the process environment directly; everything
// they need is carried on Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/venvman/venvman/internal/messages"
)

// EnvRoot, EnvCacheDir, and friends are the environment keys venvman honors.
// EnvPyenvRoot is accepted as a fallback so venvman works in an unmodified
// pyenv installation.
const (
	EnvRoot              = "VENVMAN_ROOT"
	EnvPyenvRoot         = "PYENV_ROOT"
	EnvCacheDir          = "VENVMAN_CACHE_DIR"
	EnvDebug             = "VENVMAN_DEBUG"
	EnvNoNetwork         = "VENVMAN_NO_NETWORK"
	EnvVirtualenvVersion = "VENVMAN_VIRTUALENV_VERSION"
	EnvGetPipURL         = "VENVMAN_GET_PIP_URL"
	EnvSetuptoolsURL     = "VENVMAN_SETUPTOOLS_URL"
	EnvHookPath          = "VENVMAN_HOOK_PATH"
)

// DefaultGetPipURL is the upstream pip bootstrap script.
const DefaultGetPipURL = "https://bootstrap.pypa.io/get-pip.py"

// configFileName is the optional defaults file under the version manager root.
const configFileName = "venvman.toml"

// Config is the resolved process configuration. Constructed once in main and
// passed to every component.
type Config struct {
	// Root is the version manager root (the directory holding versions/).
	Root string
	// CacheDir is the shared download cache used as the build working directory.
	CacheDir string
	// Debug enables verbose trace logging.
	Debug bool
	// NoNetwork disables all downloads; missing bootstrap assets become errors.
	NoNetwork bool
	// VirtualenvVersion pins the virtualenv release installed on demand.
	VirtualenvVersion string
	// GetPipURL overrides the pip bootstrap script location.
	GetPipURL string
	// SetuptoolsURL optionally overrides the setuptools bootstrap location.
	SetuptoolsURL string
	// HookPaths are extra directories searched for hook scripts, in order.
	HookPaths []string
}

// fileDefaults is the optional venvman.toml schema. Environment variables win
// over file values.
type fileDefaults struct {
	CacheDir          string   `toml:"cache_dir"`
	VirtualenvVersion string   `toml:"virtualenv_version"`
	GetPipURL         string   `toml:"get_pip_url"`
	SetuptoolsURL     string   `toml:"setuptools_url"`
	HookPaths         []string `toml:"hook_paths"`
	NoNetwork         bool     `toml:"no_network"`
}

// Load resolves the configuration from getenv plus the optional defaults file
// under the resolved root.
func Load(getenv func(string) string) (*Config, error) {
	if getenv == nil {
		return nil, errors.New(messages.ConfigGetenvRequired)
	}

	root := strings.TrimSpace(getenv(EnvRoot))
	if root == "" {
		root = strings.TrimSpace(getenv(EnvPyenvRoot))
	}
	if root == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf(messages.ConfigResolveHomeFmt, err)
		}
		root = filepath.Join(home, ".pyenv")
	}

	defaults, err := loadFileDefaults(filepath.Join(root, configFileName))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Root:              root,
		CacheDir:          firstNonEmpty(getenv(EnvCacheDir), defaults.CacheDir, filepath.Join(root, "cache")),
		Debug:             envBool(getenv(EnvDebug)),
		NoNetwork:         envBool(getenv(EnvNoNetwork)) || defaults.NoNetwork,
		VirtualenvVersion: firstNonEmpty(getenv(EnvVirtualenvVersion), defaults.VirtualenvVersion),
		GetPipURL:         firstNonEmpty(getenv(EnvGetPipURL), defaults.GetPipURL, DefaultGetPipURL),
		SetuptoolsURL:     firstNonEmpty(getenv(EnvSetuptoolsURL), defaults.SetuptoolsURL),
	}

	if raw := strings.TrimSpace(getenv(EnvHookPath)); raw != "" {
		cfg.HookPaths = filepath.SplitList(raw)
	} else {
		cfg.HookPaths = defaults.HookPaths
	}
	return cfg, nil
}

// VersionsDir returns the directory holding installed versions and environments.
func (c *Config) VersionsDir() string {
	return filepath.Join(c.Root, "versions")
}

// loadFileDefaults reads the optional TOML defaults file. A missing file is
// not an error.
func loadFileDefaults(path string) (fileDefaults, error) {
	var defaults fileDefaults
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf(messages.ConfigFailedReadFmt, path, err)
	}
	if err := toml.Unmarshal(data, &defaults); err != nil {
		return defaults, fmt.Errorf(messages.ConfigInvalidTOMLFmt, path, err)
	}
	return defaults, nil
}

// envBool interprets common truthy values; empty and unparseable are false.
func envBool(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return parsed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
