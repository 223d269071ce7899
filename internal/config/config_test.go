package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genvOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(genvOf(map[string]string{EnvRoot: root}))
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "cache"), cfg.CacheDir)
	assert.Equal(t, DefaultGetPipURL, cfg.GetPipURL)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.NoNetwork)
}

func TestLoadPyenvRootFallback(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(genvOf(map[string]string{EnvPyenvRoot: root}))
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
}

func TestLoadEnvOverrides(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(genvOf(map[string]string{
		EnvRoot:              root,
		EnvCacheDir:          "/tmp/cache",
		EnvDebug:             "1",
		EnvNoNetwork:         "true",
		EnvVirtualenvVersion: "20.25.0",
		EnvGetPipURL:         "https://example.test/get-pip.py",
		EnvHookPath:          "/etc/hooks:/opt/hooks",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cache", cfg.CacheDir)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.NoNetwork)
	assert.Equal(t, "20.25.0", cfg.VirtualenvVersion)
	assert.Equal(t, "https://example.test/get-pip.py", cfg.GetPipURL)
	assert.Equal(t, []string{"/etc/hooks", "/opt/hooks"}, cfg.HookPaths)
}

func TestLoadFileDefaultsAndEnvPrecedence(t *testing.T) {
	root := t.TempDir()
	contents := `
cache_dir = "/from/file"
virtualenv_version = "20.0.0"
no_network = true
hook_paths = ["/file/hooks"]
`
	require.NoError(t, os.WriteFile(filepath.Join(root, configFileName), []byte(contents), 0o644))

	cfg, err := Load(genvOf(map[string]string{
		EnvRoot:     root,
		EnvCacheDir: "/from/env",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.CacheDir, "environment wins over the defaults file")
	assert.Equal(t, "20.0.0", cfg.VirtualenvVersion)
	assert.True(t, cfg.NoNetwork)
	assert.Equal(t, []string{"/file/hooks"}, cfg.HookPaths)
}

func TestLoadInvalidTOML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, configFileName), []byte("cache_dir = ["), 0o644))
	_, err := Load(genvOf(map[string]string{EnvRoot: root}))
	assert.Error(t, err)
}

func TestLoadNilGetenv(t *testing.T) {
	_, err := Load(nil)
	assert.Error(t, err)
}
