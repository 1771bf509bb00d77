package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-ephem/internal/logging"
)

func load(t *testing.T, file string) (Config, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	return Load(New(file, ""))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, "")
	require.NoError(t, err)

	d := DefaultConfig()
	assert.Equal(t, d.LogLevel, cfg.LogLevel)
	assert.True(t, cfg.Strict)
	assert.False(t, cfg.Mmap)
	assert.Equal(t, d.CacheSize, cfg.CacheSize)
	assert.Equal(t, d.MaxIterations, cfg.MaxIterations)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Empty(t, cfg.Kernels)
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{"LSEPHEM_LOG_LEVEL", "debug", func(c Config) any { return c.LogLevel }, "debug"},
		{"LSEPHEM_STRICT", "false", func(c Config) any { return c.Strict }, false},
		{"LSEPHEM_CACHE_SIZE", "0", func(c Config) any { return c.CacheSize }, 0},
		{"LSEPHEM_MAX_ITERATIONS", "25", func(c Config) any { return c.MaxIterations }, 25},
		{"LSEPHEM_KERNEL_DIR", "/data/kernels", func(c Config) any { return c.KernelDir }, "/data/kernels"},
		{"LSEPHEM_DEBOUNCE", "2s", func(c Config) any { return c.Debounce }, 2 * time.Second},
		{"LSEPHEM_KERNELS", "a.bsp, b.bpc", func(c Config) any { return c.Kernels }, []string{"a.bsp", "b.bpc"}},
	}
	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)
			cfg, err := load(t, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.field(cfg))
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ephem.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log_level: warn
kernels:
  - de440s.bsp
  - earth_latest.bpc
leapseconds: naif0012.tls
max_iterations: 4
`), 0o644))

	cfg, err := load(t, file)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"de440s.bsp", "earth_latest.bpc"}, cfg.Kernels)
	assert.Equal(t, "naif0012.tls", cfg.Leapseconds)
	assert.Equal(t, 4, cfg.MaxIterations)

	t.Setenv("LSEPHEM_MAX_ITERATIONS", "7")
	cfg, err = load(t, file)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxIterations, "environment wins over file")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(t, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"cache size", func(c *Config) { c.CacheSize = -1 }},
		{"iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"debounce", func(c *Config) { c.Debounce = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.edit(&c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestOptions(t *testing.T) {
	c := DefaultConfig()
	assert.Len(t, c.Options(logging.Discard()), 4)
	c.Strict = false
	assert.Len(t, c.Options(logging.Discard()), 5)
}
