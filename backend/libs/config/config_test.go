package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sample struct {
	HTTP struct {
		Port    string   `yaml:"port" env:"SAMPLE_HTTP_PORT"`
		Origins []string `yaml:"origins" env:"SAMPLE_ORIGINS"`
	} `yaml:"http"`
	Cache struct {
		TTL     time.Duration `yaml:"ttl"`
		Enabled bool          `yaml:"enabled"`
	} `yaml:"cache"`
	Ratio float64 `yaml:"ratio" env:"-"`
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv(defaultConfigPathEnv, "")
	t.Setenv("SAMPLE_HTTP_PORT", "9000")
	t.Setenv("SAMPLE_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("RATIO", "0.5")

	var cfg sample
	require.NoError(t, LoadConfig(&cfg))

	require.Equal(t, "9000", cfg.HTTP.Port)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.Origins)
	require.Equal(t, 30*time.Second, cfg.Cache.TTL)
	require.True(t, cfg.Cache.Enabled)
	require.Zero(t, cfg.Ratio)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "http:\n  port: \"7000\"\n  origins: [\"http://file.test\"]\nratio: 2.5\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Setenv(defaultConfigPathEnv, path)
	t.Setenv("SAMPLE_HTTP_PORT", "7001")

	var cfg sample
	require.NoError(t, LoadConfig(&cfg))

	require.Equal(t, "7001", cfg.HTTP.Port)
	require.Equal(t, []string{"http://file.test"}, cfg.HTTP.Origins)
	require.Equal(t, 2.5, cfg.Ratio)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv(defaultConfigPathEnv, "")
	t.Setenv("CACHE_TTL", "soon")

	var cfg sample
	require.Error(t, LoadConfig(&cfg))
}

func TestLoadConfigRequiresStructPointer(t *testing.T) {
	require.Error(t, LoadConfig(nil))
	require.Error(t, LoadConfig(sample{}))
}
