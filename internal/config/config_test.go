package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "PLATES", "BARS", "LOG_LEVEL", "ENABLE_METRICS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MAX_DENOMINATIONS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if !slices.Equal(cfg.InitialPlates, storage.DefaultPlates()) {
		t.Fatalf("expected default plates, got %v", cfg.InitialPlates)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimitRPS != defaultRateLimitRPS || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.EnableMetrics || cfg.LogLevel != defaultLogLevel {
		t.Fatalf("unexpected metrics/log level defaults: %v/%s", cfg.EnableMetrics, cfg.LogLevel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("PLATES", "2.5:2, 5:2 ,45:4")
	t.Setenv("BARS", "barbell:20")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("MAX_DENOMINATIONS", "12")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []calculator.Plate{{Weight: 2.5, Count: 2}, {Weight: 5, Count: 2}, {Weight: 45, Count: 4}}, cfg.InitialPlates)
	assert.Equal(t, []calculator.Bar{{Type: "barbell", Weight: 20}}, cfg.InitialBars)
	assert.Equal(t, 0.0, cfg.RateLimitRPS)
	assert.Equal(t, defaultRateLimitBurst, cfg.RateLimitBurst)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, 12, cfg.MaxDenominations)
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_RPS", "fast")

	_, err := Load(nil)
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "warn")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	yamlBody := `
port: "7100"
log_level: debug
enable_request_logging: false
write_timeout: 3s
plates:
  - weight: 10
    count: 2
  - weight: 25
    count: 1
rate_limit:
  rps: 5
  burst: 10
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlBody), 0o600))

	port := "7200"
	cfg, err := Load(&CLIOverrides{ConfigFile: cfgPath, Port: &port})
	require.NoError(t, err)

	assert.Equal(t, "7200", cfg.Port, "CLI beats YAML")
	assert.Equal(t, "debug", cfg.LogLevel, "YAML beats env")
	assert.False(t, cfg.EnableRequestLogging)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, []calculator.Plate{{Weight: 10, Count: 2}, {Weight: 25, Count: 1}}, cfg.InitialPlates)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("PORT=6060\nBARS=dumbbell:10,barbell:45\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("PORT")
		_ = os.Unsetenv("BARS")
	})

	cfg, err := Load(&CLIOverrides{EnvFile: envPath})
	require.NoError(t, err)

	assert.Equal(t, "6060", cfg.Port)
	assert.Equal(t, []calculator.Bar{{Type: "dumbbell", Weight: 10}, {Type: "barbell", Weight: 45}}, cfg.InitialBars)

	_, err = Load(&CLIOverrides{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err)
}

func TestLoadYAMLBarRules(t *testing.T) {
	clearEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
plates:
  - weight: 35
    count: 1
    avoid: true
bars:
  - type: barbell
    weight: 45
    plate_threshold: 25
    max_load: 405
    plate_limits:
      - weight: 10
        count: 1
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlBody), 0o600))

	cfg, err := Load(&CLIOverrides{ConfigFile: cfgPath})
	require.NoError(t, err)

	assert.Equal(t, []calculator.Plate{{Weight: 35, Count: 1, Avoid: true}}, cfg.InitialPlates)
	assert.Equal(t, []calculator.Bar{{
		Type:           "barbell",
		Weight:         45,
		PlateThreshold: 25,
		MaxLoad:        405,
		PlateLimits:    []calculator.Plate{{Weight: 10, Count: 1}},
	}}, cfg.InitialBars)
}

func TestLoadMissingYAML(t *testing.T) {
	clearEnv(t)

	_, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestParsePlates(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parsePlates("1.25:2, 45 ,10:0")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []calculator.Plate{{Weight: 1.25, Count: 2}, {Weight: 45, Count: 1}, {Weight: 10, Count: 0}}
		if !slices.Equal(got, want) {
			t.Fatalf("unexpected plates: %v", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{" , ", "a:1", "5:x", "5:70000", "-5:1", "0"} {
			if _, err := parsePlates(raw); err == nil {
				t.Fatalf("expected error for %q", raw)
			}
		}
	})
}

func TestParseBars(t *testing.T) {
	got, err := parseBars("barbell:45, dumbbell:12.5")
	require.NoError(t, err)
	assert.Equal(t, []calculator.Bar{{Type: "barbell", Weight: 45}, {Type: "dumbbell", Weight: 12.5}}, got)

	for _, raw := range []string{"", "45", ":45", "barbell:heavy", "barbell:-1"} {
		_, err := parseBars(raw)
		assert.Error(t, err, "expected error for %q", raw)
	}
}
