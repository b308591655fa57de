package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points ENV_FILE at a private path and clears every variable Load
// reads, so the developer's shell cannot leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"ADDR", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "JWT_SECRET", "BCRYPT_COST",
		"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "OPENAI_MODEL", "ANALYZER_MAX_TOKENS", "ANALYZER_TIMEOUT",
		"MAX_UPLOAD_BYTES", "USER_CACHE_TTL", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	path := filepath.Join(t.TempDir(), "test.env")
	t.Setenv("ENV_FILE", path)
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8000", c.Addr)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "./data/nutrimed.db", c.DBPath)
	assert.Equal(t, "gpt-4o", c.OpenAIModel)
	assert.Equal(t, 1500, c.AnalyzerMaxTokens)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes)
	assert.Equal(t, 10*time.Minute, c.UserCacheTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173"}, c.CORSOrigins)
	assert.Empty(t, c.JWTSecret)
}

func TestLoad_RequiresSecret(t *testing.T) {
	isolate(t)

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestLoad_Layering(t *testing.T) {
	envFile := isolate(t)
	require.NoError(t, os.WriteFile(envFile, []byte(
		"JWT_SECRET=from-dotenv\nADDR=:7000\nLOG_LEVEL=debug\nUSER_CACHE_TTL=30s\n",
	), 0o600))

	t.Setenv("ADDR", ":7500")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example, https://admin.example ,")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")

	cfg, err := Load([]string{"-log-format", "json"})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.JWTSecret, ".env fills unset keys")
	assert.Equal(t, ":7500", cfg.Addr, "environment wins over .env")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat, "flags win over everything")
	assert.Equal(t, 30*time.Second, cfg.UserCacheTTL)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"https://app.example", "https://admin.example"}, cfg.CORSOrigins)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load([]string{"-addr", "127.0.0.1:9000", "-db-driver", "postgres", "-database-url", "postgres://u:p@localhost/db"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.DatabaseDSN)
}

func TestLoad_BadValues(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s")

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("ANALYZER_TIMEOUT", "soon")
		_, err := Load(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ANALYZER_TIMEOUT")
	})

	t.Run("bad integer", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "high")
		_, err := Load(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BCRYPT_COST")
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := Load([]string{"-nope"})
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.LoadDefaults()
		c.JWTSecret = "secret"
		return c
	}

	c := valid()
	require.NoError(t, c.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "unknown DB_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.DBDriver = DriverPostgres }, "DATABASE_URL is required"},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 1 }, "BCRYPT_COST"},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 40 }, "BCRYPT_COST"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"blank secret", func(c *Config) { c.JWTSecret = "  " }, "JWT_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
