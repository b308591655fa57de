package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envSource resolves a key from the process environment first and the .env
// file second, so real environment variables always win.
type envSource struct {
	file map[string]string
}

func newEnvSource() (envSource, error) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	file, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envSource{}, nil
		}
		return envSource{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return envSource{file: file}, nil
}

func (e envSource) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e.file[key]
	return v, ok
}

func (c *Config) applyEnv(e envSource) error {
	str := func(key string, dst *string) {
		if v, ok := e.lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := e.lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := e.lookup(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("ADDR", &c.Addr)
	str("DB_DRIVER", &c.DBDriver)
	str("DB_PATH", &c.DBPath)
	str("DATABASE_URL", &c.DatabaseDSN)
	str("JWT_SECRET", &c.JWTSecret)
	integer("BCRYPT_COST", &c.BcryptCost)
	if v, ok := e.lookup("CORS_ALLOWED_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	str("OPENAI_MODEL", &c.OpenAIModel)
	integer("ANALYZER_MAX_TOKENS", &c.AnalyzerMaxTokens)
	duration("ANALYZER_TIMEOUT", &c.AnalyzerTimeout)
	if v, ok := e.lookup("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err))
		} else {
			c.MaxUploadBytes = n
		}
	}
	duration("USER_CACHE_TTL", &c.UserCacheTTL)
	duration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
