// Package config handles configuration for the server, including defaults,
// an optional .env file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime settings for the NutriMed server.
//
// Fields:
//   - Addr: HTTP bind address.
//   - DBDriver: "sqlite" (DBPath) or "postgres" (DatabaseDSN, pgx).
//   - JWTSecret: HMAC secret for signing tokens (HS256). Required.
//   - BcryptCost: work factor for password hashes.
//   - CORSOrigins: browser origins allowed to call the API with credentials.
//   - OpenAI*: the OpenAI-compatible endpoint used by the analyzer. An empty
//     key leaves /analyze answering 503.
//   - UserCacheTTL: lifetime of cached user lookups.
type Config struct {
	Addr        string
	DBDriver    string
	DBPath      string
	DatabaseDSN string
	JWTSecret   string
	BcryptCost  int
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	AnalyzerMaxTokens int
	AnalyzerTimeout   time.Duration
	MaxUploadBytes    int64

	UserCacheTTL    time.Duration
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults. JWTSecret has no
// default and must be provided.
func (c *Config) LoadDefaults() {
	c.Addr = ":8000"
	c.DBDriver = DriverSQLite
	c.DBPath = "./data/nutrimed.db"
	c.BcryptCost = bcrypt.DefaultCost
	c.CORSOrigins = []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173"}
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.OpenAIBaseURL = "https://api.openai.com/v1"
	c.OpenAIModel = "gpt-4o"
	c.AnalyzerMaxTokens = 1500
	c.AnalyzerTimeout = 60 * time.Second
	c.MaxUploadBytes = 10 << 20
	c.UserCacheTTL = 10 * time.Minute
	c.ShutdownTimeout = 15 * time.Second
}

// Load builds a Config by applying defaults, then the .env file named by
// ENV_FILE (default ".env", skipped when absent), then environment variables
// and finally command-line flags. The result is validated.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	env, err := newEnvSource()
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", c.DBDriver))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q (want text or json)", c.LogFormat))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.AnalyzerMaxTokens <= 0 {
		errs = append(errs, errors.New("ANALYZER_MAX_TOKENS must be positive"))
	}
	if c.UserCacheTTL <= 0 {
		errs = append(errs, errors.New("USER_CACHE_TTL must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
