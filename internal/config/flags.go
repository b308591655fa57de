package config

import (
	"flag"
	"io"
	"strings"
)

// parseFlags overlays command-line flags. Flags not given keep the value
// from the earlier layers.
//
// Supported flags:
//
//	-addr string          HTTP bind address (e.g., ":8000")
//	-db-driver string     sqlite or postgres
//	-db-path string       SQLite database file
//	-database-url string  PostgreSQL DSN
//	-jwt-secret string    HMAC secret for tokens
//	-cors string          comma separated allowed origins
//	-log-level string     debug, info, warn or error
//	-log-format string    text or json
func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("nutrimed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP bind address")
	fs.StringVar(&c.DBDriver, "db-driver", c.DBDriver, "database driver: sqlite or postgres")
	fs.StringVar(&c.DBPath, "db-path", c.DBPath, "SQLite database file")
	fs.StringVar(&c.DatabaseDSN, "database-url", c.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&c.JWTSecret, "jwt-secret", c.JWTSecret, "HMAC secret for tokens")
	cors := fs.String("cors", strings.Join(c.CORSOrigins, ","), "comma separated allowed origins")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return err
	}
	c.CORSOrigins = splitList(*cors)
	return nil
}
