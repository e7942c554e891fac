package api

import "time"

// Config holds server configuration.
type Config struct {
	Port           int
	Version        string
	DBDriver       string        // "sqlite" or "postgres"
	DSN            string        // database path or connection string
	CacheTTL       time.Duration // lifetime of memoized parse results
	CacheSize      int           // max memoized inputs (0 = unbounded)
	AllowedOrigins []string      // CORS and WebSocket origins (empty = allow all)
	MaxMessageSize int64         // WebSocket read limit in bytes
	MaxMessageRate int           // WebSocket messages per second per client
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		Version:        "dev",
		DBDriver:       "sqlite",
		DSN:            "bibleref.db",
		CacheTTL:       10 * time.Minute,
		CacheSize:      4096,
		MaxMessageSize: 4096,
		MaxMessageRate: 20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.MaxMessageRate <= 0 {
		c.MaxMessageRate = d.MaxMessageRate
	}
	return c
}
