// Package config assembles runtime settings from defaults, environment
// variables and command-line flags, in that order. Nothing in here is
// read from ambient globals at request time; the resulting Config is
// passed explicitly to every component that needs it.
package config

import "time"

type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// MongoURI / Database locate the persistent store.
	MongoURI string
	Database string
	// SecretKey signs session tokens (HS256). Override in production.
	SecretKey string
	// TokenValidity is the session-token lifetime.
	TokenValidity time.Duration
	// HashIterations is the password hash-chain round count for new
	// accounts; existing accounts keep the count they were created with.
	HashIterations int
	// AllowedOrigins configures CORS for the browser frontend.
	AllowedOrigins []string
}

func (c *Config) loadDefaults() {
	c.Addr = ":8080"
	c.MongoURI = "mongodb://localhost:27017"
	c.Database = "cartshare"
	c.SecretKey = "dev-secret"
	c.TokenValidity = 30 * time.Minute
	c.HashIterations = 10
	c.AllowedOrigins = []string{"http://localhost:3000"}
}

// Load builds a Config by applying defaults, then environment
// variables, then command-line flags.
func Load() *Config {
	cfg := &Config{}
	cfg.loadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
