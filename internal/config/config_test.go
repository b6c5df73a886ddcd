package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.loadDefaults()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.TokenValidity)
	assert.Equal(t, 10, cfg.HashIterations)
	assert.NotEmpty(t, cfg.MongoURI)
	assert.NotEmpty(t, cfg.Database)
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("ADDRESS", ":9090")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("SECRET_KEY", "prod-secret")
	t.Setenv("TOKEN_VALIDITY", "15m")
	t.Setenv("HASH_ITERATIONS", "20")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := &Config{}
	cfg.loadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "prod-secret", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.TokenValidity)
	assert.Equal(t, 20, cfg.HashIterations)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestEnvOverlay_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("TOKEN_VALIDITY", "soon")
	t.Setenv("HASH_ITERATIONS", "0")

	cfg := &Config{}
	cfg.loadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 30*time.Minute, cfg.TokenValidity)
	assert.Equal(t, 10, cfg.HashIterations)
}
