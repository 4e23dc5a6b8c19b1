package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadConfigDefaults(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("JWT_TTL", "not-a-duration")
	t.Setenv("REDIS_DB", "x")

	c := ReadConfig()
	assert.Equal(t, []string{"http://localhost:3000"}, c.ALLOWED_ORIGINS)
	assert.Equal(t, 24*time.Hour, c.JWT_TTL)
	assert.Equal(t, 0, c.REDIS_DB)
	assert.Equal(t, "0.0.0.0:8000", c.SERVER_ADDR)
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://app.example.com/, ,http://localhost:5173")

	c := ReadConfig()
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, c.ALLOWED_ORIGINS)

	assert.True(t, c.OriginAllowed("https://app.example.com"))
	assert.True(t, c.OriginAllowed("HTTPS://APP.EXAMPLE.COM"))
	assert.False(t, c.OriginAllowed("https://evil.example.com"))
	assert.False(t, c.OriginAllowed(""))

	wildcard := &Config{ALLOWED_ORIGINS: []string{"*"}}
	assert.True(t, wildcard.OriginAllowed("https://anything.example"))
	assert.False(t, wildcard.OriginAllowed(""))
}
