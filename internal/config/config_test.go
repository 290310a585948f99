package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("GEOCODER", "")
	t.Setenv("MATCH_ALLOW_REAPPLY", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DBDSN)
	assert.Equal(t, "static", cfg.Geocoder)
	assert.False(t, cfg.AllowReapply)
	assert.Equal(t, 7*24*time.Hour, cfg.GeocodeCacheTTL)
	assert.Equal(t, 32, cfg.WSSendBuffer)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEOCODER", "Nominatim")
	t.Setenv("MATCH_ALLOW_REAPPLY", "true")
	t.Setenv("GEOCODE_CACHE_TTL", "1h")
	t.Setenv("GEOCODE_RETRIES", "not-a-number")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "nominatim", cfg.Geocoder)
	assert.True(t, cfg.AllowReapply)
	assert.Equal(t, time.Hour, cfg.GeocodeCacheTTL)
	assert.Equal(t, 2, cfg.GeocodeRetries)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.WSAllowedOrigins)
}
