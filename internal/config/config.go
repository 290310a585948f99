package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config se lee una sola vez desde env al arrancar y se trata como inmutable.
// Nada es obligatorio: sin DB_DSN se usa storage in-memory, sin JWT_SECRET
// ni AUTH_INTROSPECT_URL el servicio corre en modo dev (X-Debug-User-ID).
type Config struct {
	Port string

	// Storage
	DBDSN     string
	DBMigrate bool

	// Redis (cache de geocoding)
	RedisURL string

	// Auth
	JWTSecret         string
	AuthIntrospectURL string
	AuthAPIKey        string

	// Geocoding
	Geocoder        string // static | nominatim
	NominatimURL    string
	GeocodeCacheTTL time.Duration
	GeocodeRetries  int
	GeocodeTimeout  time.Duration

	// Matches
	AllowReapply bool

	// Rate limit
	RateLimitPerMinute int

	// Realtime
	WSAllowedOrigins []string
	WSSendBuffer     int

	// Logging
	LogLevel  string
	LogFormat string
	AppName   string
}

func Load() *Config {
	return &Config{
		Port:               getEnvString("PORT", "8080"),
		DBDSN:              getEnvString("DB_DSN", ""),
		DBMigrate:          getEnvBool("DB_MIGRATE", true),
		RedisURL:           getEnvString("REDIS_URL", ""),
		JWTSecret:          getEnvString("JWT_SECRET", ""),
		AuthIntrospectURL:  getEnvString("AUTH_INTROSPECT_URL", ""),
		AuthAPIKey:         getEnvString("AUTH_API_KEY", ""),
		Geocoder:           strings.ToLower(getEnvString("GEOCODER", "static")),
		NominatimURL:       getEnvString("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		GeocodeCacheTTL:    getEnvDuration("GEOCODE_CACHE_TTL", 7*24*time.Hour),
		GeocodeRetries:     getEnvInt("GEOCODE_RETRIES", 2),
		GeocodeTimeout:     getEnvDuration("GEOCODE_TIMEOUT", 5*time.Second),
		AllowReapply:       getEnvBool("MATCH_ALLOW_REAPPLY", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		WSAllowedOrigins:   getEnvList("WS_ALLOWED_ORIGINS"),
		WSSendBuffer:       getEnvInt("WS_SEND_BUFFER", 32),
		LogLevel:           getEnvString("LOG_LEVEL", "info"),
		LogFormat:          getEnvString("LOG_FORMAT", "text"),
		AppName:            getEnvString("APP_NAME", "pawfect-match"),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// CSV, ignora vacíos.
func getEnvList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
