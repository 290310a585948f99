// Package rediscache decora un Geocoder con cache en Redis.
// Los errores de Redis no bloquean el geocoding: se loguean y se consulta el upstream.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/geocoding"
)

const keyPrefix = "geocode:"

// Open parsea REDIS_URL y hace ping. URL vacía => nil, nil (Redis no configurado).
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type Geocoder struct {
	next   geocoding.Geocoder
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func New(next geocoding.Geocoder, client *redis.Client, ttl time.Duration, log logger.Logger) *Geocoder {
	if log == nil {
		log = logger.Nop()
	}
	return &Geocoder{next: next, client: client, ttl: ttl, log: log}
}

func (g *Geocoder) Geocode(ctx context.Context, zip, city string) (geocoding.Coordinates, error) {
	key := cacheKey(zip, city)

	raw, err := g.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c geocoding.Coordinates
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			return c, nil
		}
		g.log.Warn("geocode cache entry corrupt", map[string]any{"key": key})
	case !errors.Is(err, redis.Nil):
		g.log.Warn("geocode cache read failed", map[string]any{"key": key, "err": err})
	}

	c, err := g.next.Geocode(ctx, zip, city)
	if err != nil {
		return geocoding.Coordinates{}, err
	}

	b, _ := json.Marshal(c)
	if err := g.client.Set(ctx, key, b, g.ttl).Err(); err != nil {
		g.log.Warn("geocode cache write failed", map[string]any{"key": key, "err": err})
	}
	return c, nil
}

func cacheKey(zip, city string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(zip)) + ":" + strings.ToLower(strings.TrimSpace(city))
}
