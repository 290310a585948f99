package geo

import (
	"context"
	"errors"
	"strings"
	"time"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/metrics"
	"pawfect-match/internal/ports/geocoding"
)

// Resolver aísla el geocoding de la lógica de matching: reintenta y, si no hay
// resultado, devuelve DefaultPoint. Nunca devuelve error.
type Resolver struct {
	geocoder geocoding.Geocoder
	retries  int
	backoff  time.Duration
	log      logger.Logger
	metrics  metrics.Recorder
}

type ResolverOptions struct {
	Retries int
	Backoff time.Duration
	Logger  logger.Logger
	Metrics metrics.Recorder
}

func NewResolver(g geocoding.Geocoder, opts ResolverOptions) *Resolver {
	r := &Resolver{
		geocoder: g,
		retries:  opts.Retries,
		backoff:  opts.Backoff,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
	if r.retries < 0 {
		r.retries = 0
	}
	if r.backoff <= 0 {
		r.backoff = 100 * time.Millisecond
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	if r.metrics == nil {
		r.metrics = metrics.Nop()
	}
	return r
}

// Resolve devuelve (punto, true) si el geocoder respondió, (DefaultPoint, false) si no.
func (r *Resolver) Resolve(ctx context.Context, zip, city string) (Point, bool) {
	zip = strings.TrimSpace(zip)
	city = strings.TrimSpace(city)
	if r == nil || r.geocoder == nil || (zip == "" && city == "") {
		return r.fallback(zip, city, nil)
	}

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return r.fallback(zip, city, ctx.Err())
			case <-time.After(r.backoff):
			}
		}

		c, err := r.geocoder.Geocode(ctx, zip, city)
		if err == nil {
			p := Point{Lon: c.Lon, Lat: c.Lat}
			if p.Valid() {
				return p, true
			}
			lastErr = geocoding.ErrNoResult
			break
		}
		lastErr = err
		if errors.Is(err, geocoding.ErrNoResult) {
			break
		}
	}
	return r.fallback(zip, city, lastErr)
}

func (r *Resolver) fallback(zip, city string, err error) (Point, bool) {
	if r != nil {
		r.metrics.RecordGeocodeFallback()
		r.log.Warn("geocoding fallback to default point", map[string]any{
			"zip":  zip,
			"city": city,
			"err":  err,
		})
	}
	return DefaultPoint, false
}
