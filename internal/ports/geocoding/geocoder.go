package geocoding

import (
	"context"
	"errors"
)

// ErrNoResult: la dirección no se pudo resolver (no es un fallo de red).
var ErrNoResult = errors.New("geocoding: no result")

// Coordinates en grados decimales.
type Coordinates struct {
	Lon float64
	Lat float64
}

// Geocoder resuelve (zip, city) a coordenadas. Las implementaciones pueden fallar;
// el fallback a un punto fijo lo aplica geo.Resolver, no el adapter.
type Geocoder interface {
	Geocode(ctx context.Context, zip, city string) (Coordinates, error)
}
