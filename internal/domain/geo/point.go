package geo

import "math"

const earthRadiusKm = 6371.0

// Point en grados decimales (orden GeoJSON: lon, lat).
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// DefaultPoint es el centro de Suiza; se usa cuando el geocoding falla.
var DefaultPoint = Point{Lon: 8.2275, Lat: 46.8182}

// Valid descarta NaN/Inf y coordenadas fuera de rango.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DistanceKm: haversine redondeado al km. nil si falta algún punto o es inválido.
func DistanceKm(a, b *Point) *int {
	if a == nil || b == nil || !a.Valid() || !b.Valid() {
		return nil
	}

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	km := int(math.Round(earthRadiusKm * c))
	return &km
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
