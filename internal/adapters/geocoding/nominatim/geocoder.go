// Package nominatim consulta la API de búsqueda de OpenStreetMap.
package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"pawfect-match/internal/platform/httpclient"
	"pawfect-match/internal/ports/geocoding"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "PawfectMatch/1.0"
	defaultCountry   = "Switzerland"
)

type Geocoder struct {
	client  *httpclient.Client
	country string
}

// New recibe un httpclient ya configurado (BaseURL, timeout, reintentos).
func New(client *httpclient.Client) *Geocoder {
	if client.UserAgent == "" {
		client.UserAgent = DefaultUserAgent
	}
	return &Geocoder{client: client, country: defaultCountry}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) Geocode(ctx context.Context, zip, city string) (geocoding.Coordinates, error) {
	q := strings.TrimSpace(strings.Join([]string{strings.TrimSpace(zip), strings.TrimSpace(city), g.country}, " "))

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", "1")

	var out []searchResult
	if err := g.client.GetJSON(ctx, "/search", params, nil, &out); err != nil {
		return geocoding.Coordinates{}, fmt.Errorf("nominatim search: %w", err)
	}
	if len(out) == 0 {
		return geocoding.Coordinates{}, geocoding.ErrNoResult
	}

	lat, err := strconv.ParseFloat(out[0].Lat, 64)
	if err != nil {
		return geocoding.Coordinates{}, fmt.Errorf("nominatim lat: %w", err)
	}
	lon, err := strconv.ParseFloat(out[0].Lon, 64)
	if err != nil {
		return geocoding.Coordinates{}, fmt.Errorf("nominatim lon: %w", err)
	}
	return geocoding.Coordinates{Lon: lon, Lat: lat}, nil
}
