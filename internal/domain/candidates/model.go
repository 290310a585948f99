package candidates

import (
	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/owners"
	"pawfect-match/internal/platform/pagination"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query son los filtros de listAnimals. Campos vacíos no filtran.
type Query struct {
	Species      []string
	Breed        string
	Name         string
	MinAge       *int // años
	MaxAge       *int
	MinPrice     *float64
	MaxPrice     *float64
	Sex          string
	Size         string
	Availability *bool
	City         string
	Zip          string
	OwnerID      string
	Environment  []string
	Training     []string
	Personality  []string

	Page  int
	Limit int
}

// Item es un candidato: el animal, la distancia al adoptante, el score y el dueño.
type Item struct {
	animals.Response
	DistanceKm *int            `json:"distanceKm"`
	MatchScore *int            `json:"matchScore,omitempty"`
	Owner      *owners.Summary `json:"owner"`
}

type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Pages int    `json:"pages"`
}

func clampPagination(page, limit int) (int, int) {
	return pagination.Clamp(page, limit, DefaultLimit, MaxLimit)
}
