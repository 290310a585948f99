package adopters

import (
	"strings"
	"time"

	"pawfect-match/internal/domain/geo"
)

// Preferences: todas opcionales. Una dimensión vacía no filtra ni puntúa.
type Preferences struct {
	Species     []string `json:"species,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Ages        []string `json:"ages,omitempty"`
	Weights     []string `json:"weights,omitempty"`
	Sexes       []string `json:"sexes,omitempty"`
	Environment []string `json:"environment,omitempty"`
	Personality []string `json:"personality,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	MaxDistance *int     `json:"maxDistance,omitempty"` // km
}

// HasAny: el adoptante expresó al menos una preferencia de lista.
func (p Preferences) HasAny() bool {
	return len(p.Species) > 0 || len(p.Sizes) > 0 || len(p.Ages) > 0 || len(p.Weights) > 0 ||
		len(p.Sexes) > 0 || len(p.Environment) > 0 || len(p.Personality) > 0
}

func (p Preferences) Scoring() geo.Preferences {
	return geo.Preferences{
		Species:     p.Species,
		Sizes:       p.Sizes,
		Environment: p.Environment,
	}
}

type Adopter struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Age       int
	About     string

	Address  geo.Address
	Location *geo.Point

	Preferences Preferences

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary para poblar matches.
type Summary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (a Adopter) Summary() Summary {
	return Summary{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email}
}

// Filter del listado de admin. Texto: substring sin mayúsculas; Zip exacto.
type Filter struct {
	FirstName string
	LastName  string
	Email     string
	City      string
	Zip       string
	Species   string // alguna preferencia de especie
}

func (f Filter) Matches(a Adopter) bool {
	return containsFold(a.FirstName, f.FirstName) &&
		containsFold(a.LastName, f.LastName) &&
		containsFold(a.Email, f.Email) &&
		containsFold(a.Address.City, f.City) &&
		(f.Zip == "" || a.Address.Zip == f.Zip) &&
		(f.Species == "" || contains(a.Preferences.Species, f.Species))
}

func containsFold(s, sub string) bool {
	sub = strings.TrimSpace(sub)
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type ListQuery struct {
	Filter
	Page  int
	Limit int
}

type ListPage struct {
	Items []Adopter
	Total int
	Page  int
	Limit int
	Pages int
}
