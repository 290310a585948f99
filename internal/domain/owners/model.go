package owners

import (
	"strings"
	"time"

	"pawfect-match/internal/domain/geo"
)

// Owner: persona o asociación que ofrece animales. ID = identidad del token.
type Owner struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Organization string
	Image        string
	About        string

	Address  geo.Address
	Location *geo.Point

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary es lo que se adjunta a cada candidato y a cada match.
type Summary struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Organization string     `json:"organization,omitempty"`
	Image        string     `json:"image,omitempty"`
	Location     *geo.Point `json:"location"`
}

func (o Owner) Summary() Summary {
	return Summary{
		ID:           o.ID,
		FirstName:    o.FirstName,
		LastName:     o.LastName,
		Email:        o.Email,
		Phone:        o.Phone,
		Organization: o.Organization,
		Image:        o.Image,
		Location:     o.Location,
	}
}

// Filter del listado de admin. Texto: substring sin mayúsculas; Zip exacto.
type Filter struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string
	Zip       string
}

func (f Filter) Matches(o Owner) bool {
	return containsFold(o.FirstName, f.FirstName) &&
		containsFold(o.LastName, f.LastName) &&
		containsFold(o.Email, f.Email) &&
		containsFold(o.Phone, f.Phone) &&
		containsFold(o.Address.City, f.City) &&
		(f.Zip == "" || o.Address.Zip == f.Zip)
}

func containsFold(s, sub string) bool {
	sub = strings.TrimSpace(sub)
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type ListQuery struct {
	Filter
	Page  int
	Limit int
}

type ListPage struct {
	Items []Owner
	Total int
	Page  int
	Limit int
	Pages int
}
