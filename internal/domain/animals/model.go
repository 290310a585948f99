package animals

import (
	"time"

	"pawfect-match/internal/domain/geo"
)

// Characteristics: cada lista es no vacía y sale de su vocabulario.
type Characteristics struct {
	Environment []string `json:"environment"`
	Training    []string `json:"training"`
	Personality []string `json:"personality"`
}

// Animal es un registro adoptable. Availability=false lo saca de los candidatos.
type Animal struct {
	ID string

	Species string
	Breed   string
	Name    string
	Age     string // banda: 0-1, 1-3, 3-7, 7+
	Sex     string
	Size    string
	Weight  string // banda: 0-5, 5-10, ...

	Images []string

	Address  geo.Address
	Location *geo.Point

	Price        float64
	OwnerID      string
	Availability bool
	Description  string

	Characteristics Characteristics

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Traits para el scorer.
func (a Animal) Traits() geo.Traits {
	return geo.Traits{
		Species:     a.Species,
		Size:        a.Size,
		Environment: a.Characteristics.Environment,
	}
}
