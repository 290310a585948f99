package animals

import "strings"

// Filter es el predicado que se empuja al storage. Campos vacíos no filtran.
// Las listas de tags son any-of.
type Filter struct {
	Species      []string
	Breed        string // substring, case-insensitive
	Name         string // substring, case-insensitive
	AgeBands     []string
	Sex          string
	Size         string
	MinPrice     *float64
	MaxPrice     *float64
	Availability *bool
	City         string // substring, case-insensitive
	Zip          string
	OwnerID      string

	Environment []string
	Training    []string
	Personality []string

	// ExcludeIDs: animales que ya tienen match con el adoptante.
	ExcludeIDs []string
}

// Matches evalúa el filtro en memoria. El adapter postgres lo traduce a SQL.
func (f Filter) Matches(a Animal) bool {
	if len(f.Species) > 0 && !In(f.Species, a.Species) {
		return false
	}
	if f.Breed != "" && !containsFold(a.Breed, f.Breed) {
		return false
	}
	if f.Name != "" && !containsFold(a.Name, f.Name) {
		return false
	}
	if f.AgeBands != nil && !In(f.AgeBands, a.Age) {
		return false
	}
	if f.Sex != "" && a.Sex != f.Sex {
		return false
	}
	if f.Size != "" && a.Size != f.Size {
		return false
	}
	if f.MinPrice != nil && a.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && a.Price > *f.MaxPrice {
		return false
	}
	if f.Availability != nil && a.Availability != *f.Availability {
		return false
	}
	if f.City != "" && !containsFold(a.Address.City, f.City) {
		return false
	}
	if f.Zip != "" && a.Address.Zip != f.Zip {
		return false
	}
	if f.OwnerID != "" && a.OwnerID != f.OwnerID {
		return false
	}
	if !anyOf(f.Environment, a.Characteristics.Environment) ||
		!anyOf(f.Training, a.Characteristics.Training) ||
		!anyOf(f.Personality, a.Characteristics.Personality) {
		return false
	}
	if len(f.ExcludeIDs) > 0 && In(f.ExcludeIDs, a.ID) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

// anyOf: sin filtro => true; si no, al menos un tag en común.
func anyOf(wanted, have []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, h := range have {
		if In(wanted, h) {
			return true
		}
	}
	return false
}
