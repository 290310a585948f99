package geo

import "strings"

// Address postal tal como la cargan adoptantes, dueños y animales.
type Address struct {
	Zip  string `json:"zip"`
	City string `json:"city"`
}

func (a Address) Normalize() Address {
	return Address{Zip: strings.TrimSpace(a.Zip), City: strings.TrimSpace(a.City)}
}

func (a Address) Empty() bool {
	n := a.Normalize()
	return n.Zip == "" || n.City == ""
}
