package geo

// Pesos del score de compatibilidad.
const (
	SpeciesWeight     = 3
	SizeWeight        = 2
	EnvironmentWeight = 1
)

// Traits es lo que el scorer necesita del animal.
type Traits struct {
	Species     string
	Size        string
	Environment []string
}

// Preferences es lo que el scorer necesita del adoptante. Dimensiones vacías no suman ni descartan.
type Preferences struct {
	Species     []string
	Sizes       []string
	Environment []string
}

func (p Preferences) Empty() bool {
	return len(p.Species) == 0 && len(p.Sizes) == 0 && len(p.Environment) == 0
}

// MatchScore no tiene términos negativos: agregar un tag compartido nunca baja el score.
func MatchScore(t Traits, p Preferences) int {
	score := 0
	if len(p.Species) > 0 && contains(p.Species, t.Species) {
		score += SpeciesWeight
	}
	if len(p.Sizes) > 0 && t.Size != "" && contains(p.Sizes, t.Size) {
		score += SizeWeight
	}

	wanted := make(map[string]struct{}, len(p.Environment))
	for _, e := range p.Environment {
		wanted[e] = struct{}{}
	}
	seen := make(map[string]struct{}, len(t.Environment))
	for _, e := range t.Environment {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		if _, ok := wanted[e]; ok {
			score += EnvironmentWeight
		}
	}
	return score
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
