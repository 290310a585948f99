package animals

// Vocabularios cerrados. Los valores se persisten tal cual (en francés).

// Species
// @Enum chat, chien, lapin, oiseau, rongeur, autre
type Species string

const (
	SpeciesChat    Species = "chat"
	SpeciesChien   Species = "chien"
	SpeciesLapin   Species = "lapin"
	SpeciesOiseau  Species = "oiseau"
	SpeciesRongeur Species = "rongeur"
	SpeciesAutre   Species = "autre"
)

var (
	SpeciesValues = []string{"chat", "chien", "lapin", "oiseau", "rongeur", "autre"}
	AgeBands      = []string{"0-1", "1-3", "3-7", "7+"}
	SexValues     = []string{"male", "female"}
	SizeValues    = []string{"petit", "moyen", "grand"}
	WeightBands   = []string{"0-5", "5-10", "10-20", "20-30", "30+"}

	EnvironmentTags = []string{"appartement", "voiture", "enfant", "chien", "chat", "autre animaux"}
	TrainingTags    = []string{"éduqué", "facile à dresser", "habitué à la laisse", "têtu"}
	PersonalityTags = []string{
		"calme", "énergique", "indépendant", "affectueux", "curieux",
		"joueur", "bavard", "explorateur", "câlin", "protecteur",
		"territorial", "sociable", "timide", "peureux",
	}
)

// ageRanges: banda -> [min, max) en años. 7+ no tiene techo.
var ageRanges = map[string][2]int{
	"0-1": {0, 1},
	"1-3": {1, 3},
	"3-7": {3, 7},
	"7+":  {7, 1 << 30},
}

// BandsOverlapping devuelve las bandas de edad que se solapan con [minAge, maxAge].
// nil en cualquiera de los extremos = sin límite por ese lado.
func BandsOverlapping(minAge, maxAge *int) []string {
	if minAge == nil && maxAge == nil {
		return nil
	}
	out := make([]string, 0, len(AgeBands))
	for _, band := range AgeBands {
		r := ageRanges[band]
		if minAge != nil && r[1] <= *minAge {
			continue
		}
		if maxAge != nil && r[0] > *maxAge {
			continue
		}
		out = append(out, band)
	}
	return out
}

func In(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// AllIn: todos los valores pertenecen al vocabulario.
func AllIn(set, values []string) bool {
	for _, v := range values {
		if !In(set, v) {
			return false
		}
	}
	return true
}
