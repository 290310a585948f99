package candidates

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/animals", listAnimalsHandler(svc))
}

// listAnimalsHandler godoc
// @Summary      Listar animales candidatos
// @Description  Personalizado si el llamante es un adoptante con perfil: especies por defecto, exclusión de animales ya vistos, distancia y score.
// @Tags         animals
// @Produce      json
// @Param        species      query     []string  false  "Especies (repetible o CSV)"
// @Param        breed        query     string    false  "Raza (substring)"
// @Param        name         query     string    false  "Nombre (substring)"
// @Param        minAge       query     int       false  "Edad mínima en años"
// @Param        maxAge       query     int       false  "Edad máxima en años"
// @Param        minPrice     query     number    false  "Precio mínimo"
// @Param        maxPrice     query     number    false  "Precio máximo"
// @Param        sex          query     string    false  "male|female"
// @Param        size         query     string    false  "petit|moyen|grand"
// @Param        availability query     bool      false  "Solo admin o dueño sobre sus animales"
// @Param        city         query     string    false  "Ciudad (substring)"
// @Param        zip          query     string    false  "Código postal"
// @Param        ownerId      query     string    false  "Dueño"
// @Param        environment  query     []string  false  "Tags de entorno (any-of)"
// @Param        training     query     []string  false  "Tags de educación (any-of)"
// @Param        personality  query     []string  false  "Tags de personalidad (any-of)"
// @Param        page         query     int       false  "Página (default 1)"
// @Param        limit        query     int       false  "Tamaño (default 20, máx 100)"
// @Success      200  {object}  Page
// @Failure      400  {object}  map[string]string
// @Router       /animals [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		var caller *auth.Claims
		if claims, ok := middleware.GetClaims(r.Context()); ok && strings.TrimSpace(claims.UserID) != "" {
			caller = &claims
		}

		page, err := svc.ListAnimals(r.Context(), q, caller)
		if err != nil {
			writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

type queryError struct{ field string }

func (e queryError) Error() string { return "invalid " + e.field }

func parseQuery(v url.Values) (Query, error) {
	q := Query{
		Species:     list(v, "species"),
		Breed:       first(v, "breed", "race"),
		Name:        strings.TrimSpace(v.Get("name")),
		Sex:         strings.TrimSpace(v.Get("sex")),
		Size:        strings.TrimSpace(v.Get("size")),
		City:        strings.TrimSpace(v.Get("city")),
		Zip:         strings.TrimSpace(v.Get("zip")),
		OwnerID:     strings.TrimSpace(v.Get("ownerId")),
		Environment: list(v, "environment"),
		Training:    append(list(v, "training"), list(v, "dressage")...),
		Personality: list(v, "personality"),
	}

	// paginación inválida => defaults, no error
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.Limit, _ = strconv.Atoi(v.Get("limit"))

	var err error
	if q.MinAge, err = optInt(v, "minAge"); err != nil {
		return Query{}, err
	}
	if q.MaxAge, err = optInt(v, "maxAge"); err != nil {
		return Query{}, err
	}
	if q.MinPrice, err = optFloat(v, "minPrice"); err != nil {
		return Query{}, err
	}
	if q.MaxPrice, err = optFloat(v, "maxPrice"); err != nil {
		return Query{}, err
	}
	if s := strings.TrimSpace(v.Get("availability")); s != "" {
		b, perr := strconv.ParseBool(s)
		if perr != nil {
			return Query{}, queryError{"availability"}
		}
		q.Availability = &b
	}
	if len(q.Training) == 0 {
		q.Training = nil
	}
	return q, nil
}

// list acepta ?k=a&k=b y ?k=a,b
func list(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

func optInt(v url.Values, key string) (*int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, queryError{key}
	}
	return &i, nil
}

func optFloat(v url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, queryError{key}
	}
	return &f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
