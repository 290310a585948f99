package adopters

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/apperr"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/adopters", registerAdopterHandler(svc))
	r.Get("/adopters", listAdoptersHandler(svc))
	r.Get("/adopters/{adopterID}", getAdopterHandler(svc))
	r.Patch("/adopters/{adopterID}", updateAdopterHandler(svc))
	r.Delete("/adopters/{adopterID}", deleteAdopterHandler(svc))
}

type registerAdopterRequest struct {
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Age         int         `json:"age"`
	About       string      `json:"about"`
	Address     geo.Address `json:"address"`
	Preferences Preferences `json:"preferences"`
}

type updateAdopterRequest struct {
	FirstName   *string      `json:"firstName"`
	LastName    *string      `json:"lastName"`
	Age         *int         `json:"age"`
	About       *string      `json:"about"`
	Address     *geo.Address `json:"address"`
	Preferences *Preferences `json:"preferences"`
}

type adopterListResponse struct {
	Items []adopterResponse `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Pages int               `json:"pages"`
}

type adopterResponse struct {
	ID          string      `json:"id"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Age         int         `json:"age"`
	About       string      `json:"about"`
	Address     geo.Address `json:"address"`
	Location    *geo.Point  `json:"location"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// registerAdopterHandler godoc
// @Summary      Registrar perfil de adoptante
// @Tags         adopters
// @Accept       json
// @Produce      json
// @Param        body  body      registerAdopterRequest  true  "Perfil"
// @Success      201   {object}  adopterResponse
// @Failure      400,401,403,409  {object}  map[string]string
// @Router       /adopters [post]
func registerAdopterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerAdopterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Register(r.Context(), claims, CreateInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Age:         req.Age,
			About:       req.About,
			Address:     req.Address,
			Preferences: req.Preferences,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAdopterResponse(a))
	}
}

// getAdopterHandler godoc
// @Summary      Perfil de adoptante (propio o admin)
// @Tags         adopters
// @Produce      json
// @Param        adopterID  path      string  true  "Adopter ID"
// @Success      200        {object}  adopterResponse
// @Failure      401,403,404  {object}  map[string]string
// @Router       /adopters/{adopterID} [get]
func getAdopterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "adopterID")
		if id != claims.UserID && !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		a, err := svc.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdopterResponse(a))
	}
}

// updateAdopterHandler godoc
// @Summary      Editar perfil y preferencias
// @Tags         adopters
// @Accept       json
// @Produce      json
// @Param        adopterID  path      string                true  "Adopter ID"
// @Param        body       body      updateAdopterRequest  true  "Campos a modificar"
// @Success      200        {object}  adopterResponse
// @Failure      400,401,403,404  {object}  map[string]string
// @Router       /adopters/{adopterID} [patch]
func updateAdopterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateAdopterRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Update(r.Context(), claims, chi.URLParam(r, "adopterID"), UpdateInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Age:         req.Age,
			About:       req.About,
			Address:     req.Address,
			Preferences: req.Preferences,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdopterResponse(a))
	}
}

// listAdoptersHandler godoc
// @Summary      Listar adoptantes (admin)
// @Tags         adopters
// @Produce      json
// @Param        firstName  query     string  false  "Substring"
// @Param        lastName   query     string  false  "Substring"
// @Param        email      query     string  false  "Substring"
// @Param        city       query     string  false  "Substring"
// @Param        zip        query     string  false  "Exacto"
// @Param        species    query     string  false  "Especie preferida"
// @Param        page       query     int     false  "Página"
// @Param        limit      query     int     false  "Tamaño"
// @Success      200  {object}  adopterListResponse
// @Failure      401,403  {object}  map[string]string
// @Router       /adopters [get]
func listAdoptersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		v := r.URL.Query()
		q := ListQuery{Filter: Filter{
			FirstName: v.Get("firstName"),
			LastName:  v.Get("lastName"),
			Email:     v.Get("email"),
			City:      v.Get("city"),
			Zip:       strings.TrimSpace(v.Get("zip")),
			Species:   strings.TrimSpace(v.Get("species")),
		}}
		q.Page, _ = strconv.Atoi(v.Get("page"))
		q.Limit, _ = strconv.Atoi(v.Get("limit"))

		page, err := svc.List(r.Context(), claims, q)
		if err != nil {
			writeError(w, err)
			return
		}
		out := adopterListResponse{
			Items: make([]adopterResponse, 0, len(page.Items)),
			Total: page.Total,
			Page:  page.Page,
			Limit: page.Limit,
			Pages: page.Pages,
		}
		for _, a := range page.Items {
			out.Items = append(out.Items, toAdopterResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// deleteAdopterHandler godoc
// @Summary      Borrar perfil de adoptante (propio o admin)
// @Tags         adopters
// @Param        adopterID  path  string  true  "Adopter ID"
// @Success      204
// @Failure      401,403,404  {object}  map[string]string
// @Router       /adopters/{adopterID} [delete]
func deleteAdopterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims, chi.URLParam(r, "adopterID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toAdopterResponse(a Adopter) adopterResponse {
	return adopterResponse{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Age:         a.Age,
		About:       a.About,
		Address:     a.Address,
		Location:    a.Location,
		Preferences: a.Preferences,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
