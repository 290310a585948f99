package owners

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
	r.Post("/owners", registerOwnerHandler(svc))
	r.Get("/owners", listOwnersHandler(svc))
	r.Get("/owners/{ownerID}", getOwnerHandler(svc))
	r.Patch("/owners/{ownerID}", updateOwnerHandler(svc))
	r.Delete("/owners/{ownerID}", deleteOwnerHandler(svc))
}

type registerOwnerRequest struct {
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Organization string      `json:"organization"`
	Image        string      `json:"image"`
	About        string      `json:"about"`
	Address      geo.Address `json:"address"`
}

type updateOwnerRequest struct {
	FirstName    *string      `json:"firstName"`
	LastName     *string      `json:"lastName"`
	Email        *string      `json:"email"`
	Phone        *string      `json:"phone"`
	Organization *string      `json:"organization"`
	Image        *string      `json:"image"`
	About        *string      `json:"about"`
	Address      *geo.Address `json:"address"`
}

type ownerListResponse struct {
	Items []ownerResponse `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Pages int             `json:"pages"`
}

type ownerResponse struct {
	ID           string      `json:"id"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	Organization string      `json:"organization,omitempty"`
	Image        string      `json:"image,omitempty"`
	About        string      `json:"about,omitempty"`
	Address      geo.Address `json:"address"`
	Location     *geo.Point  `json:"location"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// registerOwnerHandler godoc
// @Summary      Registrar perfil de dueño
// @Tags         owners
// @Accept       json
// @Produce      json
// @Param        body  body      registerOwnerRequest  true  "Perfil"
// @Success      201   {object}  ownerResponse
// @Failure      400,401,403,409  {object}  map[string]string
// @Router       /owners [post]
func registerOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerOwnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		o, err := svc.Register(r.Context(), claims, CreateInput{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Phone:        req.Phone,
			Organization: req.Organization,
			Image:        req.Image,
			About:        req.About,
			Address:      req.Address,
		})
		if err != nil {
			writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
			return
		}
		writeJSON(w, http.StatusCreated, toOwnerResponse(o))
	}
}

// getOwnerHandler godoc
// @Summary      Perfil público de un dueño
// @Tags         owners
// @Produce      json
// @Param        ownerID  path      string  true  "Owner ID"
// @Success      200      {object}  ownerResponse
// @Failure      404      {object}  map[string]string
// @Router       /owners/{ownerID} [get]
func getOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.GetByID(r.Context(), chi.URLParam(r, "ownerID"))
		if err != nil {
			writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
			return
		}
		writeJSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

// listOwnersHandler godoc
// @Summary      Listar dueños (admin)
// @Tags         owners
// @Produce      json
// @Param        firstName  query     string  false  "Substring"
// @Param        lastName   query     string  false  "Substring"
// @Param        email      query     string  false  "Substring"
// @Param        phone      query     string  false  "Substring"
// @Param        city       query     string  false  "Substring"
// @Param        zip        query     string  false  "Exacto"
// @Param        page       query     int     false  "Página"
// @Param        limit      query     int     false  "Tamaño"
// @Success      200  {object}  ownerListResponse
// @Failure      401,403  {object}  map[string]string
// @Router       /owners [get]
func listOwnersHandler(svc *Service) http.HandlerFunc {
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
			Phone:     v.Get("phone"),
			City:      v.Get("city"),
			Zip:       strings.TrimSpace(v.Get("zip")),
		}}
		q.Page, _ = strconv.Atoi(v.Get("page"))
		q.Limit, _ = strconv.Atoi(v.Get("limit"))

		page, err := svc.List(r.Context(), claims, q)
		if err != nil {
			writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
			return
		}
		out := ownerListResponse{
			Items: make([]ownerResponse, 0, len(page.Items)),
			Total: page.Total,
			Page:  page.Page,
			Limit: page.Limit,
			Pages: page.Pages,
		}
		for _, o := range page.Items {
			out.Items = append(out.Items, toOwnerResponse(o))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// updateOwnerHandler godoc
// @Summary      Editar perfil de dueño (propio o admin)
// @Tags         owners
// @Accept       json
// @Produce      json
// @Param        ownerID  path      string              true  "Owner ID"
// @Param        body     body      updateOwnerRequest  true  "Campos a modificar"
// @Success      200      {object}  ownerResponse
// @Failure      400,401,403,404,409  {object}  map[string]string
// @Router       /owners/{ownerID} [patch]
func updateOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateOwnerRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		o, err := svc.Update(r.Context(), claims, chi.URLParam(r, "ownerID"), UpdateInput{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Phone:        req.Phone,
			Organization: req.Organization,
			Image:        req.Image,
			About:        req.About,
			Address:      req.Address,
		})
		if err != nil {
			writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
			return
		}
		writeJSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

// deleteOwnerHandler godoc
// @Summary      Borrar perfil de dueño sin animales (propio o admin)
// @Tags         owners
// @Param        ownerID  path  string  true  "Owner ID"
// @Success      204
// @Failure      401,403,404,409  {object}  map[string]string
// @Router       /owners/{ownerID} [delete]
func deleteOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims, chi.URLParam(r, "ownerID")); err != nil {
			writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toOwnerResponse(o Owner) ownerResponse {
	return ownerResponse{
		ID:           o.ID,
		FirstName:    o.FirstName,
		LastName:     o.LastName,
		Email:        o.Email,
		Phone:        o.Phone,
		Organization: o.Organization,
		Image:        o.Image,
		About:        o.About,
		Address:      o.Address,
		Location:     o.Location,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
