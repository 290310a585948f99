package animals

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/apperr"
)

// RegisterRoutes no registra GET /animals: el listado lo expone candidates.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/animals", createAnimalHandler(svc))
	r.Get("/animals/{animalID}", getAnimalHandler(svc))
	r.Patch("/animals/{animalID}", updateAnimalHandler(svc))
	r.Patch("/animals/{animalID}/availability", availabilityHandler(svc))
	r.Delete("/animals/{animalID}", deleteAnimalHandler(svc))
}

type createAnimalRequest struct {
	OwnerID         string          `json:"ownerId"`
	Species         string          `json:"species"`
	Breed           string          `json:"breed"`
	Name            string          `json:"name"`
	Age             string          `json:"age"`
	Sex             string          `json:"sex"`
	Size            string          `json:"size"`
	Weight          string          `json:"weight"`
	Images          []string        `json:"images"`
	Address         geo.Address     `json:"address"`
	Price           float64         `json:"price"`
	Availability    *bool           `json:"availability"`
	Description     string          `json:"description"`
	Characteristics Characteristics `json:"characteristics"`
}

type updateAnimalRequest struct {
	Breed           *string          `json:"breed"`
	Name            *string          `json:"name"`
	Age             *string          `json:"age"`
	Size            *string          `json:"size"`
	Weight          *string          `json:"weight"`
	Images          []string         `json:"images"`
	Address         *geo.Address     `json:"address"`
	Price           *float64         `json:"price"`
	Description     *string          `json:"description"`
	Characteristics *Characteristics `json:"characteristics"`
}

type availabilityRequest struct {
	Availability *bool `json:"availability"`
}

// Response es la forma pública de un animal; candidates y matches la reutilizan.
type Response struct {
	ID              string          `json:"id"`
	Species         string          `json:"species"`
	Breed           string          `json:"breed,omitempty"`
	Name            string          `json:"name"`
	Age             string          `json:"age"`
	Sex             string          `json:"sex"`
	Size            string          `json:"size,omitempty"`
	Weight          string          `json:"weight,omitempty"`
	Images          []string        `json:"images"`
	Address         geo.Address     `json:"address"`
	Location        *geo.Point      `json:"location"`
	Price           float64         `json:"price"`
	OwnerID         string          `json:"ownerId"`
	Availability    bool            `json:"availability"`
	Description     string          `json:"description"`
	Characteristics Characteristics `json:"characteristics"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func ToResponse(a Animal) Response {
	return Response{
		ID:              a.ID,
		Species:         a.Species,
		Breed:           a.Breed,
		Name:            a.Name,
		Age:             a.Age,
		Sex:             a.Sex,
		Size:            a.Size,
		Weight:          a.Weight,
		Images:          a.Images,
		Address:         a.Address,
		Location:        a.Location,
		Price:           a.Price,
		OwnerID:         a.OwnerID,
		Availability:    a.Availability,
		Description:     a.Description,
		Characteristics: a.Characteristics,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// createAnimalHandler godoc
// @Summary      Publicar un animal
// @Tags         animals
// @Accept       json
// @Produce      json
// @Param        body  body      createAnimalRequest  true  "Animal"
// @Success      201   {object}  Response
// @Failure      400,401,403,404  {object}  map[string]string
// @Router       /animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), claims, CreateInput{
			OwnerID:         req.OwnerID,
			Species:         req.Species,
			Breed:           req.Breed,
			Name:            req.Name,
			Age:             req.Age,
			Sex:             req.Sex,
			Size:            req.Size,
			Weight:          req.Weight,
			Images:          req.Images,
			Address:         req.Address,
			Price:           req.Price,
			Availability:    req.Availability,
			Description:     req.Description,
			Characteristics: req.Characteristics,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToResponse(a))
	}
}

// getAnimalHandler godoc
// @Summary      Detalle de un animal
// @Tags         animals
// @Produce      json
// @Param        animalID  path      string  true  "Animal ID"
// @Success      200       {object}  Response
// @Failure      404       {object}  map[string]string
// @Router       /animals/{animalID} [get]
func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(a))
	}
}

// updateAnimalHandler godoc
// @Summary      Editar un animal (dueño o admin)
// @Tags         animals
// @Accept       json
// @Produce      json
// @Param        animalID  path      string               true  "Animal ID"
// @Param        body      body      updateAnimalRequest  true  "Campos a modificar"
// @Success      200       {object}  Response
// @Failure      400,401,403,404  {object}  map[string]string
// @Router       /animals/{animalID} [patch]
func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateAnimalRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Update(r.Context(), claims, chi.URLParam(r, "animalID"), UpdateInput{
			Breed:           req.Breed,
			Name:            req.Name,
			Age:             req.Age,
			Size:            req.Size,
			Weight:          req.Weight,
			Images:          req.Images,
			Address:         req.Address,
			Price:           req.Price,
			Description:     req.Description,
			Characteristics: req.Characteristics,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(a))
	}
}

// availabilityHandler godoc
// @Summary      Cambiar disponibilidad (dueño o admin)
// @Tags         animals
// @Accept       json
// @Produce      json
// @Param        animalID  path      string               true  "Animal ID"
// @Param        body      body      availabilityRequest  true  "availability"
// @Success      200       {object}  Response
// @Failure      400,401,403,404,409  {object}  map[string]string
// @Router       /animals/{animalID}/availability [patch]
func availabilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req availabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Availability == nil {
			http.Error(w, "availability (bool) required", http.StatusBadRequest)
			return
		}

		a, err := svc.ChangeAvailability(r.Context(), claims, chi.URLParam(r, "animalID"), *req.Availability)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(a))
	}
}

// deleteAnimalHandler godoc
// @Summary      Retirar un animal (dueño o admin); 409 si tiene matches abiertos
// @Tags         animals
// @Param        animalID  path  string  true  "Animal ID"
// @Success      204
// @Failure      401,403,404,409  {object}  map[string]string
// @Router       /animals/{animalID} [delete]
func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims, chi.URLParam(r, "animalID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
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
