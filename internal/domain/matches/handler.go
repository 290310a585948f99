package matches

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/apperr"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/matches", func(mr chi.Router) {
		mr.Post("/", proposeHandler(svc))
		mr.Get("/", listMatchesHandler(svc))

		mr.Get("/{matchID}", getMatchHandler(svc))
		mr.Delete("/{matchID}", deleteMatchHandler(svc))

		// Ciclo de vida
		mr.Post("/{matchID}/status", transitionHandler(svc))
		mr.Post("/{matchID}/finalize", finalizeHandler(svc))

		// Chat
		mr.Get("/{matchID}/discussion", discussionHandler(svc))
		mr.Post("/{matchID}/messages", postMessageHandler(svc))
	})
}

type proposeRequest struct {
	AdopterID string `json:"adopterId"`
	AnimalID  string `json:"animalId"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type postMessageRequest struct {
	Text string `json:"text"`
}

// proposeHandler godoc
// @Summary      Proponer un match
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        body  body      proposeRequest  true  "adopterId (opcional) y animalId"
// @Success      201   {object}  Details
// @Failure      400,401,403,404,409  {object}  map[string]string
// @Router       /matches [post]
func proposeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req proposeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.Propose(r.Context(), claims, req.AdopterID, req.AnimalID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

// listMatchesHandler godoc
// @Summary      Listar matches visibles para el llamante
// @Tags         matches
// @Produce      json
// @Param        adopterId  query     string  false  "Adoptante (solo admin)"
// @Param        animalId   query     string  false  "Animal"
// @Param        status     query     string  false  "pending|rejected|approved|adopted"
// @Param        isActive   query     bool    false  "Conversación activa"
// @Param        page       query     int     false  "Página"
// @Param        limit      query     int     false  "Tamaño"
// @Success      200  {object}  ListPage
// @Failure      400,401,403  {object}  map[string]string
// @Router       /matches [get]
func listMatchesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		v := r.URL.Query()
		q := ListQuery{
			AdopterID: strings.TrimSpace(v.Get("adopterId")),
			AnimalID:  strings.TrimSpace(v.Get("animalId")),
		}
		q.Page, _ = strconv.Atoi(v.Get("page"))
		q.Limit, _ = strconv.Atoi(v.Get("limit"))

		if s := strings.TrimSpace(v.Get("status")); s != "" {
			st, ok := ParseStatus(s)
			if !ok {
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			q.Status = st
		}
		if s := strings.TrimSpace(v.Get("isActive")); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				http.Error(w, "invalid isActive", http.StatusBadRequest)
				return
			}
			q.IsActive = &b
		}

		page, err := svc.List(r.Context(), claims, q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// getMatchHandler godoc
// @Summary      Detalle de un match (participantes o admin)
// @Tags         matches
// @Produce      json
// @Param        matchID  path      string  true  "Match ID"
// @Success      200      {object}  Details
// @Failure      401,403,404  {object}  map[string]string
// @Router       /matches/{matchID} [get]
func getMatchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.Get(r.Context(), claims, chi.URLParam(r, "matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// deleteMatchHandler godoc
// @Summary      Borrar un match (participantes o admin)
// @Tags         matches
// @Param        matchID  path  string  true  "Match ID"
// @Success      204
// @Failure      401,403,404  {object}  map[string]string
// @Router       /matches/{matchID} [delete]
func deleteMatchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Remove(r.Context(), claims, chi.URLParam(r, "matchID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// transitionHandler godoc
// @Summary      Aprobar o rechazar (dueño o admin); adopted equivale a finalize
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        matchID  path      string             true  "Match ID"
// @Param        body     body      transitionRequest  true  "approved|rejected|adopted"
// @Success      200      {object}  Details
// @Failure      400,401,403,404,409  {object}  map[string]string
// @Router       /matches/{matchID}/status [post]
func transitionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.Transition(r.Context(), claims, chi.URLParam(r, "matchID"), Status(strings.TrimSpace(req.Status)))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// finalizeHandler godoc
// @Summary      Finalizar la adopción (approved -> adopted)
// @Tags         matches
// @Produce      json
// @Param        matchID  path      string  true  "Match ID"
// @Success      200      {object}  Details
// @Failure      401,403,404,409  {object}  map[string]string
// @Router       /matches/{matchID}/finalize [post]
func finalizeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.Finalize(r.Context(), claims, chi.URLParam(r, "matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// discussionHandler godoc
// @Summary      Mensajes de un match
// @Tags         matches
// @Produce      json
// @Param        matchID  path      string  true  "Match ID"
// @Success      200      {object}  Discussion
// @Failure      401,403,404  {object}  map[string]string
// @Router       /matches/{matchID}/discussion [get]
func discussionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.Discussion(r.Context(), claims, chi.URLParam(r, "matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// postMessageHandler godoc
// @Summary      Enviar un mensaje (solo approved o adopted)
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        matchID  path      string              true  "Match ID"
// @Param        body     body      postMessageRequest  true  "Texto (máx 1000)"
// @Success      201      {object}  Details
// @Failure      400,401,403,404,409  {object}  map[string]string
// @Router       /matches/{matchID}/messages [post]
func postMessageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req postMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.PostMessage(r.Context(), claims, chi.URLParam(r, "matchID"), req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}

// writeJSON duplicado por módulo, igual que en animals/adopters.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
