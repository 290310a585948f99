package realtime

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"pawfect-match/internal/middleware"
	"pawfect-match/internal/ports/auth"
)

type HandlerOptions struct {
	Verifier       auth.AuthVerifier // nil = modo dev (X-Debug-User-ID)
	AllowedOrigins []string          // vacío o "*" = cualquiera
	SendBuffer     int
}

// Handler hace el upgrade en /ws. El token se verifica una sola vez acá:
// Authorization Bearer, cookie auth_token o query ?token=. Sin token la conexión es anónima.
//
// @Summary      Websocket de notificaciones y chat
// @Description  Frames JSON. Cliente: {"action":"sub|unsub|pub","channel","id","data"}. Servidor: {"type":"event|notification|ack|error",...}
// @Tags         realtime
// @Param        token  query  string  false  "Access token (alternativa al header)"
// @Success      101
// @Failure      401  {string}  string  "unauthorized"
// @Router       /ws [get]
func (h *Hub) Handler(opts HandlerOptions) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok, err := h.resolveCaller(r, opts.Verifier)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade ya respondió al cliente
			h.log.Debug("websocket upgrade failed", map[string]any{"err": err})
			return
		}

		var who *auth.Claims
		if ok {
			who = &claims
		}
		c := newConn(ws, who, opts.SendBuffer)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h.attach(c)
		defer h.detach(c)
		go c.writePump()

		if who != nil {
			h.log.Info("websocket connected", map[string]any{"user_id": who.UserID, "role": string(who.Role)})
			if h.hooks.OnConnect != nil {
				go h.hooks.OnConnect(ctx, who.UserID)
			}
		}

		c.readPump(func(f ClientFrame) {
			h.handleFrame(ctx, c, f)
		})
	}
}

// resolveCaller: claims del middleware si ya los hay; si no, token por query.
// Un token presente pero inválido corta el upgrade.
func (h *Hub) resolveCaller(r *http.Request, verifier auth.AuthVerifier) (auth.Claims, bool, error) {
	if c, ok := middleware.GetClaims(r.Context()); ok {
		return c, true, nil
	}
	if verifier == nil {
		c, ok := middleware.DebugClaims(r)
		return c, ok, nil
	}

	token := middleware.TokenFromRequest(r)
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		return auth.Claims{}, false, nil
	}
	c, err := verifier.Verify(r.Context(), token)
	if err != nil {
		return auth.Claims{}, false, err
	}
	return c, true, nil
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// clientes no-browser
			return true
		}
		_, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}
