package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pawfect-match/internal/adapters/geocoding/static"
	"pawfect-match/internal/config"
	"pawfect-match/internal/middleware"
	"pawfect-match/internal/ports/notify"
	"pawfect-match/internal/realtime/bridge"
	"pawfect-match/internal/router"
)

func newServer(t *testing.T, rl *middleware.RateLimiter) *httptest.Server {
	t.Helper()
	rt := router.NewRouter(router.Options{
		AuthVerifier: nil, // modo dev
		Config:       &config.Config{Geocoder: "static", WSSendBuffer: 16},
		Geocoder:     static.New(),
		RateLimiter:  rl,
	})
	ts := httptest.NewServer(rt)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_MatchLifecycle(t *testing.T) {
	ts := newServer(t, nil)

	ownerID := "owner-1"
	adopterID := "adopter-1"
	strangerID := "adopter-2"

	// 1) Perfiles
	registerOwner(t, ts.URL, ownerID)
	registerAdopter(t, ts.URL, adopterID)
	registerAdopter(t, ts.URL, strangerID)

	// 2) Owner publica un animal
	animalID := createAnimal(t, ts.URL, ownerID, "Rex")

	// 3) Adoptante lo ve como candidato, con score
	{
		st, body := doReq(t, ts.URL, "GET", "/animals", adopterID, "adopter", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list animals, got %d body=%s", st, string(body))
		}
		var page struct {
			Items []struct {
				ID         string `json:"id"`
				MatchScore *int   `json:"matchScore"`
			} `json:"items"`
		}
		_ = json.Unmarshal(body, &page)
		if len(page.Items) != 1 || page.Items[0].ID != animalID {
			t.Fatalf("expected the published animal as only candidate, body=%s", string(body))
		}
		if page.Items[0].MatchScore == nil || *page.Items[0].MatchScore < 3 {
			t.Fatalf("expected species preference to score, body=%s", string(body))
		}
	}

	// 4) Propone match
	matchID := proposeMatch(t, ts.URL, adopterID, animalID)

	// 5) Duplicado => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/matches", adopterID, "adopter", map[string]any{"animalId": animalID})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate match, got %d", st)
		}
	}

	// 6) Ya no aparece como candidato
	{
		_, body := doReq(t, ts.URL, "GET", "/animals", adopterID, "adopter", nil)
		if strings.Contains(string(body), animalID) {
			t.Fatalf("matched animal must be excluded, body=%s", string(body))
		}
	}

	// 7) Chat cerrado mientras está pending
	{
		st, _ := doReq(t, ts.URL, "POST", "/matches/"+matchID+"/messages", adopterID, "adopter", map[string]any{"text": "Bonjour"})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 message on pending match, got %d", st)
		}
	}

	// 8) El adoptante no puede aprobar su propio match
	{
		st, _ := doReq(t, ts.URL, "POST", "/matches/"+matchID+"/status", adopterID, "adopter", map[string]any{"status": "approved"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approve by adopter, got %d", st)
		}
	}

	// 9) Owner aprueba
	{
		st, body := doReq(t, ts.URL, "POST", "/matches/"+matchID+"/status", ownerID, "owner", map[string]any{"status": "approved"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		var m struct {
			Status   string `json:"status"`
			IsActive bool   `json:"isActive"`
		}
		_ = json.Unmarshal(body, &m)
		if m.Status != "approved" || !m.IsActive {
			t.Fatalf("expected approved+active, body=%s", string(body))
		}
	}

	// 10) Chat abierto
	{
		st, body := doReq(t, ts.URL, "POST", "/matches/"+matchID+"/messages", adopterID, "adopter", map[string]any{"text": "Bonjour, <b>Rex</b> est-il sociable ?"})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 message, got %d body=%s", st, string(body))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/matches/"+matchID+"/discussion", strangerID, "adopter", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 discussion by stranger, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/matches/"+matchID+"/discussion", ownerID, "owner", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 discussion by owner, got %d body=%s", st, string(body))
		}
		var d struct {
			Messages []struct {
				SenderRole string `json:"senderRole"`
				Text       string `json:"text"`
			} `json:"discussion"`
		}
		_ = json.Unmarshal(body, &d)
		if len(d.Messages) != 1 || d.Messages[0].SenderRole != "adopter" {
			t.Fatalf("expected one adopter message, body=%s", string(body))
		}
		if strings.Contains(d.Messages[0].Text, "<b>") {
			t.Fatalf("markup must be stripped, got %q", d.Messages[0].Text)
		}
	}

	// 11) Finaliza la adopción => animal no disponible
	{
		st, body := doReq(t, ts.URL, "POST", "/matches/"+matchID+"/finalize", ownerID, "owner", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 finalize, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/animals/"+animalID, strangerID, "adopter", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get animal, got %d body=%s", st, string(body))
		}
		var a struct {
			Availability bool `json:"availability"`
		}
		_ = json.Unmarshal(body, &a)
		if a.Availability {
			t.Fatalf("adopted animal must be unavailable, body=%s", string(body))
		}
	}

	// 11b) La adopción es definitiva: no vuelve a estar disponible
	{
		st, body := doReq(t, ts.URL, "PATCH", "/animals/"+animalID+"/availability", ownerID, "owner", map[string]any{"availability": true})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 re-listing adopted animal, got %d body=%s", st, string(body))
		}
	}

	// 12) Otros adoptantes ya no lo ven
	{
		_, body := doReq(t, ts.URL, "GET", "/animals", strangerID, "adopter", nil)
		if strings.Contains(string(body), animalID) {
			t.Fatalf("adopted animal must not be a candidate, body=%s", string(body))
		}
	}

	// 13) Métricas
	{
		st, body := doReq(t, ts.URL, "GET", "/metrics", "", "", nil)
		if st != http.StatusOK || !strings.Contains(string(body), "pawfect_match_transitions_total") {
			t.Fatalf("expected transitions metric, got %d", st)
		}
	}
}

func TestHTTP_DeletionRules(t *testing.T) {
	ts := newServer(t, nil)

	registerOwner(t, ts.URL, "owner-1")
	registerAdopter(t, ts.URL, "adopter-1")
	animalID := createAnimal(t, ts.URL, "owner-1", "Rex")
	matchID := proposeMatch(t, ts.URL, "adopter-1", animalID)

	expect := func(method, path, user, role string, want int) []byte {
		t.Helper()
		st, body := doReq(t, ts.URL, method, path, user, role, nil)
		if st != want {
			t.Fatalf("%s %s as %s: expected %d, got %d body=%s", method, path, user, want, st, string(body))
		}
		return body
	}

	// match abierto: el animal no se puede retirar y el dueño no se puede borrar
	expect("DELETE", "/animals/"+animalID, "owner-1", "owner", http.StatusConflict)
	expect("DELETE", "/owners/owner-1", "owner-1", "owner", http.StatusConflict)

	if st, body := doReq(t, ts.URL, "POST", "/matches/"+matchID+"/status", "owner-1", "owner", map[string]any{"status": "rejected"}); st != http.StatusOK {
		t.Fatalf("expected 200 reject, got %d body=%s", st, string(body))
	}
	expect("DELETE", "/animals/"+animalID, "owner-1", "owner", http.StatusNoContent)

	// el match rechazado sigue accesible para el dueño
	body := expect("GET", "/matches/"+matchID, "owner-1", "owner", http.StatusOK)
	if !strings.Contains(string(body), `"ownerId":"owner-1"`) {
		t.Fatalf("expected owner snapshot on match, body=%s", string(body))
	}

	expect("GET", "/owners", "owner-1", "owner", http.StatusForbidden)
	body = expect("GET", "/owners?city=gen", "admin-1", "admin", http.StatusOK)
	if !strings.Contains(string(body), `"total":1`) {
		t.Fatalf("expected one owner in admin list, body=%s", string(body))
	}
	expect("DELETE", "/owners/owner-1", "owner-1", "owner", http.StatusNoContent)
	expect("DELETE", "/adopters/adopter-1", "admin-1", "admin", http.StatusNoContent)
	expect("GET", "/adopters/adopter-1", "admin-1", "admin", http.StatusNotFound)
}

func TestHTTP_RequiresIdentity(t *testing.T) {
	ts := newServer(t, nil)

	st, _ := doReq(t, ts.URL, "POST", "/matches", "", "", map[string]any{"animalId": "x"})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/health", "", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}
}

func TestWS_OfflineApprovalIsReplayedOnConnect(t *testing.T) {
	ts := newServer(t, nil)

	registerOwner(t, ts.URL, "owner-1")
	registerAdopter(t, ts.URL, "adopter-1")
	animalID := createAnimal(t, ts.URL, "owner-1", "Mina")
	matchID := proposeMatch(t, ts.URL, "adopter-1", animalID)

	// adoptante desconectado: la notificación queda pendiente
	st, body := doReq(t, ts.URL, "POST", "/matches/"+matchID+"/status", "owner-1", "owner", map[string]any{"status": "approved"})
	if st != http.StatusOK {
		t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
	}
	var m struct {
		NotificationPending bool `json:"notificationPending"`
	}
	_ = json.Unmarshal(body, &m)
	if !m.NotificationPending {
		t.Fatalf("expected pending notification while offline, body=%s", string(body))
	}

	h := http.Header{}
	h.Set(middleware.DebugUserHeader, "adopter-1")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := bridge.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", bridge.Options{Header: h})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	// el replay corre al conectar; puede llegar antes de cualquier handler
	replayed := false
	for !replayed {
		for _, n := range c.Active() {
			if n.Event == notify.EventMatchNotification && n.MatchID == matchID {
				replayed = true
			}
		}
		select {
		case <-ctx.Done():
			t.Fatal("expected replayed matchNotification")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// chat por el canal del match
	if err := c.SendMessage(ctx, matchID, "Merci !"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	st, body = doReq(t, ts.URL, "GET", "/matches/"+matchID+"/discussion", "owner-1", "owner", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "Merci !") {
		t.Fatalf("expected websocket message persisted, got %d body=%s", st, string(body))
	}
}

func TestHTTP_RateLimitPerCaller(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{PerMinute: 2}, nil)
	defer rl.Stop()
	ts := newServer(t, rl)

	for i := 0; i < 2; i++ {
		if st, _ := doReq(t, ts.URL, "GET", "/health", "adopter-1", "adopter", nil); st != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, st)
		}
	}
	if st, _ := doReq(t, ts.URL, "GET", "/health", "adopter-1", "adopter", nil); st != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/health", "adopter-2", "adopter", nil); st != http.StatusOK {
		t.Fatalf("other caller must not be limited, got %d", st)
	}
}

func registerOwner(t *testing.T, baseURL, ownerID string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/owners", ownerID, "owner", map[string]any{
		"firstName":    "Refuge",
		"lastName":     "Léman",
		"email":        ownerID + "@refuge.ch",
		"organization": "SPA Genève",
		"address":      map[string]string{"zip": "1201", "city": "Genève"},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register owner, got %d body=%s", st, string(body))
	}
}

func registerAdopter(t *testing.T, baseURL, adopterID string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/adopters", adopterID, "adopter", map[string]any{
		"firstName": "Léa",
		"lastName":  "Martin",
		"email":     adopterID + "@example.ch",
		"age":       31,
		"address":   map[string]string{"zip": "1003", "city": "Lausanne"},
		"preferences": map[string]any{
			"species":     []string{"chien"},
			"environment": []string{"enfant"},
		},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register adopter, got %d body=%s", st, string(body))
	}
}

func createAnimal(t *testing.T, baseURL, ownerID, name string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/animals", ownerID, "owner", map[string]any{
		"species":     "chien",
		"breed":       "Bouvier bernois",
		"name":        name,
		"age":         "1-3",
		"sex":         "male",
		"size":        "grand",
		"images":      []string{"https://img.example/" + name + ".jpg"},
		"address":     map[string]string{"zip": "1201", "city": "Genève"},
		"price":       250,
		"description": "Très gentil avec les enfants",
		"characteristics": map[string]any{
			"environment": []string{"enfant", "voiture"},
			"training":    []string{"habitué à la laisse"},
			"personality": []string{"calme", "affectueux"},
		},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create animal, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create animal: missing id body=%s", string(body))
	}
	return resp.ID
}

func proposeMatch(t *testing.T, baseURL, adopterID, animalID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/matches", adopterID, "adopter", map[string]any{"animalId": animalID})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 propose match, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" || resp.Status != "pending" {
		t.Fatalf("propose match: unexpected body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, debugRole string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set(middleware.DebugUserHeader, debugUserID)
	}
	if debugRole != "" {
		req.Header.Set(middleware.DebugRoleHeader, debugRole)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
