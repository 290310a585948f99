package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/metrics"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/ports/notify"
)

// Hooks conectan el hub con el ciclo de vida de matches sin importarlo.
type Hooks struct {
	// CanJoin decide la suscripción (y publicación) en match:{id}.
	CanJoin func(ctx context.Context, caller auth.Claims, matchID string) bool
	// PostMessage persiste el mensaje y lo difunde en match:{id}.
	PostMessage func(ctx context.Context, caller auth.Claims, matchID, text string) error
	// OnConnect corre tras registrar una conexión autenticada (replay de pendientes).
	OnConnect func(ctx context.Context, userID string)
}

// Hub mantiene los canales y el registro de conexiones. Implementa notify.Publisher.
type Hub struct {
	registry *ConnRegistry
	hooks    Hooks
	log      logger.Logger
	metrics  metrics.Recorder

	mu       sync.RWMutex
	channels map[string]map[*Conn]struct{}
}

type Options struct {
	Shards  int
	Hooks   Hooks
	Logger  logger.Logger
	Metrics metrics.Recorder
}

func NewHub(opts Options) *Hub {
	h := &Hub{
		registry: NewConnRegistry(opts.Shards),
		hooks:    opts.Hooks,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		channels: map[string]map[*Conn]struct{}{
			notify.ChannelAnimals: {},
		},
	}
	if h.log == nil {
		h.log = logger.Nop()
	}
	if h.metrics == nil {
		h.metrics = metrics.Nop()
	}
	return h
}

// SetHooks se usa cuando los servicios se construyen después del hub.
func (h *Hub) SetHooks(hooks Hooks) {
	h.hooks = hooks
}

func (h *Hub) Registry() *ConnRegistry { return h.registry }

// EnsureChannel es idempotente.
func (h *Hub) EnsureChannel(matchID string) {
	if matchID == "" {
		return
	}
	h.ensure(notify.MatchChannel(matchID))
}

func (h *Hub) ensure(channel string) map[*Conn]struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[*Conn]struct{})
		h.channels[channel] = set
	}
	return set
}

func (h *Hub) HasChannel(channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.channels[channel]
	return ok
}

// DeliverToUser manda una notificación personal a todas las conexiones del usuario.
func (h *Hub) DeliverToUser(userID, event string, payload any) notify.Result {
	if userID == "" {
		return notify.Queued
	}
	b, err := json.Marshal(ServerFrame{Type: FrameNotification, Event: event, Data: payload})
	if err != nil {
		h.log.Error("notification marshal failed", map[string]any{"event": event, "err": err})
		return notify.Queued
	}

	if h.registry.SendTo(userID, b) > 0 {
		return notify.Delivered
	}
	if h.registry.Has(userID) {
		h.log.Warn("live delivery failed", map[string]any{"user_id": userID, "event": event})
	}
	return notify.Queued
}

// Publish difunde un evento del servidor a los suscriptores del canal.
func (h *Hub) Publish(channel, event string, payload any) int {
	b, err := json.Marshal(ServerFrame{Type: FrameEvent, Channel: channel, Event: event, Data: payload})
	if err != nil {
		h.log.Error("event marshal failed", map[string]any{"channel": channel, "event": event, "err": err})
		return 0
	}

	h.mu.RLock()
	subs := make([]*Conn, 0, len(h.channels[channel]))
	for c := range h.channels[channel] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range subs {
		if c.trySend(b) {
			sent++
		} else {
			h.log.Warn("channel delivery failed", map[string]any{"channel": channel, "user_id": c.UserID()})
		}
	}
	return sent
}

// Subscribe aplica las reglas de acceso: animals es público, match:{id} solo para participantes o admin.
func (h *Hub) Subscribe(ctx context.Context, c *Conn, channel string) error {
	if err := h.authorize(ctx, c, channel); err != nil {
		return err
	}
	set := h.ensure(channel)

	h.mu.Lock()
	set[c] = struct{}{}
	h.mu.Unlock()

	c.addSub(channel)
	return nil
}

func (h *Hub) Unsubscribe(c *Conn, channel string) {
	h.mu.Lock()
	if set, ok := h.channels[channel]; ok {
		delete(set, c)
	}
	h.mu.Unlock()
	c.removeSub(channel)
}

func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) authorize(ctx context.Context, c *Conn, channel string) error {
	if channel == notify.ChannelAnimals {
		return nil
	}
	matchID, ok := notify.MatchIDFromChannel(channel)
	if !ok {
		return errUnknownChannel
	}
	if c.claims == nil {
		return errAuthRequired
	}
	if c.claims.IsAdmin() {
		return nil
	}
	if h.hooks.CanJoin == nil || !h.hooks.CanJoin(ctx, *c.claims, matchID) {
		return errNotParticipant
	}
	return nil
}

var (
	errUnknownChannel = errors.New("unknown channel")
	errAuthRequired   = errors.New("authentication required")
	errNotParticipant = errors.New("not a participant of this match")
	errReadOnly       = errors.New("channel is read-only")
)

func (h *Hub) handleFrame(ctx context.Context, c *Conn, f ClientFrame) {
	switch f.Action {
	case ActionSub:
		if err := h.Subscribe(ctx, c, f.Channel); err != nil {
			c.sendFrame(ServerFrame{Type: FrameError, Channel: f.Channel, ID: f.ID, Error: err.Error()})
			return
		}
		c.sendFrame(ServerFrame{Type: FrameAck, Channel: f.Channel, ID: f.ID})
	case ActionUnsub:
		h.Unsubscribe(c, f.Channel)
		c.sendFrame(ServerFrame{Type: FrameAck, Channel: f.Channel, ID: f.ID})
	case ActionPub:
		h.handlePub(ctx, c, f)
	default:
		c.sendFrame(ServerFrame{Type: FrameError, ID: f.ID, Error: "unknown action"})
	}
}

// handlePub: el único publish de cliente permitido es un mensaje de chat en match:{id}.
// Cualquier rechazo va solo al publicador.
func (h *Hub) handlePub(ctx context.Context, c *Conn, f ClientFrame) {
	reject := func(reason string, err error) {
		h.metrics.RecordPublishRejected(reason)
		h.log.Warn("publish rejected", map[string]any{
			"channel": f.Channel,
			"user_id": c.UserID(),
			"reason":  reason,
			"err":     err,
		})
		c.sendFrame(ServerFrame{Type: FrameError, Channel: f.Channel, ID: f.ID, Error: err.Error()})
	}

	if f.Channel == notify.ChannelAnimals {
		reject("read_only", errReadOnly)
		return
	}
	matchID, ok := notify.MatchIDFromChannel(f.Channel)
	if !ok {
		reject("unknown_channel", errUnknownChannel)
		return
	}
	if c.claims == nil {
		reject("unauthenticated", errAuthRequired)
		return
	}

	text, err := decodeChat(f.Data)
	if err != nil {
		reject("invalid_payload", err)
		return
	}

	if !c.subscribed(f.Channel) {
		if err := h.authorize(ctx, c, f.Channel); err != nil {
			reject("forbidden", err)
			return
		}
	}

	if h.hooks.PostMessage == nil {
		h.Publish(f.Channel, notify.EventMessage, map[string]any{"senderId": c.UserID(), "text": text})
	} else if err := h.hooks.PostMessage(ctx, *c.claims, matchID, text); err != nil {
		reject(rejectReason(err), errors.New(apperr.Message(err)))
		return
	}

	c.sendFrame(ServerFrame{Type: FrameAck, Channel: f.Channel, ID: f.ID})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return "invalid_payload"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperr.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// attach registra la conexión. Las anónimas solo viven en los canales.
func (h *Hub) attach(c *Conn) {
	if uid := c.UserID(); uid != "" {
		h.registry.Register(uid, c)
	}
	h.metrics.ConnectionOpened()
}

// detach limpia registro y suscripciones; los envíos en curso fallan en silencio.
func (h *Hub) detach(c *Conn) {
	for _, ch := range c.channels() {
		h.Unsubscribe(c, ch)
	}
	if uid := c.UserID(); uid != "" {
		h.registry.Unregister(uid, c)
	}
	c.close()
	h.metrics.ConnectionClosed()
}
