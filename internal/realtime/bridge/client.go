// Package bridge es el cliente Go del websocket de notificaciones.
// Mantiene el estado transitorio de notificaciones que consume una UI:
// deduplicación por (evento, matchId) y expiración automática.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/realtime"
)

const (
	DefaultNotificationTTL = 8 * time.Second
	writeWait              = 10 * time.Second
)

var (
	ErrClosed   = errors.New("bridge: connection closed")
	ErrRejected = errors.New("bridge: rejected by server")
)

type Options struct {
	Header          http.Header
	NotificationTTL time.Duration
	Logger          logger.Logger
	Dialer          *websocket.Dialer
}

// Notification es una notificación visible hasta Ack o hasta vencer el TTL.
type Notification struct {
	Event      string          `json:"event"`
	MatchID    string          `json:"matchId"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

type EventHandler func(event string, data json.RawMessage)

type NotificationHandler func(Notification)

type activeEntry struct {
	n     Notification
	timer *time.Timer
}

type Client struct {
	ws  *websocket.Conn
	ttl time.Duration
	log logger.Logger

	writeMu sync.Mutex
	seq     atomic.Uint64

	mu       sync.Mutex
	subs     map[string]EventHandler
	pending  map[string]chan realtime.ServerFrame
	handlers map[string][]NotificationHandler
	active   map[string]*activeEntry

	done      chan struct{}
	closeOnce sync.Once
}

// Dial abre la conexión. La identidad viaja en opts.Header (Authorization, cookie o headers de dev)
// o en la query ?token= de rawURL.
func Dial(ctx context.Context, rawURL string, opts Options) (*Client, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, rawURL, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge: dial %s: status %d: %w", rawURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bridge: dial %s: %w", rawURL, err)
	}

	c := &Client{
		ws:       ws,
		ttl:      opts.NotificationTTL,
		log:      opts.Logger,
		subs:     make(map[string]EventHandler),
		pending:  make(map[string]chan realtime.ServerFrame),
		handlers: make(map[string][]NotificationHandler),
		active:   make(map[string]*activeEntry),
		done:     make(chan struct{}),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultNotificationTTL
	}
	if c.log == nil {
		c.log = logger.Nop()
	}

	go c.readLoop()
	return c, nil
}

// Done se cierra cuando la conexión termina, por Close o por el servidor.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	<-c.done
	return err
}

// Subscribe se suscribe a un canal y espera el ack. fn corre en la goroutine de lectura.
func (c *Client) Subscribe(ctx context.Context, channel string, fn EventHandler) error {
	c.mu.Lock()
	c.subs[channel] = fn
	c.mu.Unlock()

	if _, err := c.request(ctx, realtime.ClientFrame{Action: realtime.ActionSub, Channel: channel}); err != nil {
		c.mu.Lock()
		delete(c.subs, channel)
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Client) Unsubscribe(ctx context.Context, channel string) error {
	c.mu.Lock()
	delete(c.subs, channel)
	c.mu.Unlock()

	_, err := c.request(ctx, realtime.ClientFrame{Action: realtime.ActionUnsub, Channel: channel})
	return err
}

// Publish manda un pub y espera el ack. El servidor solo acepta {"text": ...} en match:{id}.
func (c *Client) Publish(ctx context.Context, channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bridge: marshal payload: %w", err)
	}
	_, err = c.request(ctx, realtime.ClientFrame{Action: realtime.ActionPub, Channel: channel, Data: raw})
	return err
}

// SendMessage es el atajo para el chat de un match.
func (c *Client) SendMessage(ctx context.Context, matchID, text string) error {
	return c.Publish(ctx, "match:"+matchID, realtime.ChatPayload{Text: &text})
}

// OnNotification registra un handler por evento. event vacío recibe todas.
func (c *Client) OnNotification(event string, fn NotificationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], fn)
}

// Active devuelve las notificaciones visibles, de la más vieja a la más nueva.
func (c *Client) Active() []Notification {
	c.mu.Lock()
	out := make([]Notification, 0, len(c.active))
	for _, e := range c.active {
		out = append(out, e.n)
	}
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out
}

// Ack descarta las notificaciones visibles del match. Devuelve cuántas quitó.
func (c *Client) Ack(matchID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.active {
		if e.n.MatchID != matchID {
			continue
		}
		e.timer.Stop()
		delete(c.active, key)
		n++
	}
	return n
}

func (c *Client) request(ctx context.Context, f realtime.ClientFrame) (realtime.ServerFrame, error) {
	f.ID = "c-" + strconv.FormatUint(c.seq.Add(1), 10)
	reply := make(chan realtime.ServerFrame, 1)

	c.mu.Lock()
	c.pending[f.ID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
	}()

	if err := c.write(f); err != nil {
		return realtime.ServerFrame{}, err
	}

	select {
	case r := <-reply:
		if r.Type == realtime.FrameError {
			return r, fmt.Errorf("%w: %s", ErrRejected, r.Error)
		}
		return r, nil
	case <-c.done:
		return realtime.ServerFrame{}, ErrClosed
	case <-ctx.Done():
		return realtime.ServerFrame{}, ctx.Err()
	}
}

func (c *Client) write(f realtime.ClientFrame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(f); err != nil {
		return fmt.Errorf("bridge: write: %w", err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		for _, e := range c.active {
			e.timer.Stop()
		}
		c.mu.Unlock()
		close(c.done)
	}()

	for {
		var f realtime.ServerFrame
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("bridge read stopped", map[string]any{"err": err})
			}
			return
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Warn("bridge: malformed server frame", map[string]any{"err": err})
			continue
		}
		c.dispatch(f, raw)
	}
}

// inbound conserva data como json.RawMessage; ServerFrame la decodifica a any.
type inbound struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) dispatch(f realtime.ServerFrame, raw []byte) {
	switch f.Type {
	case realtime.FrameAck, realtime.FrameError:
		c.mu.Lock()
		reply, ok := c.pending[f.ID]
		c.mu.Unlock()
		if ok {
			reply <- f
			return
		}
		if f.Type == realtime.FrameError {
			c.log.Warn("bridge: server error", map[string]any{"channel": f.Channel, "error": f.Error})
		}
	case realtime.FrameEvent:
		var in inbound
		_ = json.Unmarshal(raw, &in)
		c.mu.Lock()
		fn := c.subs[f.Channel]
		c.mu.Unlock()
		if fn != nil {
			fn(f.Event, in.Data)
		}
	case realtime.FrameNotification:
		var in inbound
		_ = json.Unmarshal(raw, &in)
		c.show(f.Event, in.Data)
	}
}

// show aplica la deduplicación: mientras (evento, matchId) esté visible, los repetidos se descartan.
func (c *Client) show(event string, data json.RawMessage) {
	var ref struct {
		MatchID string `json:"matchId"`
	}
	_ = json.Unmarshal(data, &ref)

	n := Notification{Event: event, MatchID: ref.MatchID, Data: data, ReceivedAt: time.Now()}
	key := event + "|" + ref.MatchID
	if ref.MatchID == "" {
		key = event + "|#" + strconv.FormatUint(c.seq.Add(1), 10)
	}

	c.mu.Lock()
	if _, dup := c.active[key]; dup {
		c.mu.Unlock()
		c.log.Debug("bridge: duplicate notification dropped", map[string]any{"event": event, "match_id": ref.MatchID})
		return
	}
	entry := &activeEntry{n: n}
	entry.timer = time.AfterFunc(c.ttl, func() { c.expire(key, entry) })
	c.active[key] = entry

	fns := append([]NotificationHandler{}, c.handlers[event]...)
	fns = append(fns, c.handlers[""]...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

func (c *Client) expire(key string, entry *activeEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active[key] == entry {
		delete(c.active, key)
	}
}
