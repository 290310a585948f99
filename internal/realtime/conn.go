package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pawfect-match/internal/ports/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 8 << 10
	DefaultSendBuf = 32
)

// Conn es una sesión websocket. Solo writePump escribe en ws.
type Conn struct {
	ws     *websocket.Conn
	claims *auth.Claims // nil = anónimo

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	subs map[string]struct{}
}

func newConn(ws *websocket.Conn, claims *auth.Claims, buffer int) *Conn {
	if buffer <= 0 {
		buffer = DefaultSendBuf
	}
	return &Conn{
		ws:     ws,
		claims: claims,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		subs:   make(map[string]struct{}),
	}
}

func (c *Conn) UserID() string {
	if c.claims == nil {
		return ""
	}
	return c.claims.UserID
}

// trySend nunca bloquea.
func (c *Conn) trySend(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Conn) sendFrame(f ServerFrame) bool {
	b, err := json.Marshal(f)
	if err != nil {
		return false
	}
	return c.trySend(b)
}

// close corta la sesión; writePump manda el close frame y cierra el socket.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Conn) addSub(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[channel] = struct{}{}
}

func (c *Conn) removeSub(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, channel)
}

func (c *Conn) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[channel]
	return ok
}

func (c *Conn) channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		out = append(out, ch)
	}
	return out
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump bloquea hasta que el cliente se va o falla la lectura.
func (c *Conn) readPump(handle func(ClientFrame)) {
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var f ClientFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.sendFrame(ServerFrame{Type: FrameError, Error: "malformed frame"})
			continue
		}
		handle(f)
	}
}
