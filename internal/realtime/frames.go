package realtime

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// Acciones del cliente.
const (
	ActionSub   = "sub"
	ActionUnsub = "unsub"
	ActionPub   = "pub"
)

// Tipos de frame del servidor.
const (
	FrameEvent        = "event"
	FrameNotification = "notification"
	FrameAck          = "ack"
	FrameError        = "error"
)

// MaxChatLen en caracteres, igual que el límite del chat persistido.
const MaxChatLen = 1000

// ClientFrame: {"action":"sub|unsub|pub","channel":"match:..","id":"c-1","data":{...}}
type ClientFrame struct {
	Action  string          `json:"action"`
	Channel string          `json:"channel"`
	ID      string          `json:"id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ServerFrame: eventos de canal, notificaciones personales, acks y errores.
type ServerFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Event   string `json:"event,omitempty"`
	ID      string `json:"id,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatPayload es lo único que un cliente puede publicar en match:{id}.
type ChatPayload struct {
	Text *string `json:"text"`
}

var (
	errPayloadMissing = errors.New("text is required")
	errPayloadEmpty   = errors.New("text is empty")
	errPayloadTooLong = errors.New("text exceeds 1000 characters")
)

// decodeChat valida el payload de un pub antes de tocar storage.
func decodeChat(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errPayloadMissing
	}
	var p ChatPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Text == nil {
		return "", errPayloadMissing
	}
	text := strings.TrimSpace(*p.Text)
	if text == "" {
		return "", errPayloadEmpty
	}
	if utf8.RuneCountInString(text) > MaxChatLen {
		return "", errPayloadTooLong
	}
	return text, nil
}
