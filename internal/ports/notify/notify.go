// Package notify es el puerto entre el ciclo de vida de matches y la entrega realtime.
// Evita que matches importe realtime (y viceversa).
package notify

import "strings"

// Result de un intento de entrega en vivo.
type Result string

const (
	Delivered Result = "delivered"
	Queued    Result = "queued"
)

// Eventos que el servidor empuja.
const (
	EventMatchNotification = "matchNotification" // al adoptante
	EventMatchValidated    = "matchValidated"    // confirmación al dueño
	EventMatchProposed     = "matchProposed"     // aviso al dueño, best-effort
	EventMessage           = "message"           // mensaje de chat en match:{id}
	EventAnimalAdopted     = "animalAdopted"     // canal público animals
)

// Canal público de solo lectura.
const ChannelAnimals = "animals"

const matchPrefix = "match:"

func MatchChannel(matchID string) string { return matchPrefix + matchID }

// MatchIDFromChannel devuelve el id si el canal es match:{id}.
func MatchIDFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, matchPrefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(channel, matchPrefix))
	return id, id != ""
}

// Publisher lo implementa realtime.Hub.
type Publisher interface {
	EnsureChannel(matchID string)
	DeliverToUser(userID, event string, payload any) Result
	Publish(channel, event string, payload any) int
}

// Nop sirve cuando no hay hub (tests de servicios, jobs).
type Nop struct{}

func (Nop) EnsureChannel(string) {}
func (Nop) DeliverToUser(string, string, any) Result { return Queued }
func (Nop) Publish(string, string, any) int { return 0 }
