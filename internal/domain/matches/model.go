package matches

import (
	"time"

	"pawfect-match/internal/domain/adopters"
	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/owners"
)

// Status del match.
// @Enum pending, rejected, approved, adopted
type Status string

const (
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusApproved Status = "approved"
	StatusAdopted  Status = "adopted"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusRejected, StatusApproved, StatusAdopted:
		return st, true
	default:
		return "", false
	}
}

// CanConverse: estados que habilitan el chat.
func (s Status) CanConverse() bool {
	return s == StatusApproved || s == StatusAdopted
}

// SenderRole
// @Enum adopter, owner
type SenderRole string

const (
	SenderAdopter SenderRole = "adopter"
	SenderOwner   SenderRole = "owner"
)

// Message es una entrada del chat. La discusión es append-only.
type Message struct {
	SenderID   string     `json:"senderId"`
	SenderRole SenderRole `json:"senderRole"`
	Text       string     `json:"text"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Match vincula un adoptante con un animal. A lo sumo uno por par.
// IsActive es true exactamente cuando Status == approved.
// OwnerID se copia del animal al proponer: el match sigue resolviendo a sus
// participantes aunque el animal se borre.
type Match struct {
	ID        string
	AdopterID string
	AnimalID  string
	OwnerID   string

	Status   Status
	IsActive bool

	Discussion []Message

	NotificationPending bool
	NotificationSentAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Match) Participant(userID string, ownerID string) (SenderRole, bool) {
	switch userID {
	case "":
		return "", false
	case m.AdopterID:
		return SenderAdopter, true
	case ownerID:
		return SenderOwner, true
	default:
		return "", false
	}
}

// Filter para Find. Campos vacíos no filtran.
type Filter struct {
	AdopterID           string
	AnimalID            string
	OwnerID             string
	Status              Status
	IsActive            *bool
	NotificationPending *bool
}

func (f Filter) Matches(m Match) bool {
	if f.AdopterID != "" && m.AdopterID != f.AdopterID {
		return false
	}
	if f.AnimalID != "" && m.AnimalID != f.AnimalID {
		return false
	}
	if f.OwnerID != "" && m.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.IsActive != nil && m.IsActive != *f.IsActive {
		return false
	}
	if f.NotificationPending != nil && m.NotificationPending != *f.NotificationPending {
		return false
	}
	return true
}

// Details es el match poblado con adoptante, animal y dueño.
type Details struct {
	ID                  string            `json:"id"`
	AdopterID           string            `json:"adopterId"`
	AnimalID            string            `json:"animalId"`
	OwnerID             string            `json:"ownerId"`
	Status              Status            `json:"status"`
	IsActive            bool              `json:"isActive"`
	Discussion          []Message         `json:"discussion"`
	NotificationPending bool              `json:"notificationPending"`
	NotificationSentAt  *time.Time        `json:"notificationSentAt"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
	Adopter             *adopters.Summary `json:"adopter,omitempty"`
	Animal              *animals.Response `json:"animal,omitempty"`
	Owner               *owners.Summary   `json:"owner,omitempty"`
}

// Discussion es la vista de getMatchDiscussion.
type Discussion struct {
	MatchID   string    `json:"matchId"`
	AdopterID string    `json:"adopterId"`
	AnimalID  string    `json:"animalId"`
	Status    Status    `json:"status"`
	IsActive  bool      `json:"isActive"`
	Messages  []Message `json:"discussion"`
}

// NotificationPayload viaja en matchNotification, matchValidated y matchProposed.
// El cliente deduplica por (evento, matchId).
type NotificationPayload struct {
	MatchID    string    `json:"matchId"`
	AnimalID   string    `json:"animalId"`
	AnimalName string    `json:"animalName,omitempty"`
	AdopterID  string    `json:"adopterId"`
	Status     Status    `json:"status"`
	At         time.Time `json:"at"`
}

// MessagePayload se publica en match:{id} por cada mensaje nuevo.
type MessagePayload struct {
	MatchID string `json:"matchId"`
	Message
}

// AdoptedPayload va al canal público animals.
type AdoptedPayload struct {
	AnimalID string    `json:"animalId"`
	MatchID  string    `json:"matchId"`
	At       time.Time `json:"at"`
}

type ListQuery struct {
	AdopterID string
	AnimalID  string
	Status    Status
	IsActive  *bool
	Page      int
	Limit     int
}

type ListPage struct {
	Items []Details `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Pages int       `json:"pages"`
}
