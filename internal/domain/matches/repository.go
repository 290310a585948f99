package matches

import (
	"context"
	"time"
)

type Repository interface {
	// Create devuelve apperr.ErrConflict si ya existe un match para (adopter, animal).
	Create(ctx context.Context, m Match) error
	GetByID(ctx context.Context, id string) (Match, error)
	Find(ctx context.Context, f Filter) ([]Match, error)

	// UpdateStatus es compare-and-set: si el estado actual no es from devuelve apperr.ErrInvalidState.
	UpdateStatus(ctx context.Context, id string, from, to Status, notificationPending bool, at time.Time) error
	AppendMessage(ctx context.Context, id string, msg Message, at time.Time) error
	// MarkNotified: notificationPending=false, notificationSentAt=at.
	MarkNotified(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
