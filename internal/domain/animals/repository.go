package animals

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a Animal) error
	Update(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	// Find devuelve todos los animales que cumplen el filtro, sin paginar.
	Find(ctx context.Context, f Filter) ([]Animal, error)
	SetAvailability(ctx context.Context, id string, available bool, at time.Time) error
	Delete(ctx context.Context, id string) error
}
