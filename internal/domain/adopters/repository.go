package adopters

import "context"

type Repository interface {
	Create(ctx context.Context, a Adopter) error
	Update(ctx context.Context, a Adopter) error
	GetByID(ctx context.Context, id string) (Adopter, error)
	// Find devuelve los adoptantes que cumplen el filtro, created_at desc, sin paginar.
	Find(ctx context.Context, f Filter) ([]Adopter, error)
	Delete(ctx context.Context, id string) error
}
