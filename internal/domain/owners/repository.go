package owners

import "context"

type Repository interface {
	Create(ctx context.Context, o Owner) error
	Update(ctx context.Context, o Owner) error
	GetByID(ctx context.Context, id string) (Owner, error)
	ListByIDs(ctx context.Context, ids []string) ([]Owner, error)
	// Find devuelve los dueños que cumplen el filtro, created_at desc, sin paginar.
	Find(ctx context.Context, f Filter) ([]Owner, error)
	Delete(ctx context.Context, id string) error
}
