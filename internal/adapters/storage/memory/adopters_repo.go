package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pawfect-match/internal/domain/adopters"
)

type adopterRepo struct {
	mu      sync.RWMutex
	byID    map[string]adopters.Adopter
	byEmail map[string]string
}

func NewAdopterRepo() adopters.Repository {
	return &adopterRepo{
		byID:    make(map[string]adopters.Adopter),
		byEmail: make(map[string]string),
	}
}

func (r *adopterRepo) Create(ctx context.Context, a adopters.Adopter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("adopter id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return ErrConflict
	}
	if _, taken := r.byEmail[a.Email]; taken {
		return ErrConflict
	}
	r.byID[a.ID] = a
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *adopterRepo) Update(ctx context.Context, a adopters.Adopter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.byID[a.ID]
	if !exists {
		return ErrNotFound
	}
	if owner, taken := r.byEmail[a.Email]; taken && owner != a.ID {
		return ErrConflict
	}
	delete(r.byEmail, prev.Email)
	r.byID[a.ID] = a
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *adopterRepo) GetByID(ctx context.Context, id string) (adopters.Adopter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return adopters.Adopter{}, ErrNotFound
	}
	return a, nil
}

func (r *adopterRepo) Find(ctx context.Context, f adopters.Filter) ([]adopters.Adopter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]adopters.Adopter, 0)
	for _, a := range r.byID {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *adopterRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, a.Email)
	delete(r.byID, id)
	return nil
}
