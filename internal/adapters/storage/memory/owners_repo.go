package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pawfect-match/internal/domain/owners"
)

type ownerRepo struct {
	mu      sync.RWMutex
	byID    map[string]owners.Owner
	byEmail map[string]string
}

func NewOwnerRepo() owners.Repository {
	return &ownerRepo{
		byID:    make(map[string]owners.Owner),
		byEmail: make(map[string]string),
	}
}

func (r *ownerRepo) Create(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(o.ID) == "" {
		return errors.New("owner id required")
	}
	if _, exists := r.byID[o.ID]; exists {
		return ErrConflict
	}
	if _, taken := r.byEmail[o.Email]; taken {
		return ErrConflict
	}
	r.byID[o.ID] = o
	r.byEmail[o.Email] = o.ID
	return nil
}

func (r *ownerRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return owners.Owner{}, ErrNotFound
	}
	return o, nil
}

func (r *ownerRepo) ListByIDs(ctx context.Context, ids []string) ([]owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]owners.Owner, 0, len(ids))
	for _, id := range ids {
		if o, ok := r.byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *ownerRepo) Update(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.byID[o.ID]
	if !exists {
		return ErrNotFound
	}
	if holder, taken := r.byEmail[o.Email]; taken && holder != o.ID {
		return ErrConflict
	}
	delete(r.byEmail, prev.Email)
	r.byID[o.ID] = o
	r.byEmail[o.Email] = o.ID
	return nil
}

func (r *ownerRepo) Find(ctx context.Context, f owners.Filter) ([]owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]owners.Owner, 0)
	for _, o := range r.byID {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ownerRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, o.Email)
	delete(r.byID, id)
	return nil
}
