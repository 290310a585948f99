package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pawfect-match/internal/domain/animals"
)

type animalRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Animal
}

func NewAnimalRepo() animals.Repository {
	return &animalRepo{
		byID: make(map[string]animals.Animal),
	}
}

func (r *animalRepo) Create(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return ErrConflict
	}
	r.byID[a.ID] = cloneAnimal(a)
	return nil
}

func (r *animalRepo) Update(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; !exists {
		return ErrNotFound
	}
	r.byID[a.ID] = cloneAnimal(a)
	return nil
}

func (r *animalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.Animal{}, ErrNotFound
	}
	return cloneAnimal(a), nil
}

func (r *animalRepo) Find(ctx context.Context, f animals.Filter) ([]animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.byID {
		if f.Matches(a) {
			out = append(out, cloneAnimal(a))
		}
	}

	// created_at desc, como el listado por defecto
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *animalRepo) SetAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.Availability = available
	a.UpdatedAt = at
	r.byID[id] = a
	return nil
}

func (r *animalRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneAnimal(a animals.Animal) animals.Animal {
	a.Images = append([]string(nil), a.Images...)
	a.Characteristics.Environment = append([]string(nil), a.Characteristics.Environment...)
	a.Characteristics.Training = append([]string(nil), a.Characteristics.Training...)
	a.Characteristics.Personality = append([]string(nil), a.Characteristics.Personality...)
	if a.Location != nil {
		p := *a.Location
		a.Location = &p
	}
	return a
}
