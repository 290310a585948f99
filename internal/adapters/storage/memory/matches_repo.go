package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pawfect-match/internal/domain/matches"
	"pawfect-match/internal/platform/apperr"
)

type matchRepo struct {
	mu     sync.RWMutex
	byID   map[string]matches.Match
	byPair map[string]string // adopter|animal -> match id
}

func NewMatchRepo() matches.Repository {
	return &matchRepo{
		byID:   make(map[string]matches.Match),
		byPair: make(map[string]string),
	}
}

func pairKey(adopterID, animalID string) string {
	return adopterID + "|" + animalID
}

func (r *matchRepo) Create(ctx context.Context, m matches.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("match id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return ErrConflict
	}
	key := pairKey(m.AdopterID, m.AnimalID)
	if _, exists := r.byPair[key]; exists {
		return fmt.Errorf("%w: match already exists", ErrConflict)
	}
	r.byID[m.ID] = cloneMatch(m)
	r.byPair[key] = m.ID
	return nil
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (matches.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return matches.Match{}, ErrNotFound
	}
	return cloneMatch(m), nil
}

func (r *matchRepo) Find(ctx context.Context, f matches.Filter) ([]matches.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]matches.Match, 0)
	for _, m := range r.byID {
		if f.Matches(m) {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *matchRepo) UpdateStatus(ctx context.Context, id string, from, to matches.Status, notificationPending bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if m.Status != from {
		return fmt.Errorf("%w: status is %s", apperr.ErrInvalidState, m.Status)
	}
	m.Status = to
	m.IsActive = to == matches.StatusApproved
	m.NotificationPending = notificationPending
	m.UpdatedAt = at
	r.byID[id] = m
	return nil
}

func (r *matchRepo) AppendMessage(ctx context.Context, id string, msg matches.Message, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	m.Discussion = append(append([]matches.Message(nil), m.Discussion...), msg)
	m.UpdatedAt = at
	r.byID[id] = m
	return nil
}

func (r *matchRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	m.NotificationPending = false
	m.NotificationSentAt = &at
	r.byID[id] = m
	return nil
}

func (r *matchRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byPair, pairKey(m.AdopterID, m.AnimalID))
	return nil
}

func cloneMatch(m matches.Match) matches.Match {
	m.Discussion = append([]matches.Message(nil), m.Discussion...)
	if m.NotificationSentAt != nil {
		t := *m.NotificationSentAt
		m.NotificationSentAt = &t
	}
	return m
}
