package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawfect-match/internal/domain/adopters"
	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/domain/matches"
	"pawfect-match/internal/domain/owners"
	"pawfect-match/internal/platform/apperr"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestMatchRepo_PairIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepo()

	require.NoError(t, repo.Create(ctx, matches.Match{ID: "m-1", AdopterID: "a-1", AnimalID: "x-1", Status: matches.StatusPending, CreatedAt: t0}))
	err := repo.Create(ctx, matches.Match{ID: "m-2", AdopterID: "a-1", AnimalID: "x-1", Status: matches.StatusPending, CreatedAt: t0})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// borrar libera el par
	require.NoError(t, repo.Delete(ctx, "m-1"))
	assert.NoError(t, repo.Create(ctx, matches.Match{ID: "m-2", AdopterID: "a-1", AnimalID: "x-1", Status: matches.StatusPending, CreatedAt: t0}))
	assert.ErrorIs(t, repo.Delete(ctx, "m-1"), apperr.ErrNotFound)
}

func TestMatchRepo_UpdateStatusIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepo()
	require.NoError(t, repo.Create(ctx, matches.Match{ID: "m-1", AdopterID: "a-1", AnimalID: "x-1", Status: matches.StatusPending, CreatedAt: t0}))

	require.NoError(t, repo.UpdateStatus(ctx, "m-1", matches.StatusPending, matches.StatusApproved, true, t0.Add(time.Minute)))
	m, err := repo.GetByID(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, matches.StatusApproved, m.Status)
	assert.True(t, m.IsActive)
	assert.True(t, m.NotificationPending)

	// segundo escritor con el estado viejo pierde
	err = repo.UpdateStatus(ctx, "m-1", matches.StatusPending, matches.StatusRejected, false, t0)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", matches.StatusPending, matches.StatusRejected, false, t0), apperr.ErrNotFound)

	require.NoError(t, repo.MarkNotified(ctx, "m-1", t0.Add(2*time.Minute)))
	m, _ = repo.GetByID(ctx, "m-1")
	assert.False(t, m.NotificationPending)
	require.NotNil(t, m.NotificationSentAt)
	assert.Equal(t, t0.Add(2*time.Minute), *m.NotificationSentAt)
}

func TestMatchRepo_DiscussionIsCopiedOut(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepo()
	require.NoError(t, repo.Create(ctx, matches.Match{ID: "m-1", AdopterID: "a-1", AnimalID: "x-1", Status: matches.StatusApproved, CreatedAt: t0}))

	require.NoError(t, repo.AppendMessage(ctx, "m-1", matches.Message{SenderID: "a-1", SenderRole: matches.SenderAdopter, Text: "un", Timestamp: t0}, t0))
	require.NoError(t, repo.AppendMessage(ctx, "m-1", matches.Message{SenderID: "o-1", SenderRole: matches.SenderOwner, Text: "deux", Timestamp: t0}, t0))

	m, _ := repo.GetByID(ctx, "m-1")
	require.Len(t, m.Discussion, 2)
	m.Discussion[0].Text = "mutated"

	again, _ := repo.GetByID(ctx, "m-1")
	assert.Equal(t, "un", again.Discussion[0].Text)
	assert.Equal(t, "deux", again.Discussion[1].Text)
}

func TestMatchRepo_FindFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepo()
	require.NoError(t, repo.Create(ctx, matches.Match{ID: "m-2", AdopterID: "a-1", AnimalID: "x-2", OwnerID: "o-2", Status: matches.StatusPending, CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, matches.Match{ID: "m-1", AdopterID: "a-1", AnimalID: "x-1", OwnerID: "o-1", Status: matches.StatusPending, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, matches.Match{ID: "m-3", AdopterID: "a-2", AnimalID: "x-1", OwnerID: "o-1", Status: matches.StatusPending, CreatedAt: t0}))

	list, err := repo.Find(ctx, matches.Filter{AdopterID: "a-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m-1", list[0].ID)

	list, _ = repo.Find(ctx, matches.Filter{OwnerID: "o-1"})
	require.Len(t, list, 2)
	for _, m := range list {
		assert.Equal(t, "x-1", m.AnimalID)
	}

	list, _ = repo.Find(ctx, matches.Filter{OwnerID: "o-9"})
	assert.Empty(t, list)
}

func TestAnimalRepo_FindAndAvailability(t *testing.T) {
	ctx := context.Background()
	repo := NewAnimalRepo()
	seed := func(id, species, city string, created time.Time) {
		require.NoError(t, repo.Create(ctx, animals.Animal{
			ID: id, Species: species, Name: id, Address: geo.Address{Zip: "1000", City: city},
			Availability: true, CreatedAt: created,
		}))
	}
	seed("rex", "chien", "Lausanne", t0)
	seed("mina", "chat", "Genève", t0.Add(time.Hour))
	seed("max", "chien", "Genève", t0.Add(2*time.Hour))

	all, err := repo.Find(ctx, animals.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"max", "mina", "rex"}, []string{all[0].ID, all[1].ID, all[2].ID})

	dogs, _ := repo.Find(ctx, animals.Filter{Species: []string{"chien"}, City: "genè", ExcludeIDs: []string{"rex"}})
	require.Len(t, dogs, 1)
	assert.Equal(t, "max", dogs[0].ID)

	require.NoError(t, repo.SetAvailability(ctx, "max", false, t0.Add(3*time.Hour)))
	available := true
	list, _ := repo.Find(ctx, animals.Filter{Availability: &available})
	assert.Len(t, list, 2)
	assert.ErrorIs(t, repo.SetAvailability(ctx, "ghost", false, t0), apperr.ErrNotFound)
}

func TestOwnerRepo_ListByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewOwnerRepo()
	require.NoError(t, repo.Create(ctx, owners.Owner{ID: "o-1", FirstName: "SPA", CreatedAt: t0}))
	require.ErrorIs(t, repo.Create(ctx, owners.Owner{ID: "o-1"}), apperr.ErrConflict)

	list, err := repo.ListByIDs(ctx, []string{"o-1", "o-404"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "o-1", list[0].ID)

	_, err = repo.GetByID(ctx, "o-404")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAnimalRepo_DeleteAndLiteralNameFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewAnimalRepo()
	require.NoError(t, repo.Create(ctx, animals.Animal{ID: "a-1", Name: "Rex", CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, animals.Animal{ID: "a-2", Name: "100% chien", CreatedAt: t0}))

	list, err := repo.Find(ctx, animals.Filter{Name: "%"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a-2", list[0].ID)

	list, err = repo.Find(ctx, animals.Filter{Name: "_"})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Delete(ctx, "a-1"))
	_, err = repo.GetByID(ctx, "a-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a-1"), apperr.ErrNotFound)
}

func TestOwnerRepo_UpdateFindDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewOwnerRepo()
	require.NoError(t, repo.Create(ctx, owners.Owner{ID: "o-1", FirstName: "SPA", Email: "spa@refuge.ch",
		Address: geo.Address{Zip: "1201", City: "Genève"}, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, owners.Owner{ID: "o-2", FirstName: "Arche", Email: "arche@refuge.ch",
		Address: geo.Address{Zip: "1003", City: "Lausanne"}, CreatedAt: t0.Add(time.Hour)}))

	// email ajeno: conflicto; propio: ok y libera el anterior
	err := repo.Update(ctx, owners.Owner{ID: "o-1", Email: "arche@refuge.ch"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	require.NoError(t, repo.Update(ctx, owners.Owner{ID: "o-1", FirstName: "SPA", Email: "contact@spa.ch",
		Address: geo.Address{Zip: "1201", City: "Genève"}, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, owners.Owner{ID: "o-3", Email: "spa@refuge.ch", CreatedAt: t0.Add(2 * time.Hour)}))
	assert.ErrorIs(t, repo.Update(ctx, owners.Owner{ID: "o-404"}), apperr.ErrNotFound)

	all, err := repo.Find(ctx, owners.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"o-3", "o-2", "o-1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	list, err := repo.Find(ctx, owners.Filter{City: "GEN", Zip: "1201"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "o-1", list[0].ID)

	require.NoError(t, repo.Delete(ctx, "o-2"))
	assert.ErrorIs(t, repo.Delete(ctx, "o-2"), apperr.ErrNotFound)
	assert.NoError(t, repo.Create(ctx, owners.Owner{ID: "o-4", Email: "arche@refuge.ch", CreatedAt: t0}))
}

func TestAdopterRepo_FindAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewAdopterRepo()
	require.NoError(t, repo.Create(ctx, adopters.Adopter{ID: "ad-1", FirstName: "Léa", Email: "lea@example.ch",
		Preferences: adopters.Preferences{Species: []string{"chat"}}, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, adopters.Adopter{ID: "ad-2", FirstName: "Tom", Email: "tom@example.ch",
		Preferences: adopters.Preferences{Species: []string{"chien", "chat"}}, CreatedAt: t0.Add(time.Hour)}))

	list, err := repo.Find(ctx, adopters.Filter{Species: "chat"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ad-2", list[0].ID)

	list, err = repo.Find(ctx, adopters.Filter{Species: "chien", FirstName: "lé"})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Delete(ctx, "ad-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "ad-1"), apperr.ErrNotFound)
	assert.NoError(t, repo.Create(ctx, adopters.Adopter{ID: "ad-3", Email: "lea@example.ch", CreatedAt: t0}))
}
