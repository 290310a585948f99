package animals_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawfect-match/internal/adapters/storage/memory"
	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/ports/auth"
)

type directory map[string]bool

func (d directory) Exists(ctx context.Context, ownerID string) (bool, error) {
	return d[ownerID], nil
}

type stubLocator struct{ calls int }

func (l *stubLocator) Resolve(ctx context.Context, zip, city string) (geo.Point, bool) {
	l.calls++
	return geo.Point{Lon: 8.54, Lat: 47.37}, true
}

var (
	owner1 = auth.Claims{UserID: "owner-1", Role: auth.RoleOwner}
	owner2 = auth.Claims{UserID: "owner-2", Role: auth.RoleOwner}
	admin  = auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}
)

func newService() (*animals.Service, *stubLocator) {
	loc := &stubLocator{}
	return animals.NewService(memory.NewAnimalRepo(), directory{"owner-1": true, "owner-2": true}, loc, nil), loc
}

func validAnimal() animals.CreateInput {
	return animals.CreateInput{
		Species:     "chat",
		Breed:       "Européen",
		Name:        "Mina",
		Age:         "3-7",
		Sex:         "female",
		Size:        "petit",
		Images:      []string{" mina.jpg "},
		Address:     geo.Address{Zip: "8001", City: "Zürich"},
		Price:       120,
		Description: "Chatte calme, aime les genoux",
		Characteristics: animals.Characteristics{
			Environment: []string{"appartement"},
			Training:    []string{"éduqué"},
			Personality: []string{"calme", "câlin"},
		},
	}
}

func TestCreate_OwnerPublishesAvailableAnimal(t *testing.T) {
	svc, loc := newService()

	a, err := svc.Create(context.Background(), owner1, validAnimal())
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "owner-1", a.OwnerID)
	assert.True(t, a.Availability)
	assert.Equal(t, []string{"mina.jpg"}, a.Images)
	require.NotNil(t, a.Location)
	assert.Equal(t, 1, loc.calls)

	got, err := svc.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mina", got.Name)
}

func TestCreate_Rejections(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, auth.Claims{UserID: "adopter-1", Role: auth.RoleAdopter}, validAnimal())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// admin publica en nombre de un dueño existente
	in := validAnimal()
	in.OwnerID = "owner-9"
	_, err = svc.Create(ctx, admin, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	in.OwnerID = ""
	_, err = svc.Create(ctx, admin, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	cases := map[string]func(*animals.CreateInput){
		"species outside vocabulary": func(in *animals.CreateInput) { in.Species = "dragon" },
		"no images":                  func(in *animals.CreateInput) { in.Images = nil },
		"bad age band":               func(in *animals.CreateInput) { in.Age = "12" },
		"negative price":             func(in *animals.CreateInput) { in.Price = -1 },
		"empty environment":          func(in *animals.CreateInput) { in.Characteristics.Environment = nil },
		"unknown personality":        func(in *animals.CreateInput) { in.Characteristics.Personality = []string{"grincheux"} },
		"missing description":        func(in *animals.CreateInput) { in.Description = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validAnimal()
			mutate(&in)
			_, err := svc.Create(ctx, owner1, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestUpdate_OnlyOwnerOrAdmin(t *testing.T) {
	svc, loc := newService()
	ctx := context.Background()
	a, err := svc.Create(ctx, owner1, validAnimal())
	require.NoError(t, err)

	name := "Minette"
	_, err = svc.Update(ctx, owner2, a.ID, animals.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := svc.Update(ctx, owner1, a.ID, animals.UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Minette", updated.Name)
	assert.Equal(t, 1, loc.calls)

	moved := geo.Address{Zip: "1201", City: "Genève"}
	_, err = svc.Update(ctx, admin, a.ID, animals.UpdateInput{Address: &moved})
	require.NoError(t, err)
	assert.Equal(t, 2, loc.calls)

	bad := "geant"
	_, err = svc.Update(ctx, owner1, a.ID, animals.UpdateInput{Size: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(ctx, owner1, "ghost", animals.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestChangeAvailability(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	a, err := svc.Create(ctx, owner1, validAnimal())
	require.NoError(t, err)

	_, err = svc.ChangeAvailability(ctx, owner2, a.ID, false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := svc.ChangeAvailability(ctx, owner1, a.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Availability)

	available := true
	list, err := svc.Find(ctx, animals.Filter{Availability: &available})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.SetAvailability(ctx, "ghost", true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

type stubIndex struct {
	open, adopted map[string]bool
}

func (s stubIndex) OpenForAnimal(ctx context.Context, animalID string) (bool, error) {
	return s.open[animalID], nil
}

func (s stubIndex) AdoptedForAnimal(ctx context.Context, animalID string) (bool, error) {
	return s.adopted[animalID], nil
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	busy, err := svc.Create(ctx, owner1, validAnimal())
	require.NoError(t, err)
	free, err := svc.Create(ctx, owner1, validAnimal())
	require.NoError(t, err)
	svc.SetMatchIndex(stubIndex{open: map[string]bool{busy.ID: true}})

	err = svc.Delete(ctx, owner2, free.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.Delete(ctx, owner1, busy.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.GetByID(ctx, busy.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner1, free.ID))
	_, err = svc.GetByID(ctx, free.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.Delete(ctx, admin, free.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCountByOwner_IncludesUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	a, err := svc.Create(ctx, owner1, validAnimal())
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner1, validAnimal())
	require.NoError(t, err)
	_, err = svc.ChangeAvailability(ctx, owner1, a.ID, false)
	require.NoError(t, err)

	n, err := svc.CountByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.CountByOwner(ctx, "owner-2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChangeAvailability_AdoptedStaysWithdrawn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	a, err := svc.Create(ctx, owner1, validAnimal())
	require.NoError(t, err)
	svc.SetMatchIndex(stubIndex{adopted: map[string]bool{a.ID: true}})

	_, err = svc.ChangeAvailability(ctx, owner1, a.ID, false)
	require.NoError(t, err)

	_, err = svc.ChangeAvailability(ctx, admin, a.ID, true)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	got, err := svc.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Availability)
}
