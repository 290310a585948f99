package adopters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawfect-match/internal/adapters/storage/memory"
	"pawfect-match/internal/domain/adopters"
	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/ports/auth"
)

type countingLocator struct{ calls int }

func (l *countingLocator) Resolve(ctx context.Context, zip, city string) (geo.Point, bool) {
	l.calls++
	return geo.Point{Lon: 6.63, Lat: 46.52}, true
}

var adopter1 = auth.Claims{UserID: "adopter-1", Role: auth.RoleAdopter}

func validAdopter() adopters.CreateInput {
	maxKm := 50
	return adopters.CreateInput{
		FirstName: "Léa",
		LastName:  "Martin",
		Email:     "lea@example.ch",
		Age:       29,
		Address:   geo.Address{Zip: "1003", City: "Lausanne"},
		Preferences: adopters.Preferences{
			Species:     []string{"chat"},
			MaxDistance: &maxKm,
		},
	}
}

func TestRegister_StoresPreferences(t *testing.T) {
	loc := &countingLocator{}
	svc := adopters.NewService(memory.NewAdopterRepo(), loc)
	ctx := context.Background()

	a, err := svc.Register(ctx, adopter1, validAdopter())
	require.NoError(t, err)
	assert.Equal(t, "adopter-1", a.ID)
	require.NotNil(t, a.Location)
	assert.Equal(t, 1, loc.calls)

	got, err := svc.GetByID(ctx, "adopter-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat"}, got.Preferences.Species)
	require.NotNil(t, got.Preferences.MaxDistance)
	assert.Equal(t, 50, *got.Preferences.MaxDistance)
}

func TestRegister_Rejections(t *testing.T) {
	svc := adopters.NewService(memory.NewAdopterRepo(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.Claims{UserID: "owner-1", Role: auth.RoleOwner}, validAdopter())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	minor := validAdopter()
	minor.Age = 17
	_, err = svc.Register(ctx, adopter1, minor)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	noName := validAdopter()
	noName.LastName = "  "
	_, err = svc.Register(ctx, adopter1, noName)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate_OwnProfileOnly(t *testing.T) {
	loc := &countingLocator{}
	svc := adopters.NewService(memory.NewAdopterRepo(), loc)
	ctx := context.Background()
	_, err := svc.Register(ctx, adopter1, validAdopter())
	require.NoError(t, err)

	about := "J'ai un jardin"
	_, err = svc.Update(ctx, auth.Claims{UserID: "adopter-2", Role: auth.RoleAdopter}, "adopter-1", adopters.UpdateInput{About: &about})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// misma dirección: no se vuelve a geocodificar
	same := geo.Address{Zip: "1003", City: "Lausanne"}
	a, err := svc.Update(ctx, adopter1, "adopter-1", adopters.UpdateInput{About: &about, Address: &same})
	require.NoError(t, err)
	assert.Equal(t, about, a.About)
	assert.Equal(t, 1, loc.calls)

	moved := geo.Address{Zip: "1201", City: "Genève"}
	_, err = svc.Update(ctx, adopter1, "adopter-1", adopters.UpdateInput{Address: &moved})
	require.NoError(t, err)
	assert.Equal(t, 2, loc.calls)

	young := 16
	_, err = svc.Update(ctx, adopter1, "adopter-1", adopters.UpdateInput{Age: &young})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// admin puede editar a cualquiera; perfil inexistente => 404
	_, err = svc.Update(ctx, auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}, "adopter-404", adopters.UpdateInput{About: &about})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_AdminOnlyFilteredBySpecies(t *testing.T) {
	svc := adopters.NewService(memory.NewAdopterRepo(), nil)
	ctx := context.Background()
	adm := auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}

	_, err := svc.Register(ctx, adopter1, validAdopter())
	require.NoError(t, err)
	dogs := validAdopter()
	dogs.Email = "tom@example.ch"
	dogs.Preferences.Species = []string{"chien"}
	_, err = svc.Register(ctx, auth.Claims{UserID: "adopter-2", Role: auth.RoleAdopter}, dogs)
	require.NoError(t, err)

	_, err = svc.List(ctx, adopter1, adopters.ListQuery{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	page, err := svc.List(ctx, adm, adopters.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Pages)

	page, err = svc.List(ctx, adm, adopters.ListQuery{Filter: adopters.Filter{Species: "chien"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "adopter-2", page.Items[0].ID)

	page, err = svc.List(ctx, adm, adopters.ListQuery{Filter: adopters.Filter{Email: "LEA@"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "adopter-1", page.Items[0].ID)

	page, err = svc.List(ctx, adm, adopters.ListQuery{Page: 100000000000000001, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestDelete_SelfOrAdmin(t *testing.T) {
	svc := adopters.NewService(memory.NewAdopterRepo(), nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, adopter1, validAdopter())
	require.NoError(t, err)

	err = svc.Delete(ctx, auth.Claims{UserID: "adopter-2", Role: auth.RoleAdopter}, "adopter-1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, adopter1, "adopter-1"))
	_, err = svc.GetByID(ctx, "adopter-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.Delete(ctx, auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}, "adopter-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
