package owners_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawfect-match/internal/adapters/storage/memory"
	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/domain/owners"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/ports/auth"
)

type fixedLocator struct {
	p     geo.Point
	calls int
}

func (l *fixedLocator) Resolve(ctx context.Context, zip, city string) (geo.Point, bool) {
	l.calls++
	return l.p, true
}

func validOwner() owners.CreateInput {
	return owners.CreateInput{
		FirstName:    "Refuge",
		LastName:     "Léman",
		Email:        " Contact@SPA-Geneve.ch ",
		Organization: "SPA Genève",
		Address:      geo.Address{Zip: "1201", City: " Genève "},
	}
}

func TestRegister_UsesCallerIdentityAndResolvesLocation(t *testing.T) {
	loc := &fixedLocator{p: geo.Point{Lon: 6.14, Lat: 46.2}}
	svc := owners.NewService(memory.NewOwnerRepo(), loc)

	o, err := svc.Register(context.Background(), auth.Claims{UserID: "owner-1", Role: auth.RoleOwner}, validOwner())
	require.NoError(t, err)
	assert.Equal(t, "owner-1", o.ID)
	assert.Equal(t, "contact@spa-geneve.ch", o.Email)
	assert.Equal(t, "Genève", o.Address.City)
	require.NotNil(t, o.Location)
	assert.Equal(t, 46.2, o.Location.Lat)
	assert.Equal(t, 1, loc.calls)

	ok, err := svc.Exists(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Exists(context.Background(), "owner-404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_Rejections(t *testing.T) {
	svc := owners.NewService(memory.NewOwnerRepo(), nil)
	ctx := context.Background()
	owner := auth.Claims{UserID: "owner-1", Role: auth.RoleOwner}

	_, err := svc.Register(ctx, auth.Claims{}, validOwner())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Register(ctx, auth.Claims{UserID: "adopter-1", Role: auth.RoleAdopter}, validOwner())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	bad := validOwner()
	bad.Email = "not-an-email"
	_, err = svc.Register(ctx, owner, bad)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bad = validOwner()
	bad.Address = geo.Address{}
	_, err = svc.Register(ctx, owner, bad)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, owner, validOwner())
	require.NoError(t, err)
	_, err = svc.Register(ctx, owner, validOwner())
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSummaries_OmitsUnknownOwners(t *testing.T) {
	svc := owners.NewService(memory.NewOwnerRepo(), nil)
	_, err := svc.Register(context.Background(), auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}, validOwner())
	require.NoError(t, err)

	got, err := svc.Summaries(context.Background(), []string{"admin-1", "ghost"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SPA Genève", got["admin-1"].Organization)
	assert.Nil(t, got["admin-1"].Location)
}

type animalCount map[string]int

func (c animalCount) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return c[ownerID], nil
}

func register(t *testing.T, svc *owners.Service, id, email, city string) owners.Owner {
	t.Helper()
	in := validOwner()
	in.Email = email
	in.Address.City = city
	o, err := svc.Register(context.Background(), auth.Claims{UserID: id, Role: auth.RoleOwner}, in)
	require.NoError(t, err)
	return o
}

func TestUpdate_SelfOrAdminAndRelocatesOnAddressChange(t *testing.T) {
	ctx := context.Background()
	loc := &fixedLocator{p: geo.Point{Lon: 6.14, Lat: 46.2}}
	svc := owners.NewService(memory.NewOwnerRepo(), loc)
	register(t, svc, "owner-1", "a@refuge.ch", "Genève")
	register(t, svc, "owner-2", "b@refuge.ch", "Lausanne")
	self := auth.Claims{UserID: "owner-1", Role: auth.RoleOwner}

	phone := " 022 000 00 00 "
	o, err := svc.Update(ctx, self, "owner-1", owners.UpdateInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "022 000 00 00", o.Phone)
	assert.Equal(t, 2, loc.calls)

	addr := geo.Address{Zip: "1003", City: "Lausanne"}
	o, err = svc.Update(ctx, auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}, "owner-1", owners.UpdateInput{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Lausanne", o.Address.City)
	assert.Equal(t, 3, loc.calls)

	_, err = svc.Update(ctx, auth.Claims{UserID: "owner-2", Role: auth.RoleOwner}, "owner-1", owners.UpdateInput{Phone: &phone})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	taken := "B@refuge.ch"
	_, err = svc.Update(ctx, self, "owner-1", owners.UpdateInput{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	blank := " "
	_, err = svc.Update(ctx, self, "owner-1", owners.UpdateInput{FirstName: &blank})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.GetByID(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "a@refuge.ch", got.Email)
	assert.Equal(t, "Refuge", got.FirstName)
}

func TestList_AdminOnlyWithFilterAndPages(t *testing.T) {
	ctx := context.Background()
	svc := owners.NewService(memory.NewOwnerRepo(), nil)
	register(t, svc, "owner-1", "a@refuge.ch", "Genève")
	register(t, svc, "owner-2", "b@refuge.ch", "Lausanne")
	register(t, svc, "owner-3", "c@refuge.ch", "Genève")
	adm := auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}

	_, err := svc.List(ctx, auth.Claims{UserID: "owner-1", Role: auth.RoleOwner}, owners.ListQuery{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	page, err := svc.List(ctx, adm, owners.ListQuery{Filter: owners.Filter{City: "genè"}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = svc.List(ctx, adm, owners.ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Items, 1)

	page, err = svc.List(ctx, adm, owners.ListQuery{Filter: owners.Filter{Email: "%"}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	page, err = svc.List(ctx, adm, owners.ListQuery{Page: 100000000000000001, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
}

func TestDelete_BlockedWhileOwnerHasAnimals(t *testing.T) {
	ctx := context.Background()
	svc := owners.NewService(memory.NewOwnerRepo(), nil)
	register(t, svc, "owner-1", "a@refuge.ch", "Genève")
	register(t, svc, "owner-2", "b@refuge.ch", "Lausanne")
	svc.SetAnimals(animalCount{"owner-1": 2})

	err := svc.Delete(ctx, auth.Claims{UserID: "owner-2", Role: auth.RoleOwner}, "owner-1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.Delete(ctx, auth.Claims{UserID: "owner-1", Role: auth.RoleOwner}, "owner-1")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, svc.Delete(ctx, auth.Claims{UserID: "owner-2", Role: auth.RoleOwner}, "owner-2"))
	ok, err := svc.Exists(ctx, "owner-2")
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.Delete(ctx, auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}, "owner-2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// el email queda libre
	register(t, svc, "owner-4", "b@refuge.ch", "Sion")
}
