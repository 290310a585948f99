package geo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawfect-match/internal/ports/geocoding"
)

var (
	geneve   = Point{Lon: 6.1432, Lat: 46.2044}
	lausanne = Point{Lon: 6.6323, Lat: 46.5197}
)

func TestDistanceKm_GeneveLausanne(t *testing.T) {
	d := DistanceKm(&geneve, &lausanne)
	require.NotNil(t, d)
	assert.InDelta(t, 51, *d, 1)
}

func TestDistanceKm_SymmetricAndZero(t *testing.T) {
	ab := DistanceKm(&geneve, &lausanne)
	ba := DistanceKm(&lausanne, &geneve)
	require.NotNil(t, ab)
	require.NotNil(t, ba)
	assert.Equal(t, *ab, *ba)

	same := DistanceKm(&geneve, &geneve)
	require.NotNil(t, same)
	assert.Equal(t, 0, *same)
}

func TestDistanceKm_UnknownWhenMissingOrInvalid(t *testing.T) {
	assert.Nil(t, DistanceKm(nil, &geneve))
	assert.Nil(t, DistanceKm(&geneve, nil))

	bad := Point{Lon: 10, Lat: 123}
	assert.Nil(t, DistanceKm(&geneve, &bad))

	nan := Point{Lon: math.NaN(), Lat: 1}
	assert.Nil(t, DistanceKm(&nan, &geneve))
}

func TestMatchScore(t *testing.T) {
	traits := Traits{Species: "chien", Size: "moyen", Environment: []string{"enfant", "appartement"}}

	assert.Equal(t, 0, MatchScore(traits, Preferences{}))
	assert.Equal(t, 3, MatchScore(traits, Preferences{Species: []string{"chien"}}))
	assert.Equal(t, 0, MatchScore(traits, Preferences{Species: []string{"chat"}}))
	assert.Equal(t, 5, MatchScore(traits, Preferences{Species: []string{"chien"}, Sizes: []string{"moyen"}}))
	assert.Equal(t, 7, MatchScore(traits, Preferences{
		Species:     []string{"chien"},
		Sizes:       []string{"moyen"},
		Environment: []string{"enfant", "appartement", "voiture"},
	}))
}

func TestMatchScore_DuplicateTagsCountOnce(t *testing.T) {
	traits := Traits{Species: "chat", Environment: []string{"enfant", "enfant"}}
	assert.Equal(t, 1, MatchScore(traits, Preferences{Environment: []string{"enfant"}}))
}

func TestMatchScore_MonotonicInSharedTags(t *testing.T) {
	prefs := Preferences{Environment: []string{"enfant", "appartement", "voiture", "chat"}}
	tags := []string{}
	prev := MatchScore(Traits{Species: "chat"}, prefs)
	for _, tag := range prefs.Environment {
		tags = append(tags, tag)
		next := MatchScore(Traits{Species: "chat", Environment: tags}, prefs)
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
	assert.Equal(t, 4, prev)
}

type fakeGeocoder struct {
	calls   int
	failFor int
	err     error
	coords  geocoding.Coordinates
}

func (f *fakeGeocoder) Geocode(_ context.Context, _, _ string) (geocoding.Coordinates, error) {
	f.calls++
	if f.calls <= f.failFor {
		return geocoding.Coordinates{}, f.err
	}
	return f.coords, nil
}

func TestResolver_RetriesThenSucceeds(t *testing.T) {
	g := &fakeGeocoder{failFor: 2, err: errors.New("timeout"), coords: geocoding.Coordinates{Lon: 6.1432, Lat: 46.2044}}
	r := NewResolver(g, ResolverOptions{Retries: 2, Backoff: time.Millisecond})

	p, ok := r.Resolve(context.Background(), "1201", "Genève")
	assert.True(t, ok)
	assert.Equal(t, geneve, p)
	assert.Equal(t, 3, g.calls)
}

func TestResolver_FallsBackAfterRetries(t *testing.T) {
	g := &fakeGeocoder{failFor: 10, err: errors.New("boom")}
	r := NewResolver(g, ResolverOptions{Retries: 1, Backoff: time.Millisecond})

	p, ok := r.Resolve(context.Background(), "1201", "Genève")
	assert.False(t, ok)
	assert.Equal(t, DefaultPoint, p)
	assert.Equal(t, 2, g.calls)
}

func TestResolver_NoResultIsNotRetried(t *testing.T) {
	g := &fakeGeocoder{failFor: 10, err: geocoding.ErrNoResult}
	r := NewResolver(g, ResolverOptions{Retries: 3, Backoff: time.Millisecond})

	p, ok := r.Resolve(context.Background(), "9999", "Nowhere")
	assert.False(t, ok)
	assert.Equal(t, DefaultPoint, p)
	assert.Equal(t, 1, g.calls)
}

func TestResolver_NilGeocoder(t *testing.T) {
	r := NewResolver(nil, ResolverOptions{})
	p, ok := r.Resolve(context.Background(), "1201", "Genève")
	assert.False(t, ok)
	assert.Equal(t, DefaultPoint, p)
}
