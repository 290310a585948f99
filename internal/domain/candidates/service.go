package candidates

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pawfect-match/internal/domain/adopters"
	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/domain/owners"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/metrics"
	"pawfect-match/internal/platform/pagination"
	"pawfect-match/internal/ports/auth"
)

type AnimalFinder interface {
	Find(ctx context.Context, f animals.Filter) ([]animals.Animal, error)
}

type AdopterLookup interface {
	GetByID(ctx context.Context, id string) (adopters.Adopter, error)
}

type OwnerSummaries interface {
	Summaries(ctx context.Context, ids []string) (map[string]owners.Summary, error)
}

// MatchedAnimals: animales con los que el adoptante ya tiene un match (cualquier estado).
// Lo implementa matches.Service.
type MatchedAnimals interface {
	AnimalIDsForAdopter(ctx context.Context, adopterID string) ([]string, error)
}

type Service struct {
	animals  AnimalFinder
	adopters AdopterLookup
	owners   OwnerSummaries
	matched  MatchedAnimals
	log      logger.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

type Deps struct {
	Animals  AnimalFinder
	Adopters AdopterLookup
	Owners   OwnerSummaries
	Matched  MatchedAnimals
	Logger   logger.Logger
	Metrics  metrics.Recorder
}

func NewService(d Deps) *Service {
	s := &Service{
		animals:  d.Animals,
		adopters: d.Adopters,
		owners:   d.Owners,
		matched:  d.Matched,
		log:      d.Logger,
		metrics:  d.Metrics,
		now:      time.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	return s
}

// personalization es lo que se sabe del adoptante que consulta.
type personalization struct {
	adopter  *adopters.Adopter
	excluded []string
}

// ListAnimals arma la página de candidatos. caller nil = anónimo.
func (s *Service) ListAnimals(ctx context.Context, q Query, caller *auth.Claims) (Page, error) {
	start := s.now()
	page, limit := clampPagination(q.Page, q.Limit)

	pers, err := s.personalize(ctx, caller)
	if err != nil {
		return Page{}, err
	}

	f := s.buildFilter(q, caller, pers)

	found, err := s.animals.Find(ctx, f)
	if err != nil {
		return Page{}, err
	}

	summaries, err := s.ownerSummaries(ctx, found)
	if err != nil {
		return Page{}, err
	}

	scored := pers.adopter != nil && pers.adopter.Preferences.HasAny()

	items := make([]Item, 0, len(found))
	for _, a := range found {
		it := Item{Response: animals.ToResponse(a)}
		if sum, ok := summaries[a.OwnerID]; ok {
			it.Owner = &sum
		}

		if pers.adopter != nil && pers.adopter.Location != nil {
			it.DistanceKm = geo.DistanceKm(pers.adopter.Location, animalPoint(a, it.Owner))
			if maxD := pers.adopter.Preferences.MaxDistance; maxD != nil && it.DistanceKm != nil && *it.DistanceKm > *maxD {
				continue
			}
		}

		if scored {
			score := geo.MatchScore(a.Traits(), pers.adopter.Preferences.Scoring())
			it.MatchScore = &score
		}
		items = append(items, it)
	}

	sortItems(items, scored)

	total := len(items)
	from, to := pagination.Bounds(page, limit, total)

	s.metrics.RecordCandidateQuery(s.now().Sub(start), scored)

	return Page{
		Items: items[from:to],
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pagination.Pages(total, limit),
	}, nil
}

// personalize carga perfil y matches del adoptante en paralelo.
// Un adoptante sin perfil se trata como anónimo.
func (s *Service) personalize(ctx context.Context, caller *auth.Claims) (personalization, error) {
	var p personalization
	if caller == nil || caller.Role != auth.RoleAdopter || caller.UserID == "" || s.adopters == nil {
		return p, nil
	}

	var (
		adopter  adopters.Adopter
		found    bool
		excluded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.adopters.GetByID(gctx, caller.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		adopter, found = a, true
		return nil
	})
	if s.matched != nil {
		g.Go(func() error {
			ids, err := s.matched.AnimalIDsForAdopter(gctx, caller.UserID)
			if err != nil {
				return err
			}
			excluded = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return personalization{}, err
	}

	if found {
		p.adopter = &adopter
	}
	p.excluded = excluded
	return p, nil
}

func (s *Service) buildFilter(q Query, caller *auth.Claims, pers personalization) animals.Filter {
	f := animals.Filter{
		Species:      q.Species,
		Breed:        q.Breed,
		Name:         q.Name,
		AgeBands:     animals.BandsOverlapping(q.MinAge, q.MaxAge),
		Sex:          q.Sex,
		Size:         q.Size,
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		Availability: q.Availability,
		City:         q.City,
		Zip:          q.Zip,
		OwnerID:      q.OwnerID,
		Environment:  q.Environment,
		Training:     q.Training,
		Personality:  q.Personality,
		ExcludeIDs:   pers.excluded,
	}

	if !mayListUnavailable(q, caller) {
		available := true
		f.Availability = &available
	}

	if pers.adopter != nil {
		prefs := pers.adopter.Preferences
		if len(f.Species) == 0 && len(prefs.Species) > 0 {
			f.Species = prefs.Species
		}
		if f.MaxPrice == nil && prefs.MaxPrice != nil {
			f.MaxPrice = prefs.MaxPrice
		}
	}
	return f
}

// Solo un admin, o un dueño mirando sus propios animales, ve los no disponibles.
func mayListUnavailable(q Query, caller *auth.Claims) bool {
	if caller == nil {
		return false
	}
	if caller.IsAdmin() {
		return true
	}
	return caller.Role == auth.RoleOwner && q.OwnerID != "" && q.OwnerID == caller.UserID
}

func (s *Service) ownerSummaries(ctx context.Context, list []animals.Animal) (map[string]owners.Summary, error) {
	if s.owners == nil || len(list) == 0 {
		return map[string]owners.Summary{}, nil
	}
	seen := make(map[string]struct{}, len(list))
	ids := make([]string, 0, len(list))
	for _, a := range list {
		if _, ok := seen[a.OwnerID]; ok {
			continue
		}
		seen[a.OwnerID] = struct{}{}
		ids = append(ids, a.OwnerID)
	}
	return s.owners.Summaries(ctx, ids)
}

// animalPoint: ubicación del animal o, si no tiene, la del dueño.
func animalPoint(a animals.Animal, owner *owners.Summary) *geo.Point {
	if a.Location != nil {
		return a.Location
	}
	if owner != nil {
		return owner.Location
	}
	return nil
}

func sortItems(items []Item, scored bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if scored {
			sa, sb := scoreOf(a), scoreOf(b)
			if sa != sb {
				return sa > sb
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if scored {
			return distanceLess(a.DistanceKm, b.DistanceKm)
		}
		return false
	})
}

func scoreOf(it Item) int {
	if it.MatchScore == nil {
		return 0
	}
	return *it.MatchScore
}

// distancia desconocida va al final
func distanceLess(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
