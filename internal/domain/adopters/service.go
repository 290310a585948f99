package adopters

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/platform/pagination"
	"pawfect-match/internal/ports/auth"
)

const (
	minAdopterAge = 18
	maxAboutLen   = 150

	defaultListLimit = 20
	maxListLimit     = 100
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type Locator interface {
	Resolve(ctx context.Context, zip, city string) (geo.Point, bool)
}

type Service struct {
	repo    Repository
	locator Locator
	now     func() time.Time
}

func NewService(repo Repository, locator Locator) *Service {
	return &Service{
		repo:    repo,
		locator: locator,
		now:     time.Now,
	}
}

type CreateInput struct {
	FirstName   string
	LastName    string
	Email       string
	Age         int
	About       string
	Address     geo.Address
	Preferences Preferences
}

// Register crea el perfil del adoptante autenticado (ID = token).
func (s *Service) Register(ctx context.Context, caller auth.Claims, in CreateInput) (Adopter, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return Adopter{}, apperr.ErrUnauthorized
	}
	if caller.Role != auth.RoleAdopter && !caller.IsAdmin() {
		return Adopter{}, fmt.Errorf("%w: adopter role required", apperr.ErrForbidden)
	}

	now := s.now()
	a := Adopter{
		ID:          caller.UserID,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Age:         in.Age,
		About:       strings.TrimSpace(in.About),
		Address:     in.Address.Normalize(),
		Preferences: in.Preferences,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validate(a); err != nil {
		return Adopter{}, err
	}
	a.Location = s.locate(ctx, a.Address)

	if err := s.repo.Create(ctx, a); err != nil {
		return Adopter{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Adopter, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

type UpdateInput struct {
	FirstName   *string
	LastName    *string
	Age         *int
	About       *string
	Address     *geo.Address
	Preferences *Preferences
}

// Update: solo el propio adoptante o un admin.
func (s *Service) Update(ctx context.Context, caller auth.Claims, id string, in UpdateInput) (Adopter, error) {
	if !caller.IsAdmin() && caller.UserID != id {
		return Adopter{}, fmt.Errorf("%w: cannot edit another adopter", apperr.ErrForbidden)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Adopter{}, err
	}

	if in.FirstName != nil {
		a.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		a.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Age != nil {
		a.Age = *in.Age
	}
	if in.About != nil {
		a.About = strings.TrimSpace(*in.About)
	}
	if in.Preferences != nil {
		a.Preferences = *in.Preferences
	}
	readdress := false
	if in.Address != nil {
		next := in.Address.Normalize()
		readdress = next != a.Address
		a.Address = next
	}

	if err := validate(a); err != nil {
		return Adopter{}, err
	}
	if readdress {
		a.Location = s.locate(ctx, a.Address)
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Adopter{}, err
	}
	return a, nil
}

// List es solo para admin.
func (s *Service) List(ctx context.Context, caller auth.Claims, q ListQuery) (ListPage, error) {
	if !caller.IsAdmin() {
		return ListPage{}, fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	}
	page, limit := pagination.Clamp(q.Page, q.Limit, defaultListLimit, maxListLimit)

	all, err := s.repo.Find(ctx, q.Filter)
	if err != nil {
		return ListPage{}, err
	}
	from, to := pagination.Bounds(page, limit, len(all))
	return ListPage{
		Items: all[from:to],
		Total: len(all),
		Page:  page,
		Limit: limit,
		Pages: pagination.Pages(len(all), limit),
	}, nil
}

// Delete: el propio adoptante o un admin. Sus matches quedan; se muestran sin resumen de adoptante.
func (s *Service) Delete(ctx context.Context, caller auth.Claims, id string) error {
	id = strings.TrimSpace(id)
	if !caller.IsAdmin() && (caller.UserID == "" || caller.UserID != id) {
		return fmt.Errorf("%w: cannot delete another adopter", apperr.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) locate(ctx context.Context, addr geo.Address) *geo.Point {
	if s.locator == nil {
		return nil
	}
	p, _ := s.locator.Resolve(ctx, addr.Zip, addr.City)
	return &p
}

func validate(a Adopter) error {
	switch {
	case a.FirstName == "" || a.LastName == "":
		return fmt.Errorf("%w: firstName and lastName required", apperr.ErrValidation)
	case !emailRe.MatchString(a.Email):
		return fmt.Errorf("%w: invalid email", apperr.ErrValidation)
	case a.Age < minAdopterAge:
		return fmt.Errorf("%w: adopters must be at least %d", apperr.ErrValidation, minAdopterAge)
	case len([]rune(a.About)) > maxAboutLen:
		return fmt.Errorf("%w: about too long (max %d)", apperr.ErrValidation, maxAboutLen)
	case a.Address.Empty():
		return fmt.Errorf("%w: address zip and city required", apperr.ErrValidation)
	}

	p := a.Preferences
	switch {
	case !animals.AllIn(animals.SpeciesValues, p.Species):
		return fmt.Errorf("%w: preferences.species must be within %v", apperr.ErrValidation, animals.SpeciesValues)
	case !animals.AllIn(animals.SizeValues, p.Sizes):
		return fmt.Errorf("%w: preferences.sizes must be within %v", apperr.ErrValidation, animals.SizeValues)
	case !animals.AllIn(animals.AgeBands, p.Ages):
		return fmt.Errorf("%w: preferences.ages must be within %v", apperr.ErrValidation, animals.AgeBands)
	case !animals.AllIn(animals.WeightBands, p.Weights):
		return fmt.Errorf("%w: preferences.weights must be within %v", apperr.ErrValidation, animals.WeightBands)
	case !animals.AllIn(animals.SexValues, p.Sexes):
		return fmt.Errorf("%w: preferences.sexes must be within %v", apperr.ErrValidation, animals.SexValues)
	case !animals.AllIn(animals.EnvironmentTags, p.Environment):
		return fmt.Errorf("%w: preferences.environment must be within %v", apperr.ErrValidation, animals.EnvironmentTags)
	case !animals.AllIn(animals.PersonalityTags, p.Personality):
		return fmt.Errorf("%w: preferences.personality must be within %v", apperr.ErrValidation, animals.PersonalityTags)
	case p.MaxPrice != nil && *p.MaxPrice < 0:
		return fmt.Errorf("%w: preferences.maxPrice must be >= 0", apperr.ErrValidation)
	case p.MaxDistance != nil && *p.MaxDistance <= 0:
		return fmt.Errorf("%w: preferences.maxDistance must be > 0", apperr.ErrValidation)
	}
	return nil
}
