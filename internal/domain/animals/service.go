package animals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/auth"
)

const (
	maxNameLen        = 80
	maxBreedLen       = 80
	maxDescriptionLen = 300
)

// Locator resuelve direcciones; lo implementa geo.Resolver.
type Locator interface {
	Resolve(ctx context.Context, zip, city string) (geo.Point, bool)
}

// OwnerDirectory evita importar owners desde acá.
type OwnerDirectory interface {
	Exists(ctx context.Context, ownerID string) (bool, error)
}

// MatchIndex lo implementa matches.Service; se cablea con SetMatchIndex.
type MatchIndex interface {
	OpenForAnimal(ctx context.Context, animalID string) (bool, error)
	AdoptedForAnimal(ctx context.Context, animalID string) (bool, error)
}

type Service struct {
	repo    Repository
	owners  OwnerDirectory
	locator Locator
	matches MatchIndex
	log     logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, owners OwnerDirectory, locator Locator, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		owners:  owners,
		locator: locator,
		log:     log,
		now:     time.Now,
	}
}

func (s *Service) SetMatchIndex(m MatchIndex) {
	s.matches = m
}

type CreateInput struct {
	OwnerID         string // solo admin; el dueño crea a su nombre
	Species         string
	Breed           string
	Name            string
	Age             string
	Sex             string
	Size            string
	Weight          string
	Images          []string
	Address         geo.Address
	Price           float64
	Availability    *bool
	Description     string
	Characteristics Characteristics
}

func (s *Service) Create(ctx context.Context, caller auth.Claims, in CreateInput) (Animal, error) {
	ownerID := caller.UserID
	switch caller.Role {
	case auth.RoleOwner:
	case auth.RoleAdmin:
		ownerID = strings.TrimSpace(in.OwnerID)
	default:
		return Animal{}, fmt.Errorf("%w: only owners can publish animals", apperr.ErrForbidden)
	}
	if ownerID == "" {
		return Animal{}, fmt.Errorf("%w: ownerId required", apperr.ErrValidation)
	}

	if s.owners != nil {
		ok, err := s.owners.Exists(ctx, ownerID)
		if err != nil {
			return Animal{}, err
		}
		if !ok {
			return Animal{}, fmt.Errorf("%w: owner %s", apperr.ErrNotFound, ownerID)
		}
	}

	now := s.now()
	a := Animal{
		ID:              uuid.NewString(),
		Species:         strings.TrimSpace(in.Species),
		Breed:           strings.TrimSpace(in.Breed),
		Name:            strings.TrimSpace(in.Name),
		Age:             strings.TrimSpace(in.Age),
		Sex:             strings.TrimSpace(in.Sex),
		Size:            strings.TrimSpace(in.Size),
		Weight:          strings.TrimSpace(in.Weight),
		Images:          trimAll(in.Images),
		Address:         in.Address.Normalize(),
		Price:           in.Price,
		OwnerID:         ownerID,
		Availability:    true,
		Description:     strings.TrimSpace(in.Description),
		Characteristics: in.Characteristics,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Availability != nil {
		a.Availability = *in.Availability
	}

	if err := validate(a); err != nil {
		return Animal{}, err
	}
	a.Location = s.locate(ctx, a.Address)

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	s.log.Info("animal created", map[string]any{"animal_id": a.ID, "owner_id": a.OwnerID})
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) Find(ctx context.Context, f Filter) ([]Animal, error) {
	return s.repo.Find(ctx, f)
}

// CountByOwner cuenta todos los animales del dueño, disponibles o no.
func (s *Service) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	list, err := s.repo.Find(ctx, Filter{OwnerID: ownerID})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// Delete: dueño o admin, y sin matches pending o approved sobre el animal.
// Los matches rechazados o adoptados sobreviven al borrado.
func (s *Service) Delete(ctx context.Context, caller auth.Claims, id string) error {
	a, err := s.authorized(ctx, caller, id)
	if err != nil {
		return err
	}
	if s.matches != nil {
		open, err := s.matches.OpenForAnimal(ctx, a.ID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: animal has open matches", apperr.ErrConflict)
		}
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		return err
	}
	s.log.Info("animal deleted", map[string]any{"animal_id": a.ID, "by": caller.UserID})
	return nil
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Breed           *string
	Name            *string
	Age             *string
	Size            *string
	Weight          *string
	Images          []string
	Address         *geo.Address
	Price           *float64
	Description     *string
	Characteristics *Characteristics
}

func (s *Service) Update(ctx context.Context, caller auth.Claims, id string, in UpdateInput) (Animal, error) {
	a, err := s.authorized(ctx, caller, id)
	if err != nil {
		return Animal{}, err
	}

	if in.Breed != nil {
		a.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Age != nil {
		a.Age = strings.TrimSpace(*in.Age)
	}
	if in.Size != nil {
		a.Size = strings.TrimSpace(*in.Size)
	}
	if in.Weight != nil {
		a.Weight = strings.TrimSpace(*in.Weight)
	}
	if in.Images != nil {
		a.Images = trimAll(in.Images)
	}
	if in.Price != nil {
		a.Price = *in.Price
	}
	if in.Description != nil {
		a.Description = strings.TrimSpace(*in.Description)
	}
	if in.Characteristics != nil {
		a.Characteristics = *in.Characteristics
	}
	readdress := false
	if in.Address != nil {
		next := in.Address.Normalize()
		readdress = next != a.Address
		a.Address = next
	}

	if err := validate(a); err != nil {
		return Animal{}, err
	}
	if readdress {
		a.Location = s.locate(ctx, a.Address)
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// ChangeAvailability es la versión autorizada (dueño o admin) de SetAvailability.
// Un animal con adopción registrada no vuelve a estar disponible.
func (s *Service) ChangeAvailability(ctx context.Context, caller auth.Claims, id string, available bool) (Animal, error) {
	a, err := s.authorized(ctx, caller, id)
	if err != nil {
		return Animal{}, err
	}
	if available && s.matches != nil {
		adopted, err := s.matches.AdoptedForAnimal(ctx, a.ID)
		if err != nil {
			return Animal{}, err
		}
		if adopted {
			return Animal{}, fmt.Errorf("%w: animal has already been adopted", apperr.ErrInvalidState)
		}
	}
	return s.SetAvailability(ctx, a.ID, available)
}

// SetAvailability no chequea permisos; la usa el ciclo de vida de matches al finalizar una adopción.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool) (Animal, error) {
	if err := s.repo.SetAvailability(ctx, id, available, s.now()); err != nil {
		return Animal{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) authorized(ctx context.Context, caller auth.Claims, id string) (Animal, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Animal{}, err
	}
	if !caller.IsAdmin() && a.OwnerID != caller.UserID {
		return Animal{}, fmt.Errorf("%w: animal belongs to another owner", apperr.ErrForbidden)
	}
	return a, nil
}

func (s *Service) locate(ctx context.Context, addr geo.Address) *geo.Point {
	if s.locator == nil {
		return nil
	}
	p, _ := s.locator.Resolve(ctx, addr.Zip, addr.City)
	return &p
}

func validate(a Animal) error {
	switch {
	case !In(SpeciesValues, a.Species):
		return fmt.Errorf("%w: species must be one of %v", apperr.ErrValidation, SpeciesValues)
	case a.Name == "" || len([]rune(a.Name)) > maxNameLen:
		return fmt.Errorf("%w: name required (max %d)", apperr.ErrValidation, maxNameLen)
	case len([]rune(a.Breed)) > maxBreedLen:
		return fmt.Errorf("%w: breed too long (max %d)", apperr.ErrValidation, maxBreedLen)
	case !In(AgeBands, a.Age):
		return fmt.Errorf("%w: age must be one of %v", apperr.ErrValidation, AgeBands)
	case !In(SexValues, a.Sex):
		return fmt.Errorf("%w: sex must be one of %v", apperr.ErrValidation, SexValues)
	case a.Size != "" && !In(SizeValues, a.Size):
		return fmt.Errorf("%w: size must be one of %v", apperr.ErrValidation, SizeValues)
	case a.Weight != "" && !In(WeightBands, a.Weight):
		return fmt.Errorf("%w: weight must be one of %v", apperr.ErrValidation, WeightBands)
	case len(a.Images) == 0:
		return fmt.Errorf("%w: at least one image is required", apperr.ErrValidation)
	case a.Address.Empty():
		return fmt.Errorf("%w: address zip and city required", apperr.ErrValidation)
	case a.Price < 0:
		return fmt.Errorf("%w: price must be >= 0", apperr.ErrValidation)
	case a.Description == "" || len([]rune(a.Description)) > maxDescriptionLen:
		return fmt.Errorf("%w: description required (max %d)", apperr.ErrValidation, maxDescriptionLen)
	}

	c := a.Characteristics
	switch {
	case len(c.Environment) == 0 || !AllIn(EnvironmentTags, c.Environment):
		return fmt.Errorf("%w: characteristics.environment must be a non-empty subset of %v", apperr.ErrValidation, EnvironmentTags)
	case len(c.Training) == 0 || !AllIn(TrainingTags, c.Training):
		return fmt.Errorf("%w: characteristics.training must be a non-empty subset of %v", apperr.ErrValidation, TrainingTags)
	case len(c.Personality) == 0 || !AllIn(PersonalityTags, c.Personality):
		return fmt.Errorf("%w: characteristics.personality must be a non-empty subset of %v", apperr.ErrValidation, PersonalityTags)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
