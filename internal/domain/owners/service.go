package owners

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/platform/pagination"
	"pawfect-match/internal/ports/auth"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const maxAboutLen = 300

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Locator interface {
	Resolve(ctx context.Context, zip, city string) (geo.Point, bool)
}

// AnimalCounter lo implementa animals.Service.
type AnimalCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type Service struct {
	repo    Repository
	locator Locator
	animals AnimalCounter
	now     func() time.Time
}

func NewService(repo Repository, locator Locator) *Service {
	return &Service{
		repo:    repo,
		locator: locator,
		now:     time.Now,
	}
}

// SetAnimals se cablea después: animals.Service se construye con este servicio.
func (s *Service) SetAnimals(c AnimalCounter) {
	s.animals = c
}

type CreateInput struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Organization string
	Image        string
	About        string
	Address      geo.Address
}

// Register crea el perfil del dueño autenticado. El ID es el del token.
func (s *Service) Register(ctx context.Context, caller auth.Claims, in CreateInput) (Owner, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return Owner{}, apperr.ErrUnauthorized
	}
	if caller.Role != auth.RoleOwner && !caller.IsAdmin() {
		return Owner{}, fmt.Errorf("%w: owner role required", apperr.ErrForbidden)
	}

	now := s.now()
	o := Owner{
		ID:           caller.UserID,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		Organization: strings.TrimSpace(in.Organization),
		Image:        strings.TrimSpace(in.Image),
		About:        strings.TrimSpace(in.About),
		Address:      in.Address.Normalize(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := validate(o); err != nil {
		return Owner{}, err
	}
	o.Location = s.locate(ctx, o.Address)

	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Owner, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// Exists lo usa animals para validar ownerId sin importar este paquete.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Summaries devuelve owner_id -> resumen. IDs inexistentes se omiten.
func (s *Service) Summaries(ctx context.Context, ids []string) (map[string]Summary, error) {
	list, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Summary, len(list))
	for _, o := range list {
		out[o.ID] = o.Summary()
	}
	return out, nil
}

type UpdateInput struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	Organization *string
	Image        *string
	About        *string
	Address      *geo.Address
}

// Update: el propio dueño o un admin. Solo re-geocodifica si cambia la dirección.
func (s *Service) Update(ctx context.Context, caller auth.Claims, id string, in UpdateInput) (Owner, error) {
	id = strings.TrimSpace(id)
	if err := selfOrAdmin(caller, id); err != nil {
		return Owner{}, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Owner{}, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&o.FirstName, in.FirstName)
	set(&o.LastName, in.LastName)
	set(&o.Phone, in.Phone)
	set(&o.Organization, in.Organization)
	set(&o.Image, in.Image)
	set(&o.About, in.About)
	if in.Email != nil {
		o.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	readdress := false
	if in.Address != nil {
		next := in.Address.Normalize()
		readdress = next != o.Address
		o.Address = next
	}

	if err := validate(o); err != nil {
		return Owner{}, err
	}
	if readdress {
		o.Location = s.locate(ctx, o.Address)
	}
	o.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
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

// Delete: el propio dueño o un admin, y solo si ya no tiene animales.
func (s *Service) Delete(ctx context.Context, caller auth.Claims, id string) error {
	id = strings.TrimSpace(id)
	if err := selfOrAdmin(caller, id); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if s.animals != nil {
		n, err := s.animals.CountByOwner(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: owner still has %d animals", apperr.ErrConflict, n)
		}
	}
	return s.repo.Delete(ctx, id)
}

func selfOrAdmin(caller auth.Claims, id string) error {
	if caller.IsAdmin() || (caller.UserID != "" && caller.UserID == id) {
		return nil
	}
	return fmt.Errorf("%w: cannot act on another owner", apperr.ErrForbidden)
}

func (s *Service) locate(ctx context.Context, addr geo.Address) *geo.Point {
	if s.locator == nil {
		return nil
	}
	p, _ := s.locator.Resolve(ctx, addr.Zip, addr.City)
	return &p
}

func validate(o Owner) error {
	switch {
	case o.FirstName == "" || o.LastName == "":
		return fmt.Errorf("%w: firstName and lastName required", apperr.ErrValidation)
	case !emailRe.MatchString(o.Email):
		return fmt.Errorf("%w: invalid email", apperr.ErrValidation)
	case o.Address.Empty():
		return fmt.Errorf("%w: address zip and city required", apperr.ErrValidation)
	case len([]rune(o.About)) > maxAboutLen:
		return fmt.Errorf("%w: about too long (max %d)", apperr.ErrValidation, maxAboutLen)
	}
	return nil
}
