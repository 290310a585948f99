package matches

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"pawfect-match/internal/domain/adopters"
	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/owners"
	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/metrics"
	"pawfect-match/internal/platform/pagination"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/ports/notify"
)

// MaxMessageLen en caracteres.
const MaxMessageLen = 1000

const (
	defaultLimit = 20
	maxLimit     = 100
)

type AnimalStore interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
	SetAvailability(ctx context.Context, id string, available bool) (animals.Animal, error)
}

type AdopterLookup interface {
	GetByID(ctx context.Context, id string) (adopters.Adopter, error)
}

type OwnerLookup interface {
	GetByID(ctx context.Context, id string) (owners.Owner, error)
}

type Options struct {
	// AllowReapply: proponer sobre un match rechazado lo reemplaza por uno nuevo en pending.
	AllowReapply bool
}

type Service struct {
	repo      Repository
	animals   AnimalStore
	adopters  AdopterLookup
	owners    OwnerLookup
	publisher notify.Publisher
	log       logger.Logger
	metrics   metrics.Recorder
	opts      Options
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

type Deps struct {
	Repo      Repository
	Animals   AnimalStore
	Adopters  AdopterLookup
	Owners    OwnerLookup
	Publisher notify.Publisher
	Logger    logger.Logger
	Metrics   metrics.Recorder
}

func NewService(d Deps, opts Options) *Service {
	s := &Service{
		repo:      d.Repo,
		animals:   d.Animals,
		adopters:  d.Adopters,
		owners:    d.Owners,
		publisher: d.Publisher,
		log:       d.Logger,
		metrics:   d.Metrics,
		opts:      opts,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	if s.publisher == nil {
		s.publisher = notify.Nop{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	return s
}

// SetPublisher permite cablear el hub después de construir el servicio (el hub necesita al servicio para sus hooks).
func (s *Service) SetPublisher(p notify.Publisher) {
	if p == nil {
		p = notify.Nop{}
	}
	s.publisher = p
}

// Propose crea un match en pending. adopterID vacío = el propio llamante.
func (s *Service) Propose(ctx context.Context, caller auth.Claims, adopterID, animalID string) (Details, error) {
	adopterID = strings.TrimSpace(adopterID)
	animalID = strings.TrimSpace(animalID)
	if adopterID == "" {
		adopterID = caller.UserID
	}
	if animalID == "" || adopterID == "" {
		return Details{}, fmt.Errorf("%w: adopterId and animalId are required", apperr.ErrValidation)
	}
	if !caller.IsAdmin() && !(caller.Role == auth.RoleAdopter && caller.UserID == adopterID) {
		return Details{}, fmt.Errorf("%w: adopters can only propose for themselves", apperr.ErrForbidden)
	}

	if _, err := s.adopters.GetByID(ctx, adopterID); err != nil {
		return Details{}, err
	}
	animal, err := s.animals.GetByID(ctx, animalID)
	if err != nil {
		return Details{}, err
	}

	existing, err := s.repo.Find(ctx, Filter{AdopterID: adopterID, AnimalID: animalID})
	if err != nil {
		return Details{}, err
	}
	var replaced *Match
	if len(existing) > 0 {
		prev := existing[0]
		if !s.opts.AllowReapply || prev.Status != StatusRejected {
			return Details{}, fmt.Errorf("%w: match already exists", apperr.ErrConflict)
		}
		replaced = &prev
	}

	if !animal.Availability {
		return Details{}, fmt.Errorf("%w: animal is not available", apperr.ErrInvalidState)
	}

	if replaced != nil {
		if err := s.repo.Delete(ctx, replaced.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return Details{}, err
		}
		s.log.Info("rejected match replaced by reapply", map[string]any{"match_id": replaced.ID, "adopter_id": adopterID})
	}

	now := s.now()
	m := Match{
		ID:         uuid.NewString(),
		AdopterID:  adopterID,
		AnimalID:   animalID,
		OwnerID:    animal.OwnerID,
		Status:     StatusPending,
		IsActive:   false,
		Discussion: []Message{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Details{}, err
	}

	s.publisher.EnsureChannel(m.ID)
	s.metrics.RecordTransition(string(StatusPending))
	s.log.Info("match proposed", map[string]any{"match_id": m.ID, "adopter_id": adopterID, "animal_id": animalID})

	// aviso al dueño, sin persistencia
	res := s.publisher.DeliverToUser(animal.OwnerID, notify.EventMatchProposed, s.payload(m, animal))
	s.metrics.RecordDelivery(notify.EventMatchProposed, string(res))

	return s.populate(ctx, m), nil
}

// Transition mueve pending -> approved|rejected (dueño o admin). adopted delega en Finalize.
func (s *Service) Transition(ctx context.Context, caller auth.Claims, matchID string, to Status) (Details, error) {
	switch to {
	case StatusApproved, StatusRejected:
	case StatusAdopted:
		return s.Finalize(ctx, caller, matchID)
	default:
		return Details{}, fmt.Errorf("%w: status must be approved, rejected or adopted", apperr.ErrValidation)
	}

	m, animal, err := s.loadListed(ctx, matchID)
	if err != nil {
		return Details{}, err
	}
	if !caller.IsAdmin() && caller.UserID != animal.OwnerID {
		return Details{}, fmt.Errorf("%w: only the animal's owner can decide", apperr.ErrForbidden)
	}
	if m.Status != StatusPending {
		return Details{}, fmt.Errorf("%w: cannot move %s match to %s", apperr.ErrInvalidState, m.Status, to)
	}

	approved := to == StatusApproved
	now := s.now()
	// el flag pendiente se escribe junto con el estado; la entrega en vivo lo limpia
	if err := s.repo.UpdateStatus(ctx, m.ID, StatusPending, to, approved, now); err != nil {
		return Details{}, err
	}
	m.Status = to
	m.IsActive = approved
	m.NotificationPending = approved
	m.UpdatedAt = now

	s.metrics.RecordTransition(string(to))
	s.log.Info("match transitioned", map[string]any{"match_id": m.ID, "to": string(to), "by": caller.UserID})

	if approved {
		s.publisher.EnsureChannel(m.ID)
		m = s.notifyApproved(ctx, m, animal)
	}

	return s.populate(ctx, m), nil
}

// notifyApproved: matchNotification al adoptante (persistido vía flag) y matchValidated al dueño (best-effort).
// Las fallas de entrega nunca revierten la transición.
func (s *Service) notifyApproved(ctx context.Context, m Match, animal animals.Animal) Match {
	payload := s.payload(m, animal)

	res := s.publisher.DeliverToUser(m.AdopterID, notify.EventMatchNotification, payload)
	s.metrics.RecordDelivery(notify.EventMatchNotification, string(res))
	if res == notify.Delivered {
		at := s.now()
		if err := s.repo.MarkNotified(ctx, m.ID, at); err != nil {
			// queda pendiente: el replay lo vuelve a entregar
			s.log.Warn("mark notified failed", map[string]any{"match_id": m.ID, "err": err})
		} else {
			m.NotificationPending = false
			m.NotificationSentAt = &at
		}
	} else {
		s.log.Info("adopter offline, notification queued", map[string]any{"match_id": m.ID, "adopter_id": m.AdopterID})
	}

	res = s.publisher.DeliverToUser(animal.OwnerID, notify.EventMatchValidated, payload)
	s.metrics.RecordDelivery(notify.EventMatchValidated, string(res))
	return m
}

// Finalize pasa approved -> adopted y marca al animal como no disponible.
// Son dos escrituras secuenciales: si la segunda falla el match queda adoptado con el animal disponible.
func (s *Service) Finalize(ctx context.Context, caller auth.Claims, matchID string) (Details, error) {
	m, animal, err := s.loadListed(ctx, matchID)
	if err != nil {
		return Details{}, err
	}
	if !caller.IsAdmin() && caller.UserID != m.AdopterID && caller.UserID != animal.OwnerID {
		return Details{}, fmt.Errorf("%w: only match participants can finalize", apperr.ErrForbidden)
	}
	if m.Status != StatusApproved {
		return Details{}, fmt.Errorf("%w: only approved matches can be finalized (status %s)", apperr.ErrInvalidState, m.Status)
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, m.ID, StatusApproved, StatusAdopted, m.NotificationPending, now); err != nil {
		return Details{}, err
	}
	m.Status = StatusAdopted
	m.IsActive = false
	m.UpdatedAt = now
	s.metrics.RecordTransition(string(StatusAdopted))

	if _, err := s.animals.SetAvailability(ctx, animal.ID, false); err != nil {
		s.log.Error("adoption recorded but animal still available", map[string]any{
			"match_id":  m.ID,
			"animal_id": animal.ID,
			"err":       err,
		})
	}

	s.publisher.Publish(notify.ChannelAnimals, notify.EventAnimalAdopted, AdoptedPayload{
		AnimalID: animal.ID,
		MatchID:  m.ID,
		At:       now,
	})
	s.log.Info("adoption finalized", map[string]any{"match_id": m.ID, "animal_id": animal.ID, "by": caller.UserID})

	return s.populate(ctx, m), nil
}

// PostMessage agrega un mensaje al chat. El rol del remitente se resuelve contra el match.
func (s *Service) PostMessage(ctx context.Context, caller auth.Claims, matchID, text string) (Details, error) {
	m, animal, err := s.load(ctx, matchID)
	if err != nil {
		return Details{}, err
	}

	var role SenderRole
	switch caller.Role {
	case auth.RoleAdopter:
		role = SenderAdopter
	case auth.RoleOwner:
		role = SenderOwner
	default:
		return Details{}, fmt.Errorf("%w: sender role must be adopter or owner", apperr.ErrValidation)
	}
	actual, ok := m.Participant(caller.UserID, animal.OwnerID)
	if !ok || actual != role {
		return Details{}, fmt.Errorf("%w: not a participant of this match", apperr.ErrForbidden)
	}

	if !m.Status.CanConverse() {
		return Details{}, fmt.Errorf("%w: conversation not open (status %s)", apperr.ErrInvalidState, m.Status)
	}

	clean, err := s.CleanText(text)
	if err != nil {
		return Details{}, err
	}

	msg := Message{
		SenderID:   caller.UserID,
		SenderRole: role,
		Text:       clean,
		Timestamp:  s.now(),
	}
	if err := s.repo.AppendMessage(ctx, m.ID, msg, msg.Timestamp); err != nil {
		return Details{}, err
	}
	m.Discussion = append(m.Discussion, msg)
	m.UpdatedAt = msg.Timestamp

	s.publisher.Publish(notify.MatchChannel(m.ID), notify.EventMessage, MessagePayload{MatchID: m.ID, Message: msg})

	return s.populate(ctx, m), nil
}

// CleanText recorta, quita el markup y valida el texto de un mensaje.
// Se guarda texto plano: bluemonday escapa lo que conserva y acá se deshace ese escape.
// El límite se mide sobre el texto final.
func (s *Service) CleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", apperr.ErrValidation)
	}
	clean := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
	if clean == "" {
		return "", fmt.Errorf("%w: text is empty after sanitizing", apperr.ErrValidation)
	}
	if utf8.RuneCountInString(clean) > MaxMessageLen {
		return "", fmt.Errorf("%w: text exceeds %d characters", apperr.ErrValidation, MaxMessageLen)
	}
	return clean, nil
}

func (s *Service) Remove(ctx context.Context, caller auth.Claims, matchID string) error {
	m, animal, err := s.load(ctx, matchID)
	if err != nil {
		return err
	}
	if err := authorizeParticipant(caller, m, animal); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return err
	}
	s.log.Info("match removed", map[string]any{"match_id": m.ID, "by": caller.UserID})
	return nil
}

func (s *Service) Get(ctx context.Context, caller auth.Claims, matchID string) (Details, error) {
	m, animal, err := s.load(ctx, matchID)
	if err != nil {
		return Details{}, err
	}
	if err := authorizeParticipant(caller, m, animal); err != nil {
		return Details{}, err
	}
	return s.populate(ctx, m), nil
}

func (s *Service) Discussion(ctx context.Context, caller auth.Claims, matchID string) (Discussion, error) {
	m, animal, err := s.load(ctx, matchID)
	if err != nil {
		return Discussion{}, err
	}
	if err := authorizeParticipant(caller, m, animal); err != nil {
		return Discussion{}, err
	}
	msgs := m.Discussion
	if msgs == nil {
		msgs = []Message{}
	}
	return Discussion{
		MatchID:   m.ID,
		AdopterID: m.AdopterID,
		AnimalID:  m.AnimalID,
		Status:    m.Status,
		IsActive:  m.IsActive,
		Messages:  msgs,
	}, nil
}

// List: el adoptante ve los suyos, el dueño los de sus animales, el admin todo.
func (s *Service) List(ctx context.Context, caller auth.Claims, q ListQuery) (ListPage, error) {
	page, limit := pagination.Clamp(q.Page, q.Limit, defaultLimit, maxLimit)

	f := Filter{
		AdopterID: q.AdopterID,
		AnimalID:  q.AnimalID,
		Status:    q.Status,
		IsActive:  q.IsActive,
	}
	switch {
	case caller.IsAdmin():
	case caller.Role == auth.RoleAdopter:
		f.AdopterID = caller.UserID
	case caller.Role == auth.RoleOwner:
		f.OwnerID = caller.UserID
	default:
		return ListPage{}, fmt.Errorf("%w: unknown role", apperr.ErrForbidden)
	}

	all, err := s.repo.Find(ctx, f)
	if err != nil {
		return ListPage{}, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	from, to := pagination.Bounds(page, limit, total)

	items := make([]Details, 0, to-from)
	for _, m := range all[from:to] {
		items = append(items, s.populate(ctx, m))
	}
	return ListPage{Items: items, Total: total, Page: page, Limit: limit, Pages: pagination.Pages(total, limit)}, nil
}

// AnimalIDsForAdopter alimenta la exclusión de candidatos ya evaluados.
func (s *Service) AnimalIDsForAdopter(ctx context.Context, adopterID string) ([]string, error) {
	list, err := s.repo.Find(ctx, Filter{AdopterID: adopterID})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.AnimalID)
	}
	return out, nil
}

// OpenForAnimal: hay matches pending o approved sobre el animal.
func (s *Service) OpenForAnimal(ctx context.Context, animalID string) (bool, error) {
	list, err := s.repo.Find(ctx, Filter{AnimalID: animalID})
	if err != nil {
		return false, err
	}
	for _, m := range list {
		if m.Status == StatusPending || m.Status == StatusApproved {
			return true, nil
		}
	}
	return false, nil
}

// AdoptedForAnimal: el animal ya tiene una adopción registrada.
func (s *Service) AdoptedForAnimal(ctx context.Context, animalID string) (bool, error) {
	list, err := s.repo.Find(ctx, Filter{AnimalID: animalID, Status: StatusAdopted})
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}

// ReplayPending entrega las notificaciones pendientes del adoptante al reconectar.
// At-least-once: si el proceso cae entre la entrega y MarkNotified, se entrega de nuevo.
func (s *Service) ReplayPending(ctx context.Context, userID string) (int, error) {
	pending := true
	list, err := s.repo.Find(ctx, Filter{AdopterID: userID, NotificationPending: &pending})
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, m := range list {
		animal, err := s.animals.GetByID(ctx, m.AnimalID)
		if err != nil {
			// el animal puede haber sido borrado; se entrega igual sin nombre
			animal = animals.Animal{ID: m.AnimalID}
		}

		res := s.publisher.DeliverToUser(userID, notify.EventMatchNotification, s.payload(m, animal))
		s.metrics.RecordDelivery(notify.EventMatchNotification, string(res))
		if res != notify.Delivered {
			// se desconectó a mitad del replay
			break
		}
		if err := s.repo.MarkNotified(ctx, m.ID, s.now()); err != nil {
			s.log.Warn("replay mark notified failed", map[string]any{"match_id": m.ID, "err": err})
			continue
		}
		delivered++
	}

	if delivered > 0 {
		s.metrics.RecordReplay(delivered)
		s.log.Info("pending notifications replayed", map[string]any{"user_id": userID, "count": delivered})
	}
	return delivered, nil
}

// CanJoin decide si un usuario puede suscribirse a match:{id}.
func (s *Service) CanJoin(ctx context.Context, caller auth.Claims, matchID string) bool {
	m, animal, err := s.load(ctx, matchID)
	if err != nil {
		return false
	}
	return authorizeParticipant(caller, m, animal) == nil
}

// load tolera animales borrados: devuelve un animal mínimo con el dueño guardado en el match.
func (s *Service) load(ctx context.Context, matchID string) (Match, animals.Animal, error) {
	m, animal, _, err := s.fetch(ctx, matchID)
	return m, animal, err
}

// loadListed exige que el animal siga publicado (decidir o finalizar).
func (s *Service) loadListed(ctx context.Context, matchID string) (Match, animals.Animal, error) {
	m, animal, listed, err := s.fetch(ctx, matchID)
	if err != nil {
		return Match{}, animals.Animal{}, err
	}
	if !listed {
		return Match{}, animals.Animal{}, fmt.Errorf("%w: animal %s is no longer listed", apperr.ErrInvalidState, m.AnimalID)
	}
	return m, animal, nil
}

func (s *Service) fetch(ctx context.Context, matchID string) (Match, animals.Animal, bool, error) {
	m, err := s.repo.GetByID(ctx, strings.TrimSpace(matchID))
	if err != nil {
		return Match{}, animals.Animal{}, false, err
	}
	animal, err := s.animals.GetByID(ctx, m.AnimalID)
	switch {
	case err == nil:
		if m.OwnerID == "" {
			m.OwnerID = animal.OwnerID
		}
		return m, animal, true, nil
	case errors.Is(err, apperr.ErrNotFound):
		return m, animals.Animal{ID: m.AnimalID, OwnerID: m.OwnerID}, false, nil
	default:
		return Match{}, animals.Animal{}, false, err
	}
}

func authorizeParticipant(caller auth.Claims, m Match, animal animals.Animal) error {
	if caller.IsAdmin() {
		return nil
	}
	if _, ok := m.Participant(caller.UserID, animal.OwnerID); ok {
		return nil
	}
	return fmt.Errorf("%w: not a participant of this match", apperr.ErrForbidden)
}

func (s *Service) payload(m Match, animal animals.Animal) NotificationPayload {
	return NotificationPayload{
		MatchID:    m.ID,
		AnimalID:   m.AnimalID,
		AnimalName: animal.Name,
		AdopterID:  m.AdopterID,
		Status:     m.Status,
		At:         m.UpdatedAt,
	}
}

// populate adjunta resúmenes; lo que no se encuentra queda en nil.
func (s *Service) populate(ctx context.Context, m Match) Details {
	d := Details{
		ID:                  m.ID,
		AdopterID:           m.AdopterID,
		AnimalID:            m.AnimalID,
		OwnerID:             m.OwnerID,
		Status:              m.Status,
		IsActive:            m.IsActive,
		Discussion:          m.Discussion,
		NotificationPending: m.NotificationPending,
		NotificationSentAt:  m.NotificationSentAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if d.Discussion == nil {
		d.Discussion = []Message{}
	}

	if a, err := s.adopters.GetByID(ctx, m.AdopterID); err == nil {
		sum := a.Summary()
		d.Adopter = &sum
	}
	if animal, err := s.animals.GetByID(ctx, m.AnimalID); err == nil {
		resp := animals.ToResponse(animal)
		d.Animal = &resp
		if d.OwnerID == "" {
			d.OwnerID = animal.OwnerID
		}
	}
	if s.owners != nil && d.OwnerID != "" {
		if o, err := s.owners.GetByID(ctx, d.OwnerID); err == nil {
			sum := o.Summary()
			d.Owner = &sum
		}
	}
	return d
}
