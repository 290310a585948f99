package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pawfect-match/internal/domain/matches"
	"pawfect-match/internal/platform/apperr"
)

type MatchRepo struct {
	db *sql.DB
}

func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

const matchColumns = `id, adopter_id, animal_id, owner_id, status, is_active, discussion,
	notification_pending, notification_sent_at, created_at, updated_at`

// Create: la unique (adopter_id, animal_id) garantiza un match por par.
func (r *MatchRepo) Create(ctx context.Context, m matches.Match) error {
	discussion := m.Discussion
	if discussion == nil {
		discussion = []matches.Message{}
	}
	raw, err := toJSON(discussion)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, m.ID, m.AdopterID, m.AnimalID, m.OwnerID, string(m.Status), m.IsActive, raw,
		m.NotificationPending, m.NotificationSentAt, m.CreatedAt, m.UpdatedAt)
	return mapError(err)
}

func (r *MatchRepo) GetByID(ctx context.Context, id string) (matches.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanMatch(row)
	if err != nil {
		return matches.Match{}, mapError(err)
	}
	return m, nil
}

func (r *MatchRepo) Find(ctx context.Context, f matches.Filter) ([]matches.Match, error) {
	var w whereBuilder
	if f.AdopterID != "" {
		w.add("adopter_id = $%d", f.AdopterID)
	}
	if f.AnimalID != "" {
		w.add("animal_id = $%d", f.AnimalID)
	}
	if f.OwnerID != "" {
		w.add("owner_id = $%d", f.OwnerID)
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	if f.IsActive != nil {
		w.add("is_active = $%d", *f.IsActive)
	}
	if f.NotificationPending != nil {
		w.add("notification_pending = $%d", *f.NotificationPending)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches`+w.sql()+` ORDER BY created_at ASC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]matches.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateStatus es compare-and-set sobre status.
func (r *MatchRepo) UpdateStatus(ctx context.Context, id string, from, to matches.Status, notificationPending bool, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches
		SET status = $3, is_active = $4, notification_pending = $5, updated_at = $6
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), to == matches.StatusApproved, notificationPending, at)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// distinguir inexistente de estado cambiado
	var current string
	if err := r.db.QueryRowContext(ctx, `SELECT status FROM matches WHERE id = $1`, id).Scan(&current); err != nil {
		return mapError(err)
	}
	return fmt.Errorf("%w: match is %s, expected %s", apperr.ErrInvalidState, current, from)
}

func (r *MatchRepo) AppendMessage(ctx context.Context, id string, msg matches.Message, at time.Time) error {
	raw, err := toJSON([]matches.Message{msg})
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches SET discussion = discussion || $2::jsonb, updated_at = $3 WHERE id = $1
	`, id, raw, at)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *MatchRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches SET notification_pending = FALSE, notification_sent_at = $2, updated_at = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *MatchRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func scanMatch(s rowScanner) (matches.Match, error) {
	var (
		m          matches.Match
		status     string
		discussion []byte
		sentAt     sql.NullTime
	)
	if err := s.Scan(&m.ID, &m.AdopterID, &m.AnimalID, &m.OwnerID, &status, &m.IsActive, &discussion,
		&m.NotificationPending, &sentAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return matches.Match{}, err
	}
	m.Status = matches.Status(status)
	if sentAt.Valid {
		t := sentAt.Time
		m.NotificationSentAt = &t
	}
	if err := fromJSON(discussion, &m.Discussion); err != nil {
		return matches.Match{}, err
	}
	return m, nil
}
