package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pawfect-match/internal/domain/owners"
)

type OwnerRepo struct {
	db *sql.DB
}

func NewOwnerRepo(db *sql.DB) *OwnerRepo {
	return &OwnerRepo{db: db}
}

const ownerColumns = `id, first_name, last_name, email, phone, organization, image, about,
	zip, city, lon, lat, created_at, updated_at`

func (r *OwnerRepo) Create(ctx context.Context, o owners.Owner) error {
	lon, lat := pointArgs(o.Location)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO owners (`+ownerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, o.ID, o.FirstName, o.LastName, o.Email, o.Phone, o.Organization, o.Image, o.About,
		o.Address.Zip, o.Address.City, lon, lat, o.CreatedAt, o.UpdatedAt)
	return mapError(err)
}

func (r *OwnerRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id)
	o, err := scanOwner(row)
	if err != nil {
		return owners.Owner{}, mapError(err)
	}
	return o, nil
}

func (r *OwnerRepo) ListByIDs(ctx context.Context, ids []string) ([]owners.Owner, error) {
	if len(ids) == 0 {
		return []owners.Owner{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]owners.Owner, 0, len(ids))
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OwnerRepo) Update(ctx context.Context, o owners.Owner) error {
	lon, lat := pointArgs(o.Location)
	res, err := r.db.ExecContext(ctx, `
		UPDATE owners
		SET first_name = $2, last_name = $3, email = $4, phone = $5, organization = $6, image = $7, about = $8,
		    zip = $9, city = $10, lon = $11, lat = $12, updated_at = $13
		WHERE id = $1
	`, o.ID, o.FirstName, o.LastName, o.Email, o.Phone, o.Organization, o.Image, o.About,
		o.Address.Zip, o.Address.City, lon, lat, o.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *OwnerRepo) Find(ctx context.Context, f owners.Filter) ([]owners.Owner, error) {
	query, args := ownerQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]owners.Owner, 0)
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func ownerQuery(f owners.Filter) (string, []any) {
	var w whereBuilder
	for _, c := range []struct{ column, sub string }{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"city", f.City},
	} {
		if strings.TrimSpace(c.sub) != "" {
			w.addContains(c.column, c.sub)
		}
	}
	if f.Zip != "" {
		w.add("zip = $%d", f.Zip)
	}
	return `SELECT ` + ownerColumns + ` FROM owners` + w.sql() + ` ORDER BY created_at DESC`, w.args
}

// Delete falla con Conflict si quedan animales referenciando al dueño.
func (r *OwnerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(s rowScanner) (owners.Owner, error) {
	var (
		o        owners.Owner
		lon, lat sql.NullFloat64
	)
	if err := s.Scan(&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Phone, &o.Organization, &o.Image, &o.About,
		&o.Address.Zip, &o.Address.City, &lon, &lat, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return owners.Owner{}, err
	}
	o.Location = pointFrom(lon, lat)
	return o, nil
}
