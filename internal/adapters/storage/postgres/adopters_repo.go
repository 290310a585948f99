package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pawfect-match/internal/domain/adopters"
)

type AdopterRepo struct {
	db *sql.DB
}

func NewAdopterRepo(db *sql.DB) *AdopterRepo {
	return &AdopterRepo{db: db}
}

const adopterColumns = `id, first_name, last_name, email, age, about,
	zip, city, lon, lat, preferences, created_at, updated_at`

func (r *AdopterRepo) Create(ctx context.Context, a adopters.Adopter) error {
	prefs, err := toJSON(a.Preferences)
	if err != nil {
		return err
	}
	lon, lat := pointArgs(a.Location)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO adopters (`+adopterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, a.ID, a.FirstName, a.LastName, a.Email, a.Age, a.About,
		a.Address.Zip, a.Address.City, lon, lat, prefs, a.CreatedAt, a.UpdatedAt)
	return mapError(err)
}

func (r *AdopterRepo) Update(ctx context.Context, a adopters.Adopter) error {
	prefs, err := toJSON(a.Preferences)
	if err != nil {
		return err
	}
	lon, lat := pointArgs(a.Location)

	res, err := r.db.ExecContext(ctx, `
		UPDATE adopters
		SET first_name = $2, last_name = $3, email = $4, age = $5, about = $6,
		    zip = $7, city = $8, lon = $9, lat = $10, preferences = $11, updated_at = $12
		WHERE id = $1
	`, a.ID, a.FirstName, a.LastName, a.Email, a.Age, a.About,
		a.Address.Zip, a.Address.City, lon, lat, prefs, a.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *AdopterRepo) GetByID(ctx context.Context, id string) (adopters.Adopter, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adopterColumns+` FROM adopters WHERE id = $1`, id)
	a, err := scanAdopter(row)
	if err != nil {
		return adopters.Adopter{}, mapError(err)
	}
	return a, nil
}

func (r *AdopterRepo) Find(ctx context.Context, f adopters.Filter) ([]adopters.Adopter, error) {
	query, args := adopterQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]adopters.Adopter, 0)
	for rows.Next() {
		a, err := scanAdopter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func adopterQuery(f adopters.Filter) (string, []any) {
	var w whereBuilder
	for _, c := range []struct{ column, sub string }{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"email", f.Email},
		{"city", f.City},
	} {
		if strings.TrimSpace(c.sub) != "" {
			w.addContains(c.column, c.sub)
		}
	}
	if f.Zip != "" {
		w.add("zip = $%d", f.Zip)
	}
	if f.Species != "" {
		w.add("preferences->'species' @> jsonb_build_array($%d::text)", f.Species)
	}
	return `SELECT ` + adopterColumns + ` FROM adopters` + w.sql() + ` ORDER BY created_at DESC`, w.args
}

// Delete no toca matches: siguen visibles para el dueño del animal.
func (r *AdopterRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM adopters WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func scanAdopter(s rowScanner) (adopters.Adopter, error) {
	var (
		a        adopters.Adopter
		lon, lat sql.NullFloat64
		prefs    []byte
	)
	if err := s.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Age, &a.About,
		&a.Address.Zip, &a.Address.City, &lon, &lat, &prefs, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return adopters.Adopter{}, err
	}
	a.Location = pointFrom(lon, lat)
	if err := fromJSON(prefs, &a.Preferences); err != nil {
		return adopters.Adopter{}, err
	}
	return a, nil
}
