package postgres

import (
	"context"
	"database/sql"
	"time"

	"pawfect-match/internal/domain/animals"
)

type AnimalRepo struct {
	db *sql.DB
}

func NewAnimalRepo(db *sql.DB) *AnimalRepo {
	return &AnimalRepo{db: db}
}

const animalColumns = `id, species, breed, name, age, sex, size, weight, images,
	zip, city, lon, lat, price, owner_id, availability, description, characteristics,
	created_at, updated_at`

func (r *AnimalRepo) Create(ctx context.Context, a animals.Animal) error {
	images, err := toJSON(a.Images)
	if err != nil {
		return err
	}
	chars, err := toJSON(a.Characteristics)
	if err != nil {
		return err
	}
	lon, lat := pointArgs(a.Location)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO animals (`+animalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, a.ID, a.Species, a.Breed, a.Name, a.Age, a.Sex, a.Size, a.Weight, images,
		a.Address.Zip, a.Address.City, lon, lat, a.Price, a.OwnerID, a.Availability, a.Description, chars,
		a.CreatedAt, a.UpdatedAt)
	return mapError(err)
}

func (r *AnimalRepo) Update(ctx context.Context, a animals.Animal) error {
	images, err := toJSON(a.Images)
	if err != nil {
		return err
	}
	chars, err := toJSON(a.Characteristics)
	if err != nil {
		return err
	}
	lon, lat := pointArgs(a.Location)

	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET species = $2, breed = $3, name = $4, age = $5, sex = $6, size = $7, weight = $8, images = $9,
		    zip = $10, city = $11, lon = $12, lat = $13, price = $14, availability = $15,
		    description = $16, characteristics = $17, updated_at = $18
		WHERE id = $1
	`, a.ID, a.Species, a.Breed, a.Name, a.Age, a.Sex, a.Size, a.Weight, images,
		a.Address.Zip, a.Address.City, lon, lat, a.Price, a.Availability,
		a.Description, chars, a.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *AnimalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id)
	a, err := scanAnimal(row)
	if err != nil {
		return animals.Animal{}, mapError(err)
	}
	return a, nil
}

// Find traduce animals.Filter a SQL. Orden: created_at desc.
func (r *AnimalRepo) Find(ctx context.Context, f animals.Filter) ([]animals.Animal, error) {
	// bandas pedidas pero ninguna solapa con el rango: nada que devolver
	if f.AgeBands != nil && len(f.AgeBands) == 0 {
		return []animals.Animal{}, nil
	}

	query, args := animalQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func animalQuery(f animals.Filter) (string, []any) {
	var w whereBuilder

	if len(f.Species) > 0 {
		w.add("species = ANY($%d)", f.Species)
	}
	if f.Breed != "" {
		w.addContains("breed", f.Breed)
	}
	if f.Name != "" {
		w.addContains("name", f.Name)
	}
	if len(f.AgeBands) > 0 {
		w.add("age = ANY($%d)", f.AgeBands)
	}
	if f.Sex != "" {
		w.add("sex = $%d", f.Sex)
	}
	if f.Size != "" {
		w.add("size = $%d", f.Size)
	}
	if f.MinPrice != nil {
		w.add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price <= $%d", *f.MaxPrice)
	}
	if f.Availability != nil {
		w.add("availability = $%d", *f.Availability)
	}
	if f.City != "" {
		w.addContains("city", f.City)
	}
	if f.Zip != "" {
		w.add("zip = $%d", f.Zip)
	}
	if f.OwnerID != "" {
		w.add("owner_id = $%d", f.OwnerID)
	}
	if len(f.Environment) > 0 {
		w.add("jsonb_exists_any(characteristics->'environment', $%d)", f.Environment)
	}
	if len(f.Training) > 0 {
		w.add("jsonb_exists_any(characteristics->'training', $%d)", f.Training)
	}
	if len(f.Personality) > 0 {
		w.add("jsonb_exists_any(characteristics->'personality', $%d)", f.Personality)
	}
	if len(f.ExcludeIDs) > 0 {
		w.add("NOT (id = ANY($%d))", f.ExcludeIDs)
	}

	return `SELECT ` + animalColumns + ` FROM animals` + w.sql() + ` ORDER BY created_at DESC`, w.args
}

func (r *AnimalRepo) SetAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals SET availability = $2, updated_at = $3 WHERE id = $1
	`, id, available, at)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *AnimalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func scanAnimal(s rowScanner) (animals.Animal, error) {
	var (
		a             animals.Animal
		lon, lat      sql.NullFloat64
		images, chars []byte
	)
	if err := s.Scan(&a.ID, &a.Species, &a.Breed, &a.Name, &a.Age, &a.Sex, &a.Size, &a.Weight, &images,
		&a.Address.Zip, &a.Address.City, &lon, &lat, &a.Price, &a.OwnerID, &a.Availability, &a.Description, &chars,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return animals.Animal{}, err
	}
	a.Location = pointFrom(lon, lat)
	if err := fromJSON(images, &a.Images); err != nil {
		return animals.Animal{}, err
	}
	if err := fromJSON(chars, &a.Characteristics); err != nil {
		return animals.Animal{}, err
	}
	return a, nil
}
