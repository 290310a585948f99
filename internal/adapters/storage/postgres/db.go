package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/platform/apperr"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	ErrNotFound = apperr.ErrNotFound
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// mapError traduce errores del driver a la taxonomía de apperr.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == uniqueViolation || pgErr.Code == foreignKeyViolation) {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// lon/lat son nullable: sin ubicación resuelta => NULL.
func pointArgs(p *geo.Point) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Lon, Valid: true}, sql.NullFloat64{Float64: p.Lat, Valid: true}
}

func pointFrom(lon, lat sql.NullFloat64) *geo.Point {
	if !lon.Valid || !lat.Valid {
		return nil
	}
	return &geo.Point{Lon: lon.Float64, Lat: lat.Float64}
}

func toJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal jsonb: %w", err)
	}
	return b, nil
}

func fromJSON(raw []byte, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("postgres: unmarshal jsonb: %w", err)
	}
	return nil
}

// whereBuilder arma cláusulas con placeholders $n en orden.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

// addContains: substring literal sin distinguir mayúsculas. strpos no interpreta % ni _.
func (w *whereBuilder) addContains(column, sub string) {
	w.add("strpos(lower("+column+"), lower($%d)) > 0", strings.TrimSpace(sub))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	out := " WHERE " + w.clauses[0]
	for _, c := range w.clauses[1:] {
		out += " AND " + c
	}
	return out
}
