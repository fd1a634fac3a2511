package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scholarmap/pkg/models"
)

type Repo struct {
	DB    *sql.DB
	Table string // validated by config; interpolated into SQL
}

func NewRepo(db *sql.DB, table string) *Repo {
	return &Repo{DB: db, Table: table}
}

const columns = `loc_name, city_name, loc_type, type_special, loc_address, loc_vibe, loc_rating, latitude, longitude, loc_tags, loc_descr`

type scanner interface {
	Scan(dest ...any) error
}

func scanLocation(s scanner) (models.Location, error) {
	var (
		l    models.Location
		tags sql.NullString
	)
	if err := s.Scan(
		&l.Name, &l.City, &l.Type, &l.TypeSpecial, &l.Address, &l.Vibe, &l.Rating,
		&l.Latitude, &l.Longitude, &tags, &l.Description,
	); err != nil {
		return l, err
	}
	if tags.Valid {
		t := tags.String
		l.Tags = &t
	}
	return l, nil
}

// All returns every row ordered by name.
func (r *Repo) All(ctx context.Context) ([]models.Location, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+columns+` FROM `+r.Table+` ORDER BY loc_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Get returns nil, nil when no row has that name.
func (r *Repo) Get(ctx context.Context, name string) (*models.Location, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+columns+` FROM `+r.Table+` WHERE loc_name = ?`, name)
	l, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan get: %w", err)
	}
	return &l, nil
}

func (r *Repo) upsertSQL() string {
	return `
		INSERT INTO ` + r.Table + ` (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(loc_name) DO UPDATE SET
		  city_name = excluded.city_name,
		  loc_type = excluded.loc_type,
		  type_special = excluded.type_special,
		  loc_address = excluded.loc_address,
		  loc_vibe = excluded.loc_vibe,
		  loc_rating = excluded.loc_rating,
		  latitude = excluded.latitude,
		  longitude = excluded.longitude,
		  loc_tags = excluded.loc_tags,
		  loc_descr = excluded.loc_descr
	`
}

func upsertArgs(l models.Location) []any {
	var tags sql.NullString
	if l.Tags != nil {
		tags = sql.NullString{String: *l.Tags, Valid: true}
	}
	return []any{
		l.Name, l.City, l.Type, l.TypeSpecial, l.Address, l.Vibe, l.Rating,
		l.Latitude, l.Longitude, tags, l.Description,
	}
}

func (r *Repo) Upsert(ctx context.Context, l models.Location) error {
	if _, err := r.DB.ExecContext(ctx, r.upsertSQL(), upsertArgs(l)...); err != nil {
		return fmt.Errorf("upsert %s: %w", l.Name, err)
	}
	return nil
}

// UpsertMany writes all rows in a single transaction.
func (r *Repo) UpsertMany(ctx context.Context, locs []models.Location) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.upsertSQL())
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, l := range locs {
		if _, err := stmt.ExecContext(ctx, upsertArgs(l)...); err != nil {
			return fmt.Errorf("exec upsert for %s: %w", l.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Delete reports whether a row was removed.
func (r *Repo) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM `+r.Table+` WHERE loc_name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
