package postgres

import (
	"context"
	"database/sql"
	"errors"

	"weightlog/internal/domain"
)

// Create inserts a new weight record and returns its id.
func (d *DB) Create(ctx context.Context, rec domain.WeightRecord) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO weight_records(user_id, date, time, weight_kg, created_at, updated_at) VALUES($1, $2, $3, $4, $5, $6) RETURNING id;",
		rec.UserID, rec.Date, rec.Time, rec.WeightKg.Kilograms(), rec.CreatedAt, rec.UpdatedAt,
	).Scan(&id)
	return id, err
}

// GetByID returns a record by id, or (nil, nil) when absent.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.WeightRecord, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS'), weight_kg, created_at, updated_at FROM weight_records WHERE id = $1;",
		id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update overwrites the mutable columns of a record.
func (d *DB) Update(ctx context.Context, rec domain.WeightRecord) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE weight_records SET date = $1, time = $2, weight_kg = $3, updated_at = $4 WHERE id = $5;",
		rec.Date, rec.Time, rec.WeightKg.Kilograms(), rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a record by id.
func (d *DB) Delete(ctx context.Context, id int64) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM weight_records WHERE id = $1;", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner returns all records owned by ownerID. Ordering is left to
// the caller.
func (d *DB) ListByOwner(ctx context.Context, ownerID int64) ([]domain.WeightRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS'), weight_kg, created_at, updated_at FROM weight_records WHERE user_id = $1;",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WeightRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.WeightRecord, error) {
	var rec domain.WeightRecord
	var kg float64
	if err := s.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.Time, &kg, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.WeightKg = domain.Weight(kg)
	return &rec, nil
}
