package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica-jazmin/dental-ledger/internal/db"
)

const supplyColumns = `id, name, unit, quantity, reorder_threshold, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSupply(row pgx.Row) (*Supply, error) {
	var s Supply

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Unit,
		&s.Quantity,
		&s.ReorderThreshold,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSupplyNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Supply, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+supplyColumns+`
		FROM supplies
		WHERE id = $1
	`, id)
	return scanSupply(row)
}

func (r *PgRepository) Create(ctx context.Context, s *Supply) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO supplies (id, name, unit, quantity, reorder_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`, s.ID, s.Name, s.Unit, s.Quantity, s.ReorderThreshold).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *PgRepository) List(ctx context.Context) ([]Supply, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+supplyColumns+`
		FROM supplies
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Supply
	for rows.Next() {
		s, err := scanSupply(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*Supply, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE supplies
		SET quantity = quantity + $2,
		    updated_at = now()
		WHERE id = $1
		  AND quantity + $2 >= 0
		RETURNING `+supplyColumns+`
	`, id, delta)

	s, err := scanSupply(row)
	if db.IsNumericOutOfRange(err) {
		return nil, ErrInvalidAdjustment
	}
	if errors.Is(err, ErrSupplyNotFound) {
		// either the row is missing or the guard rejected the update
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInsufficientStock
	}
	return s, err
}
