package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanService(row pgx.Row) (*DentalService, error) {
	var s DentalService
	var price *string

	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&price,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	if price != nil {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("parse estimated price %q: %w", *price, err)
		}
		s.EstimatedPrice = &d
	}
	return &s, nil
}

func priceParam(p *decimal.Decimal) *string {
	if p == nil {
		return nil
	}
	s := p.StringFixed(2)
	return &s
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*DentalService, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, description, estimated_price::text, created_at
		FROM dental_services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) Create(ctx context.Context, s *DentalService) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO dental_services (id, title, description, estimated_price, created_at)
		VALUES ($1, $2, $3, $4::numeric, now())
		RETURNING created_at
	`, s.ID, s.Title, s.Description, priceParam(s.EstimatedPrice)).Scan(&s.CreatedAt)
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]DentalService, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, estimated_price::text, created_at
		FROM dental_services
		ORDER BY title, created_at
		LIMIT $1
	`, limitArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DentalService
	for rows.Next() {
		s, err := scanService(rows)
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
