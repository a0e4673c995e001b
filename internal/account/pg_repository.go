package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica-jazmin/dental-ledger/internal/db"
)

const accountColumns = `id, username, first_name, last_name, email, phone, role, active, password_hash, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var phone *string

	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&phone,
		&a.Role,
		&a.Active,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	a.Phone = phone
	return &a, nil
}

func translateWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, "accounts_email_key"):
		return ErrEmailTaken
	case db.IsUniqueViolation(err, "accounts_username_key"):
		return ErrUsernameTaken
	}
	return err
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id)
	return scanAccount(row)
}

func (r *PgRepository) EmailInUse(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE lower(email) = lower($1)
			  AND ($2::uuid IS NULL OR id <> $2)
		)
	`, email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) Create(ctx context.Context, a *Account) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, username, first_name, last_name, email, phone, role, active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at
	`, a.ID, a.Username, a.FirstName, a.LastName, a.Email, a.Phone, a.Role, a.Active, a.PasswordHash).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return translateWriteError(err)
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, a *Account) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    phone = $5,
		    active = $6,
		    password_hash = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, a.ID, a.FirstName, a.LastName, a.Email, a.Phone, a.Active, a.PasswordHash).
		Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return translateWriteError(err)
	}
	return nil
}

func (r *PgRepository) ListByRoles(ctx context.Context, roles []Role, f ListFilter) ([]Account, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	var search *string
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		search = &pattern
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE role = ANY($1)
		  AND (NOT $2 OR active)
		  AND ($3::text IS NULL
		       OR username ILIKE $3 OR first_name ILIKE $3 OR last_name ILIKE $3 OR email ILIKE $3)
		ORDER BY last_name, first_name, username
		LIMIT $4 OFFSET $5
	`, names, f.ActiveOnly, search, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
