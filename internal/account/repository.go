package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email is already registered to another account")
	ErrUsernameTaken   = errors.New("username is already taken")
)

type ListFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// EmailInUse reports whether another account owns email. excludeID is nil
	// for a new account.
	EmailInUse(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)

	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error

	ListByRoles(ctx context.Context, roles []Role, f ListFilter) ([]Account, error)
}
