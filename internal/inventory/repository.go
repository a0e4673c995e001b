package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSupplyNotFound    = errors.New("supply not found")
	ErrInvalidSupply     = errors.New("supply name is required and counts may not be negative")
	ErrInsufficientStock = errors.New("adjustment would leave negative stock")
	ErrInvalidState      = errors.New("invalid stock state")
	ErrInvalidAdjustment = errors.New("adjustment must be non-zero and within bounds")
)

// MaxAdjustment bounds a single stock movement in either direction.
const MaxAdjustment = 1_000_000

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Supply, error)
	Create(ctx context.Context, s *Supply) error
	List(ctx context.Context) ([]Supply, error)

	// AdjustQuantity adds delta to the stored quantity in one statement and
	// returns ErrInsufficientStock if the result would be negative.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*Supply, error)
}
