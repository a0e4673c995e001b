package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrInvalidService  = errors.New("service title is required and price may not be negative")
)

// DentalService is a treatment the clinic offers, e.g. "Endodoncia".
type DentalService struct {
	ID             uuid.UUID
	Title          string
	Description    string
	EstimatedPrice *decimal.Decimal
	CreatedAt      time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*DentalService, error)
	Create(ctx context.Context, s *DentalService) error
	// List returns services ordered by title. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]DentalService, error)
}
