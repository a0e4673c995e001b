package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateInput struct {
	Name             string
	Unit             string
	Quantity         int
	ReorderThreshold int
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Supply, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Quantity < 0 || in.ReorderThreshold < 0 {
		return nil, ErrInvalidSupply
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "unit"
	}

	supply := &Supply{
		ID:               uuid.New(),
		Name:             name,
		Unit:             unit,
		Quantity:         in.Quantity,
		ReorderThreshold: in.ReorderThreshold,
	}
	if err := s.repo.Create(ctx, supply); err != nil {
		return nil, fmt.Errorf("create supply: %w", err)
	}
	return supply, nil
}

// List returns supplies, optionally only those in state.
func (s *Service) List(ctx context.Context, state StockState) ([]Supply, error) {
	if state != "" && !state.Valid() {
		return nil, ErrInvalidState
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list supplies: %w", err)
	}
	if state == "" {
		return all, nil
	}

	var out []Supply
	for _, item := range all {
		if item.State() == state {
			out = append(out, item)
		}
	}
	return out, nil
}

// ListNeedingReorder returns every supply at or below its threshold.
func (s *Service) ListNeedingReorder(ctx context.Context) ([]Supply, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list supplies: %w", err)
	}

	var out []Supply
	for _, item := range all {
		if item.NeedsReorder() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Service) Adjust(ctx context.Context, id uuid.UUID, delta int) (*Supply, error) {
	if delta == 0 || delta > MaxAdjustment || delta < -MaxAdjustment {
		return nil, ErrInvalidAdjustment
	}
	supply, err := s.repo.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	if supply.NeedsReorder() {
		s.log.Warn("supply needs reorder",
			zap.String("supply_id", supply.ID.String()),
			zap.String("name", supply.Name),
			zap.Int("quantity", supply.Quantity),
			zap.String("state", string(supply.State())),
		)
	}
	return supply, nil
}
