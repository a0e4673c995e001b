package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateInput struct {
	Title          string
	Description    string
	EstimatedPrice *decimal.Decimal
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*DentalService, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 100 {
		return nil, ErrInvalidService
	}
	if in.EstimatedPrice != nil && in.EstimatedPrice.IsNegative() {
		return nil, ErrInvalidService
	}

	svc := &DentalService{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
	}
	if in.EstimatedPrice != nil {
		p := in.EstimatedPrice.Round(2)
		svc.EstimatedPrice = &p
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	s.log.Info("dental service created", zap.String("service_id", svc.ID.String()), zap.String("title", svc.Title))
	return svc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*DentalService, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]DentalService, error) {
	services, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// ListFirst returns at most n services in title order.
func (s *Service) ListFirst(ctx context.Context, n int) ([]DentalService, error) {
	if n <= 0 {
		return nil, nil
	}
	services, err := s.repo.List(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}
