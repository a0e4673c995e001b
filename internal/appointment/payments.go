package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount        = errors.New("amount must be non-negative with at most two decimals")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

type RecordPaymentInput struct {
	AppointmentID uuid.UUID
	// TotalAmount falls back to the existing record, then to the service's
	// estimated price.
	TotalAmount *decimal.Decimal
	PaidAmount  decimal.Decimal
	Method      PaymentMethod
	Notes       string
}

// RecordPayment creates or replaces the payment record of an appointment.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (*Payment, error) {
	method := in.Method
	if method == "" {
		method = MethodCash
	}
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if !validAmount(in.PaidAmount) {
		return nil, ErrInvalidAmount
	}

	appt, err := s.repo.GetAppointmentByID(ctx, in.AppointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	total, err := s.resolveTotal(ctx, appt, in.TotalAmount)
	if err != nil {
		return nil, err
	}
	if !validAmount(total) {
		return nil, ErrInvalidAmount
	}

	p := &Payment{
		AppointmentID: appt.ID,
		TotalAmount:   total,
		PaidAmount:    in.PaidAmount,
		Method:        method,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if err := s.repo.UpsertPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	status := p.Status()
	s.logEvent(ctx, appt.ID, EventPaymentRecorded, map[string]any{
		"total_amount": p.TotalAmount.StringFixed(2),
		"paid_amount":  p.PaidAmount.StringFixed(2),
		"balance_due":  status.BalanceDue.StringFixed(2),
		"state":        status.State,
		"method":       p.Method,
	})

	return p, nil
}

func (s *Service) resolveTotal(ctx context.Context, appt *Appointment, given *decimal.Decimal) (decimal.Decimal, error) {
	if given != nil {
		return *given, nil
	}

	existing, err := s.repo.GetPayment(ctx, appt.ID)
	switch {
	case err == nil:
		return existing.TotalAmount, nil
	case !errors.Is(err, ErrPaymentNotFound):
		return decimal.Zero, fmt.Errorf("load payment: %w", err)
	}

	svc, err := s.loadService(ctx, appt.ServiceID)
	if err != nil {
		return decimal.Zero, err
	}
	if svc.EstimatedPrice == nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return *svc.EstimatedPrice, nil
}

// AddInstallment adds amount to the paid total of an existing payment.
func (s *Service) AddInstallment(ctx context.Context, appointmentID uuid.UUID, amount decimal.Decimal) (*Payment, error) {
	if !amount.IsPositive() || !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	current, err := s.repo.GetPayment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if current.PaidAmount.Add(amount).GreaterThan(maxAmount) {
		return nil, ErrInvalidAmount
	}

	p, err := s.repo.AddToPaidAmount(ctx, appointmentID, amount)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("add installment: %w", err)
	}

	status := p.Status()
	s.logEvent(ctx, appointmentID, EventPaymentInstallment, map[string]any{
		"amount":      amount.StringFixed(2),
		"paid_amount": p.PaidAmount.StringFixed(2),
		"balance_due": status.BalanceDue.StringFixed(2),
		"state":       status.State,
	})

	return p, nil
}

func (s *Service) GetPaymentStatus(ctx context.Context, appointmentID uuid.UUID) (*Payment, PaymentStatus, error) {
	p, err := s.repo.GetPayment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, PaymentStatus{}, err
		}
		return nil, PaymentStatus{}, fmt.Errorf("get payment: %w", err)
	}
	return p, p.Status(), nil
}
