package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPaymentNotFound     = errors.New("payment not found")
)

// SlotQuery asks for an appointment occupying Date/Time other than ExcludeID.
type SlotQuery struct {
	Date             Date
	Time             TimeOfDay
	ExcludeID        *uuid.UUID
	ExcludeCancelled bool
}

type ListOrder string

const (
	OrderAsc ListOrder = "asc"
	// OrderDesc lists the latest days first, each day in time order.
	OrderDesc ListOrder = "desc"
)

type ListFilter struct {
	PatientID *uuid.UUID
	Status    *AppointmentStatus
	Date      *Date
	Order     ListOrder
	Limit     int
	Offset    int
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks. Returns ErrAppointmentNotFound when the slot is free.
	FindSlotConflict(ctx context.Context, q SlotQuery) (*Appointment, error)

	// Creation and updates. Both return ErrSlotAlreadyBooked when the store
	// itself rejects a second active appointment for the slot.
	CreateAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error)

	// Reminders
	ListReminderCandidates(ctx context.Context, day Date) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// Payments
	GetPayment(ctx context.Context, appointmentID uuid.UUID) (*Payment, error)
	UpsertPayment(ctx context.Context, p *Payment) error
	AddToPaidAmount(ctx context.Context, appointmentID uuid.UUID, amount decimal.Decimal) (*Payment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

// PatientLookup resolves the account behind Appointment.PatientID.
type PatientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// ServiceLookup resolves the dental service behind Appointment.ServiceID.
type ServiceLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.DentalService, error)
}
