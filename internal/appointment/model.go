package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether an appointment may move from one status to
// another. Keeping the same status is always allowed.
func CanTransition(from, to AppointmentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	ServiceID      uuid.UUID
	Date           Date
	Time           TimeOfDay
	Status         AppointmentStatus
	Notes          string
	ReminderSentAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (a Appointment) SlotKey() string {
	return SlotKey(a.Date, a.Time)
}

func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Patient       *account.Account
	Service       *catalog.DentalService
	Payment       *Payment
	PaymentStatus *PaymentStatus
}
