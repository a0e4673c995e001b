package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/config"
	redisclient "github.com/clinica-jazmin/dental-ledger/internal/redis"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentUpdated       = "APPOINTMENT_UPDATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventPaymentRecorded          = "PAYMENT_RECORDED"
	EventPaymentInstallment       = "PAYMENT_INSTALLMENT"
	EventReminderGenerated        = "REMINDER_GENERATED"
)

var (
	ErrSlotAlreadyBooked       = errors.New("slot already has an appointment")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatus           = errors.New("invalid appointment status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrAppointmentClosed       = errors.New("completed or cancelled appointments cannot be rescheduled")
	ErrMissingSlot             = errors.New("date and time are required")
)

// SlotConflictError is returned when another appointment already holds the
// requested (date, time).
type SlotConflictError struct {
	Date Date
	Time TimeOfDay
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s %s is already booked", e.Date, e.Time)
}

func (e *SlotConflictError) Unwrap() error {
	return ErrSlotAlreadyBooked
}

type CreateAppointmentInput struct {
	PatientID uuid.UUID
	ServiceID uuid.UUID
	Date      Date
	Time      TimeOfDay
	Status    AppointmentStatus // defaults to pending
	Notes     string
}

// UpdateAppointmentInput carries the fields to change; nil means keep.
type UpdateAppointmentInput struct {
	ServiceID *uuid.UUID
	Date      *Date
	Time      *TimeOfDay
	Status    *AppointmentStatus
	Notes     *string
}

type StatusChangeResult struct {
	ID          uuid.UUID
	Appointment *Appointment
	Err         error
}

type Service struct {
	repo     Repository
	patients PatientLookup
	services ServiceLookup
	locker   redisclient.Locker
	cfg      config.Config
	log      *zap.Logger
}

func NewService(repo Repository, patients PatientLookup, services ServiceLookup, locker redisclient.Locker, cfg config.Config, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		services: services,
		locker:   locker,
		cfg:      cfg,
		log:      log,
	}
}

func (s *Service) loadPatient(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !p.IsPatient() {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (s *Service) loadService(ctx context.Context, id uuid.UUID) (*catalog.DentalService, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	return svc, nil
}

// withSlot runs fn while holding the slot lock. If Redis cannot be reached the
// write still goes ahead; the unique slot index rejects a racing duplicate.
func (s *Service) withSlot(ctx context.Context, d Date, t TimeOfDay, fn func(ctx context.Context) error) error {
	err := s.locker.WithSlotLock(ctx, SlotKey(d, t), fn)
	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		return ErrSlotBeingBooked
	case errors.Is(err, redisclient.ErrLockUnavailable):
		s.log.Warn("slot lock unavailable, relying on store constraint",
			zap.String("slot", SlotKey(d, t)),
			zap.Error(err),
		)
		return fn(ctx)
	}
	return err
}

// checkSlot is the conflict scan. The record being written is excluded by id
// so that re-saving it unchanged succeeds.
func (s *Service) checkSlot(ctx context.Context, d Date, t TimeOfDay, self *uuid.UUID) error {
	existing, err := s.repo.FindSlotConflict(ctx, SlotQuery{
		Date:             d,
		Time:             t,
		ExcludeID:        self,
		ExcludeCancelled: s.cfg.ExcludeCancelled,
	})
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return fmt.Errorf("check slot conflict: %w", err)
	}
	if existing != nil {
		return &SlotConflictError{Date: d, Time: t}
	}
	return nil
}

// CreateAppointment books a slot for a patient. The conflict check and the
// insert run under the slot lock; the store's unique index backs both.
func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, error) {
	status := in.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if in.Date.IsZero() || !in.Time.Valid() {
		return nil, ErrMissingSlot
	}

	if _, err := s.loadPatient(ctx, in.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.loadService(ctx, in.ServiceID); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:        uuid.New(),
		PatientID: in.PatientID,
		ServiceID: in.ServiceID,
		Date:      in.Date,
		Time:      in.Time,
		Status:    status,
		Notes:     strings.TrimSpace(in.Notes),
	}

	err := s.withSlot(ctx, in.Date, in.Time, func(lockCtx context.Context) error {
		if err := s.checkSlot(lockCtx, in.Date, in.Time, nil); err != nil {
			return err
		}

		if err := s.repo.CreateAppointment(lockCtx, appt); err != nil {
			if errors.Is(err, ErrSlotAlreadyBooked) {
				return &SlotConflictError{Date: in.Date, Time: in.Time}
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"patient_id": appt.PatientID.String(),
			"service_id": appt.ServiceID.String(),
			"slot":       appt.SlotKey(),
			"status":     appt.Status,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return appt, nil
}

// UpdateAppointment edits an appointment. Moving it to another slot goes
// through the same conflict check as a new booking, excluding itself.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in UpdateAppointmentInput) (*Appointment, error) {
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	next := *current
	if in.ServiceID != nil {
		next.ServiceID = *in.ServiceID
	}
	if in.Date != nil {
		next.Date = *in.Date
	}
	if in.Time != nil {
		next.Time = *in.Time
	}
	if in.Notes != nil {
		next.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if !CanTransition(current.Status, *in.Status) {
			return nil, ErrInvalidStatusTransition
		}
		next.Status = *in.Status
	}

	if next.Date.IsZero() || !next.Time.Valid() {
		return nil, ErrMissingSlot
	}
	slotChanged := next.Date != current.Date || next.Time != current.Time
	if slotChanged && current.Status.Terminal() {
		return nil, ErrAppointmentClosed
	}
	if next.ServiceID != current.ServiceID {
		if _, err := s.loadService(ctx, next.ServiceID); err != nil {
			return nil, err
		}
	}

	write := func(writeCtx context.Context) error {
		if next.Status != StatusCancelled || slotChanged {
			if err := s.checkSlot(writeCtx, next.Date, next.Time, &next.ID); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateAppointment(writeCtx, &next); err != nil {
			if errors.Is(err, ErrSlotAlreadyBooked) {
				return &SlotConflictError{Date: next.Date, Time: next.Time}
			}
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return fmt.Errorf("update appointment: %w", err)
		}
		return nil
	}

	if err := s.withSlot(ctx, next.Date, next.Time, write); err != nil {
		return nil, err
	}

	payload := map[string]any{"slot": next.SlotKey()}
	if slotChanged {
		payload["previous_slot"] = current.SlotKey()
	}
	if next.Status != current.Status {
		payload["from"] = current.Status
		payload["to"] = next.Status
	}
	s.logEvent(ctx, next.ID, EventAppointmentUpdated, payload)

	return &next, nil
}

// ChangeStatus applies a single lifecycle transition.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status == to {
		return appt, nil
	}
	if !CanTransition(appt.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// status moved underneath us
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("change appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, map[string]any{
		"from": appt.Status,
		"to":   to,
	})

	return updated, nil
}

// BulkChangeStatus applies the same transition to each id independently.
// Results keep the order of ids.
func (s *Service) BulkChangeStatus(ctx context.Context, ids []uuid.UUID, to AppointmentStatus) ([]StatusChangeResult, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	results := make([]StatusChangeResult, 0, len(ids))
	for _, id := range ids {
		appt, err := s.ChangeStatus(ctx, id, to)
		results = append(results, StatusChangeResult{ID: id, Appointment: appt, Err: err})
	}
	return results, nil
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	detail := &AppointmentDetail{Appointment: *appt}

	if p, err := s.patients.GetByID(ctx, appt.PatientID); err == nil {
		detail.Patient = p
	} else if !errors.Is(err, account.ErrAccountNotFound) {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if svc, err := s.services.GetByID(ctx, appt.ServiceID); err == nil {
		detail.Service = svc
	} else if !errors.Is(err, catalog.ErrServiceNotFound) {
		return nil, fmt.Errorf("load service: %w", err)
	}

	payment, err := s.repo.GetPayment(ctx, appt.ID)
	switch {
	case err == nil:
		status := payment.Status()
		detail.Payment = payment
		detail.PaymentStatus = &status
	case !errors.Is(err, ErrPaymentNotFound):
		return nil, fmt.Errorf("load payment: %w", err)
	}

	return detail, nil
}

// ListAppointments lists appointments in (date, time) order.
func (s *Service) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	if f.Limit <= 0 {
		f.Limit = 20 // default
	}
	if f.Limit > 100 {
		f.Limit = 100 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Order != OrderDesc {
		f.Order = OrderAsc
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	appointments, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
