package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinica-jazmin/dental-ledger/internal/db"
)

const activeSlotIndex = "appointments_active_slot_key"

const appointmentColumns = `id, patient_id, service_id, date, time, status, notes, reminder_sent_at, created_at, updated_at`

const paymentColumns = `appointment_id, total_amount::text, paid_amount::text, method, notes, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func pgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.SinceMidnight().Microseconds(), Valid: true}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	var tod pgtype.Time
	var reminderSentAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ServiceID,
		&date,
		&tod,
		&a.Status,
		&a.Notes,
		&reminderSentAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = DateOf(date)
	a.Time = TimeOfDayFromOffset(time.Duration(tod.Microseconds) * time.Microsecond)
	a.ReminderSentAt = reminderSentAt
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
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

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var total, paid string

	err := row.Scan(
		&p.AppointmentID,
		&total,
		&paid,
		&p.Method,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if p.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total_amount %q: %w", total, err)
	}
	if p.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("parse paid_amount %q: %w", paid, err)
	}
	return &p, nil
}

func translateSlotError(err error) error {
	if db.IsUniqueViolation(err, activeSlotIndex) {
		return ErrSlotAlreadyBooked
	}
	return err
}

// Interface methods

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindSlotConflict(ctx context.Context, q SlotQuery) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1
		  AND time = $2
		  AND ($3::uuid IS NULL OR id <> $3)
		  AND (NOT $4 OR status <> 'cancelled')
		ORDER BY created_at
		LIMIT 1
	`, q.Date.Time(), pgTime(q.Time), q.ExcludeID, q.ExcludeCancelled)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, service_id, date, time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at
	`, a.ID, a.PatientID, a.ServiceID, a.Date.Time(), pgTime(a.Time), a.Status, a.Notes).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return translateSlotError(err)
	}
	return nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET service_id = $2,
		    date = $3,
		    time = $4,
		    status = $5,
		    notes = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, a.ID, a.ServiceID, a.Date.Time(), pgTime(a.Time), a.Status, a.Notes).
		Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		return translateSlotError(err)
	}
	return nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	a, err := scanAppointment(row)
	if err != nil {
		return nil, translateSlotError(err)
	}
	return a, nil
}

func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	orderBy := "date ASC, time ASC"
	if f.Order == OrderDesc {
		orderBy = "date DESC, time ASC"
	}

	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	var date *time.Time
	if f.Date != nil {
		d := f.Date.Time()
		date = &d
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1::uuid IS NULL OR patient_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::date IS NULL OR date = $3)
		ORDER BY `+orderBy+`, created_at
		LIMIT $4 OFFSET $5
	`, f.PatientID, status, date, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListReminderCandidates(ctx context.Context, day Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1
		  AND status IN ('pending', 'confirmed')
		  AND reminder_sent_at IS NULL
		ORDER BY time
	`, day.Time())
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent_at = $2
		WHERE id = $1
		  AND reminder_sent_at IS NULL
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgRepository) GetPayment(ctx context.Context, appointmentID uuid.UUID) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE appointment_id = $1
	`, appointmentID)
	return scanPayment(row)
}

func (r *PgRepository) UpsertPayment(ctx context.Context, p *Payment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO payments (appointment_id, total_amount, paid_amount, method, notes, created_at, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, $4, $5, now(), now())
		ON CONFLICT (appointment_id) DO UPDATE
		SET total_amount = EXCLUDED.total_amount,
		    paid_amount = EXCLUDED.paid_amount,
		    method = EXCLUDED.method,
		    notes = EXCLUDED.notes,
		    updated_at = now()
		RETURNING created_at, updated_at
	`, p.AppointmentID, p.TotalAmount.StringFixed(2), p.PaidAmount.StringFixed(2), p.Method, p.Notes).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PgRepository) AddToPaidAmount(ctx context.Context, appointmentID uuid.UUID, amount decimal.Decimal) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE payments
		SET paid_amount = paid_amount + $2::numeric,
		    updated_at = now()
		WHERE appointment_id = $1
		RETURNING `+paymentColumns+`
	`, appointmentID, amount.StringFixed(2))
	return scanPayment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
