package appointment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
)

// PlaceholderPhone is dialed when a patient has no phone on file.
const PlaceholderPhone = "999999999"

type Reminder struct {
	AppointmentID uuid.UUID
	PatientName   string
	Phone         string
	Message       string
	Link          string
}

// ReminderLink builds a WhatsApp click-to-chat link.
func ReminderLink(countryCode, phone, message string) string {
	digits := onlyDigits(phone)
	if digits == "" {
		digits = PlaceholderPhone
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s%s?text=%s", onlyDigits(countryCode), digits, text)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func reminderMessage(patient, service string, d Date, t TimeOfDay) string {
	return fmt.Sprintf("Hola %s, le recordamos su cita de %s para el %s a las %s.", patient, service, d, t)
}

// GenerateReminders builds a link for each open appointment on day that has
// not been reminded yet. An appointment claimed by a concurrent run is skipped.
func (s *Service) GenerateReminders(ctx context.Context, day Date) ([]Reminder, error) {
	candidates, err := s.repo.ListReminderCandidates(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}

	reminders := make([]Reminder, 0, len(candidates))
	for _, appt := range candidates {
		r, err := s.buildReminder(ctx, appt)
		if err != nil {
			s.log.Warn("skip reminder",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err),
			)
			continue
		}

		claimed, err := s.repo.MarkReminderSent(ctx, appt.ID, time.Now())
		if err != nil {
			return reminders, err
		}
		if !claimed {
			continue
		}

		s.logEvent(ctx, appt.ID, EventReminderGenerated, map[string]any{
			"phone": r.Phone,
			"link":  r.Link,
		})
		reminders = append(reminders, r)
	}

	return reminders, nil
}

func (s *Service) buildReminder(ctx context.Context, appt Appointment) (Reminder, error) {
	patient, err := s.patients.GetByID(ctx, appt.PatientID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return Reminder{}, ErrPatientNotFound
		}
		return Reminder{}, fmt.Errorf("load patient: %w", err)
	}
	svc, err := s.loadService(ctx, appt.ServiceID)
	if err != nil {
		return Reminder{}, err
	}

	phone := PlaceholderPhone
	if patient.Phone != nil && onlyDigits(*patient.Phone) != "" {
		phone = onlyDigits(*patient.Phone)
	}

	msg := reminderMessage(patient.FullName(), svc.Title, appt.Date, appt.Time)
	return Reminder{
		AppointmentID: appt.ID,
		PatientName:   patient.FullName(),
		Phone:         phone,
		Message:       msg,
		Link:          ReminderLink(s.cfg.ReminderCountryCode, phone, msg),
	}, nil
}
