package appointment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderLink(t *testing.T) {
	link := ReminderLink("+51", "987 654-321", "Hola Ana, cita 15:30")
	assert.Equal(t, "https://wa.me/51987654321?text=Hola%20Ana%2C%20cita%2015%3A30", link)
}

func TestReminderLink_PlaceholderPhone(t *testing.T) {
	link := ReminderLink("51", "", "x")
	assert.Equal(t, "https://wa.me/51999999999?text=x", link)
}

func TestGenerateReminders(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	withPhone := fx.book(t, fx.patientA, "2026-02-14", "09:00")
	noPhone := fx.book(t, fx.patientB, "2026-02-14", "10:00")
	cancelled := fx.book(t, fx.patientB, "2026-02-14", "11:00")
	_, err := fx.svc.ChangeStatus(ctx, cancelled.ID, StatusCancelled)
	require.NoError(t, err)
	fx.book(t, fx.patientA, "2026-02-15", "09:00")

	reminders, err := fx.svc.GenerateReminders(ctx, mustDate(t, "2026-02-14"))
	require.NoError(t, err)
	require.Len(t, reminders, 2)

	assert.Equal(t, withPhone.ID, reminders[0].AppointmentID)
	assert.Equal(t, "987654321", reminders[0].Phone)
	assert.Equal(t, "Hola Ana Quispe, le recordamos su cita de Limpieza dental para el 2026-02-14 a las 09:00.", reminders[0].Message)
	assert.Contains(t, reminders[0].Link, "https://wa.me/51987654321?text=Hola%20Ana%20Quispe")

	assert.Equal(t, noPhone.ID, reminders[1].AppointmentID)
	assert.Equal(t, PlaceholderPhone, reminders[1].Phone)

	again, err := fx.svc.GenerateReminders(ctx, mustDate(t, "2026-02-14"))
	require.NoError(t, err)
	assert.Empty(t, again)
}
