package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinica-jazmin/dental-ledger/internal/config"
)

func TestCreateAppointment_DefaultsToPending(t *testing.T) {
	fx := newFixture(t)

	appt := fx.book(t, fx.patientA, "2026-02-14", "15:30")

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, "2026-02-14T15:30", appt.SlotKey())
	assert.Equal(t, []string{EventAppointmentCreated}, fx.repo.eventTypes())
}

func TestCreateAppointment_SameSlotDifferentPatientConflicts(t *testing.T) {
	fx := newFixture(t)
	fx.book(t, fx.patientA, "2026-02-14", "15:30")

	_, err := fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		PatientID: fx.patientB,
		ServiceID: fx.cleaning,
		Date:      mustDate(t, "2026-02-14"),
		Time:      mustTime(t, "15:30"),
	})

	var conflict *SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	assert.Equal(t, "2026-02-14", conflict.Date.String())
	assert.Equal(t, "15:30", conflict.Time.String())
}

func TestCreateAppointment_AdjacentSlotsAreIndependent(t *testing.T) {
	fx := newFixture(t)
	fx.book(t, fx.patientA, "2026-02-14", "15:30")

	fx.book(t, fx.patientB, "2026-02-14", "16:00")
	fx.book(t, fx.patientB, "2026-02-15", "15:30")
}

func TestCreateAppointment_SecondsAreTruncated(t *testing.T) {
	fx := newFixture(t)
	fx.book(t, fx.patientA, "2026-02-14", "15:30")

	_, err := fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		PatientID: fx.patientB,
		ServiceID: fx.cleaning,
		Date:      mustDate(t, "2026-02-14"),
		Time:      mustTime(t, "15:30:45"),
	})
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestCreateAppointment_CancelledBlocksByDefault(t *testing.T) {
	fx := newFixture(t)
	first := fx.book(t, fx.patientA, "2026-02-14", "15:30")
	_, err := fx.svc.ChangeStatus(context.Background(), first.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		PatientID: fx.patientB,
		ServiceID: fx.cleaning,
		Date:      mustDate(t, "2026-02-14"),
		Time:      mustTime(t, "15:30"),
	})
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestCreateAppointment_CancelledFreesSlotWhenExcluded(t *testing.T) {
	fx := newFixture(t, func(c *config.Config) { c.ExcludeCancelled = true })
	first := fx.book(t, fx.patientA, "2026-02-14", "15:30")
	_, err := fx.svc.ChangeStatus(context.Background(), first.ID, StatusCancelled)
	require.NoError(t, err)

	second := fx.book(t, fx.patientB, "2026-02-14", "15:30")
	assert.Equal(t, StatusPending, second.Status)
}

func TestCreateAppointment_StoreRejectionBecomesConflict(t *testing.T) {
	fx := newFixture(t)
	fx.book(t, fx.patientA, "2026-02-14", "15:30")
	fx.repo.blindConflictScan = true

	_, err := fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		PatientID: fx.patientB,
		ServiceID: fx.cleaning,
		Date:      mustDate(t, "2026-02-14"),
		Time:      mustTime(t, "15:30"),
	})

	var conflict *SlotConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestCreateAppointment_ValidatesReferences(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	date, tod := mustDate(t, "2026-02-14"), mustTime(t, "09:00")

	_, err := fx.svc.CreateAppointment(ctx, CreateAppointmentInput{PatientID: uuid.New(), ServiceID: fx.cleaning, Date: date, Time: tod})
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = fx.svc.CreateAppointment(ctx, CreateAppointmentInput{PatientID: fx.staff, ServiceID: fx.cleaning, Date: date, Time: tod})
	assert.ErrorIs(t, err, ErrPatientNotFound, "staff accounts cannot be booked as patients")

	_, err = fx.svc.CreateAppointment(ctx, CreateAppointmentInput{PatientID: fx.patientA, ServiceID: uuid.New(), Date: date, Time: tod})
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = fx.svc.CreateAppointment(ctx, CreateAppointmentInput{PatientID: fx.patientA, ServiceID: fx.cleaning, Date: date, Time: tod, Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = fx.svc.CreateAppointment(ctx, CreateAppointmentInput{PatientID: fx.patientA, ServiceID: fx.cleaning, Time: tod})
	assert.ErrorIs(t, err, ErrMissingSlot)
}

func TestCreateAppointment_HeldLockReportsBeingBooked(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.redis.Set("lock:slot:2026-02-14T15:30", "someone-else"))

	_, err := fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		PatientID: fx.patientA,
		ServiceID: fx.cleaning,
		Date:      mustDate(t, "2026-02-14"),
		Time:      mustTime(t, "15:30"),
	})
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
}

func TestCreateAppointment_RedisDownFallsBackToStore(t *testing.T) {
	fx := newFixture(t)
	fx.book(t, fx.patientA, "2026-02-14", "15:30")
	fx.redis.Close()

	appt := fx.book(t, fx.patientB, "2026-02-14", "16:30")
	assert.Equal(t, StatusPending, appt.Status)

	_, err := fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		PatientID: fx.patientB,
		ServiceID: fx.cleaning,
		Date:      mustDate(t, "2026-02-14"),
		Time:      mustTime(t, "15:30"),
	})
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestCreateAppointment_ConcurrentBookingsOneWinner(t *testing.T) {
	fx := newFixture(t)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
				PatientID: fx.patientA,
				ServiceID: fx.cleaning,
				Date:      Date{Year: 2026, Month: 3, Day: 2},
				Time:      TimeOfDay{Hour: 10},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrSlotAlreadyBooked) && !errors.Is(err, ErrSlotBeingBooked) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestUpdateAppointment_ResaveSameSlotSucceeds(t *testing.T) {
	fx := newFixture(t)
	appt := fx.book(t, fx.patientA, "2026-02-14", "15:30")

	notes := "trae radiografía"
	updated, err := fx.svc.UpdateAppointment(context.Background(), appt.ID, UpdateAppointmentInput{Notes: &notes})

	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, appt.SlotKey(), updated.SlotKey())
}

func TestUpdateAppointment_MoveOntoTakenSlotConflicts(t *testing.T) {
	fx := newFixture(t)
	fx.book(t, fx.patientA, "2026-02-14", "15:30")
	other := fx.book(t, fx.patientB, "2026-02-14", "16:00")

	taken := mustTime(t, "15:30")
	_, err := fx.svc.UpdateAppointment(context.Background(), other.ID, UpdateAppointmentInput{Time: &taken})

	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestUpdateAppointment_MoveToFreeSlot(t *testing.T) {
	fx := newFixture(t)
	appt := fx.book(t, fx.patientA, "2026-02-14", "15:30")

	d, tod := mustDate(t, "2026-02-20"), mustTime(t, "08:00")
	moved, err := fx.svc.UpdateAppointment(context.Background(), appt.ID, UpdateAppointmentInput{Date: &d, Time: &tod})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-20T08:00", moved.SlotKey())

	fx.book(t, fx.patientB, "2026-02-14", "15:30")
}

func TestUpdateAppointment_ClosedCannotBeRescheduled(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	appt := fx.book(t, fx.patientA, "2026-02-14", "15:30")
	_, err := fx.svc.ChangeStatus(ctx, appt.ID, StatusCancelled)
	require.NoError(t, err)

	d := mustDate(t, "2026-02-21")
	_, err = fx.svc.UpdateAppointment(ctx, appt.ID, UpdateAppointmentInput{Date: &d})
	assert.ErrorIs(t, err, ErrAppointmentClosed)
}

func TestUpdateAppointment_RejectsBadTransition(t *testing.T) {
	fx := newFixture(t)
	appt := fx.book(t, fx.patientA, "2026-02-14", "15:30")

	completed := StatusCompleted
	_, err := fx.svc.UpdateAppointment(context.Background(), appt.ID, UpdateAppointmentInput{Status: &completed})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdateAppointment_NotFound(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.UpdateAppointment(context.Background(), uuid.New(), UpdateAppointmentInput{})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestChangeStatus_Lifecycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	appt := fx.book(t, fx.patientA, "2026-02-14", "15:30")

	confirmed, err := fx.svc.ChangeStatus(ctx, appt.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	again, err := fx.svc.ChangeStatus(ctx, appt.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, again.Status)

	completed, err := fx.svc.ChangeStatus(ctx, appt.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = fx.svc.ChangeStatus(ctx, appt.ID, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = fx.svc.ChangeStatus(ctx, appt.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.Equal(t, []string{
		EventAppointmentCreated,
		EventAppointmentStatusChanged,
		EventAppointmentStatusChanged,
	}, fx.repo.eventTypes())
}

func TestBulkChangeStatus_ReportsPerID(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	a := fx.book(t, fx.patientA, "2026-02-14", "09:00")
	b := fx.book(t, fx.patientB, "2026-02-14", "10:00")
	_, err := fx.svc.ChangeStatus(ctx, b.ID, StatusCancelled)
	require.NoError(t, err)
	missing := uuid.New()

	results, err := fx.svc.BulkChangeStatus(ctx, []uuid.UUID{a.ID, b.ID, missing}, StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, StatusConfirmed, results[0].Appointment.Status)
	assert.ErrorIs(t, results[1].Err, ErrInvalidStatusTransition)
	assert.ErrorIs(t, results[2].Err, ErrAppointmentNotFound)
	assert.Equal(t, missing, results[2].ID)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestListAppointments_OrderAndFilters(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.book(t, fx.patientA, "2026-02-15", "09:00")
	fx.book(t, fx.patientB, "2026-02-14", "16:00")
	fx.book(t, fx.patientA, "2026-02-14", "08:30")

	all, err := fx.svc.ListAppointments(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-02-14T08:30", all[0].SlotKey())
	assert.Equal(t, "2026-02-14T16:00", all[1].SlotKey())
	assert.Equal(t, "2026-02-15T09:00", all[2].SlotKey())

	desc, err := fx.svc.ListAppointments(ctx, ListFilter{Order: OrderDesc})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-15T09:00", desc[0].SlotKey())
	assert.Equal(t, "2026-02-14T08:30", desc[1].SlotKey())

	mine, err := fx.svc.ListAppointments(ctx, ListFilter{PatientID: &fx.patientA})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	bad := AppointmentStatus("later")
	_, err = fx.svc.ListAppointments(ctx, ListFilter{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGetAppointment_Hydrates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	appt := fx.book(t, fx.patientA, "2026-02-14", "15:30")

	detail, err := fx.svc.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Patient)
	require.NotNil(t, detail.Service)
	assert.Equal(t, "Ana Quispe", detail.Patient.FullName())
	assert.Equal(t, "Limpieza dental", detail.Service.Title)
	assert.Nil(t, detail.Payment)

	_, err = fx.svc.GetAppointment(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
