package appointment

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/config"
	redisclient "github.com/clinica-jazmin/dental-ledger/internal/redis"
)

// fakeRepo keeps appointments in memory and rejects a second active
// appointment for a slot the way the partial unique index does.
type fakeRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]Appointment
	payments     map[uuid.UUID]Payment
	events       []EventLog

	// blindConflictScan makes FindSlotConflict always report a free slot,
	// leaving only the store constraint in the way.
	blindConflictScan bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appointments: make(map[uuid.UUID]Appointment),
		payments:     make(map[uuid.UUID]Payment),
	}
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeRepo) FindSlotConflict(_ context.Context, q SlotQuery) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.blindConflictScan {
		return nil, ErrAppointmentNotFound
	}
	for _, a := range f.sorted() {
		if a.Date != q.Date || a.Time != q.Time {
			continue
		}
		if q.ExcludeID != nil && a.ID == *q.ExcludeID {
			continue
		}
		if q.ExcludeCancelled && a.Status == StatusCancelled {
			continue
		}
		return &a, nil
	}
	return nil, ErrAppointmentNotFound
}

// activeClash mirrors appointments_active_slot_key.
func (f *fakeRepo) activeClash(a *Appointment) bool {
	if a.Status == StatusCancelled {
		return false
	}
	for id, other := range f.appointments {
		if id == a.ID || other.Status == StatusCancelled {
			continue
		}
		if other.Date == a.Date && other.Time == a.Time {
			return true
		}
	}
	return false
}

func (f *fakeRepo) CreateAppointment(_ context.Context, a *Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.activeClash(a) {
		return ErrSlotAlreadyBooked
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	f.appointments[a.ID] = *a
	return nil
}

func (f *fakeRepo) UpdateAppointment(_ context.Context, a *Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.appointments[a.ID]; !ok {
		return ErrAppointmentNotFound
	}
	if f.activeClash(a) {
		return ErrSlotAlreadyBooked
	}
	a.UpdatedAt = time.Now()
	f.appointments[a.ID] = *a
	return nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	if f.activeClash(&a) {
		return nil, ErrSlotAlreadyBooked
	}
	a.UpdatedAt = time.Now()
	f.appointments[id] = a
	return &a, nil
}

func (f *fakeRepo) sorted() []Appointment {
	out := make([]Appointment, 0, len(f.appointments))
	for _, a := range f.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Time().Before(out[j].Date.Time())
		}
		if out[i].Time != out[j].Time {
			return out[i].Time.SinceMidnight() < out[j].Time.SinceMidnight()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *fakeRepo) ListAppointments(_ context.Context, lf ListFilter) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := f.sorted()
	if lf.Order == OrderDesc {
		sort.SliceStable(all, func(i, j int) bool {
			return all[i].Date.Time().After(all[j].Date.Time())
		})
	}

	var out []Appointment
	for _, a := range all {
		if lf.PatientID != nil && a.PatientID != *lf.PatientID {
			continue
		}
		if lf.Status != nil && a.Status != *lf.Status {
			continue
		}
		if lf.Date != nil && a.Date != *lf.Date {
			continue
		}
		out = append(out, a)
	}

	if lf.Offset >= len(out) {
		return nil, nil
	}
	out = out[lf.Offset:]
	if len(out) > lf.Limit {
		out = out[:lf.Limit]
	}
	return out, nil
}

func (f *fakeRepo) ListReminderCandidates(_ context.Context, day Date) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Appointment
	for _, a := range f.sorted() {
		if a.Date == day && a.ReminderSentAt == nil && (a.Status == StatusPending || a.Status == StatusConfirmed) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appointments[id]
	if !ok || a.ReminderSentAt != nil {
		return false, nil
	}
	a.ReminderSentAt = &at
	f.appointments[id] = a
	return true, nil
}

func (f *fakeRepo) GetPayment(_ context.Context, appointmentID uuid.UUID) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[appointmentID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &p, nil
}

func (f *fakeRepo) UpsertPayment(_ context.Context, p *Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if existing, ok := f.payments[p.AppointmentID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	f.payments[p.AppointmentID] = *p
	return nil
}

func (f *fakeRepo) AddToPaidAmount(_ context.Context, appointmentID uuid.UUID, amount decimal.Decimal) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[appointmentID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	p.PaidAmount = p.PaidAmount.Add(amount)
	p.UpdatedAt = time.Now()
	f.payments[appointmentID] = p
	return &p, nil
}

func (f *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRepo) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.EventType)
	}
	return out
}

type fakeAccounts map[uuid.UUID]*account.Account

func (f fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := f[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return a, nil
}

type fakeCatalog map[uuid.UUID]*catalog.DentalService

func (f fakeCatalog) GetByID(_ context.Context, id uuid.UUID) (*catalog.DentalService, error) {
	s, ok := f[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return s, nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	redis    *miniredis.Miniredis
	accounts fakeAccounts
	catalog  fakeCatalog

	patientA uuid.UUID
	patientB uuid.UUID
	staff    uuid.UUID
	cleaning uuid.UUID
	freebie  uuid.UUID
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{
		LockTTL:             5 * time.Second,
		ReminderCountryCode: "51",
	}
	for _, m := range mutate {
		m(&cfg)
	}

	phone := "987 654 321"
	price := decimal.RequireFromString("80.00")

	fx := &fixture{
		repo:     newFakeRepo(),
		redis:    mr,
		accounts: fakeAccounts{},
		catalog:  fakeCatalog{},
		patientA: uuid.New(),
		patientB: uuid.New(),
		staff:    uuid.New(),
		cleaning: uuid.New(),
		freebie:  uuid.New(),
	}
	fx.accounts[fx.patientA] = &account.Account{ID: fx.patientA, FirstName: "Ana", LastName: "Quispe", Phone: &phone, Role: account.RolePatient, Active: true}
	fx.accounts[fx.patientB] = &account.Account{ID: fx.patientB, FirstName: "Luis", LastName: "Rojas", Role: account.RolePatient, Active: true}
	fx.accounts[fx.staff] = &account.Account{ID: fx.staff, FirstName: "Dra.", LastName: "Jazmin", Role: account.RoleStaff, Active: true}
	fx.catalog[fx.cleaning] = &catalog.DentalService{ID: fx.cleaning, Title: "Limpieza dental", EstimatedPrice: &price}
	fx.catalog[fx.freebie] = &catalog.DentalService{ID: fx.freebie, Title: "Evaluación"}

	locker := redisclient.NewRedisSlotLocker(client, cfg.LockTTL)
	fx.svc = NewService(fx.repo, fx.accounts, fx.catalog, locker, cfg, zap.NewNop())
	return fx
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return tod
}

func (fx *fixture) book(t *testing.T, patient uuid.UUID, date, tod string) *Appointment {
	t.Helper()
	appt, err := fx.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		PatientID: patient,
		ServiceID: fx.cleaning,
		Date:      mustDate(t, date),
		Time:      mustTime(t, tod),
	})
	if err != nil {
		t.Fatalf("book %s %s: %v", date, tod, err)
	}
	return appt
}
