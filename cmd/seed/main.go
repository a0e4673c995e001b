package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/config"
	"github.com/clinica-jazmin/dental-ledger/internal/db"
	"github.com/clinica-jazmin/dental-ledger/internal/inventory"
	"github.com/clinica-jazmin/dental-ledger/internal/logger"
	redisclient "github.com/clinica-jazmin/dental-ledger/internal/redis"
)

type serviceSeed struct {
	title       string
	description string
	price       string
}

var serviceSeeds = []serviceSeed{
	{"Ortodoncia (Brackets)", "Corrección de la alineación de los dientes y mordida.", "150.00"},
	{"Endodoncia", "Tratamiento de conducto para salvar piezas dentales dañadas.", "300.00"},
	{"Profilaxis (Limpieza)", "Limpieza profunda con ultrasonido y flúor.", "50.00"},
	{"Blanqueamiento LED", "Aclara tus dientes hasta 3 tonos en una sesión.", "250.00"},
	{"Curación con Resina", "Restauración estética de caries con material 3M.", "70.00"},
	{"Odontopediatría", "Atención especializada y amigable para niños.", "60.00"},
}

var supplySeeds = []inventory.CreateInput{
	{Name: "Guantes de nitrilo", Unit: "caja", Quantity: 12, ReorderThreshold: 5},
	{Name: "Anestesia lidocaína", Unit: "cartucho", Quantity: 40, ReorderThreshold: 20},
	{Name: "Resina compuesta A2", Unit: "jeringa", Quantity: 4, ReorderThreshold: 5},
	{Name: "Eyectores de saliva", Unit: "bolsa", Quantity: 0, ReorderThreshold: 3},
	{Name: "Mascarillas", Unit: "caja", Quantity: 25, ReorderThreshold: 10},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("seed starting")

	ctx := context.Background()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(connectCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.NewMigrator(pool, log).Up(ctx); err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}

	rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	accountRepo := account.NewPgRepository(pool)
	catalogRepo := catalog.NewPgRepository(pool)
	accounts := account.NewService(accountRepo, log)
	services := catalog.NewService(catalogRepo, log)
	supplies := inventory.NewService(inventory.NewPgRepository(pool), log)
	appointments := appointment.NewService(
		appointment.NewPgRepository(pool),
		accountRepo,
		catalogRepo,
		redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL),
		cfg,
		log,
	)

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	seeded, err := seedServices(ctx, services, log)
	if err != nil {
		log.Fatal("seed services", zap.Error(err))
	}
	if err := seedSupplies(ctx, supplies, log); err != nil {
		log.Fatal("seed supplies", zap.Error(err))
	}

	testPatient, err := ensureAccount(ctx, accounts, account.RegisterInput{
		Username:  "paciente_prueba",
		FirstName: "Juan",
		LastName:  "Perez (Test)",
		Email:     "juan@test.com",
		Password:  "123456",
	})
	if err != nil {
		log.Fatal("seed test patient", zap.Error(err))
	}
	if _, err := ensureAccount(ctx, accounts, account.RegisterInput{
		Username:  "admin",
		FirstName: "Recepción",
		Email:     "admin@clinicajazmin.pe",
		Password:  "admin-change-me",
		Role:      account.RoleAdmin,
	}); err != nil {
		log.Fatal("seed admin", zap.Error(err))
	}

	patients, err := seedPatients(ctx, accounts, faker, 50, log)
	if err != nil {
		log.Fatal("seed patients", zap.Error(err))
	}
	patients = append(patients, testPatient)

	if testPatient != uuid.Nil {
		today := appointment.DateOf(time.Now())
		bookSample(ctx, appointments, log, testPatient, seeded["Ortodoncia (Brackets)"], today.AddDays(1), 10, appointment.StatusConfirmed)
		bookSample(ctx, appointments, log, testPatient, seeded["Profilaxis (Limpieza)"], today.AddDays(2), 16, appointment.StatusPending)
	}

	if err := seedAppointments(ctx, appointments, faker, patients, seeded, 30, log); err != nil {
		log.Fatal("seed appointments", zap.Error(err))
	}

	log.Info("seed complete")
}

// seedServices creates the catalog once and returns service ids by title.
func seedServices(ctx context.Context, svc *catalog.Service, log *zap.Logger) (map[string]uuid.UUID, error) {
	existing, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]uuid.UUID, len(existing))
	for _, s := range existing {
		byTitle[s.Title] = s.ID
	}

	for _, seed := range serviceSeeds {
		if _, ok := byTitle[seed.title]; ok {
			continue
		}
		price := decimal.RequireFromString(seed.price)
		s, err := svc.Create(ctx, catalog.CreateInput{
			Title:          seed.title,
			Description:    seed.description,
			EstimatedPrice: &price,
		})
		if err != nil {
			return nil, err
		}
		byTitle[s.Title] = s.ID
	}

	log.Info("services seeded", zap.Int("count", len(byTitle)))
	return byTitle, nil
}

func seedSupplies(ctx context.Context, svc *inventory.Service, log *zap.Logger) error {
	existing, err := svc.List(ctx, "")
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, s := range existing {
		have[s.Name] = true
	}

	for _, in := range supplySeeds {
		if have[in.Name] {
			continue
		}
		if _, err := svc.Create(ctx, in); err != nil {
			return err
		}
	}

	log.Info("supplies seeded", zap.Int("count", len(supplySeeds)))
	return nil
}

// ensureAccount registers an account, treating an existing one as success.
// It returns uuid.Nil when the account already existed.
func ensureAccount(ctx context.Context, svc *account.Service, in account.RegisterInput) (uuid.UUID, error) {
	a, err := svc.Register(ctx, in)
	if errors.Is(err, account.ErrEmailTaken) || errors.Is(err, account.ErrUsernameTaken) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

func seedPatients(ctx context.Context, svc *account.Service, faker *gofakeit.Faker, count int, log *zap.Logger) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		person := faker.Person()
		id, err := ensureAccount(ctx, svc, account.RegisterInput{
			Username:  faker.Username() + fmt.Sprint(faker.Number(100, 999)),
			FirstName: person.FirstName,
			LastName:  person.LastName,
			Email:     faker.Email(),
			Phone:     fmt.Sprintf("9%08d", faker.Number(0, 99999999)),
			Password:  faker.Password(true, true, true, false, false, 12),
		})
		if err != nil {
			return nil, err
		}
		if id != uuid.Nil {
			ids = append(ids, id)
		}
	}

	log.Info("patients seeded", zap.Int("count", len(ids)))
	return ids, nil
}

func bookSample(ctx context.Context, svc *appointment.Service, log *zap.Logger, patient, service uuid.UUID, day appointment.Date, hour int, status appointment.AppointmentStatus) {
	_, err := svc.CreateAppointment(ctx, appointment.CreateAppointmentInput{
		PatientID: patient,
		ServiceID: service,
		Date:      day,
		Time:      appointment.TimeOfDay{Hour: hour},
		Status:    status,
	})
	if err != nil {
		log.Warn("sample appointment not booked", zap.String("day", day.String()), zap.Error(err))
	}
}

// seedAppointments books random half-hour slots over the next two weeks.
// Slot conflicts are expected and skipped.
func seedAppointments(ctx context.Context, svc *appointment.Service, faker *gofakeit.Faker, patients []uuid.UUID, services map[string]uuid.UUID, count int, log *zap.Logger) error {
	if len(patients) == 0 || len(services) == 0 {
		return nil
	}

	serviceIDs := make([]uuid.UUID, 0, len(services))
	for _, id := range services {
		serviceIDs = append(serviceIDs, id)
	}

	today := appointment.DateOf(time.Now())
	booked, conflicts := 0, 0
	for i := 0; i < count; i++ {
		_, err := svc.CreateAppointment(ctx, appointment.CreateAppointmentInput{
			PatientID: patients[faker.Number(0, len(patients)-1)],
			ServiceID: serviceIDs[faker.Number(0, len(serviceIDs)-1)],
			Date:      today.AddDays(faker.Number(1, 14)),
			Time:      appointment.TimeOfDay{Hour: faker.Number(9, 18), Minute: 30 * faker.Number(0, 1)},
		})
		switch {
		case err == nil:
			booked++
		case errors.Is(err, appointment.ErrSlotAlreadyBooked), errors.Is(err, appointment.ErrSlotBeingBooked):
			conflicts++
		default:
			return err
		}
	}

	log.Info("appointments seeded", zap.Int("booked", booked), zap.Int("conflicts", conflicts))
	return nil
}
