package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/chatbot"
	"github.com/clinica-jazmin/dental-ledger/internal/inventory"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, in appointment.CreateAppointmentInput) (*appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, in appointment.UpdateAppointmentInput) (*appointment.Appointment, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, to appointment.AppointmentStatus) (*appointment.Appointment, error)
	BulkChangeStatus(ctx context.Context, ids []uuid.UUID, to appointment.AppointmentStatus) ([]appointment.StatusChangeResult, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.AppointmentDetail, error)
	ListAppointments(ctx context.Context, f appointment.ListFilter) ([]appointment.Appointment, error)

	RecordPayment(ctx context.Context, in appointment.RecordPaymentInput) (*appointment.Payment, error)
	AddInstallment(ctx context.Context, appointmentID uuid.UUID, amount decimal.Decimal) (*appointment.Payment, error)
	GetPaymentStatus(ctx context.Context, appointmentID uuid.UUID) (*appointment.Payment, appointment.PaymentStatus, error)
}

type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.Account, error)
	Update(ctx context.Context, id uuid.UUID, in account.UpdateInput) (*account.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	List(ctx context.Context, scope account.Scope, f account.ListFilter) ([]account.Account, error)
}

type CatalogService interface {
	Create(ctx context.Context, in catalog.CreateInput) (*catalog.DentalService, error)
	Get(ctx context.Context, id uuid.UUID) (*catalog.DentalService, error)
	List(ctx context.Context) ([]catalog.DentalService, error)
}

type InventoryService interface {
	Create(ctx context.Context, in inventory.CreateInput) (*inventory.Supply, error)
	List(ctx context.Context, state inventory.StockState) ([]inventory.Supply, error)
	ListNeedingReorder(ctx context.Context) ([]inventory.Supply, error)
	Adjust(ctx context.Context, id uuid.UUID, delta int) (*inventory.Supply, error)
}

type ChatResponder interface {
	Reply(ctx context.Context, message string) (chatbot.Reply, error)
}

type RouterConfig struct {
	Appointments AppointmentService
	Accounts     AccountService
	Catalog      CatalogService
	Inventory    InventoryService
	Bot          ChatResponder

	Postgres Pinger
	Redis    Pinger

	Logger       *zap.Logger
	CORSOrigins  []string
	RateLimitRPS int
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints
	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitRPS, time.Second))
		}

		// Account endpoints
		r.Post("/accounts", registerAccountHandler(cfg.Accounts))
		r.Get("/accounts", listAccountsHandler(cfg.Accounts))
		r.Get("/accounts/{id}", getAccountHandler(cfg.Accounts))
		r.Put("/accounts/{id}", updateAccountHandler(cfg.Accounts))

		// Service catalog endpoints
		r.Post("/services", createServiceHandler(cfg.Catalog))
		r.Get("/services", listServicesHandler(cfg.Catalog))
		r.Get("/services/{id}", getServiceHandler(cfg.Catalog))

		// Appointment endpoints
		r.Post("/appointments", createAppointmentHandler(cfg.Appointments))
		r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
		r.Post("/appointments/status", bulkChangeStatusHandler(cfg.Appointments))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
		r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Appointments))
		r.Post("/appointments/{id}/status", changeStatusHandler(cfg.Appointments))

		// Payment endpoints
		r.Put("/appointments/{id}/payment", recordPaymentHandler(cfg.Appointments))
		r.Get("/appointments/{id}/payment", getPaymentHandler(cfg.Appointments))
		r.Post("/appointments/{id}/payment/installments", addInstallmentHandler(cfg.Appointments))

		// Inventory endpoints
		r.Get("/stock-state", stockStateHandler)
		r.Post("/supplies", createSupplyHandler(cfg.Inventory))
		r.Get("/supplies", listSuppliesHandler(cfg.Inventory))
		r.Post("/supplies/{id}/adjust", adjustSupplyHandler(cfg.Inventory))

		// Chatbot
		r.Post("/bot/messages", botMessageHandler(cfg.Bot))
	})

	return r
}
