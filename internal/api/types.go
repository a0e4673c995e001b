package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/inventory"
)

// Requests

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	ServiceID string `json:"service_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type UpdateAppointmentRequest struct {
	ServiceID *string `json:"service_id" validate:"omitempty,uuid"`
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	Status    *string `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

type BulkChangeStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
	Status string   `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

type RecordPaymentRequest struct {
	TotalAmount *decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal  `json:"paid_amount"`
	Method      string           `json:"method" validate:"omitempty,oneof=cash bank_transfer mobile_wallet card"`
	Notes       string           `json:"notes" validate:"max=2000"`
}

type InstallmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type RegisterAccountRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=20"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"omitempty,oneof=patient staff admin"`
}

type UpdateAccountRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	Active    *bool   `json:"active"`
}

type CreateServiceRequest struct {
	Title          string           `json:"title" validate:"required,max=100"`
	Description    string           `json:"description"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price"`
}

type CreateSupplyRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	Unit             string `json:"unit" validate:"max=20"`
	Quantity         int    `json:"quantity" validate:"gte=0"`
	ReorderThreshold int    `json:"reorder_threshold" validate:"gte=0"`
}

type AdjustSupplyRequest struct {
	Delta int `json:"delta" validate:"ne=0,min=-1000000,max=1000000"`
}

type BotMessageRequest struct {
	Message string `json:"message" validate:"required,max=500"`
}

// Responses

type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	ServiceID      uuid.UUID  `json:"service_id"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	Patient *AccountResponse `json:"patient,omitempty"`
	Service *ServiceResponse `json:"service,omitempty"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type PaymentResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	TotalAmount   string    `json:"total_amount"`
	PaidAmount    string    `json:"paid_amount"`
	BalanceDue    string    `json:"balance_due"`
	State         string    `json:"payment_state"`
	Method        string    `json:"method"`
	Notes         string    `json:"notes,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BulkStatusItem struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status,omitempty"`
	Error   string    `json:"error,omitempty"`
	Details string    `json:"details,omitempty"`
}

type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type ServiceResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	EstimatedPrice *string   `json:"estimated_price"`
}

type SupplyResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Unit             string    `json:"unit"`
	Quantity         int       `json:"quantity"`
	ReorderThreshold int       `json:"reorder_threshold"`
	State            string    `json:"state"`
	NeedsReorder     bool      `json:"needs_reorder"`
}

type StockStateResponse struct {
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
	State     string `json:"state"`
}

type BotReplyResponse struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Mapping

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		ServiceID:      a.ServiceID,
		Date:           a.Date.String(),
		Time:           a.Time.String(),
		Status:         string(a.Status),
		Notes:          a.Notes,
		ReminderSentAt: a.ReminderSentAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAppointmentResponses(items []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(items))
	for i := range items {
		out = append(out, toAppointmentResponse(&items[i]))
	}
	return out
}

func toAppointmentDetailResponse(d *appointment.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{AppointmentResponse: toAppointmentResponse(&d.Appointment)}
	if d.Patient != nil {
		p := toAccountResponse(d.Patient)
		resp.Patient = &p
	}
	if d.Service != nil {
		s := toServiceResponse(d.Service)
		resp.Service = &s
	}
	if d.Payment != nil {
		p := toPaymentResponse(d.Payment)
		resp.Payment = &p
	}
	return resp
}

func toPaymentResponse(p *appointment.Payment) PaymentResponse {
	status := p.Status()
	return PaymentResponse{
		AppointmentID: p.AppointmentID,
		TotalAmount:   p.TotalAmount.StringFixed(2),
		PaidAmount:    p.PaidAmount.StringFixed(2),
		BalanceDue:    status.BalanceDue.StringFixed(2),
		State:         string(status.State),
		Method:        string(p.Method),
		Notes:         p.Notes,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toAccountResponse(a *account.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		FullName:  a.FullName(),
		Email:     a.Email,
		Phone:     a.Phone,
		Role:      string(a.Role),
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
	}
}

func toServiceResponse(s *catalog.DentalService) ServiceResponse {
	resp := ServiceResponse{ID: s.ID, Title: s.Title, Description: s.Description}
	if s.EstimatedPrice != nil {
		price := s.EstimatedPrice.StringFixed(2)
		resp.EstimatedPrice = &price
	}
	return resp
}

func toSupplyResponse(s *inventory.Supply) SupplyResponse {
	return SupplyResponse{
		ID:               s.ID,
		Name:             s.Name,
		Unit:             s.Unit,
		Quantity:         s.Quantity,
		ReorderThreshold: s.ReorderThreshold,
		State:            string(s.State()),
		NeedsReorder:     s.NeedsReorder(),
	}
}
