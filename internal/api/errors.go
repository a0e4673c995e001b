package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/inventory"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorTable is matched in order with errors.Is.
var errorTable = []errorMapping{
	{appointment.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
	{appointment.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{appointment.ErrAppointmentClosed, http.StatusConflict, "appointment_closed"},
	{appointment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
	{appointment.ErrPatientNotFound, http.StatusNotFound, "patient_not_found"},
	{appointment.ErrServiceNotFound, http.StatusNotFound, "service_not_found"},
	{appointment.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found"},
	{appointment.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{appointment.ErrMissingSlot, http.StatusBadRequest, "invalid_slot"},
	{appointment.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
	{appointment.ErrInvalidTime, http.StatusBadRequest, "invalid_time"},
	{appointment.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{appointment.ErrInvalidPaymentMethod, http.StatusUnprocessableEntity, "invalid_payment_method"},

	{account.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{account.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{account.ErrUsernameTaken, http.StatusConflict, "username_taken"},
	{account.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{account.ErrInvalidScope, http.StatusBadRequest, "invalid_scope"},
	{account.ErrMissingField, http.StatusBadRequest, "missing_field"},
	{account.ErrPasswordTooLong, http.StatusBadRequest, "password_too_long"},

	{catalog.ErrServiceNotFound, http.StatusNotFound, "service_not_found"},
	{catalog.ErrInvalidService, http.StatusUnprocessableEntity, "invalid_service"},

	{inventory.ErrSupplyNotFound, http.StatusNotFound, "supply_not_found"},
	{inventory.ErrInvalidSupply, http.StatusUnprocessableEntity, "invalid_supply"},
	{inventory.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{inventory.ErrInvalidState, http.StatusBadRequest, "invalid_state"},
	{inventory.ErrInvalidAdjustment, http.StatusUnprocessableEntity, "invalid_adjustment"},
}

// errorStatus maps a service error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	var conflict *appointment.SlotConflictError
	if errors.As(err, &conflict) || errors.Is(err, appointment.ErrSlotAlreadyBooked) {
		return http.StatusConflict, "slot_already_booked"
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		loggerFrom(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, code, "internal server error")
		return
	}
	writeError(w, status, code, err.Error())
}
