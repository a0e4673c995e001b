package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
)

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		in := appointment.CreateAppointmentInput{
			PatientID: uuid.MustParse(req.PatientID),
			ServiceID: uuid.MustParse(req.ServiceID),
			Status:    appointment.AppointmentStatus(req.Status),
			Notes:     req.Notes,
		}

		var err error
		if in.Date, err = appointment.ParseDate(req.Date); err != nil {
			handleError(w, r, err)
			return
		}
		if in.Time, err = appointment.ParseTimeOfDay(req.Time); err != nil {
			handleError(w, r, err)
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), in)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		in := appointment.UpdateAppointmentInput{Notes: req.Notes}
		if req.ServiceID != nil {
			serviceID := uuid.MustParse(*req.ServiceID)
			in.ServiceID = &serviceID
		}
		if req.Date != nil {
			d, err := appointment.ParseDate(*req.Date)
			if err != nil {
				handleError(w, r, err)
				return
			}
			in.Date = &d
		}
		if req.Time != nil {
			t, err := appointment.ParseTimeOfDay(*req.Time)
			if err != nil {
				handleError(w, r, err)
				return
			}
			in.Time = &t
		}
		if req.Status != nil {
			status := appointment.AppointmentStatus(*req.Status)
			in.Status = &status
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, in)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func changeStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		var req ChangeStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), id, appointment.AppointmentStatus(req.Status))
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func bulkChangeStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkChangeStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		ids := make([]uuid.UUID, 0, len(req.IDs))
		for _, raw := range req.IDs {
			ids = append(ids, uuid.MustParse(raw))
		}

		results, err := svc.BulkChangeStatus(r.Context(), ids, appointment.AppointmentStatus(req.Status))
		if err != nil {
			handleError(w, r, err)
			return
		}

		items := make([]BulkStatusItem, 0, len(results))
		for _, res := range results {
			item := BulkStatusItem{ID: res.ID}
			if res.Err != nil {
				_, item.Error = errorStatus(res.Err)
				item.Details = res.Err.Error()
			} else {
				item.Status = string(res.Appointment.Status)
			}
			items = append(items, item)
		}

		writeJSON(w, http.StatusOK, ListResponse[BulkStatusItem]{Items: items})
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var f appointment.ListFilter

		if raw := q.Get("patient_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			f.PatientID = &id
		}
		if raw := q.Get("status"); raw != "" {
			status := appointment.AppointmentStatus(raw)
			f.Status = &status
		}
		if raw := q.Get("date"); raw != "" {
			d, err := appointment.ParseDate(raw)
			if err != nil {
				handleError(w, r, err)
				return
			}
			f.Date = &d
		}
		switch order := q.Get("order"); order {
		case "", "asc":
			f.Order = appointment.OrderAsc
		case "desc":
			f.Order = appointment.OrderDesc
		default:
			writeError(w, http.StatusBadRequest, "invalid_order", "order must be asc or desc")
			return
		}

		var err error
		if f.Limit, err = queryInt(r, "limit", 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
			return
		}
		if f.Offset, err = queryInt(r, "offset", 0); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_offset", err.Error())
			return
		}

		items, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ListResponse[AppointmentResponse]{
			Items:  toAppointmentResponses(items),
			Limit:  f.Limit,
			Offset: f.Offset,
		})
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(detail))
	}
}

func recordPaymentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		var req RecordPaymentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.RecordPayment(r.Context(), appointment.RecordPaymentInput{
			AppointmentID: id,
			TotalAmount:   req.TotalAmount,
			PaidAmount:    req.PaidAmount,
			Method:        appointment.PaymentMethod(req.Method),
			Notes:         req.Notes,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPaymentResponse(p))
	}
}

func addInstallmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		var req InstallmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.AddInstallment(r.Context(), id, req.Amount)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPaymentResponse(p))
	}
}

func getPaymentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		p, _, err := svc.GetPaymentStatus(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPaymentResponse(p))
	}
}
