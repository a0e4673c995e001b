package api

import (
	"net/http"

	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
)

func createServiceHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateServiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		s, err := svc.Create(r.Context(), catalog.CreateInput{
			Title:          req.Title,
			Description:    req.Description,
			EstimatedPrice: req.EstimatedPrice,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toServiceResponse(s))
	}
}

func getServiceHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_service_id")
		if !ok {
			return
		}

		s, err := svc.Get(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(s))
	}
}

func listServicesHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.List(r.Context())
		if err != nil {
			handleError(w, r, err)
			return
		}

		items := make([]ServiceResponse, 0, len(services))
		for i := range services {
			items = append(items, toServiceResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, ListResponse[ServiceResponse]{Items: items})
	}
}
