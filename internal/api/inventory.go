package api

import (
	"net/http"
	"strconv"

	"github.com/clinica-jazmin/dental-ledger/internal/inventory"
)

func stockStateHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quantity, err := strconv.Atoi(q.Get("quantity"))
	if err != nil || quantity < 0 {
		writeError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be a non-negative integer")
		return
	}
	threshold, err := strconv.Atoi(q.Get("threshold"))
	if err != nil || threshold < 0 {
		writeError(w, http.StatusBadRequest, "invalid_threshold", "threshold must be a non-negative integer")
		return
	}

	writeJSON(w, http.StatusOK, StockStateResponse{
		Quantity:  quantity,
		Threshold: threshold,
		State:     string(inventory.Classify(quantity, threshold)),
	})
}

func createSupplyHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSupplyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		s, err := svc.Create(r.Context(), inventory.CreateInput{
			Name:             req.Name,
			Unit:             req.Unit,
			Quantity:         req.Quantity,
			ReorderThreshold: req.ReorderThreshold,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSupplyResponse(s))
	}
}

func listSuppliesHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var (
			supplies []inventory.Supply
			err      error
		)
		if q.Get("reorder") == "true" {
			supplies, err = svc.ListNeedingReorder(r.Context())
		} else {
			supplies, err = svc.List(r.Context(), inventory.StockState(q.Get("state")))
		}
		if err != nil {
			handleError(w, r, err)
			return
		}

		items := make([]SupplyResponse, 0, len(supplies))
		for i := range supplies {
			items = append(items, toSupplyResponse(&supplies[i]))
		}
		writeJSON(w, http.StatusOK, ListResponse[SupplyResponse]{Items: items})
	}
}

func adjustSupplyHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_supply_id")
		if !ok {
			return
		}

		var req AdjustSupplyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		s, err := svc.Adjust(r.Context(), id, req.Delta)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toSupplyResponse(s))
	}
}
