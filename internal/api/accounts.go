package api

import (
	"net/http"
	"strings"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
)

func registerAccountHandler(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterAccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		a, err := svc.Register(r.Context(), account.RegisterInput{
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Password:  req.Password,
			Role:      account.Role(req.Role),
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAccountResponse(a))
	}
}

func updateAccountHandler(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_account_id")
		if !ok {
			return
		}

		var req UpdateAccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		a, err := svc.Update(r.Context(), id, account.UpdateInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Password:  req.Password,
			Active:    req.Active,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponse(a))
	}
}

func getAccountHandler(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id", "invalid_account_id")
		if !ok {
			return
		}

		a, err := svc.Get(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponse(a))
	}
}

func listAccountsHandler(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		scope := account.Scope(q.Get("scope"))
		if scope == "" {
			scope = account.ScopePatients
		}

		f := account.ListFilter{
			Search:     strings.TrimSpace(q.Get("search")),
			ActiveOnly: q.Get("active") == "true",
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

		accounts, err := svc.List(r.Context(), scope, f)
		if err != nil {
			handleError(w, r, err)
			return
		}

		items := make([]AccountResponse, 0, len(accounts))
		for i := range accounts {
			items = append(items, toAccountResponse(&accounts[i]))
		}
		writeJSON(w, http.StatusOK, ListResponse[AccountResponse]{Items: items, Limit: f.Limit, Offset: f.Offset})
	}
}
