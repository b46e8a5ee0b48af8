package handler

import (
	"net/http"

	"github.com/Dan9191/finix/internal/middleware"
	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/service"
	"github.com/gorilla/mux"
)

// ListAccounts handles GET /accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newAccountViews(accounts))
}

// CreateAccount handles POST /accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), service.AccountInput{
		Name:      req.Name,
		Type:      models.AccountType(req.Type),
		Balance:   string(req.Balance),
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, newAccountView(account))
}

// GetAccount handles GET /accounts/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, transactions, err := h.svc.GetAccountWithTransactions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, struct {
		accountView
		Transactions []transactionView `json:"transactions"`
	}{
		accountView:  newAccountView(account),
		Transactions: newTransactionViews(transactions),
	})
}

// DeleteAccount handles DELETE /accounts/{id}
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.DeleteAccount(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

// SetDefaultAccount handles PUT /accounts/{id}/default
func (h *Handler) SetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.SetDefaultAccount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newAccountView(account))
}
