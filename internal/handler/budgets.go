package handler

import (
	"net/http"

	"github.com/Dan9191/finix/internal/middleware"
)

// GetBudget handles GET /budget
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	current, err := h.svc.GetCurrentBudget(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, currentBudgetView{
		Budget:          newBudgetView(current.Budget),
		CurrentExpenses: money(current.CurrentExpenses),
	})
}

// UpdateBudget handles PUT /budget
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	budget, err := h.svc.UpdateBudget(r.Context(), string(req.Amount))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newBudgetView(budget))
}
