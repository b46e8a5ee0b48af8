package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/Dan9191/finix/internal/middleware"
	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/service"
	"github.com/gorilla/mux"
)

func (req transactionRequest) input() service.TransactionInput {
	return service.TransactionInput{
		AccountID:         req.AccountID,
		Type:              models.TransactionType(strings.ToUpper(req.Type)),
		Amount:            string(req.Amount),
		Description:       req.Description,
		Category:          req.Category,
		Date:              req.Date.Time,
		ReceiptURL:        req.ReceiptURL,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: models.RecurringInterval(strings.ToUpper(req.RecurringInterval)),
	}
}

// ListTransactions handles GET /transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := service.ListFilter{
		AccountID: query.Get("account_id"),
		Type:      models.TransactionType(strings.ToUpper(query.Get("type"))),
	}
	var err error
	if filter.From, err = queryDate(query, "from"); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.To, err = queryDate(query, "to"); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := h.svc.ListTransactions(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newTransactionViews(transactions))
}

// CreateTransaction handles POST /transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	txn, err := h.svc.CreateTransaction(r.Context(), req.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, newTransactionView(txn))
}

// GetTransaction handles GET /transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.svc.GetTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newTransactionView(txn))
}

// UpdateTransaction handles PUT /transactions/{id}
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	txn, err := h.svc.UpdateTransaction(r.Context(), mux.Vars(r)["id"], req.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newTransactionView(txn))
}

// BulkDeleteTransactions handles POST /transactions/bulk-delete
func (h *Handler) BulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deleted, err := h.svc.BulkDeleteTransactions(r.Context(), req.IDs)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// ImportStatement handles POST /transactions/import with a camt.053 XML body
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadSize)
	transactions, err := h.svc.ImportStatement(r.Context(), r.URL.Query().Get("account_id"), body)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, newTransactionViews(transactions))
}

// ScanReceipt handles POST /transactions/scan with the image as the request body
func (h *Handler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	mimeType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		middleware.WriteError(w, http.StatusBadRequest, "receipt must be an image")
		return
	}
	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "receipt image must be smaller than 5MB")
		return
	}
	receipt, err := h.svc.ScanReceipt(r.Context(), image, mimeType)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newReceiptView(receipt))
}
