package handler

import (
	"net/http"

	"github.com/Dan9191/finix/internal/auth"
	"github.com/Dan9191/finix/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter registers every route. Writes that create transactions share the
// per-user rate limit.
func NewRouter(h *Handler, tokens *auth.Tokens, limiter *middleware.RateLimiter, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Recovery(log), middleware.Logger(log), middleware.CORS)

	// Public routes
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/categories", h.Categories).Methods(http.MethodGet)

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.Auth(tokens, log))

	authRouter.HandleFunc("/accounts", h.ListAccounts).Methods(http.MethodGet)
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	authRouter.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet)
	authRouter.HandleFunc("/accounts/{id}", h.DeleteAccount).Methods(http.MethodDelete)
	authRouter.HandleFunc("/accounts/{id}/default", h.SetDefaultAccount).Methods(http.MethodPut)

	limited := func(fn http.HandlerFunc) http.Handler { return limiter.Limit(fn) }
	authRouter.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	authRouter.Handle("/transactions", limited(h.CreateTransaction)).Methods(http.MethodPost)
	authRouter.HandleFunc("/transactions/bulk-delete", h.BulkDeleteTransactions).Methods(http.MethodPost)
	authRouter.Handle("/transactions/import", limited(h.ImportStatement)).Methods(http.MethodPost)
	authRouter.Handle("/transactions/scan", limited(h.ScanReceipt)).Methods(http.MethodPost)
	authRouter.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet)
	authRouter.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods(http.MethodPut)

	authRouter.HandleFunc("/budget", h.GetBudget).Methods(http.MethodGet)
	authRouter.HandleFunc("/budget", h.UpdateBudget).Methods(http.MethodPut)

	return r
}
