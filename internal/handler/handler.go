package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/finix/internal/middleware"
	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/service"
	"github.com/sirupsen/logrus"
)

const maxUploadSize = 5 << 20

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// handleError maps service errors to HTTP statuses. Records owned by another
// user answer exactly like missing ones.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.RequestIDFromContext(r.Context()),
		}).Error("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type categoryView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Color         string   `json:"color"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// Categories lists the built-in transaction categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := models.DefaultCategories()
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView{
			ID:            c.ID,
			Name:          c.Name,
			Type:          string(c.Type),
			Color:         c.Color,
			Subcategories: c.Subcategories,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, views)
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, newUserView(user))
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
