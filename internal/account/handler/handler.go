// Package handler exposes the admin moderation surface. Handlers stay thin:
// decode, resolve the acting principal, call the orchestrator, translate the
// coded error.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gavel/internal/account/service"
	"gavel/internal/platform/middleware"
	"gavel/internal/transport/http/shared"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the moderation routes. The caller wraps the router with
// auth and admin-token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/accounts/{id}", h.Get)
	r.Post("/accounts/{id}/terminate", h.Terminate)
	r.Post("/accounts/{id}/reactivate", h.Reactivate)
	r.Post("/accounts/{id}/suspend", h.Suspend)
}

type terminateRequest struct {
	Reason    string `json:"reason"`
	Permanent bool   `json:"permanent"`
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Terminate(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathAccountID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req terminateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	result, err := h.svc.Terminate(r.Context(), principal, accountID, req.Reason, req.Permanent)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathAccountID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	result, err := h.svc.Reactivate(r.Context(), principal, accountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathAccountID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req suspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	result, err := h.svc.Suspend(r.Context(), principal, accountID, req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathAccountID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	account, err := h.svc.Get(r.Context(), principal, accountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, account)
}

func pathAccountID(r *http.Request) (domain.AccountID, error) {
	return domain.ParseAccountID(chi.URLParam(r, "id"))
}
