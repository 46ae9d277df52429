// Package handler exposes the KYC review surface.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gavel/internal/kyc/service"
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

// Register mounts the review routes under /kyc.
func (h *Handler) Register(r chi.Router) {
	r.Get("/kyc/pending", h.ListPending)
	r.Post("/kyc/submit", h.Submit)
	r.Get("/kyc/{id}", h.Get)
	r.Patch("/kyc/{id}", h.Review)
	r.Delete("/kyc/{id}", h.Delete)
}

// reviewRequest carries the reviewer's decision. The acting principal from
// the access token is recorded as the reviewer; the body cannot impersonate
// another one.
type reviewRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason"`
}

type submissionResponse struct {
	Submission any `json:"submission"`
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	outcome, err := domain.ParseKYCStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if !outcome.IsReviewOutcome() {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "%s is not a review outcome", outcome))
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	var (
		submission any
		reviewErr  error
	)
	switch outcome {
	case domain.KYCApproved:
		submission, reviewErr = h.svc.Approve(r.Context(), principal, submissionID)
	case domain.KYCRejected:
		submission, reviewErr = h.svc.Reject(r.Context(), principal, submissionID, req.RejectionReason)
	default:
		submission, reviewErr = h.svc.RequestMoreInfo(r.Context(), principal, submissionID, req.RejectionReason)
	}
	if reviewErr != nil {
		shared.WriteError(w, reviewErr)
		return
	}
	shared.WriteJSON(w, http.StatusOK, submissionResponse{Submission: submission})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if err := h.svc.Delete(r.Context(), principal, submissionID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	submission, err := h.svc.Get(r.Context(), principal, submissionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, submissionResponse{Submission: submission})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	pending, err := h.svc.ListPending(r.Context(), principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submissions": pending})
}

type submitRequest struct {
	AccountID    string   `json:"accountId"`
	DocumentURLs []string `json:"documentUrls"`
}

// Submit is the account holder's entry point. Ownership is checked here: the
// authenticated principal must be submitting for their own account.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	accountID, err := domain.ParseAccountID(req.AccountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if domain.PrincipalID(accountID) != principal.ID {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "submissions are accepted only for your own account"))
		return
	}

	submission, err := h.svc.Submit(r.Context(), accountID, req.DocumentURLs)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, submissionResponse{Submission: submission})
}

func pathSubmissionID(r *http.Request) (domain.SubmissionID, error) {
	return domain.ParseSubmissionID(chi.URLParam(r, "id"))
}
