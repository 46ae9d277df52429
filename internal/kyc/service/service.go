// Package service is the KYC review state machine. Reviews are gated by the
// approve:kyc capability and mirrored onto the account record, which is the
// authoritative input to the bid-placement gate. The submission write and the
// mirror run inside one tx.Runner unit, so the mirror never records an
// outcome the submission did not commit; a mirror write that fails fails the
// review.
package service

import (
	"context"
	"errors"
	"log/slog"

	accountmodels "gavel/internal/account/models"
	"gavel/internal/audit"
	"gavel/internal/authz"
	kycmodels "gavel/internal/kyc/models"
	"gavel/internal/kyc/store"
	"gavel/internal/platform/metrics"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/platform/tx"
	"gavel/pkg/requestcontext"
)

// AccountMirror is the slice of the account store used to reflect review
// outcomes onto the account record.
type AccountMirror interface {
	Execute(
		ctx context.Context,
		accountID domain.AccountID,
		validate func(*accountmodels.Account) error,
		mutate func(*accountmodels.Account),
	) (*accountmodels.Account, error)
}

// AuditPublisher records review facts.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the review state machine.
type Service struct {
	gate        authz.Authorizer
	submissions store.Store
	accounts    AccountMirror
	txr         tx.Runner

	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type serviceConfig struct {
	txr     tx.Runner
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional collaborators.
type Option func(*serviceConfig)

func WithAudit(auditor AuditPublisher) Option {
	return func(cfg *serviceConfig) { cfg.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

// WithTxRunner selects how the submission write and the account mirror are
// made atomic. Postgres deployments pass tx.NewPgxRunner over the shared
// pool; the default serializes, matching the in-memory stores.
func WithTxRunner(txr tx.Runner) Option {
	return func(cfg *serviceConfig) { cfg.txr = txr }
}

func New(gate authz.Authorizer, submissions store.Store, accounts AccountMirror, opts ...Option) *Service {
	cfg := &serviceConfig{
		txr:    tx.NewSerialRunner(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		gate:        gate,
		submissions: submissions,
		accounts:    accounts,
		txr:         cfg.txr,
		auditor:     cfg.auditor,
		metrics:     cfg.metrics,
		logger:      cfg.logger,
	}
}

// Get returns a submission for the review view.
func (s *Service) Get(ctx context.Context, principal domain.Principal, submissionID domain.SubmissionID) (*kycmodels.Submission, error) {
	if err := s.authorize(principal); err != nil {
		return nil, err
	}
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return submission, nil
}

// ListPending returns the review queue, oldest first.
func (s *Service) ListPending(ctx context.Context, principal domain.Principal) ([]*kycmodels.Submission, error) {
	if err := s.authorize(principal); err != nil {
		return nil, err
	}
	pending, err := s.submissions.ListPending(ctx)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return pending, nil
}

func (s *Service) authorize(principal domain.Principal) error {
	decision := s.gate.Authorize(principal, authz.CapApproveKYC)
	if decision.Allowed {
		return nil
	}
	if principal.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, decision.Reason)
	}
	return dErrors.New(dErrors.CodeForbidden, decision.Reason)
}

func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "submission was modified concurrently; re-fetch and retry")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "submission store unavailable")
	}
}

// mirrorAccountStatus reflects a submission status onto the account record.
// The write is an absolute set, so a retried review converges instead of
// double-applying.
func (s *Service) mirrorAccountStatus(ctx context.Context, accountID domain.AccountID, status domain.KYCStatus) error {
	_, err := s.accounts.Execute(ctx, accountID,
		func(*accountmodels.Account) error { return nil },
		func(a *accountmodels.Account) { a.ApplyKYCStatus(status, requestcontext.Now(ctx)) },
	)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "account was modified concurrently; re-fetch and retry")
		default:
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "account store unavailable")
		}
	}
	return nil
}

// emitAudit records a review fact; failures are logged, not propagated, since
// the review itself has already committed.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"submission_id", event.SubmissionID,
			"error", err,
		)
	}
}
