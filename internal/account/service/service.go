// Package service is the account moderation orchestrator. Each operation is a
// small saga over two systems of record: the platform's own account store
// (authoritative, the commit point) and the external identity provider
// (best-effort mirror at the login edge). The local write always happens
// first and its success decides the outcome; the identity sync may lag and is
// reconciled from the audit trail.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gavel/internal/account/models"
	"gavel/internal/audit"
	"gavel/internal/authz"
	"gavel/internal/idp"
	"gavel/internal/platform/metrics"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
)

// AccountStore is the slice of the account store the orchestrator needs.
type AccountStore interface {
	FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error)
	Execute(
		ctx context.Context,
		accountID domain.AccountID,
		validate func(*models.Account) error,
		mutate func(*models.Account),
	) (*models.Account, error)
}

// IdentitySyncer mirrors moderation decisions at the identity provider.
type IdentitySyncer interface {
	Suspend(ctx context.Context, identityID string) error
	Unsuspend(ctx context.Context, identityID string) error
	Delete(ctx context.Context, identityID string) error
}

// CacheInvalidator drops cached account views after a moderation write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, accountID domain.AccountID) error
}

// AuditPublisher records moderation facts and reconciliation items.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// WarnIdentitySyncPending is the single warning surfaced when the local write
// committed but the identity provider could not be reached. Callers must keep
// it separate from errors: the moderation action took effect.
const WarnIdentitySyncPending = "identity provider sync is pending; login restrictions may lag"

var tracer = otel.Tracer("gavel/internal/account/service")

// Result is the orchestrator's success payload. Warnings is non-empty only
// when a best-effort step (identity sync) was left for reconciliation.
type Result struct {
	Account  *models.Account `json:"account"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Service orchestrates account moderation.
type Service struct {
	gate     authz.Authorizer
	accounts AccountStore

	sync        IdentitySyncer
	cache       CacheInvalidator
	auditor     AuditPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	syncTimeout time.Duration
}

type serviceConfig struct {
	sync        IdentitySyncer
	cache       CacheInvalidator
	auditor     AuditPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	syncTimeout time.Duration
}

// Option configures optional collaborators.
type Option func(*serviceConfig)

func WithIdentitySync(sync IdentitySyncer) Option {
	return func(cfg *serviceConfig) { cfg.sync = sync }
}

func WithCache(cache CacheInvalidator) Option {
	return func(cfg *serviceConfig) { cfg.cache = cache }
}

func WithAudit(auditor AuditPublisher) Option {
	return func(cfg *serviceConfig) { cfg.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithSyncTimeout(d time.Duration) Option {
	return func(cfg *serviceConfig) { cfg.syncTimeout = d }
}

func New(gate authz.Authorizer, accounts AccountStore, opts ...Option) *Service {
	cfg := &serviceConfig{
		logger:      slog.Default(),
		syncTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		gate:        gate,
		accounts:    accounts,
		sync:        cfg.sync,
		cache:       cfg.cache,
		auditor:     cfg.auditor,
		metrics:     cfg.metrics,
		logger:      cfg.logger,
		syncTimeout: cfg.syncTimeout,
	}
}

// Get returns the account for moderation views.
func (s *Service) Get(ctx context.Context, principal domain.Principal, accountID domain.AccountID) (*models.Account, error) {
	if err := s.authorize(principal, authz.CapManageAccounts); err != nil {
		return nil, err
	}
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID required")
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return account, nil
}

// authorize runs the permission gate. Denied decisions abort before any side
// effect; no operation is partially authorized.
func (s *Service) authorize(principal domain.Principal, capability authz.Capability) error {
	decision := s.gate.Authorize(principal, capability)
	if decision.Allowed {
		return nil
	}
	if principal.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, decision.Reason)
	}
	return dErrors.New(dErrors.CodeForbidden, decision.Reason)
}

// wrapStoreErr translates account store sentinels into domain errors. A store
// failure means the operation did not happen.
func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "account was modified concurrently; re-fetch and retry")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		// Transition rejected by the model under the store's lock.
		return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "account store unavailable")
	}
}

// syncIdentity performs the best-effort identity provider call after the
// local commit point. It runs on a context detached from the caller's
// cancellation with its own, shorter deadline; a failure is logged, counted,
// and recorded for reconciliation, and the returned warning list is the only
// way it reaches the caller.
func (s *Service) syncIdentity(ctx context.Context, account *models.Account, operation string, call func(context.Context, string) error) []string {
	if s.sync == nil || account.ExternalIdentityID == nil {
		return nil
	}
	identityID := *account.ExternalIdentityID

	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.syncTimeout)
	defer cancel()

	if err := call(syncCtx, identityID); err != nil {
		s.logger.ErrorContext(ctx, "identity provider sync failed",
			"account_id", account.ID.String(),
			"identity_id", identityID,
			"operation", operation,
			"error", err,
		)
		s.metrics.IncrementIdPSyncFailure(operation)
		s.emitAudit(ctx, audit.Event{
			Action:     audit.ActionIdentitySyncFailed,
			AccountID:  account.ID.String(),
			IdentityID: identityID,
			Operation:  operation,
			Error:      err.Error(),
		})
		return []string{WarnIdentitySyncPending}
	}
	return nil
}

// invalidateView drops the cached account view; failures only get logged.
func (s *Service) invalidateView(ctx context.Context, accountID domain.AccountID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, accountID); err != nil {
		s.logger.WarnContext(ctx, "account view invalidation failed",
			"account_id", accountID.String(),
			"error", err,
		)
	}
}

// emitAudit records a moderation fact. The commit point has already passed
// when this runs, so an audit store failure is logged rather than turned into
// an operation failure.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"account_id", event.AccountID,
			"error", err,
		)
	}
}

func startSpan(ctx context.Context, name string, accountID domain.AccountID) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("account.id", accountID.String()),
	))
}

var _ IdentitySyncer = (*idp.Client)(nil)
