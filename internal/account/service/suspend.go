package service

import (
	"context"
	"strings"

	"gavel/internal/account/models"
	"gavel/internal/audit"
	"gavel/internal/authz"
	"gavel/internal/idp"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/requestcontext"
)

// Suspend pauses an account pending review. Unlike termination it carries no
// permanence bit and is always reversible via Reactivate. Terminated accounts
// cannot be suspended.
func (s *Service) Suspend(ctx context.Context, principal domain.Principal, accountID domain.AccountID, reason string) (*Result, error) {
	ctx, span := startSpan(ctx, "account.Suspend", accountID)
	defer span.End()

	if err := s.authorize(principal, authz.CapManageAccounts); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "suspension reason is required")
	}
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID required")
	}

	account, err := s.accounts.Execute(ctx, accountID,
		func(a *models.Account) error { return a.CanSuspend() },
		func(a *models.Account) { a.ApplySuspension(reason, requestcontext.Now(ctx)) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	warnings := s.syncIdentity(ctx, account, idp.OpSuspend, s.syncCall(idpSuspend))

	s.invalidateView(ctx, accountID)
	s.metrics.IncrementSuspension()
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionAccountSuspended,
		AccountID: accountID.String(),
		ActorID:   principal.ID.String(),
		Reason:    reason,
	})
	s.logger.InfoContext(ctx, "account suspended",
		"account_id", accountID.String(),
		"actor_id", principal.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	return &Result{Account: account, Warnings: warnings}, nil
}
