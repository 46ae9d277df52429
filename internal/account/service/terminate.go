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

// Terminate bans an account. A reversible termination can later be undone by
// Reactivate; a permanent one cannot, by anyone, ever. Re-terminating a
// reversibly terminated account as permanent is an allowed escalation.
//
// The local store write is the commit point. The identity provider mirror
// (suspend for reversible, delete for permanent) runs afterwards and its
// failure surfaces only as a warning on the result.
func (s *Service) Terminate(ctx context.Context, principal domain.Principal, accountID domain.AccountID, reason string, permanent bool) (*Result, error) {
	ctx, span := startSpan(ctx, "account.Terminate", accountID)
	defer span.End()

	if err := s.authorize(principal, authz.CapTerminateAccounts); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "termination reason is required")
	}
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID required")
	}

	account, err := s.accounts.Execute(ctx, accountID,
		func(a *models.Account) error { return a.CanTerminate() },
		func(a *models.Account) { a.ApplyTermination(reason, permanent, requestcontext.Now(ctx)) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	operation := idp.OpSuspend
	call := s.syncCall(idpSuspend)
	if permanent {
		operation = idp.OpDelete
		call = s.syncCall(idpDelete)
	}
	warnings := s.syncIdentity(ctx, account, operation, call)

	s.invalidateView(ctx, accountID)
	s.metrics.IncrementTermination(permanent)
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionAccountTerminated,
		AccountID: accountID.String(),
		ActorID:   principal.ID.String(),
		Reason:    reason,
	})
	s.logger.InfoContext(ctx, "account terminated",
		"account_id", accountID.String(),
		"actor_id", principal.ID.String(),
		"permanent", permanent,
		"request_id", requestcontext.RequestID(ctx),
	)

	return &Result{Account: account, Warnings: warnings}, nil
}

type syncOp int

const (
	idpSuspend syncOp = iota
	idpUnsuspend
	idpDelete
)

// syncCall adapts a named operation to the closure syncIdentity runs. Pulled
// out so the operation choice (suspend vs delete for terminations) stays
// readable at the call site.
func (s *Service) syncCall(op syncOp) func(context.Context, string) error {
	return func(ctx context.Context, identityID string) error {
		switch op {
		case idpUnsuspend:
			return s.sync.Unsuspend(ctx, identityID)
		case idpDelete:
			return s.sync.Delete(ctx, identityID)
		default:
			return s.sync.Suspend(ctx, identityID)
		}
	}
}
