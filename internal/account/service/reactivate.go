package service

import (
	"context"

	"gavel/internal/account/models"
	"gavel/internal/audit"
	"gavel/internal/authz"
	"gavel/internal/idp"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/requestcontext"
)

// Reactivate restores a suspended or reversibly terminated account to ACTIVE
// and clears its suspension reason. Permanently terminated accounts are
// refused with a conflict; there is no override path.
func (s *Service) Reactivate(ctx context.Context, principal domain.Principal, accountID domain.AccountID) (*Result, error) {
	ctx, span := startSpan(ctx, "account.Reactivate", accountID)
	defer span.End()

	if err := s.authorize(principal, authz.CapManageAccounts); err != nil {
		return nil, err
	}
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID required")
	}

	account, err := s.accounts.Execute(ctx, accountID,
		func(a *models.Account) error { return a.CanReactivate() },
		func(a *models.Account) { a.ApplyReactivation(requestcontext.Now(ctx)) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	warnings := s.syncIdentity(ctx, account, idp.OpUnsuspend, s.syncCall(idpUnsuspend))

	s.invalidateView(ctx, accountID)
	s.metrics.IncrementReactivation()
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionAccountReactivated,
		AccountID: accountID.String(),
		ActorID:   principal.ID.String(),
	})
	s.logger.InfoContext(ctx, "account reactivated",
		"account_id", accountID.String(),
		"actor_id", principal.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	return &Result{Account: account, Warnings: warnings}, nil
}
