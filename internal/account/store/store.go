// Package store persists accounts. Implementations return sentinel errors for
// infrastructure facts; the service layer translates them into domain errors.
package store

import (
	"context"

	"gavel/internal/account/models"
	"gavel/pkg/domain"
)

// Store is the authoritative account record.
//
// Execute is the atomic check-then-mutate seam: validate and mutate run while
// the implementation holds the record (mutex, or an optimistic version check
// in Postgres), so two concurrent moderation calls on the same account cannot
// both apply. The loser observes sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error)
	Execute(
		ctx context.Context,
		accountID domain.AccountID,
		validate func(*models.Account) error,
		mutate func(*models.Account),
	) (*models.Account, error)
}
