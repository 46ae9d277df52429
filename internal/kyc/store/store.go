// Package store persists KYC submissions. Execute follows the account
// store's atomic read-validate-mutate shape so review decisions serialize
// under the same first-write-wins rule.
package store

import (
	"context"

	"gavel/internal/kyc/models"
	"gavel/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, submissionID domain.SubmissionID) (*models.Submission, error)
	FindByAccount(ctx context.Context, accountID domain.AccountID) (*models.Submission, error)
	ListPending(ctx context.Context) ([]*models.Submission, error)
	Execute(
		ctx context.Context,
		submissionID domain.SubmissionID,
		validate func(*models.Submission) error,
		mutate func(*models.Submission),
	) (*models.Submission, error)
	Delete(ctx context.Context, submissionID domain.SubmissionID) error
}
