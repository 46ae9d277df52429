//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accountmodels "gavel/internal/account/models"
	accountstore "gavel/internal/account/store"
	"gavel/internal/kyc/models"
	"gavel/internal/kyc/store"
	"gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/testutil/containers"
)

type PostgresSubmissionSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	accounts *accountstore.Postgres
	store    *store.Postgres
}

func TestPostgresSubmissionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSubmissionSuite))
}

func (s *PostgresSubmissionSuite) SetupSuite() {
	s.postgres = containers.StartPostgres(s.T())
	s.accounts = accountstore.NewPostgres(s.postgres.Pool)
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresSubmissionSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "kyc_submissions", "accounts"))
}

// seed satisfies the accounts foreign key before creating a submission.
func (s *PostgresSubmissionSuite) seed() *models.Submission {
	ctx := context.Background()
	account := accountmodels.New(domain.AccountID(uuid.New()), "seller@example.com", nil, time.Now().UTC())
	s.Require().NoError(s.accounts.Create(ctx, account))

	submission := models.NewSubmission(domain.SubmissionID(uuid.New()), account.ID, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, submission))
	return submission
}

func (s *PostgresSubmissionSuite) TestRoundTrip() {
	ctx := context.Background()
	submission := s.seed()

	found, err := s.store.FindByID(ctx, submission.ID)
	s.Require().NoError(err)
	s.Equal(domain.KYCNotSubmitted, found.Status)
	s.Nil(found.RejectionReason)
	s.Nil(found.ReviewedBy)

	byAccount, err := s.store.FindByAccount(ctx, submission.AccountID)
	s.Require().NoError(err)
	s.Equal(submission.ID, byAccount.ID)
}

func (s *PostgresSubmissionSuite) TestOneSubmissionPerAccount() {
	ctx := context.Background()
	submission := s.seed()

	duplicate := models.NewSubmission(domain.SubmissionID(uuid.New()), submission.AccountID, time.Now().UTC())
	s.Require().ErrorIs(s.store.Create(ctx, duplicate), sentinel.ErrConflict)
}

func (s *PostgresSubmissionSuite) TestReviewRoundTrip() {
	ctx := context.Background()
	submission := s.seed()
	reviewer := domain.PrincipalID(uuid.New())

	_, err := s.store.Execute(ctx, submission.ID,
		func(sub *models.Submission) error { return sub.CanSubmit() },
		func(sub *models.Submission) {
			sub.ApplySubmission([]string{"https://docs.example.com/id.jpg"}, time.Now().UTC())
		},
	)
	s.Require().NoError(err)

	reviewed, err := s.store.Execute(ctx, submission.ID,
		func(sub *models.Submission) error { return sub.CanReview() },
		func(sub *models.Submission) {
			sub.ApplyReview(domain.KYCRejected, reviewer, "blurry ID photo", time.Now().UTC())
		},
	)
	s.Require().NoError(err)
	s.Equal(domain.KYCRejected, reviewed.Status)

	found, err := s.store.FindByID(ctx, submission.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.RejectionReason)
	s.Equal("blurry ID photo", *found.RejectionReason)
	s.Require().NotNil(found.ReviewedBy)
	s.Equal(reviewer, *found.ReviewedBy)
	s.Equal([]string{"https://docs.example.com/id.jpg"}, found.DocumentURLs)
}

func (s *PostgresSubmissionSuite) TestListPendingOrdersByAge() {
	ctx := context.Background()
	first := s.seed()
	second := s.seed()

	for _, submission := range []*models.Submission{first, second} {
		_, err := s.store.Execute(ctx, submission.ID,
			func(sub *models.Submission) error { return sub.CanSubmit() },
			func(sub *models.Submission) {
				sub.ApplySubmission([]string{"https://docs.example.com/id.jpg"}, time.Now().UTC())
			},
		)
		s.Require().NoError(err)
	}

	pending, err := s.store.ListPending(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)
}

func (s *PostgresSubmissionSuite) TestDelete() {
	ctx := context.Background()
	submission := s.seed()

	s.Require().NoError(s.store.Delete(ctx, submission.ID))
	_, err := s.store.FindByID(ctx, submission.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(ctx, submission.ID), sentinel.ErrNotFound)
}
