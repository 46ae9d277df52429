package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gavel/internal/kyc/models"
	"gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

type SubmissionStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestSubmissionStoreSuite(t *testing.T) {
	suite.Run(t, new(SubmissionStoreSuite))
}

func (s *SubmissionStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *SubmissionStoreSuite) seed() *models.Submission {
	submission := models.NewSubmission(domain.SubmissionID(uuid.New()), domain.AccountID(uuid.New()), time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, submission))
	return submission
}

func (s *SubmissionStoreSuite) TestCreateAndFind() {
	submission := s.seed()

	byID, err := s.store.FindByID(s.ctx, submission.ID)
	s.Require().NoError(err)
	s.Equal(submission.ID, byID.ID)

	byAccount, err := s.store.FindByAccount(s.ctx, submission.AccountID)
	s.Require().NoError(err)
	s.Equal(submission.ID, byAccount.ID)
}

func (s *SubmissionStoreSuite) TestOneSubmissionPerAccount() {
	submission := s.seed()

	duplicate := models.NewSubmission(domain.SubmissionID(uuid.New()), submission.AccountID, time.Now().UTC())
	err := s.store.Create(s.ctx, duplicate)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *SubmissionStoreSuite) TestFindUnknown() {
	_, err := s.store.FindByID(s.ctx, domain.SubmissionID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByAccount(s.ctx, domain.AccountID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SubmissionStoreSuite) TestExecuteAdvancesVersion() {
	submission := s.seed()

	updated, err := s.store.Execute(s.ctx, submission.ID,
		func(sub *models.Submission) error { return sub.CanSubmit() },
		func(sub *models.Submission) {
			sub.ApplySubmission([]string{"https://docs.example.com/id.jpg"}, time.Now())
		},
	)
	s.Require().NoError(err)
	s.Equal(domain.KYCPending, updated.Status)
	s.Equal(submission.Version+1, updated.Version)
}

func (s *SubmissionStoreSuite) TestExecuteValidationLeavesStateUntouched() {
	submission := s.seed()

	_, err := s.store.Execute(s.ctx, submission.ID,
		func(sub *models.Submission) error { return sub.CanReview() },
		func(sub *models.Submission) { s.FailNow("mutate must not run") },
	)
	s.Require().Error(err)

	stored, err := s.store.FindByID(s.ctx, submission.ID)
	s.Require().NoError(err)
	s.Equal(domain.KYCNotSubmitted, stored.Status)
	s.Equal(submission.Version, stored.Version)
}

func (s *SubmissionStoreSuite) TestListPending() {
	pending := s.seed()
	_, err := s.store.Execute(s.ctx, pending.ID,
		func(sub *models.Submission) error { return sub.CanSubmit() },
		func(sub *models.Submission) {
			sub.ApplySubmission([]string{"https://docs.example.com/id.jpg"}, time.Now())
		},
	)
	s.Require().NoError(err)
	s.seed() // stays NOT_SUBMITTED

	list, err := s.store.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(pending.ID, list[0].ID)
}

func (s *SubmissionStoreSuite) TestDelete() {
	submission := s.seed()

	s.Require().NoError(s.store.Delete(s.ctx, submission.ID))

	_, err := s.store.FindByID(s.ctx, submission.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// The account may submit again from scratch.
	fresh := models.NewSubmission(domain.SubmissionID(uuid.New()), submission.AccountID, time.Now().UTC())
	s.NoError(s.store.Create(s.ctx, fresh))

	s.ErrorIs(s.store.Delete(s.ctx, submission.ID), sentinel.ErrNotFound)
}
