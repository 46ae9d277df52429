package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accountmodels "gavel/internal/account/models"
	accountstore "gavel/internal/account/store"
	"gavel/internal/audit"
	"gavel/internal/authz"
	kycmodels "gavel/internal/kyc/models"
	kycstore "gavel/internal/kyc/store"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type KYCServiceSuite struct {
	suite.Suite

	accounts    *accountstore.InMemory
	submissions *kycstore.InMemory
	events      *audit.InMemoryStore
	svc         *Service

	reviewer domain.Principal
}

func TestKYCServiceSuite(t *testing.T) {
	suite.Run(t, new(KYCServiceSuite))
}

func (s *KYCServiceSuite) SetupTest() {
	s.accounts = accountstore.NewInMemory()
	s.submissions = kycstore.NewInMemory()
	s.events = audit.NewInMemoryStore()

	s.svc = New(
		authz.NewCapabilityAuthorizer(),
		s.submissions,
		s.accounts,
		WithAudit(audit.NewPublisher(s.events, nil, testLogger())),
		WithLogger(testLogger()),
	)

	s.reviewer = domain.Principal{
		ID:           domain.PrincipalID(uuid.New()),
		Email:        "reviewer@example.com",
		Capabilities: []string{"approve:kyc"},
	}
}

func (s *KYCServiceSuite) seedAccount() domain.AccountID {
	account := accountmodels.New(domain.AccountID(uuid.New()), "seller@example.com", nil, time.Now().UTC())
	s.Require().NoError(s.accounts.Create(context.Background(), account))
	return account.ID
}

func (s *KYCServiceSuite) seedPending() (domain.AccountID, domain.SubmissionID) {
	accountID := s.seedAccount()
	submission, err := s.svc.Submit(context.Background(), accountID, []string{"https://docs.example.com/id.jpg"})
	s.Require().NoError(err)
	return accountID, submission.ID
}

func (s *KYCServiceSuite) accountKYCStatus(accountID domain.AccountID) domain.KYCStatus {
	account, err := s.accounts.FindByID(context.Background(), accountID)
	s.Require().NoError(err)
	return account.KYCStatus
}

func (s *KYCServiceSuite) TestSubmitCreatesPendingSubmission() {
	accountID := s.seedAccount()

	submission, err := s.svc.Submit(context.Background(), accountID, []string{"https://docs.example.com/id.jpg"})

	s.Require().NoError(err)
	s.Equal(domain.KYCPending, submission.Status)
	s.Equal(domain.KYCPending, s.accountKYCStatus(accountID))
}

func (s *KYCServiceSuite) TestSubmitRequiresDocuments() {
	accountID := s.seedAccount()

	_, err := s.svc.Submit(context.Background(), accountID, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *KYCServiceSuite) TestSubmitUnknownAccount() {
	_, err := s.svc.Submit(context.Background(), domain.AccountID(uuid.New()), []string{"https://docs.example.com/id.jpg"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *KYCServiceSuite) TestSubmitWhilePendingConflicts() {
	accountID, _ := s.seedPending()

	_, err := s.svc.Submit(context.Background(), accountID, []string{"https://docs.example.com/id2.jpg"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *KYCServiceSuite) TestApproveUnlocksBidding() {
	accountID, submissionID := s.seedPending()

	reviewed, err := s.svc.Approve(context.Background(), s.reviewer, submissionID)

	s.Require().NoError(err)
	s.Equal(domain.KYCApproved, reviewed.Status)
	s.Require().NotNil(reviewed.ReviewedBy)
	s.Equal(s.reviewer.ID, *reviewed.ReviewedBy)
	s.Equal(domain.KYCApproved, s.accountKYCStatus(accountID))
}

func (s *KYCServiceSuite) TestRejectRequiresReason() {
	_, submissionID := s.seedPending()

	_, err := s.svc.Reject(context.Background(), s.reviewer, submissionID, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	submission, getErr := s.svc.Get(context.Background(), s.reviewer, submissionID)
	s.Require().NoError(getErr)
	s.Equal(domain.KYCPending, submission.Status)
}

func (s *KYCServiceSuite) TestRejectRecordsReason() {
	accountID, submissionID := s.seedPending()

	reviewed, err := s.svc.Reject(context.Background(), s.reviewer, submissionID, "blurry ID photo")

	s.Require().NoError(err)
	s.Equal(domain.KYCRejected, reviewed.Status)
	s.Require().NotNil(reviewed.RejectionReason)
	s.Equal("blurry ID photo", *reviewed.RejectionReason)
	s.Equal(domain.KYCRejected, s.accountKYCStatus(accountID))
}

func (s *KYCServiceSuite) TestMonotonicReview() {
	_, submissionID := s.seedPending()

	_, err := s.svc.Approve(context.Background(), s.reviewer, submissionID)
	s.Require().NoError(err)

	_, err = s.svc.Approve(context.Background(), s.reviewer, submissionID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.Reject(context.Background(), s.reviewer, submissionID, "late rejection")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *KYCServiceSuite) TestLosingReviewLeavesMirrorUntouched() {
	accountID, submissionID := s.seedPending()

	_, err := s.svc.Approve(context.Background(), s.reviewer, submissionID)
	s.Require().NoError(err)

	_, err = s.svc.Reject(context.Background(), s.reviewer, submissionID, "second opinion")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// The losing reviewer's outcome never reaches the account record.
	s.Equal(domain.KYCApproved, s.accountKYCStatus(accountID))
}

func (s *KYCServiceSuite) TestReviewAfterDeleteLeavesMirrorReset() {
	accountID, submissionID := s.seedPending()

	s.Require().NoError(s.svc.Delete(context.Background(), s.reviewer, submissionID))

	_, err := s.svc.Approve(context.Background(), s.reviewer, submissionID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// A review that found no submission must not mark the account approved.
	s.Equal(domain.KYCNotSubmitted, s.accountKYCStatus(accountID))
}

func (s *KYCServiceSuite) TestReviewNotSubmittedConflicts() {
	accountID := s.seedAccount()
	submission := kycmodels.NewSubmission(domain.SubmissionID(uuid.New()), accountID, time.Now().UTC())
	s.Require().NoError(s.submissions.Create(context.Background(), submission))

	_, err := s.svc.Reject(context.Background(), s.reviewer, submission.ID, "nothing to review")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *KYCServiceSuite) TestResubmitAfterMoreInfo() {
	accountID, submissionID := s.seedPending()

	_, err := s.svc.RequestMoreInfo(context.Background(), s.reviewer, submissionID, "need proof of address")
	s.Require().NoError(err)
	s.Equal(domain.KYCNeedsMoreInfo, s.accountKYCStatus(accountID))

	resubmitted, err := s.svc.Submit(context.Background(), accountID, []string{
		"https://docs.example.com/id.jpg",
		"https://docs.example.com/bill.pdf",
	})
	s.Require().NoError(err)
	s.Equal(submissionID, resubmitted.ID)
	s.Equal(domain.KYCPending, resubmitted.Status)
	s.Nil(resubmitted.RejectionReason)
	s.Equal(domain.KYCPending, s.accountKYCStatus(accountID))
}

func (s *KYCServiceSuite) TestReviewRequiresCapability() {
	_, submissionID := s.seedPending()
	moderator := domain.Principal{
		ID:           domain.PrincipalID(uuid.New()),
		Capabilities: []string{"manage:accounts"},
	}

	_, err := s.svc.Approve(context.Background(), moderator, submissionID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.svc.Approve(context.Background(), domain.Principal{}, submissionID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *KYCServiceSuite) TestDeleteResetsAccountStatus() {
	accountID, submissionID := s.seedPending()

	s.Require().NoError(s.svc.Delete(context.Background(), s.reviewer, submissionID))

	_, err := s.svc.Get(context.Background(), s.reviewer, submissionID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(domain.KYCNotSubmitted, s.accountKYCStatus(accountID))

	s.True(dErrors.HasCode(s.svc.Delete(context.Background(), s.reviewer, submissionID), dErrors.CodeNotFound))
}

func (s *KYCServiceSuite) TestListPending() {
	accountID, _ := s.seedPending()
	s.seedAccount() // no submission

	pending, err := s.svc.ListPending(context.Background(), s.reviewer)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(accountID, pending[0].AccountID)
}

func (s *KYCServiceSuite) TestReviewEmitsAudit() {
	accountID, submissionID := s.seedPending()

	_, err := s.svc.Approve(context.Background(), s.reviewer, submissionID)
	s.Require().NoError(err)

	events, err := s.events.ListByAccount(context.Background(), accountID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionKYCSubmitted, events[0].Action)
	s.Equal(audit.ActionKYCApproved, events[1].Action)
	s.Equal(s.reviewer.ID.String(), events[1].ActorID)
}
