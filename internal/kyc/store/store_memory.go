package store

import (
	"context"
	"sync"

	"gavel/internal/kyc/models"
	"gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded submission store used by tests and dev runs.
type InMemory struct {
	mu          sync.RWMutex
	submissions map[domain.SubmissionID]*models.Submission
	byAccount   map[domain.AccountID]domain.SubmissionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		submissions: make(map[domain.SubmissionID]*models.Submission),
		byAccount:   make(map[domain.AccountID]domain.SubmissionID),
	}
}

func (s *InMemory) Create(ctx context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[submission.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byAccount[submission.AccountID]; exists {
		return sentinel.ErrConflict
	}
	s.submissions[submission.ID] = submission.Clone()
	s.byAccount[submission.AccountID] = submission.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, submissionID domain.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	submission, ok := s.submissions[submissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return submission.Clone(), nil
}

func (s *InMemory) FindByAccount(ctx context.Context, accountID domain.AccountID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	submissionID, ok := s.byAccount[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.submissions[submissionID].Clone(), nil
}

func (s *InMemory) ListPending(ctx context.Context) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*models.Submission
	for _, submission := range s.submissions {
		if submission.Status == domain.KYCPending {
			pending = append(pending, submission.Clone())
		}
	}
	return pending, nil
}

func (s *InMemory) Execute(
	ctx context.Context,
	submissionID domain.SubmissionID,
	validate func(*models.Submission) error,
	mutate func(*models.Submission),
) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.submissions[submissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	submission := stored.Clone()
	if err := validate(submission); err != nil {
		return nil, err
	}
	mutate(submission)
	submission.Version++
	s.submissions[submissionID] = submission

	return submission.Clone(), nil
}

func (s *InMemory) Delete(ctx context.Context, submissionID domain.SubmissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.submissions[submissionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byAccount, submission.AccountID)
	delete(s.submissions, submissionID)
	return nil
}
