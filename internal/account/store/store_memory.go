package store

import (
	"context"
	"sync"

	"gavel/internal/account/models"
	"gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded account store used by tests and dev runs.
// The lock is held across validate and mutate so Execute is atomic.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[domain.AccountID]*models.Account),
	}
}

func (s *InMemory) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrConflict
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *InMemory) Execute(
	ctx context.Context,
	accountID domain.AccountID,
	validate func(*models.Account) error,
	mutate func(*models.Account),
) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	account := stored.Clone()
	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)
	account.Version++
	s.accounts[accountID] = account

	return account.Clone(), nil
}
