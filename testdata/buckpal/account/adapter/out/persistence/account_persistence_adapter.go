package persistence

import (
	"context"
	"fmt"
	"sync"

	"example.com/buckpal/account/application/port/out"
	"example.com/buckpal/account/domain"
)

const TableName = "accounts"

type AccountPersistenceAdapter struct {
	mu       sync.Mutex
	accounts map[domain.AccountID]*domain.Account
}

var (
	_ out.LoadAccountPort        = (*AccountPersistenceAdapter)(nil)
	_ out.UpdateAccountStatePort = (*AccountPersistenceAdapter)(nil)
)

func NewAccountPersistenceAdapter() *AccountPersistenceAdapter {
	return &AccountPersistenceAdapter{accounts: make(map[domain.AccountID]*domain.Account)}
}

func (a *AccountPersistenceAdapter) LoadAccount(_ context.Context, id domain.AccountID) (*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%s: account %d not found", TableName, id)
	}
	return acc, nil
}

func (a *AccountPersistenceAdapter) UpdateActivities(_ context.Context, account *domain.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[account.ID] = account
	return nil
}
