package out

import (
	"context"

	"example.com/buckpal/account/domain"
)

type LoadAccountPort interface {
	LoadAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error)
}

type UpdateAccountStatePort interface {
	UpdateActivities(ctx context.Context, account *domain.Account) error
}
