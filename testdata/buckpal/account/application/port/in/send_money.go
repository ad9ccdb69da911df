package in

import (
	"context"

	"example.com/buckpal/account/domain"
)

type SendMoneyCommand struct {
	Source domain.AccountID
	Target domain.AccountID
	Money  domain.Money
}

type SendMoneyUseCase interface {
	SendMoney(ctx context.Context, cmd SendMoneyCommand) error
}
