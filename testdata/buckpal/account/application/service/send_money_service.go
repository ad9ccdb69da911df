package service

import (
	"context"
	"time"

	"example.com/buckpal/account/application/port/in"
	"example.com/buckpal/account/application/port/out"
)

type SendMoneyService struct {
	Load   out.LoadAccountPort
	Update out.UpdateAccountStatePort
	Now    func() time.Time
}

var _ in.SendMoneyUseCase = (*SendMoneyService)(nil)

func (s *SendMoneyService) SendMoney(ctx context.Context, cmd in.SendMoneyCommand) error {
	source, err := s.Load.LoadAccount(ctx, cmd.Source)
	if err != nil {
		return err
	}
	target, err := s.Load.LoadAccount(ctx, cmd.Target)
	if err != nil {
		return err
	}
	if err := source.Withdraw(cmd.Money, cmd.Target, s.Now()); err != nil {
		return err
	}
	target.Deposit(cmd.Money, cmd.Source, s.Now())
	if err := s.Update.UpdateActivities(ctx, source); err != nil {
		return err
	}
	return s.Update.UpdateActivities(ctx, target)
}
