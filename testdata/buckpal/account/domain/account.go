package domain

import (
	"errors"
	"time"
)

// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

type AccountID int64

type Activity struct {
	Owner     AccountID
	Source    AccountID
	Target    AccountID
	Timestamp time.Time
	Money     Money
}

type Account struct {
	ID              AccountID
	BaselineBalance Money
	Activities      []Activity
}

func (a *Account) Balance() Money {
	total := a.BaselineBalance
	for _, act := range a.Activities {
		if act.Target == a.ID {
			total = total.Plus(act.Money)
		} else {
			total = total.Minus(act.Money)
		}
	}
	return total
}

func (a *Account) Withdraw(m Money, target AccountID, now time.Time) error {
	if a.Balance().Minus(m).IsNegative() {
		return ErrInsufficientFunds
	}
	a.Activities = append(a.Activities, Activity{Owner: a.ID, Source: a.ID, Target: target, Timestamp: now, Money: m})
	return nil
}

func (a *Account) Deposit(m Money, source AccountID, now time.Time) {
	a.Activities = append(a.Activities, Activity{Owner: a.ID, Source: source, Target: a.ID, Timestamp: now, Money: m})
}
