package domain

type Money int64

func (m Money) Plus(o Money) Money  { return m + o }
func (m Money) Minus(o Money) Money { return m - o }
func (m Money) IsNegative() bool    { return m < 0 }
