package strategy

import "github.com/shopspring/decimal"

// 报价调整用到的固定常量。
var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)

	widen   = decimal.RequireFromString("1.2")
	narrow  = decimal.RequireFromString("0.8")
	tighten = decimal.RequireFromString("0.95")

	skewWiden = decimal.RequireFromString("1.5")
)

// Adjustment 是一次对 bid/ask 价差的乘法调整。
type Adjustment struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// NoAdjustment 不改变价差。
var NoAdjustment = Adjustment{Bid: one, Ask: one}

func (a Adjustment) apply(bid, ask decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return bid.Mul(a.Bid), ask.Mul(a.Ask)
}

func mean(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(x)
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs))))
}
