package strategy

import "github.com/shopspring/decimal"

var volScale = decimal.NewFromInt(10)

// VolatilityEstimator 用一步收益率绝对值的均值放大基础价差，上限为 max/base。
type VolatilityEstimator struct {
	BaseSpread decimal.Decimal
	MaxSpread  decimal.Decimal
}

// Multiplier 返回 >=1 的价差乘数；样本不足 2 个时返回 1。
func (v VolatilityEstimator) Multiplier(prices []decimal.Decimal) decimal.Decimal {
	vol, ok := MeanAbsReturn(prices)
	if !ok {
		return one
	}
	m := one.Add(vol.Mul(volScale))
	if v.BaseSpread.IsPositive() {
		m = decimal.Min(m, v.MaxSpread.Div(v.BaseSpread))
	}
	return m
}

// MeanAbsReturn 计算 |p[i]-p[i-1]|/p[i-1] 的均值。
func MeanAbsReturn(prices []decimal.Decimal) (decimal.Decimal, bool) {
	if len(prices) < 2 {
		return decimal.Zero, false
	}
	returns := make([]decimal.Decimal, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if !prev.IsPositive() {
			continue
		}
		returns = append(returns, prices[i].Sub(prev).Abs().Div(prev))
	}
	if len(returns) == 0 {
		return decimal.Zero, false
	}
	return mean(returns), true
}
