package strategy

import "github.com/shopspring/decimal"

// DefaultRSIPeriod RSI 默认回看周期。
const DefaultRSIPeriod = 14

var (
	rsiNeutral    = decimal.NewFromInt(50)
	rsiOverbought = decimal.NewFromInt(70)
	rsiOversold   = decimal.NewFromInt(30)
)

// RSI 计算最近 period 个价格变动的相对强弱指数（简单平均，非 Wilder 平滑）。
// 样本不足 period+1 时返回 50；无下跌时返回 100。
func RSI(prices []decimal.Decimal, period int) decimal.Decimal {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	n := len(prices)
	if n < period+1 {
		return rsiNeutral
	}
	gains, losses := decimal.Zero, decimal.Zero
	for i := 1; i <= period; i++ {
		change := prices[n-i].Sub(prices[n-i-1])
		if change.IsPositive() {
			gains = gains.Add(change)
		} else {
			losses = losses.Add(change.Abs())
		}
	}
	p := decimal.NewFromInt(int64(period))
	avgGain := gains.Div(p)
	avgLoss := losses.Div(p)
	if avgLoss.IsZero() {
		return hundred
	}
	rs := avgGain.Div(avgLoss)
	return hundred.Sub(hundred.Div(one.Add(rs)))
}

// RSIAdjustment 超买时放宽 bid 收窄 ask，超卖反之，中性区间双边 ×0.95。
func RSIAdjustment(rsi decimal.Decimal) Adjustment {
	switch {
	case rsi.GreaterThan(rsiOverbought):
		return Adjustment{Bid: widen, Ask: narrow}
	case rsi.LessThan(rsiOversold):
		return Adjustment{Bid: narrow, Ask: widen}
	default:
		return Adjustment{Bid: tighten, Ask: tighten}
	}
}
