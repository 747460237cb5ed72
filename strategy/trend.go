package strategy

import "github.com/shopspring/decimal"

// Trend 均线方向。
type Trend int

const (
	TrendNeutral Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "uptrend"
	case TrendDown:
		return "downtrend"
	default:
		return "neutral"
	}
}

const (
	trendMinSamples  = 5
	trendShortWindow = 3
)

var (
	trendUpperBand = decimal.RequireFromString("1.001")
	trendLowerBand = decimal.RequireFromString("0.999")
)

// DetectTrend 比较最近 3 个样本均值与整个窗口均值。
func DetectTrend(prices []decimal.Decimal) Trend {
	if len(prices) < trendMinSamples {
		return TrendNeutral
	}
	short := mean(prices[len(prices)-trendShortWindow:])
	long := mean(prices)
	switch {
	case short.GreaterThan(long.Mul(trendUpperBand)):
		return TrendUp
	case short.LessThan(long.Mul(trendLowerBand)):
		return TrendDown
	default:
		return TrendNeutral
	}
}

// TrendAdjustment 上涨时放宽 bid、收窄 ask；下跌反之。
func TrendAdjustment(t Trend) Adjustment {
	switch t {
	case TrendUp:
		return Adjustment{Bid: widen, Ask: narrow}
	case TrendDown:
		return Adjustment{Bid: narrow, Ask: widen}
	default:
		return NoAdjustment
	}
}
