package strategy

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultBollingerPeriod 布林带默认窗口。
const DefaultBollingerPeriod = 20

// Bands 布林带 (lower, mid, upper)；全零表示样本不足。
type Bands struct {
	Lower decimal.Decimal
	Mid   decimal.Decimal
	Upper decimal.Decimal
}

// Ready 样本不足时返回的全零哨兵视为未就绪。
func (b Bands) Ready() bool {
	return !(b.Lower.IsZero() && b.Mid.IsZero() && b.Upper.IsZero())
}

// BollingerBands 用最近 period 个样本计算均值 ± 2 倍总体标准差。
func BollingerBands(prices []decimal.Decimal, period int) Bands {
	if period <= 0 {
		period = DefaultBollingerPeriod
	}
	if len(prices) < period {
		return Bands{}
	}
	window := prices[len(prices)-period:]
	sma := mean(window)
	sq := make([]decimal.Decimal, len(window))
	for i, p := range window {
		dev := p.Sub(sma)
		sq[i] = dev.Mul(dev)
	}
	variance := mean(sq)
	// decimal 没有开方，方差转 float64 后开方误差远小于报价精度
	std := decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
	width := std.Mul(two)
	return Bands{
		Lower: sma.Sub(width),
		Mid:   sma,
		Upper: sma.Add(width),
	}
}

// BandsAdjustment 价格触及上轨视为超买，触及下轨视为超卖，其余 ×0.95。
// 未就绪时跳过上下轨比较，直接按中性 ×0.95 处理。
func BandsAdjustment(ref decimal.Decimal, b Bands) Adjustment {
	if b.Ready() {
		switch {
		case ref.GreaterThanOrEqual(b.Upper):
			return Adjustment{Bid: widen, Ask: narrow}
		case ref.LessThanOrEqual(b.Lower):
			return Adjustment{Bid: narrow, Ask: widen}
		}
	}
	return Adjustment{Bid: tighten, Ask: tighten}
}
