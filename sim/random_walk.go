package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"pmm-go/market"
)

// RandomWalk 离线行情源：mid 按高斯随机游走，bid/ask 围绕 mid 对称，
// 每个 tick 同时推送一笔成交。
type RandomWalk struct {
	Symbol     string
	Mid        float64 // 起始价格
	Vol        float64 // 每步收益率标准差，如 0.0005
	HalfSpread float64 // 相对 mid 的半价差，如 0.0001
	Interval   time.Duration

	rng *rand.Rand
}

// NewRandomWalk 使用固定种子便于复现。
func NewRandomWalk(symbol string, start float64, seed int64) *RandomWalk {
	return &RandomWalk{
		Symbol:     symbol,
		Mid:        start,
		Vol:        0.0005,
		HalfSpread: 0.0001,
		Interval:   time.Second,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Next 前进一步，返回新的 bid/ask/last。
func (w *RandomWalk) Next() (bid, ask, last decimal.Decimal) {
	w.Mid *= 1 + w.rng.NormFloat64()*w.Vol
	if w.Mid < 0.01 {
		w.Mid = 0.01
	}
	mid := decimal.NewFromFloat(w.Mid).Round(8)
	half := mid.Mul(decimal.NewFromFloat(w.HalfSpread)).Round(8)
	// 成交价落在 bid/ask 之间
	offset := decimal.NewFromFloat(w.rng.Float64()*2 - 1).Mul(half).Round(8)
	return mid.Sub(half), mid.Add(half), mid.Add(offset)
}

// Series 生成 n 个 mid 价格，供回放使用。
func (w *RandomWalk) Series(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, n)
	for i := 0; i < n; i++ {
		bid, ask, _ := w.Next()
		out = append(out, bid.Add(ask).Div(decimal.NewFromInt(2)))
	}
	return out
}

// Run 按 Interval 将行情写入 market.Service，直到 ctx 取消。
func (w *RandomWalk) Run(ctx context.Context, svc *market.Service) error {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	w.step(svc, time.Now().UTC())
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			w.step(svc, now.UTC())
		}
	}
}

func (w *RandomWalk) step(svc *market.Service, now time.Time) {
	bid, ask, last := w.Next()
	svc.OnDepth(w.Symbol, bid, ask, now)
	svc.OnTrade(w.Symbol, last, decimal.RequireFromString("0.001"), now)
}
