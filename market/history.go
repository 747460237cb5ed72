package market

import "github.com/shopspring/decimal"

// PriceHistory 按时间顺序保存最近 N 个参考价样本，超出容量时淘汰最旧的一个。
// 由单个策略实例独占，不做并发保护。
type PriceHistory struct {
	capacity int
	prices   []decimal.Decimal
}

// NewPriceHistory 创建容量为 capacity 的价格缓冲区；capacity<=0 时按 1 处理。
func NewPriceHistory(capacity int) *PriceHistory {
	if capacity <= 0 {
		capacity = 1
	}
	return &PriceHistory{
		capacity: capacity,
		prices:   make([]decimal.Decimal, 0, capacity+1),
	}
}

// Append 追加一个价格样本。价格 <=0 时拒绝写入并返回 false。
func (h *PriceHistory) Append(price decimal.Decimal) bool {
	if !price.IsPositive() {
		return false
	}
	h.prices = append(h.prices, price)
	if len(h.prices) > h.capacity {
		// 原地左移，避免底层数组无限增长
		n := copy(h.prices, h.prices[len(h.prices)-h.capacity:])
		h.prices = h.prices[:n]
	}
	return true
}

// Snapshot 返回当前样本的只读副本（旧 -> 新）。
func (h *PriceHistory) Snapshot() []decimal.Decimal {
	out := make([]decimal.Decimal, len(h.prices))
	copy(out, h.prices)
	return out
}

func (h *PriceHistory) Len() int { return len(h.prices) }

func (h *PriceHistory) Capacity() int { return h.capacity }

// Last 返回最新样本；为空时返回 0 和 false。
func (h *PriceHistory) Last() (decimal.Decimal, bool) {
	if len(h.prices) == 0 {
		return decimal.Zero, false
	}
	return h.prices[len(h.prices)-1], true
}
