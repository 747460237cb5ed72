package order

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// FillEvent 成交事件
type FillEvent struct {
	OrderID   string
	Side      string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Timestamp time.Time
}

// FillTracker 跟踪近期成交（滑动窗口），用于成交日志与统计。
type FillTracker struct {
	mu sync.RWMutex

	recentFills []FillEvent
	maxHistory  int
	windowSize  time.Duration

	totalFills  int
	boughtQty   decimal.Decimal
	soldQty     decimal.Decimal
	quoteVolume decimal.Decimal
	now         func() time.Time
}

// NewFillTracker 创建成交跟踪器
func NewFillTracker(maxHistory int, windowSize time.Duration) *FillTracker {
	if maxHistory <= 0 {
		maxHistory = 100
	}
	if windowSize <= 0 {
		windowSize = 5 * time.Minute
	}
	return &FillTracker{
		recentFills: make([]FillEvent, 0, maxHistory),
		maxHistory:  maxHistory,
		windowSize:  windowSize,
		now:         time.Now,
	}
}

// RecordFill 记录成交
func (f *FillTracker) RecordFill(orderID, side string, price, quantity decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recentFills = append(f.recentFills, FillEvent{
		OrderID:   orderID,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Timestamp: f.now(),
	})
	f.totalFills++
	if side == "BUY" {
		f.boughtQty = f.boughtQty.Add(quantity)
	} else {
		f.soldQty = f.soldQty.Add(quantity)
	}
	f.quoteVolume = f.quoteVolume.Add(price.Mul(quantity))

	f.cleanOldFillsUnsafe()
}

// cleanOldFillsUnsafe 清理超出窗口的成交记录（非线程安全）
func (f *FillTracker) cleanOldFillsUnsafe() {
	cutoff := f.now().Add(-f.windowSize)
	validStart := len(f.recentFills)
	for i, fill := range f.recentFills {
		if fill.Timestamp.After(cutoff) {
			validStart = i
			break
		}
	}
	if validStart > 0 {
		f.recentFills = f.recentFills[validStart:]
	}
	if len(f.recentFills) > f.maxHistory {
		f.recentFills = f.recentFills[len(f.recentFills)-f.maxHistory:]
	}
}

// GetRecentFills 获取窗口内的成交记录（只读副本）
func (f *FillTracker) GetRecentFills() []FillEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanOldFillsUnsafe()
	return append([]FillEvent(nil), f.recentFills...)
}

// GetStats 获取统计信息
func (f *FillTracker) GetStats() FillTrackerStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanOldFillsUnsafe()

	stats := FillTrackerStats{
		TotalFills:  f.totalFills,
		RecentFills: len(f.recentFills),
		BoughtQty:   f.boughtQty,
		SoldQty:     f.soldQty,
		QuoteVolume: f.quoteVolume,
	}
	if minutes := f.windowSize.Minutes(); minutes > 0 {
		stats.RecentFillRate = float64(len(f.recentFills)) / minutes
	}
	return stats
}

// FillTrackerStats 成交跟踪器统计
type FillTrackerStats struct {
	TotalFills     int
	RecentFills    int
	RecentFillRate float64 // 每分钟成交次数
	BoughtQty      decimal.Decimal
	SoldQty        decimal.Decimal
	QuoteVolume    decimal.Decimal
}
