package posttrade

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pmm-go/strategy"
)

// Markout 观察窗口
const (
	ShortHorizon = time.Second
	LongHorizon  = 5 * time.Second
)

// FillRecord 单笔成交及其之后的参考价
type FillRecord struct {
	FillPrice decimal.Decimal
	FillTime  time.Time
	Side      string

	PriceAfter1s decimal.Decimal
	PriceAfter5s decimal.Decimal
}

func (r *FillRecord) complete() bool {
	return r.PriceAfter1s.IsPositive() && r.PriceAfter5s.IsPositive()
}

// markout 成交后价格变动带来的收益率，正数对做市方有利。
func (r *FillRecord) markout(after decimal.Decimal) decimal.Decimal {
	move := after.Sub(r.FillPrice).Div(r.FillPrice)
	if r.Side == string(strategy.SideSell) {
		return move.Neg()
	}
	return move
}

// Stats 成交后分析汇总
type Stats struct {
	AdverseSelectionRate decimal.Decimal // 1s markout 为负的比例
	AvgMarkout1s         decimal.Decimal
	AvgMarkout5s         decimal.Decimal
	TotalFills           int
	AnalyzedFills        int
}

// Analyzer 记录成交后 1s/5s 的参考价，统计逆向选择。
// 由调用方周期性调用 Sample 推进，不自行起 goroutine。
type Analyzer struct {
	fills  map[string]*FillRecord
	mu     sync.RWMutex
	prices strategy.PriceOracle
	maxAge time.Duration
}

// NewAnalyzer 创建分析器；maxAge<=0 时保留 1 小时。
func NewAnalyzer(prices strategy.PriceOracle, maxAge time.Duration) *Analyzer {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Analyzer{
		fills:  make(map[string]*FillRecord),
		prices: prices,
		maxAge: maxAge,
	}
}

// OnFill 记录一笔成交
func (a *Analyzer) OnFill(orderID, side string, price decimal.Decimal, ts time.Time) {
	if !price.IsPositive() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fills[orderID] = &FillRecord{FillPrice: price, FillTime: ts, Side: side}
}

// Sample 为到期的成交补记参考价，并清理过期记录。
func (a *Analyzer) Sample(now time.Time) {
	ref, ok := decimal.Zero, false
	if a.prices != nil {
		ref, ok = a.prices.ReferencePrice()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for id, r := range a.fills {
		age := now.Sub(r.FillTime)
		if age > a.maxAge {
			delete(a.fills, id)
			continue
		}
		if !ok {
			continue
		}
		if age >= ShortHorizon && r.PriceAfter1s.IsZero() {
			r.PriceAfter1s = ref
		}
		if age >= LongHorizon && r.PriceAfter5s.IsZero() {
			r.PriceAfter5s = ref
		}
	}
}

// Stats 计算汇总
func (a *Analyzer) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{TotalFills: len(a.fills)}
	var (
		adverse      int
		sum1s, sum5s decimal.Decimal
	)
	for _, r := range a.fills {
		if !r.complete() {
			continue
		}
		stats.AnalyzedFills++
		m1 := r.markout(r.PriceAfter1s)
		sum1s = sum1s.Add(m1)
		sum5s = sum5s.Add(r.markout(r.PriceAfter5s))
		if m1.IsNegative() {
			adverse++
		}
	}
	if stats.AnalyzedFills > 0 {
		n := decimal.NewFromInt(int64(stats.AnalyzedFills))
		stats.AdverseSelectionRate = decimal.NewFromInt(int64(adverse)).Div(n)
		stats.AvgMarkout1s = sum1s.Div(n)
		stats.AvgMarkout5s = sum5s.Div(n)
	}
	return stats
}
