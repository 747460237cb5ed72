package inventory

import "github.com/shopspring/decimal"

// Valuation 基于当前参考价计算未实现盈亏。
func (t *Tracker) Valuation(mid decimal.Decimal) (net, pnl decimal.Decimal) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	net = t.net
	pnl = mid.Sub(t.cost).Mul(t.net)
	return
}
