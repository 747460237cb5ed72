package inventory

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Tracker 维护净仓位。
type Tracker struct {
	mu       sync.RWMutex
	net      decimal.Decimal
	cost     decimal.Decimal
	realized decimal.Decimal
}

// Update 根据成交数量调整仓位，deltaQty 买入为正、卖出为负。
// 加仓时按加权平均更新成本，减仓时记录已实现盈亏。
func (t *Tracker) Update(deltaQty, price decimal.Decimal) {
	if deltaQty.IsZero() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	sameDir := t.net.IsZero() || t.net.Sign() == deltaQty.Sign()
	if sameDir {
		totalValue := t.cost.Mul(t.net).Add(price.Mul(deltaQty))
		t.net = t.net.Add(deltaQty)
		t.cost = totalValue.Div(t.net)
		return
	}

	// 反向成交：先平掉已有仓位
	closing := decimal.Min(deltaQty.Abs(), t.net.Abs())
	if t.net.IsPositive() {
		t.realized = t.realized.Add(price.Sub(t.cost).Mul(closing))
	} else {
		t.realized = t.realized.Add(t.cost.Sub(price).Mul(closing))
	}
	t.net = t.net.Add(deltaQty)
	switch {
	case t.net.IsZero():
		t.cost = decimal.Zero
	case t.net.Sign() == deltaQty.Sign():
		// 翻转，剩余部分按成交价开仓
		t.cost = price
	}
}

func (t *Tracker) NetExposure() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.net
}

func (t *Tracker) AvgCost() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cost
}

func (t *Tracker) RealizedPnL() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.realized
}
