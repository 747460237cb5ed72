package order

import (
	"github.com/shopspring/decimal"

	"pmm-go/strategy"
)

// AvailableBalances 查询可用余额（扣除挂单占用）。
type AvailableBalances interface {
	Available(asset string) decimal.Decimal
}

// BudgetChecker 下单前的资金检查，采用 all-or-none：
// 任一侧资金不足则整组不下，避免单边报价。
type BudgetChecker struct {
	Balances AvailableBalances
}

// Adjust 返回可下单的候选；资金不足时返回 nil。
// 买单需要 price*amount 的 quote 资产，卖单需要 amount 的 base 资产。
func (b BudgetChecker) Adjust(cands []strategy.Candidate) []strategy.Candidate {
	if len(cands) == 0 {
		return nil
	}
	if b.Balances == nil {
		return cands
	}
	need := make(map[string]decimal.Decimal)
	for _, c := range cands {
		base, quote, err := strategy.SplitTradingPair(c.TradingPair)
		if err != nil {
			return nil
		}
		switch c.Side {
		case strategy.SideBuy:
			need[quote] = need[quote].Add(c.Notional())
		case strategy.SideSell:
			need[base] = need[base].Add(c.Amount)
		}
	}
	for asset, amt := range need {
		if b.Balances.Available(asset).LessThan(amt) {
			return nil
		}
	}
	return cands
}
