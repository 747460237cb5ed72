package market

import "github.com/shopspring/decimal"

// Depth 保存最优 bid/ask。
type Depth struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// Update 使用增量更新 bid/ask，非正值视为未变化。
func (d *Depth) Update(bid, ask decimal.Decimal) {
	if bid.IsPositive() {
		d.Bid = bid
	}
	if ask.IsPositive() {
		d.Ask = ask
	}
}

// Mid 返回中间价；任一侧缺失时返回 0。
func (d Depth) Mid() decimal.Decimal {
	if !d.Bid.IsPositive() || !d.Ask.IsPositive() {
		return decimal.Zero
	}
	return d.Bid.Add(d.Ask).Div(decimal.NewFromInt(2))
}
