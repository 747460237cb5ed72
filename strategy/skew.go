package strategy

import "github.com/shopspring/decimal"

var (
	inventoryNeutral    = decimal.RequireFromString("0.5")
	inventoryBaseHeavy  = decimal.RequireFromString("0.6")
	inventoryQuoteHeavy = decimal.RequireFromString("0.4")
)

// InventoryRatio 计算 base 资产市值占组合总市值的比例；总市值为 0 时返回 0.5。
func InventoryRatio(baseBal, quoteBal, ref decimal.Decimal) decimal.Decimal {
	baseValue := baseBal.Mul(ref)
	denom := baseValue.Add(quoteBal)
	if denom.IsZero() {
		return inventoryNeutral
	}
	return baseValue.Div(denom)
}

// SkewAdjustment base 过重时放宽 bid 抑制继续买入，quote 过重时反之。
func SkewAdjustment(ratio decimal.Decimal) Adjustment {
	switch {
	case ratio.GreaterThan(inventoryBaseHeavy):
		return Adjustment{Bid: skewWiden, Ask: narrow}
	case ratio.LessThan(inventoryQuoteHeavy):
		return Adjustment{Bid: narrow, Ask: skewWiden}
	default:
		return NoAdjustment
	}
}
