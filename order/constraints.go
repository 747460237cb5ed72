package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SymbolConstraints 描述交易对的步长与名义限制，零值表示不限制。
type SymbolConstraints struct {
	TickSize    decimal.Decimal
	StepSize    decimal.Decimal
	MinQty      decimal.Decimal
	MaxQty      decimal.Decimal
	MinNotional decimal.Decimal
}

// Validate 检查订单价格/数量是否符合精度与最小名义。
func (c SymbolConstraints) Validate(price, qty decimal.Decimal) error {
	if !isMultiple(price, c.TickSize) {
		return fmt.Errorf("price %s not aligned to tickSize %s", price, c.TickSize)
	}
	if !isMultiple(qty, c.StepSize) {
		return fmt.Errorf("qty %s not aligned to stepSize %s", qty, c.StepSize)
	}
	if c.MinQty.IsPositive() && qty.LessThan(c.MinQty) {
		return fmt.Errorf("qty %s < minQty %s", qty, c.MinQty)
	}
	if c.MaxQty.IsPositive() && qty.GreaterThan(c.MaxQty) {
		return fmt.Errorf("qty %s > maxQty %s", qty, c.MaxQty)
	}
	if notional := price.Mul(qty); c.MinNotional.IsPositive() && notional.LessThan(c.MinNotional) {
		return fmt.Errorf("notional %s < minNotional %s", notional, c.MinNotional)
	}
	return nil
}

// Quantize 将报价对齐到交易所精度：买价向下、卖价向上取整到 tick，
// 数量向下取整到 step，保证对齐后价差不会收窄。
func (c SymbolConstraints) Quantize(side string, price, qty decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if c.TickSize.IsPositive() {
		steps := price.Div(c.TickSize)
		if side == "SELL" {
			steps = steps.Ceil()
		} else {
			steps = steps.Floor()
		}
		price = steps.Mul(c.TickSize)
	}
	if c.StepSize.IsPositive() {
		qty = qty.Div(c.StepSize).Floor().Mul(c.StepSize)
	}
	return price, qty
}

func isMultiple(value, step decimal.Decimal) bool {
	if !step.IsPositive() {
		return true
	}
	return value.Mod(step).IsZero()
}
