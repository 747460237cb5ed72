package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a normalized trade tick.
type Trade struct {
	Symbol string
	Price  decimal.Decimal
	Qty    decimal.Decimal
	Ts     time.Time
}

// Ticker 是推送给订阅者的行情快照：最优买卖价与最新成交价。
type Ticker struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Last   decimal.Decimal
	Ts     time.Time
}
