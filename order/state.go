package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents order lifecycle.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusAck      Status = "ACK"
	StatusPartial  Status = "PARTIAL"
	StatusFilled   Status = "FILLED"
	StatusCanceled Status = "CANCELED"
	StatusRejected Status = "REJECTED"
)

// Order holds a simplified limit order view.
type Order struct {
	ID        string
	ClientID  string
	Symbol    string // 交易对，如 BTC-USDT
	Side      string // BUY/SELL
	Type      string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Filled    decimal.Decimal
	Status    Status
	LastError string
	CreatedAt time.Time
}

// Remaining 返回未成交数量。
func (o Order) Remaining() decimal.Decimal {
	r := o.Quantity.Sub(o.Filled)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Notional 返回 price*quantity。
func (o Order) Notional() decimal.Decimal {
	return o.Price.Mul(o.Quantity)
}

// Fill 交易所回报的一笔成交。
type Fill struct {
	OrderID  string
	Symbol   string
	Side     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Ts       time.Time
}
