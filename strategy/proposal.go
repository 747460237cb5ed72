package strategy

import "github.com/shopspring/decimal"

// Side 报价方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Candidate 待下单的限价单候选。
type Candidate struct {
	TradingPair string
	Side        Side
	Price       decimal.Decimal
	Amount      decimal.Decimal
}

// Notional 返回 price*amount（quote 资产计价）。
func (c Candidate) Notional() decimal.Decimal {
	return c.Price.Mul(c.Amount)
}

// EmptyReason 说明本周期为什么没有报价。
type EmptyReason string

const (
	ReasonInvalidReferencePrice EmptyReason = "invalid_reference_price"
	ReasonSpreadTooTight        EmptyReason = "spread_too_tight"
	ReasonNonPositiveBid        EmptyReason = "non_positive_bid"
)

// Step 记录某一步调整后的 bid/ask 价差，便于逐步排查。
type Step struct {
	Name string
	Bid  decimal.Decimal
	Ask  decimal.Decimal
}

// Diagnostics 每个周期的中间指标，仅用于观测，不参与控制。
type Diagnostics struct {
	ReferencePrice       decimal.Decimal
	HistoryLen           int
	VolatilityMultiplier decimal.Decimal
	SpreadMultiplier     decimal.Decimal
	Trend                Trend
	InventorySkewApplied bool
	InventoryRatio       decimal.Decimal
	BaseBalance          decimal.Decimal
	QuoteBalance         decimal.Decimal
	RSI                  decimal.Decimal
	Bands                Bands
	BidSpread            decimal.Decimal
	AskSpread            decimal.Decimal
	BuyPrice             decimal.Decimal
	SellPrice            decimal.Decimal
	RealizedSpread       decimal.Decimal
	Steps                []Step
}

// Proposal 一个周期的报价结果：要么为空（带原因），要么恰好一买一卖。
type Proposal struct {
	Buy         Candidate
	Sell        Candidate
	Reason      EmptyReason
	Diagnostics Diagnostics
}

func (p Proposal) Empty() bool { return p.Reason != "" }

// Candidates 返回 [buy, sell]；空提案返回 nil。
func (p Proposal) Candidates() []Candidate {
	if p.Empty() {
		return nil
	}
	return []Candidate{p.Buy, p.Sell}
}

func emptyProposal(reason EmptyReason, diag Diagnostics) Proposal {
	return Proposal{Reason: reason, Diagnostics: diag}
}
