package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CombinedMessage 对应 binance combined stream 包装。
type CombinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// BookTicker 对应 <symbol>@bookTicker 推送（最优挂单）。
type BookTicker struct {
	UpdateID int64  `json:"u"`
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// TradeEvent 对应 <symbol>@trade 推送。
type TradeEvent struct {
	Event     string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Qty       string `json:"q"`
	TradeTime int64  `json:"T"`
}

// StreamKind 标识消息类型。
type StreamKind int

const (
	StreamUnknown StreamKind = iota
	StreamBookTicker
	StreamTrade
)

// MarketEvent 解析后的行情事件，价格均为 decimal。
type MarketEvent struct {
	Kind   StreamKind
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Price  decimal.Decimal
	Qty    decimal.Decimal
	Ts     time.Time
}

// ParseCombined 解析 combined stream 消息，按 stream 后缀区分 bookTicker / trade。
// 未订阅的 stream 返回 StreamUnknown 且不报错。
func ParseCombined(raw []byte) (MarketEvent, error) {
	var msg CombinedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return MarketEvent{}, fmt.Errorf("decode combined message: %w", err)
	}
	switch {
	case strings.HasSuffix(msg.Stream, "@bookTicker"):
		return parseBookTicker(msg.Data)
	case strings.HasSuffix(msg.Stream, "@trade"):
		return parseTrade(msg.Data)
	default:
		return MarketEvent{Kind: StreamUnknown}, nil
	}
}

func parseBookTicker(data []byte) (MarketEvent, error) {
	var bt BookTicker
	if err := json.Unmarshal(data, &bt); err != nil {
		return MarketEvent{}, fmt.Errorf("decode bookTicker: %w", err)
	}
	bid, err := decimal.NewFromString(bt.BidPrice)
	if err != nil {
		return MarketEvent{}, fmt.Errorf("bookTicker bid %q: %w", bt.BidPrice, err)
	}
	ask, err := decimal.NewFromString(bt.AskPrice)
	if err != nil {
		return MarketEvent{}, fmt.Errorf("bookTicker ask %q: %w", bt.AskPrice, err)
	}
	// bookTicker 不带时间戳，使用本地接收时间
	return MarketEvent{
		Kind:   StreamBookTicker,
		Symbol: bt.Symbol,
		Bid:    bid,
		Ask:    ask,
		Ts:     time.Now().UTC(),
	}, nil
}

func parseTrade(data []byte) (MarketEvent, error) {
	var te TradeEvent
	if err := json.Unmarshal(data, &te); err != nil {
		return MarketEvent{}, fmt.Errorf("decode trade: %w", err)
	}
	price, err := decimal.NewFromString(te.Price)
	if err != nil {
		return MarketEvent{}, fmt.Errorf("trade price %q: %w", te.Price, err)
	}
	qty, err := decimal.NewFromString(te.Qty)
	if err != nil {
		return MarketEvent{}, fmt.Errorf("trade qty %q: %w", te.Qty, err)
	}
	return MarketEvent{
		Kind:   StreamTrade,
		Symbol: te.Symbol,
		Price:  price,
		Qty:    qty,
		Ts:     time.UnixMilli(te.TradeTime).UTC(),
	}, nil
}

// ExchangeSymbol 将 BTC-USDT 转换为 binance 的 BTCUSDT。
func ExchangeSymbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "-", ""))
}
