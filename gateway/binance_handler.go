package gateway

import (
	"go.uber.org/zap"

	"pmm-go/market"
)

// WSHandler 接收 ws 原始消息。
type WSHandler interface {
	OnRawMessage(msg []byte)
}

// MarketDataHandler 实现 WSHandler，将 bookTicker/成交推送给 market.Service。
// Pairs 把交易所符号（BTCUSDT）映射回内部交易对（BTC-USDT），未登记的符号原样使用。
type MarketDataHandler struct {
	Svc    *market.Service
	Pairs  map[string]string
	Logger *zap.Logger
}

// NewMarketDataHandler 为给定交易对构建 handler。
func NewMarketDataHandler(svc *market.Service, logger *zap.Logger, pairs ...string) *MarketDataHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[ExchangeSymbol(p)] = p
	}
	return &MarketDataHandler{Svc: svc, Pairs: m, Logger: logger}
}

// OnRawMessage 解析 combined stream 消息并分发。
func (h *MarketDataHandler) OnRawMessage(msg []byte) {
	ev, err := ParseCombined(msg)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("parse ws message failed", zap.Error(err))
		}
		return
	}
	if h.Svc == nil {
		return
	}
	symbol := h.pair(ev.Symbol)
	switch ev.Kind {
	case StreamBookTicker:
		h.Svc.OnDepth(symbol, ev.Bid, ev.Ask, ev.Ts)
	case StreamTrade:
		h.Svc.OnTrade(symbol, ev.Price, ev.Qty, ev.Ts)
	}
}

func (h *MarketDataHandler) pair(symbol string) string {
	if p, ok := h.Pairs[symbol]; ok {
		return p
	}
	return symbol
}
