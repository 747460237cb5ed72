package market

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceType 参考价来源。
type PriceType string

const (
	PriceTypeMid  PriceType = "mid"
	PriceTypeLast PriceType = "last"
)

// ParsePriceType 解析配置中的 price_type；空字符串默认为 mid。
func ParsePriceType(s string) (PriceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mid":
		return PriceTypeMid, nil
	case "last":
		return PriceTypeLast, nil
	default:
		return "", fmt.Errorf("unknown price type %q (want mid or last)", s)
	}
}

// Service 维护最新深度与成交，并向订阅者广播。
type Service struct {
	pub   *Publisher
	mu    sync.RWMutex
	depth map[string]Depth
	last  map[string]decimal.Decimal
	ts    map[string]time.Time
}

func NewService(pub *Publisher) *Service {
	if pub == nil {
		pub = NewPublisher()
	}
	return &Service{
		pub:   pub,
		depth: make(map[string]Depth),
		last:  make(map[string]decimal.Decimal),
		ts:    make(map[string]time.Time),
	}
}

// Publisher 返回底层分发器，供撮合/监控订阅。
func (s *Service) Publisher() *Publisher { return s.pub }

// OnDepth 更新最优 bid/ask 并广播。
func (s *Service) OnDepth(symbol string, bid, ask decimal.Decimal, ts time.Time) {
	s.mu.Lock()
	d := s.depth[symbol]
	d.Update(bid, ask)
	s.depth[symbol] = d
	s.ts[symbol] = ts
	tk := Ticker{Symbol: symbol, Bid: d.Bid, Ask: d.Ask, Last: s.last[symbol], Ts: ts}
	s.mu.Unlock()
	s.pub.PublishTicker(tk)
}

// OnTrade 记录最新成交价并广播。
func (s *Service) OnTrade(symbol string, price, qty decimal.Decimal, ts time.Time) {
	if !price.IsPositive() {
		return
	}
	s.mu.Lock()
	s.last[symbol] = price
	s.ts[symbol] = ts
	d := s.depth[symbol]
	s.mu.Unlock()
	s.pub.PublishTrade(Trade{Symbol: symbol, Price: price, Qty: qty, Ts: ts})
	s.pub.PublishTicker(Ticker{Symbol: symbol, Bid: d.Bid, Ask: d.Ask, Last: price, Ts: ts})
}

// Mid 返回当前中间价；若缺失则返回 0。
func (s *Service) Mid(symbol string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth[symbol].Mid()
}

// Last 返回最新成交价；若缺失则返回 0。
func (s *Service) Last(symbol string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last[symbol]
}

// ReferencePrice 按 price type 取参考价，缺失或非正时 ok=false。
func (s *Service) ReferencePrice(symbol string, pt PriceType) (decimal.Decimal, bool) {
	var p decimal.Decimal
	if pt == PriceTypeLast {
		p = s.Last(symbol)
	} else {
		p = s.Mid(symbol)
	}
	if !p.IsPositive() {
		return decimal.Zero, false
	}
	return p, true
}

// Staleness 返回距离上次更新的时间间隔；如无数据返回一年。
func (s *Service) Staleness(symbol string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.ts[symbol]
	if !ok {
		return time.Hour * 24 * 365
	}
	return time.Since(ts)
}

// Oracle 将 Service 绑定到单个交易对与价格类型，供报价引擎读取参考价。
type Oracle struct {
	Svc    *Service
	Symbol string
	Type   PriceType
}

func (o Oracle) ReferencePrice() (decimal.Decimal, bool) {
	if o.Svc == nil {
		return decimal.Zero, false
	}
	return o.Svc.ReferencePrice(o.Symbol, o.Type)
}

// Staleness 无可用参考价时返回 -1，由报价流程按无效参考价处理。
func (o Oracle) Staleness() time.Duration {
	if _, ok := o.ReferencePrice(); !ok {
		return -1
	}
	return o.Svc.Staleness(o.Symbol)
}
