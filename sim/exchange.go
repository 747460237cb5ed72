package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pmm-go/inventory"
	"pmm-go/market"
	"pmm-go/order"
	"pmm-go/strategy"
)

var ErrUnknownOrder = errors.New("paper: unknown order")

// FillHandler 接收模拟成交回报。
type FillHandler func(order.Fill)

// PaperExchange 内存撮合的模拟交易所：下单时冻结资金，
// 行情穿过挂单价时以挂单价全部成交。实现 order.Gateway 与 strategy.BalanceOracle。
type PaperExchange struct {
	mu      sync.Mutex
	ledger  *inventory.Ledger
	resting map[string]order.Order
	onFill  FillHandler
	now     func() time.Time
}

func NewPaperExchange(ledger *inventory.Ledger) *PaperExchange {
	if ledger == nil {
		ledger = inventory.NewLedger(nil)
	}
	return &PaperExchange{
		ledger:  ledger,
		resting: make(map[string]order.Order),
		now:     time.Now,
	}
}

// OnFill 注册成交回调；回调在撮合锁外调用。
func (p *PaperExchange) OnFill(h FillHandler) {
	p.mu.Lock()
	p.onFill = h
	p.mu.Unlock()
}

func (p *PaperExchange) Ledger() *inventory.Ledger { return p.ledger }

// Balance 返回总余额。
func (p *PaperExchange) Balance(asset string) (decimal.Decimal, bool) {
	return p.ledger.Balance(asset)
}

// Available 返回扣除挂单冻结后的余额。
func (p *PaperExchange) Available(asset string) decimal.Decimal {
	return p.ledger.Available(asset)
}

// Place 冻结资金并挂单。
func (p *PaperExchange) Place(o order.Order) (string, error) {
	if o.ID == "" {
		return "", errors.New("paper: order id required")
	}
	if !o.Price.IsPositive() || !o.Quantity.IsPositive() {
		return "", fmt.Errorf("paper: invalid price %s or qty %s", o.Price, o.Quantity)
	}
	asset, amt, err := lockFor(o)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.resting[o.ID]; dup {
		return "", fmt.Errorf("paper: duplicate order %s", o.ID)
	}
	if err := p.ledger.Lock(asset, amt); err != nil {
		return "", fmt.Errorf("paper: %w", err)
	}
	p.resting[o.ID] = o
	return o.ID, nil
}

// Cancel 撤单并释放冻结资金。
func (p *PaperExchange) Cancel(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.resting[id]
	if !ok {
		return ErrUnknownOrder
	}
	delete(p.resting, id)
	asset, amt, _ := lockFor(o)
	p.ledger.Unlock(asset, amt)
	return nil
}

// OpenOrders 返回当前挂单数量。
func (p *PaperExchange) OpenOrders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.resting)
}

// OnTicker 用最新行情撮合：买单在 ask<=挂单价时成交，卖单在 bid>=挂单价时成交。
// 缺少一侧报价时用最新成交价代替。
func (p *PaperExchange) OnTicker(tk market.Ticker) []order.Fill {
	ask, bid := tk.Ask, tk.Bid
	if !ask.IsPositive() {
		ask = tk.Last
	}
	if !bid.IsPositive() {
		bid = tk.Last
	}
	ts := tk.Ts
	if ts.IsZero() {
		ts = p.now()
	}

	p.mu.Lock()
	var fills []order.Fill
	for id, o := range p.resting {
		if tk.Symbol != "" && o.Symbol != tk.Symbol {
			continue
		}
		crossed := false
		switch o.Side {
		case string(strategy.SideBuy):
			crossed = ask.IsPositive() && ask.LessThanOrEqual(o.Price)
		case string(strategy.SideSell):
			crossed = bid.IsPositive() && bid.GreaterThanOrEqual(o.Price)
		}
		if !crossed {
			continue
		}
		if err := p.settle(o); err != nil {
			continue
		}
		delete(p.resting, id)
		fills = append(fills, order.Fill{
			OrderID:  o.ID,
			Symbol:   o.Symbol,
			Side:     o.Side,
			Price:    o.Price,
			Quantity: o.Quantity,
			Ts:       ts,
		})
	}
	h := p.onFill
	p.mu.Unlock()

	if h != nil {
		for _, f := range fills {
			h(f)
		}
	}
	return fills
}

// Run 订阅行情并持续撮合，直到 ctx 取消或通道关闭。
func (p *PaperExchange) Run(ctx context.Context, tickers <-chan market.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case tk, ok := <-tickers:
			if !ok {
				return nil
			}
			p.OnTicker(tk)
		}
	}
}

func (p *PaperExchange) settle(o order.Order) error {
	base, quote, err := strategy.SplitTradingPair(o.Symbol)
	if err != nil {
		return err
	}
	notional := o.Price.Mul(o.Quantity)
	if o.Side == string(strategy.SideBuy) {
		p.ledger.Settle(quote, notional, base, o.Quantity)
	} else {
		p.ledger.Settle(base, o.Quantity, quote, notional)
	}
	return nil
}

// lockFor 返回挂单需要冻结的资产与数量：买单冻结 quote，卖单冻结 base。
func lockFor(o order.Order) (string, decimal.Decimal, error) {
	base, quote, err := strategy.SplitTradingPair(o.Symbol)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("paper: %w", err)
	}
	switch o.Side {
	case string(strategy.SideBuy):
		return quote, o.Price.Mul(o.Quantity), nil
	case string(strategy.SideSell):
		return base, o.Quantity, nil
	default:
		return "", decimal.Zero, fmt.Errorf("paper: unknown side %q", o.Side)
	}
}
