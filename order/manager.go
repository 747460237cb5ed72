package order

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pmm-go/strategy"
)

// Gateway 提供基础下单/撤单抽象；由模拟盘或真实交易所实现。
type Gateway interface {
	Place(o Order) (string, error)
	Cancel(orderID string) error
}

// Manager 维护订单状态并通过 Gateway 下发。
type Manager struct {
	gw          Gateway
	book        *Book
	mu          sync.RWMutex
	constraints map[string]SymbolConstraints
	now         func() time.Time
}

func NewManager(gw Gateway) *Manager {
	return &Manager{
		gw:   gw,
		book: NewBook(),
		now:  time.Now,
	}
}

var ErrUnknownOrder = errors.New("unknown order")

// Submit 同步调用 Gateway 下单并登记状态。
func (m *Manager) Submit(o Order) (*Order, error) {
	if o.Type == "" {
		o.Type = "LIMIT"
	}
	if err := m.validateConstraint(o); err != nil {
		return nil, err
	}
	if o.ClientID == "" {
		o.ClientID = generateID(o.Side)
	}
	if o.ID == "" {
		o.ID = o.ClientID
	}
	o.Status = StatusNew
	o.CreatedAt = m.now()
	m.book.Set(o)

	if m.gw != nil {
		if _, err := m.gw.Place(o); err != nil {
			m.updateStatus(o.ID, StatusRejected, err)
			return nil, fmt.Errorf("place %s %s: %w", o.Side, o.Symbol, err)
		}
		m.updateStatus(o.ID, StatusAck, nil)
	}
	sent, _ := m.book.Get(o.ID)
	return &sent, nil
}

// SubmitCandidates 将报价候选对齐精度后逐个下单，返回成功的订单。
// 单个失败不影响其余候选，所有错误合并返回。
func (m *Manager) SubmitCandidates(cands []strategy.Candidate) ([]*Order, error) {
	var (
		placed []*Order
		errs   []error
	)
	for _, c := range cands {
		price, qty := m.quantize(c.TradingPair, string(c.Side), c.Price, c.Amount)
		o, err := m.Submit(Order{
			Symbol:   c.TradingPair,
			Side:     string(c.Side),
			Price:    price,
			Quantity: qty,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		placed = append(placed, o)
	}
	return placed, errors.Join(errs...)
}

// ApplyFill 记录一笔成交，完全成交时置为 FILLED。
func (m *Manager) ApplyFill(id string, qty decimal.Decimal) (Order, error) {
	var out Order
	found, err := m.book.Modify(id, func(o *Order) error {
		o.Filled = o.Filled.Add(qty)
		next := StatusPartial
		if !o.Filled.LessThan(o.Quantity) {
			next = StatusFilled
		}
		if err := ValidateTransition(o.Status, next); err != nil {
			return err
		}
		o.Status = next
		out = *o
		return nil
	})
	if !found {
		return Order{}, ErrUnknownOrder
	}
	return out, err
}

// Cancel 调用 Gateway 撤单并标记状态。
func (m *Manager) Cancel(id string) error {
	if _, ok := m.book.Get(id); !ok {
		return ErrUnknownOrder
	}
	if m.gw != nil {
		if err := m.gw.Cancel(id); err != nil {
			return fmt.Errorf("cancel %s: %w", id, err)
		}
	}
	return m.updateStatus(id, StatusCanceled, nil)
}

// CancelAll 撤销全部活跃订单并清理终态订单，返回成功撤单数量。
func (m *Manager) CancelAll() (int, error) {
	var (
		n    int
		errs []error
	)
	for _, o := range m.ActiveOrders() {
		if err := m.Cancel(o.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	m.book.Prune()
	return n, errors.Join(errs...)
}

// ActiveOrders 返回仍可能成交的订单。
func (m *Manager) ActiveOrders() []Order {
	var out []Order
	for _, o := range m.book.List() {
		if o.Status.IsActive() {
			out = append(out, o)
		}
	}
	return out
}

// Get 返回订单快照。
func (m *Manager) Get(id string) (Order, bool) {
	return m.book.Get(id)
}

func (m *Manager) updateStatus(id string, st Status, cause error) error {
	found, err := m.book.Modify(id, func(o *Order) error {
		if err := ValidateTransition(o.Status, st); err != nil {
			return err
		}
		o.Status = st
		if cause != nil {
			o.LastError = cause.Error()
		}
		return nil
	})
	if !found {
		return ErrUnknownOrder
	}
	return err
}

// generateID 生成客户端订单号，如 pmm-buy-<uuid>。
func generateID(side string) string {
	prefix := "pmm"
	if side != "" {
		prefix += "-" + strings.ToLower(side)
	}
	return prefix + "-" + uuid.NewString()
}

// SetConstraints 设置各交易对的精度/名义限制。
func (m *Manager) SetConstraints(c map[string]SymbolConstraints) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make(map[string]SymbolConstraints, len(c))
	for sym, sc := range c {
		m.constraints[sym] = sc
	}
}

func (m *Manager) constraint(symbol string) (SymbolConstraints, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.constraints[symbol]
	return c, ok
}

func (m *Manager) quantize(symbol, side string, price, qty decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	c, ok := m.constraint(symbol)
	if !ok {
		return price, qty
	}
	return c.Quantize(side, price, qty)
}

func (m *Manager) validateConstraint(o Order) error {
	c, ok := m.constraint(o.Symbol)
	if !ok {
		return nil
	}
	if o.Type == "MARKET" || o.Type == "market" {
		return nil
	}
	return c.Validate(o.Price, o.Quantity)
}
