package inventory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Ledger 记录各资产余额，挂单占用的部分计入 locked。
// Balance 返回总余额，Available 返回扣除挂单占用后的可用余额。
type Ledger struct {
	mu     sync.RWMutex
	total  map[string]decimal.Decimal
	locked map[string]decimal.Decimal
}

func NewLedger(initial map[string]decimal.Decimal) *Ledger {
	l := &Ledger{
		total:  make(map[string]decimal.Decimal),
		locked: make(map[string]decimal.Decimal),
	}
	for asset, amt := range initial {
		l.total[asset] = amt
	}
	return l
}

// Balance 实现 strategy.BalanceOracle。
func (l *Ledger) Balance(asset string) (decimal.Decimal, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.total[asset]
	return b, ok
}

// Available 返回可用余额（未知资产为 0）。
func (l *Ledger) Available(asset string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total[asset].Sub(l.locked[asset])
}

func (l *Ledger) Set(asset string, amt decimal.Decimal) {
	l.mu.Lock()
	l.total[asset] = amt
	l.mu.Unlock()
}

// Lock 为挂单占用余额，可用不足时返回错误。
func (l *Ledger) Lock(asset string, amt decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	avail := l.total[asset].Sub(l.locked[asset])
	if avail.LessThan(amt) {
		return fmt.Errorf("insufficient %s: available %s, need %s", asset, avail, amt)
	}
	l.locked[asset] = l.locked[asset].Add(amt)
	return nil
}

// Unlock 释放挂单占用，最多释放到 0。
func (l *Ledger) Unlock(asset string, amt decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlockLocked(asset, amt)
}

func (l *Ledger) unlockLocked(asset string, amt decimal.Decimal) {
	next := l.locked[asset].Sub(amt)
	if next.IsNegative() {
		next = decimal.Zero
	}
	l.locked[asset] = next
}

// Settle 结算一笔成交：from 资产（已锁定）减少 paid，to 资产增加 received。
func (l *Ledger) Settle(from string, paid decimal.Decimal, to string, received decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlockLocked(from, paid)
	l.total[from] = l.total[from].Sub(paid)
	l.total[to] = l.total[to].Add(received)
}

// Balances 返回总余额快照。
func (l *Ledger) Balances() map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(l.total))
	for k, v := range l.total {
		out[k] = v
	}
	return out
}

// Assets 按字母序返回已知资产。
func (l *Ledger) Assets() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.total))
	for k := range l.total {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
