package order

import (
	"sort"
	"sync"
)

// Book 记录订单和状态，支持查询。
type Book struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewBook() *Book {
	return &Book{orders: make(map[string]Order)}
}

func (b *Book) Set(o Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders[o.ID] = o
}

func (b *Book) Get(id string) (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	return o, ok
}

// Modify 在锁内修改订单，订单不存在时返回 false。
func (b *Book) Modify(id string, fn func(*Order) error) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return false, nil
	}
	if err := fn(&o); err != nil {
		return true, err
	}
	b.orders[id] = o
	return true, nil
}

// Prune 删除终态订单，返回删除数量。
func (b *Book) Prune() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for id, o := range b.orders {
		if o.Status.IsFinal() {
			delete(b.orders, id)
			n++
		}
	}
	return n
}

// List 返回全部订单（拷贝），按创建时间排序。
func (b *Book) List() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res
}
