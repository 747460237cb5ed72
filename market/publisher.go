package market

import "sync"

// Publisher 一个轻量事件分发器；订阅者消费过慢时丢弃消息。
type Publisher struct {
	mu         sync.RWMutex
	tickerSubs []chan Ticker
	tradeSubs  []chan Trade
}

func NewPublisher() *Publisher {
	return &Publisher{
		tickerSubs: make([]chan Ticker, 0),
		tradeSubs:  make([]chan Trade, 0),
	}
}

func (p *Publisher) SubscribeTicker() <-chan Ticker {
	ch := make(chan Ticker, 16)
	p.mu.Lock()
	p.tickerSubs = append(p.tickerSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) SubscribeTrade() <-chan Trade {
	ch := make(chan Trade, 16)
	p.mu.Lock()
	p.tradeSubs = append(p.tradeSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) PublishTicker(t Ticker) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.tickerSubs {
		select {
		case ch <- t:
		default:
		}
	}
}

func (p *Publisher) PublishTrade(t Trade) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.tradeSubs {
		select {
		case ch <- t:
		default:
		}
	}
}
