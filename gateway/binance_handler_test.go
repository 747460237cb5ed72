package gateway

import (
	"testing"

	"pmm-go/market"
)

func TestMarketDataHandler(t *testing.T) {
	pub := market.NewPublisher()
	tickerCh := pub.SubscribeTicker()
	tradeCh := pub.SubscribeTrade()
	svc := market.NewService(pub)
	h := NewMarketDataHandler(svc, nil, "BTC-USDT")

	h.OnRawMessage([]byte(`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"100","B":"1","a":"102","A":"1"}}`))
	tk := <-tickerCh
	if tk.Symbol != "BTC-USDT" {
		t.Fatalf("expected pair mapping, got %s", tk.Symbol)
	}
	if mid := svc.Mid("BTC-USDT"); mid.String() != "101" {
		t.Fatalf("unexpected mid %s", mid)
	}

	h.OnRawMessage([]byte(`{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"101.5","q":"0.1","T":1672515782136}}`))
	tr := <-tradeCh
	if tr.Price.String() != "101.5" {
		t.Fatalf("unexpected trade %+v", tr)
	}
	ref, ok := svc.ReferencePrice("BTC-USDT", market.PriceTypeLast)
	if !ok || ref.String() != "101.5" {
		t.Fatalf("unexpected last %s %v", ref, ok)
	}

	// 解析失败只记录日志
	h.OnRawMessage([]byte(`garbage`))
}
