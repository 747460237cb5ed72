package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestServiceMidAndStaleness(t *testing.T) {
	svc := NewService(nil)
	svc.OnDepth("BTC-USDT", d("100"), d("101"), time.Now())
	assert.Equal(t, "100.5", svc.Mid("BTC-USDT").String())
	assert.Greater(t, svc.Staleness("BTC-USDT"), time.Duration(0))
	assert.Equal(t, 365*24*time.Hour, svc.Staleness("ETH-USDT"))
}

func TestServiceTradePublish(t *testing.T) {
	pub := NewPublisher()
	trCh := pub.SubscribeTrade()
	svc := NewService(pub)
	svc.OnTrade("BTC-USDT", d("100"), d("1"), time.Now())
	select {
	case tr := <-trCh:
		assert.Equal(t, "100", tr.Price.String())
		assert.Equal(t, "1", tr.Qty.String())
	default:
		t.Fatalf("expected trade published")
	}
}

func TestServiceReferencePrice(t *testing.T) {
	svc := NewService(nil)
	_, ok := svc.ReferencePrice("BTC-USDT", PriceTypeMid)
	assert.False(t, ok, "no data yet")

	svc.OnDepth("BTC-USDT", d("99"), d("101"), time.Now())
	p, ok := svc.ReferencePrice("BTC-USDT", PriceTypeMid)
	require.True(t, ok)
	assert.Equal(t, "100", p.String())

	_, ok = svc.ReferencePrice("BTC-USDT", PriceTypeLast)
	assert.False(t, ok, "no trade yet")

	svc.OnTrade("BTC-USDT", d("100.7"), d("0.1"), time.Now())
	o := Oracle{Svc: svc, Symbol: "BTC-USDT", Type: PriceTypeLast}
	p, ok = o.ReferencePrice()
	require.True(t, ok)
	assert.Equal(t, "100.7", p.String())
}

func TestOracleStaleness(t *testing.T) {
	svc := NewService(nil)
	o := Oracle{Svc: svc, Symbol: "BTC-USDT", Type: PriceTypeMid}
	assert.Equal(t, time.Duration(-1), o.Staleness(), "no price yet")

	svc.OnDepth("BTC-USDT", d("99"), d("101"), time.Now().Add(-30*time.Second))
	assert.GreaterOrEqual(t, o.Staleness(), 30*time.Second)
}

func TestParsePriceType(t *testing.T) {
	for in, want := range map[string]PriceType{"": PriceTypeMid, "mid": PriceTypeMid, "LAST": PriceTypeLast} {
		got, err := ParsePriceType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePriceType("vwap")
	assert.Error(t, err)
}
