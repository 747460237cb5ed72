package sim

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmm-go/inventory"
	"pmm-go/market"
	"pmm-go/order"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestExchange() *PaperExchange {
	return NewPaperExchange(inventory.NewLedger(map[string]decimal.Decimal{
		"BTC":  d("1"),
		"USDT": d("1000"),
	}))
}

func TestPaperExchangePlaceLocksFunds(t *testing.T) {
	ex := newTestExchange()
	_, err := ex.Place(order.Order{ID: "b1", Symbol: "BTC-USDT", Side: "BUY", Price: d("100"), Quantity: d("2")})
	require.NoError(t, err)
	_, err = ex.Place(order.Order{ID: "s1", Symbol: "BTC-USDT", Side: "SELL", Price: d("101"), Quantity: d("0.5")})
	require.NoError(t, err)

	assert.Equal(t, "800", ex.Available("USDT").String())
	assert.Equal(t, "0.5", ex.Available("BTC").String())
	total, _ := ex.Balance("USDT")
	assert.Equal(t, "1000", total.String(), "locking keeps total balance")
	assert.Equal(t, 2, ex.OpenOrders())

	require.NoError(t, ex.Cancel("b1"))
	assert.Equal(t, "1000", ex.Available("USDT").String())
	assert.ErrorIs(t, ex.Cancel("b1"), ErrUnknownOrder)
}

func TestPaperExchangeRejects(t *testing.T) {
	ex := newTestExchange()
	_, err := ex.Place(order.Order{ID: "b1", Symbol: "BTC-USDT", Side: "BUY", Price: d("100"), Quantity: d("20")})
	assert.Error(t, err, "insufficient quote")
	_, err = ex.Place(order.Order{ID: "s1", Symbol: "BTC-USDT", Side: "SELL", Price: d("100"), Quantity: d("2")})
	assert.Error(t, err, "insufficient base")
	_, err = ex.Place(order.Order{Symbol: "BTC-USDT", Side: "SELL", Price: d("100"), Quantity: d("0.1")})
	assert.Error(t, err, "missing id")
	_, err = ex.Place(order.Order{ID: "x", Symbol: "BTCUSDT", Side: "SELL", Price: d("100"), Quantity: d("0.1")})
	assert.Error(t, err, "bad pair")
	assert.Equal(t, 0, ex.OpenOrders())
}

func TestPaperExchangeFillsOnCross(t *testing.T) {
	ex := newTestExchange()
	var got []order.Fill
	ex.OnFill(func(f order.Fill) { got = append(got, f) })

	_, err := ex.Place(order.Order{ID: "b1", Symbol: "BTC-USDT", Side: "BUY", Price: d("99"), Quantity: d("1")})
	require.NoError(t, err)
	_, err = ex.Place(order.Order{ID: "s1", Symbol: "BTC-USDT", Side: "SELL", Price: d("101"), Quantity: d("0.5")})
	require.NoError(t, err)

	// 未穿价
	fills := ex.OnTicker(market.Ticker{Symbol: "BTC-USDT", Bid: d("99.5"), Ask: d("100.5")})
	assert.Empty(t, fills)

	// 其他交易对不影响
	assert.Empty(t, ex.OnTicker(market.Ticker{Symbol: "ETH-USDT", Bid: d("1"), Ask: d("1")}))

	fills = ex.OnTicker(market.Ticker{Symbol: "BTC-USDT", Bid: d("98.5"), Ask: d("98.9")})
	require.Len(t, fills, 1)
	assert.Equal(t, "b1", fills[0].OrderID)
	assert.Equal(t, "99", fills[0].Price.String(), "fills at the resting price")

	btc, _ := ex.Balance("BTC")
	usdt, _ := ex.Balance("USDT")
	assert.Equal(t, "2", btc.String())
	assert.Equal(t, "901", usdt.String())
	assert.Equal(t, "901", ex.Available("USDT").String())

	// 仅有成交价时用 last 撮合卖单
	fills = ex.OnTicker(market.Ticker{Symbol: "BTC-USDT", Last: d("101.2")})
	require.Len(t, fills, 1)
	assert.Equal(t, "s1", fills[0].OrderID)
	btc, _ = ex.Balance("BTC")
	usdt, _ = ex.Balance("USDT")
	assert.Equal(t, "1.5", btc.String())
	assert.Equal(t, "951.5", usdt.String())

	assert.Len(t, got, 2)
	assert.Equal(t, 0, ex.OpenOrders())
}
