package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmm-go/strategy"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestObserveProposal(t *testing.T) {
	m := New(DefaultConfig())
	p := strategy.Proposal{
		Buy:  strategy.Candidate{Side: strategy.SideBuy, Price: d("99.9")},
		Sell: strategy.Candidate{Side: strategy.SideSell, Price: d("100.1")},
		Diagnostics: strategy.Diagnostics{
			ReferencePrice:       d("100"),
			HistoryLen:           20,
			VolatilityMultiplier: d("1.5"),
			SpreadMultiplier:     d("1.725"),
			BidSpread:            d("0.001"),
			AskSpread:            d("0.001"),
			BuyPrice:             d("99.9"),
			SellPrice:            d("100.1"),
			RSI:                  d("72.5"),
			Bands:                strategy.Bands{Lower: d("95"), Mid: d("100"), Upper: d("105")},
			Trend:                strategy.TrendDown,
			InventorySkewApplied: true,
			InventoryRatio:       d("0.42"),
		},
	}
	m.ObserveProposal(p)

	assert.Equal(t, 100.0, testutil.ToFloat64(m.referencePrice))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.historyLen))
	assert.Equal(t, 1.725, testutil.ToFloat64(m.spreadMultiplier))
	assert.Equal(t, 72.5, testutil.ToFloat64(m.rsi))
	assert.Equal(t, 105.0, testutil.ToFloat64(m.bands.WithLabelValues("upper")))
	assert.Equal(t, -1.0, testutil.ToFloat64(m.trend))
	assert.Equal(t, 0.42, testutil.ToFloat64(m.inventoryRatio))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.proposals.WithLabelValues("quoted")))

	m.ObserveProposal(strategy.Proposal{Reason: strategy.ReasonInvalidReferencePrice})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.proposals.WithLabelValues("invalid_reference_price")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.referencePrice))
	assert.Equal(t, 72.5, testutil.ToFloat64(m.rsi), "invalid cycles keep previous signal gauges")
}

func TestOrderAndFillCounters(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordOrderPlaced(2)
	m.RecordOrderCanceled(2)
	m.RecordOrderRejected()
	m.RecordBudgetSkip()
	m.RecordFill("BUY", d("0.005"))
	m.RecordFill("SELL", d("0.005"))
	m.RecordCycleFault()
	m.UpdatePosition(d("0.01"), d("1.5"), d("-0.2"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersPlaced))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCanceled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fillsTotal.WithLabelValues("BUY")))
	assert.InDelta(t, 0.01, testutil.ToFloat64(m.tradedVolume), 1e-12)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycleFaults))
	assert.Equal(t, -0.2, testutil.ToFloat64(m.realizedPnL))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordOrderPlaced(1)
	m.ObserveCycle(0.002)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "pmm_quote_orders_placed_total 1"), body)
	assert.Contains(t, body, "pmm_quote_cycle_duration_seconds_bucket")
}
