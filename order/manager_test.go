package order

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmm-go/strategy"
)

type mockGateway struct {
	placed    []Order
	canceled  []string
	errPlace  error
	errCancel error
}

func (m *mockGateway) Place(o Order) (string, error) {
	m.placed = append(m.placed, o)
	return o.ID, m.errPlace
}

func (m *mockGateway) Cancel(id string) error {
	m.canceled = append(m.canceled, id)
	return m.errCancel
}

func TestManagerSubmitAndCancel(t *testing.T) {
	gw := &mockGateway{}
	m := NewManager(gw)
	o := Order{Symbol: "BTC-USDT", Side: "BUY", Price: d("100"), Quantity: d("1")}
	sent, err := m.Submit(o)
	if err != nil {
		t.Fatalf("submit err: %v", err)
	}
	if sent.Status != StatusAck {
		t.Fatalf("expected ACK status, got %s", sent.Status)
	}
	if !strings.HasPrefix(sent.ClientID, "pmm-buy-") {
		t.Fatalf("unexpected client id %s", sent.ClientID)
	}
	if err := m.Cancel(sent.ID); err != nil {
		t.Fatalf("cancel err: %v", err)
	}
	if got, _ := m.Get(sent.ID); got.Status != StatusCanceled {
		t.Fatalf("expected CANCELED, got %s", got.Status)
	}
	if err := m.Cancel("missing"); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}
}

func TestManagerSubmitRejected(t *testing.T) {
	gw := &mockGateway{errPlace: errors.New("insufficient balance")}
	m := NewManager(gw)
	_, err := m.Submit(Order{Symbol: "BTC-USDT", Side: "SELL", Price: d("100"), Quantity: d("1")})
	require.Error(t, err)
	require.Len(t, gw.placed, 1)

	got, ok := m.Get(gw.placed[0].ID)
	require.True(t, ok)
	assert.Equal(t, StatusRejected, got.Status)
	assert.Empty(t, m.ActiveOrders())
}

func TestManagerConstraint(t *testing.T) {
	gw := &mockGateway{}
	m := NewManager(gw)
	m.SetConstraints(map[string]SymbolConstraints{
		"ETH-USDC": {
			TickSize: d("0.01"),
			StepSize: d("0.001"),
			MinQty:   d("0.001"),
		},
	})
	if _, err := m.Submit(Order{Symbol: "ETH-USDC", Price: d("100.01"), Quantity: d("0.002")}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := m.Submit(Order{Symbol: "ETH-USDC", Price: d("100.015"), Quantity: d("0.002")}); err == nil {
		t.Fatalf("expected ticksize error")
	}
}

func TestManagerSubmitCandidates(t *testing.T) {
	gw := &mockGateway{}
	m := NewManager(gw)
	m.SetConstraints(map[string]SymbolConstraints{
		"BTC-USDT": {TickSize: d("0.01"), StepSize: d("0.00001")},
	})
	cands := []strategy.Candidate{
		{TradingPair: "BTC-USDT", Side: strategy.SideBuy, Price: d("99.96886375"), Amount: d("0.005")},
		{TradingPair: "BTC-USDT", Side: strategy.SideSell, Price: d("100.03113625"), Amount: d("0.005")},
	}
	placed, err := m.SubmitCandidates(cands)
	require.NoError(t, err)
	require.Len(t, placed, 2)
	assert.Equal(t, "99.96", placed[0].Price.String())
	assert.Equal(t, "100.04", placed[1].Price.String())
	assert.Len(t, m.ActiveOrders(), 2)

	n, err := m.CancelAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, gw.canceled, 2)
	assert.Empty(t, m.ActiveOrders())
	_, ok := m.Get(placed[0].ID)
	assert.False(t, ok, "canceled orders are pruned")
}

func TestManagerCancelAllKeepsFailures(t *testing.T) {
	gw := &mockGateway{}
	m := NewManager(gw)
	o, err := m.Submit(Order{Symbol: "BTC-USDT", Side: "BUY", Price: d("100"), Quantity: d("1")})
	require.NoError(t, err)

	gw.errCancel = errors.New("timeout")
	n, err := m.CancelAll()
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	got, _ := m.Get(o.ID)
	assert.Equal(t, StatusAck, got.Status)
}

func TestManagerApplyFill(t *testing.T) {
	m := NewManager(&mockGateway{})
	o, err := m.Submit(Order{Symbol: "BTC-USDT", Side: "BUY", Price: d("100"), Quantity: d("1")})
	require.NoError(t, err)

	got, err := m.ApplyFill(o.ID, d("0.4"))
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, got.Status)
	assert.Equal(t, "0.6", got.Remaining().String())

	got, err = m.ApplyFill(o.ID, d("0.6"))
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, got.Status)
	assert.Empty(t, m.ActiveOrders())

	_, err = m.ApplyFill("missing", d("1"))
	assert.ErrorIs(t, err, ErrUnknownOrder)

	// 已成交订单不能再撤
	assert.Error(t, m.Cancel(o.ID))
}
