package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmm-go/market"
)

func TestRandomWalkDeterministic(t *testing.T) {
	a := NewRandomWalk("BTC-USDT", 100, 7).Series(50)
	b := NewRandomWalk("BTC-USDT", 100, 7).Series(50)
	require.Len(t, a, 50)
	for i := range a {
		assert.True(t, a[i].Equal(b[i]), "index %d", i)
		assert.True(t, a[i].IsPositive())
	}
}

func TestRandomWalkQuotes(t *testing.T) {
	w := NewRandomWalk("BTC-USDT", 100, 1)
	for i := 0; i < 100; i++ {
		bid, ask, last := w.Next()
		require.True(t, bid.LessThan(ask), "bid %s ask %s", bid, ask)
		require.True(t, last.GreaterThanOrEqual(bid) && last.LessThanOrEqual(ask), "last %s", last)
	}
}

func TestRandomWalkRunFeedsService(t *testing.T) {
	svc := market.NewService(nil)
	w := NewRandomWalk("BTC-USDT", 100, 3)
	w.Interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx, svc)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := svc.ReferencePrice("BTC-USDT", market.PriceTypeMid)
		return ok
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	last, ok := svc.ReferencePrice("BTC-USDT", market.PriceTypeLast)
	assert.True(t, ok)
	assert.True(t, last.IsPositive())
}
