package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceHistoryRejectsNonPositive(t *testing.T) {
	h := NewPriceHistory(5)
	assert.False(t, h.Append(decimal.Zero))
	assert.False(t, h.Append(decimal.NewFromInt(-3)))
	assert.Equal(t, 0, h.Len())

	assert.True(t, h.Append(decimal.NewFromInt(100)))
	assert.Equal(t, 1, h.Len())
}

func TestPriceHistoryKeepsLastN(t *testing.T) {
	const capacity = 4
	h := NewPriceHistory(capacity)
	var appended []decimal.Decimal
	for i := 1; i <= 11; i++ {
		p := decimal.NewFromInt(int64(100 + i))
		require.True(t, h.Append(p))
		appended = append(appended, p)

		require.LessOrEqual(t, h.Len(), capacity)
		want := appended
		if len(want) > capacity {
			want = want[len(want)-capacity:]
		}
		got := h.Snapshot()
		require.Len(t, got, len(want))
		for j := range want {
			assert.True(t, want[j].Equal(got[j]), "i=%d j=%d want %s got %s", i, j, want[j], got[j])
		}
	}
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "111", last.String())
}

func TestPriceHistorySnapshotIsCopy(t *testing.T) {
	h := NewPriceHistory(3)
	h.Append(decimal.NewFromInt(1))
	snap := h.Snapshot()
	snap[0] = decimal.NewFromInt(99)
	again := h.Snapshot()
	assert.Equal(t, "1", again[0].String())
}

func TestPriceHistoryZeroCapacity(t *testing.T) {
	h := NewPriceHistory(0)
	assert.Equal(t, 1, h.Capacity())
	h.Append(decimal.NewFromInt(1))
	h.Append(decimal.NewFromInt(2))
	assert.Equal(t, 1, h.Len())
	_, ok := NewPriceHistory(2).Last()
	assert.False(t, ok)
}
