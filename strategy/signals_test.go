package strategy

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func series(vals ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func ramp(start, step float64, n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		out[i] = decimal.NewFromFloat(start + step*float64(i))
	}
	return out
}

func randomWalk(r *rand.Rand, n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	p := 100.0
	for i := range out {
		p *= 1 + (r.Float64()-0.5)*0.2
		if p < 0.01 {
			p = 0.01
		}
		out[i] = decimal.NewFromFloat(p).Round(8)
	}
	return out
}

func TestVolatilityMultiplier(t *testing.T) {
	v := VolatilityEstimator{BaseSpread: dec("0.0003"), MaxSpread: dec("0.005")}
	ceiling := dec("0.005").Div(dec("0.0003"))

	tests := []struct {
		name   string
		prices []decimal.Decimal
		want   decimal.Decimal
	}{
		{"empty", nil, one},
		{"single sample", series(100), one},
		{"flat", series(100, 100, 100), one},
		{"ten percent move", series(100, 110), dec("2")},
		{"two moves averaged", series(100, 110, 99), dec("2")},
		{"capped", series(100, 1000), ceiling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Multiplier(tt.prices)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestVolatilityMultiplierBounds(t *testing.T) {
	v := VolatilityEstimator{BaseSpread: dec("0.0003"), MaxSpread: dec("0.005")}
	ceiling := v.MaxSpread.Div(v.BaseSpread)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		prices := randomWalk(r, 2+r.Intn(30))
		m := v.Multiplier(prices)
		require.True(t, m.GreaterThanOrEqual(one), "multiplier %s < 1", m)
		require.True(t, m.LessThanOrEqual(ceiling), "multiplier %s > cap %s", m, ceiling)
	}
}

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name   string
		prices []decimal.Decimal
		want   Trend
	}{
		{"too few samples", ramp(100, 10, 4), TrendNeutral},
		{"flat", series(100, 100, 100, 100, 100), TrendNeutral},
		{"rising", ramp(100, 1, 5), TrendUp},
		{"falling", ramp(104, -1, 5), TrendDown},
		{"within band", series(100, 100, 100, 100.01, 100.01), TrendNeutral},
		{"long ramp", ramp(100, 1, 20), TrendUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTrend(tt.prices))
		})
	}
	assert.Equal(t, "uptrend", TrendUp.String())
	assert.Equal(t, "downtrend", TrendDown.String())
	assert.Equal(t, "neutral", TrendNeutral.String())
}

func TestTrendAdjustment(t *testing.T) {
	up := TrendAdjustment(TrendUp)
	assert.Equal(t, "1.2", up.Bid.String())
	assert.Equal(t, "0.8", up.Ask.String())
	down := TrendAdjustment(TrendDown)
	assert.Equal(t, "0.8", down.Bid.String())
	assert.Equal(t, "1.2", down.Ask.String())
	assert.Equal(t, NoAdjustment, TrendAdjustment(TrendNeutral))
}

func TestRSI(t *testing.T) {
	alternating := make([]float64, 15)
	for i := range alternating {
		alternating[i] = 100 + float64(i%2)
	}
	tests := []struct {
		name   string
		prices []decimal.Decimal
		want   string
	}{
		{"insufficient history", ramp(100, 1, 14), "50"},
		{"only gains", ramp(100, 1, 15), "100"},
		{"flat means no loss", series(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100), "100"},
		{"only losses", ramp(200, -1, 15), "0"},
		{"balanced", series(alternating...), "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.prices, DefaultRSIPeriod)
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestRSIUsesNewestDeltas(t *testing.T) {
	// 旧数据全部下跌，最近 14 个变化全部上涨
	prices := append(ramp(200, -10, 10), ramp(110, 1, 15)...)
	assert.Equal(t, "100", RSI(prices, DefaultRSIPeriod).String())
}

func TestRSIBounds(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		prices := randomWalk(r, r.Intn(40))
		v := RSI(prices, DefaultRSIPeriod)
		require.True(t, v.GreaterThanOrEqual(decimal.Zero) && v.LessThanOrEqual(hundred), "rsi %s out of range", v)
		if len(prices) < DefaultRSIPeriod+1 {
			require.Equal(t, "50", v.String())
		}
	}
}

func TestRSIAdjustment(t *testing.T) {
	over := RSIAdjustment(dec("70.5"))
	assert.Equal(t, Adjustment{Bid: widen, Ask: narrow}, over)
	under := RSIAdjustment(dec("29.9"))
	assert.Equal(t, Adjustment{Bid: narrow, Ask: widen}, under)
	for _, v := range []string{"30", "50", "70"} {
		assert.Equal(t, Adjustment{Bid: tighten, Ask: tighten}, RSIAdjustment(dec(v)), v)
	}
}

func TestBollingerBands(t *testing.T) {
	assert.Equal(t, Bands{}, BollingerBands(ramp(1, 1, 19), DefaultBollingerPeriod))
	assert.False(t, BollingerBands(nil, DefaultBollingerPeriod).Ready())

	b := BollingerBands(ramp(1, 1, 20), DefaultBollingerPeriod)
	require.True(t, b.Ready())
	assert.Equal(t, "10.5", b.Mid.String())
	// 1..20 的总体方差 = 33.25
	assert.InDelta(t, 10.5+2*5.766281297335398, b.Upper.InexactFloat64(), 1e-9)
	assert.InDelta(t, 10.5-2*5.766281297335398, b.Lower.InexactFloat64(), 1e-9)

	// 只取最近 period 个样本
	longer := append(series(1000, 2000, 3000), ramp(1, 1, 20)...)
	assert.Equal(t, b, BollingerBands(longer, DefaultBollingerPeriod))

	flat := BollingerBands(series(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100), DefaultBollingerPeriod)
	assert.True(t, flat.Ready())
	assert.Equal(t, "100", flat.Lower.String())
	assert.Equal(t, "100", flat.Upper.String())
}

func TestBollingerBandsOrdering(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		prices := randomWalk(r, r.Intn(40))
		b := BollingerBands(prices, DefaultBollingerPeriod)
		if len(prices) < DefaultBollingerPeriod {
			require.Equal(t, Bands{}, b)
			continue
		}
		require.True(t, b.Lower.LessThanOrEqual(b.Mid), "lower %s > mid %s", b.Lower, b.Mid)
		require.True(t, b.Mid.LessThanOrEqual(b.Upper), "mid %s > upper %s", b.Mid, b.Upper)
	}
}

func TestBandsAdjustment(t *testing.T) {
	b := Bands{Lower: dec("90"), Mid: dec("100"), Upper: dec("110")}
	assert.Equal(t, Adjustment{Bid: widen, Ask: narrow}, BandsAdjustment(dec("110"), b))
	assert.Equal(t, Adjustment{Bid: narrow, Ask: widen}, BandsAdjustment(dec("90"), b))
	assert.Equal(t, Adjustment{Bid: tighten, Ask: tighten}, BandsAdjustment(dec("100"), b))
	// 未就绪不比较上下轨：全零上轨不算超买
	assert.Equal(t, Adjustment{Bid: tighten, Ask: tighten}, BandsAdjustment(dec("100"), Bands{}))
	assert.Equal(t, Adjustment{Bid: tighten, Ask: tighten}, BandsAdjustment(dec("100000"), Bands{}))
}

func TestInventoryRatio(t *testing.T) {
	tests := []struct {
		name             string
		base, quote, ref string
		want             string
	}{
		{"empty portfolio", "0", "0", "100", "0.5"},
		{"balanced", "1", "100", "100", "0.5"},
		{"all base", "1", "0", "100", "1"},
		{"all quote", "0", "100", "100", "0"},
		{"base heavy", "2", "100", "100", "0.6666666666666667"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InventoryRatio(dec(tt.base), dec(tt.quote), dec(tt.ref))
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestSkewAdjustment(t *testing.T) {
	assert.Equal(t, Adjustment{Bid: skewWiden, Ask: narrow}, SkewAdjustment(dec("0.61")))
	assert.Equal(t, Adjustment{Bid: narrow, Ask: skewWiden}, SkewAdjustment(dec("0.39")))
	for _, v := range []string{"0.4", "0.5", "0.6"} {
		assert.Equal(t, NoAdjustment, SkewAdjustment(dec(v)), v)
	}
}
