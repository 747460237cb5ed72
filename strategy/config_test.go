package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmm-go/market"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	mutate := map[string]func(*Config){
		"no exchange":        func(c *Config) { c.Exchange = "" },
		"bad pair":           func(c *Config) { c.TradingPair = "BTCUSDT" },
		"zero amount":        func(c *Config) { c.OrderAmount = decimal.Zero },
		"zero spread":        func(c *Config) { c.BaseSpread = decimal.Zero },
		"max below base":     func(c *Config) { c.MaxSpread = dec("0.0001") },
		"risk above one":     func(c *Config) { c.RiskAversion = dec("1.5") },
		"negative risk":      func(c *Config) { c.RiskAversion = dec("-0.1") },
		"no refresh":         func(c *Config) { c.OrderRefreshTime = 0 },
		"unknown price type": func(c *Config) { c.PriceType = market.PriceType("vwap") },
		"zero lookback":      func(c *Config) { c.VolatilityLookback = 0 },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			fn(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := NewComposer(cfg, nil, nil)
			assert.Error(t, err)
		})
	}

	cfg := DefaultConfig()
	cfg.OrderRefreshTime = time.Second
	assert.Equal(t, "BTC", cfg.BaseAsset())
	assert.Equal(t, "USDT", cfg.QuoteAsset())
}

func TestSplitTradingPair(t *testing.T) {
	base, quote, err := SplitTradingPair("ETH-USDT")
	require.NoError(t, err)
	assert.Equal(t, "ETH", base)
	assert.Equal(t, "USDT", quote)

	for _, bad := range []string{"", "ETHUSDT", "-USDT", "ETH-", "A-B-C"} {
		_, _, err := SplitTradingPair(bad)
		assert.Error(t, err, bad)
	}
}
