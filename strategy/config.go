package strategy

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pmm-go/market"
)

// Config 策略配置，单次运行内只读。
type Config struct {
	Exchange             string
	TradingPair          string          // BASE-QUOTE，如 BTC-USDT
	OrderAmount          decimal.Decimal // 每侧下单数量（base 资产）
	BaseSpread           decimal.Decimal // 动态调整前的基础价差（如 0.0003 = 3bps）
	MaxSpread            decimal.Decimal // 高波动时价差上限
	RiskAversion         decimal.Decimal // 风险厌恶系数 [0,1]
	OrderRefreshTime     time.Duration
	PriceType            market.PriceType
	VolatilityLookback   int // 价格缓冲区容量 N
	InventorySkewEnabled bool
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Exchange:             "binance_paper_trade",
		TradingPair:          "BTC-USDT",
		OrderAmount:          decimal.RequireFromString("0.005"),
		BaseSpread:           decimal.RequireFromString("0.0003"),
		MaxSpread:            decimal.RequireFromString("0.005"),
		RiskAversion:         decimal.RequireFromString("0.15"),
		OrderRefreshTime:     30 * time.Second,
		PriceType:            market.PriceTypeMid,
		VolatilityLookback:   20,
		InventorySkewEnabled: true,
	}
}

// Validate 检查配置合法性。
func (c Config) Validate() error {
	if c.Exchange == "" {
		return errors.New("exchange is required")
	}
	if _, _, err := SplitTradingPair(c.TradingPair); err != nil {
		return err
	}
	if !c.OrderAmount.IsPositive() {
		return errors.New("order_amount must be > 0")
	}
	if !c.BaseSpread.IsPositive() {
		return errors.New("base_spread must be > 0")
	}
	if c.MaxSpread.LessThan(c.BaseSpread) {
		return fmt.Errorf("max_spread %s must be >= base_spread %s", c.MaxSpread, c.BaseSpread)
	}
	if c.RiskAversion.IsNegative() || c.RiskAversion.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("risk_aversion %s must be within [0,1]", c.RiskAversion)
	}
	if c.OrderRefreshTime <= 0 {
		return errors.New("order_refresh_time must be > 0")
	}
	if c.PriceType != market.PriceTypeMid && c.PriceType != market.PriceTypeLast {
		return fmt.Errorf("price_type %q must be mid or last", c.PriceType)
	}
	if c.VolatilityLookback < 1 {
		return errors.New("volatility_lookback must be >= 1")
	}
	return nil
}

// BaseAsset 返回交易对的 base 资产；格式错误时返回空串。
func (c Config) BaseAsset() string {
	base, _, _ := SplitTradingPair(c.TradingPair)
	return base
}

// QuoteAsset 返回交易对的 quote 资产。
func (c Config) QuoteAsset() string {
	_, quote, _ := SplitTradingPair(c.TradingPair)
	return quote
}

// SplitTradingPair 将 "BTC-USDT" 拆分为 base/quote。
func SplitTradingPair(pair string) (base, quote string, err error) {
	parts := strings.Split(pair, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("trading pair %q must look like BASE-QUOTE", pair)
	}
	return parts[0], parts[1], nil
}
