package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"pmm-go/infrastructure/logger"
	"pmm-go/market"
	"pmm-go/order"
	"pmm-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string                  `yaml:"env"`
	Strategy StrategyConfig          `yaml:"strategy"`
	Paper    PaperConfig             `yaml:"paper"`
	Feed     FeedConfig              `yaml:"feed"`
	Log      logger.Config           `yaml:"log"`
	Metrics  MetricsConfig           `yaml:"metrics"`
	Notify   NotifyConfig            `yaml:"notify"`
	Symbols  map[string]SymbolConfig `yaml:"symbols"`
}

// StrategyConfig 报价策略参数，字段含义见 strategy.Config。
type StrategyConfig struct {
	Exchange             string  `yaml:"exchange"`
	TradingPair          string  `yaml:"trading_pair"`
	OrderAmount          float64 `yaml:"order_amount"`
	BaseSpread           float64 `yaml:"base_spread"`   // 0.0003 = 3bps
	MaxSpread            float64 `yaml:"max_spread"`    // 高波动时的价差上限
	RiskAversion         float64 `yaml:"risk_aversion"` // [0,1]
	OrderRefreshTime     string  `yaml:"order_refresh_time"`
	PriceType            string  `yaml:"price_type"` // mid / last
	VolatilityLookback   int     `yaml:"volatility_lookback"`
	InventorySkewEnabled bool    `yaml:"inventory_skew_enabled"`
}

// PaperConfig 模拟盘初始余额与随机游走参数。
type PaperConfig struct {
	Balances   map[string]float64 `yaml:"balances"`
	StartPrice float64            `yaml:"start_price"`
	Seed       int64              `yaml:"seed"`
	Volatility float64            `yaml:"volatility"`
	Interval   string             `yaml:"interval"`
}

// FeedConfig 行情来源：paper 使用随机游走，binance 使用现货 ws。
type FeedConfig struct {
	Source       string `yaml:"source"`
	WSEndpoint   string `yaml:"ws_endpoint"`
	MaxStaleness string `yaml:"max_staleness"` // 超过该时长无行情则暂停报价，"0s" 关闭
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 为空则不启动 /metrics
}

// NotifyConfig 成交通知的节流设置。
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Throttle string `yaml:"throttle"`
}

// SymbolConfig 保存交易对的精度/名义限制（来自 exchangeInfo）。
type SymbolConfig struct {
	TickSize    float64 `yaml:"tick_size"`
	StepSize    float64 `yaml:"step_size"`
	MinQty      float64 `yaml:"min_qty"`
	MaxQty      float64 `yaml:"max_qty"`
	MinNotional float64 `yaml:"min_notional"`
}

// Default 返回默认配置，YAML 中缺省的字段保持这些值。
func Default() AppConfig {
	return AppConfig{
		Env: "dev",
		Strategy: StrategyConfig{
			Exchange:             "binance_paper_trade",
			TradingPair:          "BTC-USDT",
			OrderAmount:          0.005,
			BaseSpread:           0.0003,
			MaxSpread:            0.005,
			RiskAversion:         0.15,
			OrderRefreshTime:     "30s",
			PriceType:            string(market.PriceTypeMid),
			VolatilityLookback:   20,
			InventorySkewEnabled: true,
		},
		Paper: PaperConfig{
			StartPrice: 100000,
			Seed:       1,
			Volatility: 0.0005,
			Interval:   "1s",
		},
		Feed: FeedConfig{Source: "paper", MaxStaleness: "10s"},
		Log:  logger.DefaultConfig(),
		Notify: NotifyConfig{
			Enabled:  true,
			Throttle: "0s",
		},
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from PMM_* env vars if present.
// A .env file next to the working directory is loaded first; existing env vars win.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

func applyEnv(cfg *AppConfig) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	float := func(key string, dst *float64) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = f
		return nil
	}

	str("PMM_ENV", &cfg.Env)
	str("PMM_EXCHANGE", &cfg.Strategy.Exchange)
	str("PMM_TRADING_PAIR", &cfg.Strategy.TradingPair)
	str("PMM_ORDER_REFRESH_TIME", &cfg.Strategy.OrderRefreshTime)
	str("PMM_PRICE_TYPE", &cfg.Strategy.PriceType)
	str("PMM_FEED_SOURCE", &cfg.Feed.Source)
	str("PMM_WS_ENDPOINT", &cfg.Feed.WSEndpoint)
	str("PMM_MAX_STALENESS", &cfg.Feed.MaxStaleness)
	str("PMM_LOG_LEVEL", &cfg.Log.Level)
	str("PMM_METRICS_ADDR", &cfg.Metrics.Addr)
	for key, dst := range map[string]*float64{
		"PMM_ORDER_AMOUNT":  &cfg.Strategy.OrderAmount,
		"PMM_BASE_SPREAD":   &cfg.Strategy.BaseSpread,
		"PMM_MAX_SPREAD":    &cfg.Strategy.MaxSpread,
		"PMM_RISK_AVERSION": &cfg.Strategy.RiskAversion,
	} {
		if err := float(key, dst); err != nil {
			return err
		}
	}
	if v := os.Getenv("PMM_VOLATILITY_LOOKBACK"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env PMM_VOLATILITY_LOOKBACK: %w", err)
		}
		cfg.Strategy.VolatilityLookback = n
	}
	if v := os.Getenv("PMM_INVENTORY_SKEW_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env PMM_INVENTORY_SKEW_ENABLED: %w", err)
		}
		cfg.Strategy.InventorySkewEnabled = b
	}
	return nil
}

// Validate ensures required fields are present and the strategy section is usable.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	if _, err := cfg.StrategyConfig(); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Feed.Source) {
	case "paper", "binance":
	default:
		return ErrInvalid(fmt.Sprintf("feed.source %q must be paper or binance", cfg.Feed.Source))
	}
	if _, err := parseDuration("paper.interval", cfg.Paper.Interval, time.Second); err != nil {
		return err
	}
	if _, err := parseDuration("feed.max_staleness", cfg.Feed.MaxStaleness, 0); err != nil {
		return err
	}
	if _, err := parseDuration("notify.throttle", cfg.Notify.Throttle, 0); err != nil {
		return err
	}
	for asset, amt := range cfg.Paper.Balances {
		if amt < 0 {
			return ErrInvalid(fmt.Sprintf("paper.balances.%s must be >= 0", asset))
		}
	}
	return ValidateParams(cfg)
}

// StrategyConfig 将 YAML 中的策略段转换为 strategy.Config 并校验。
func (c AppConfig) StrategyConfig() (strategy.Config, error) {
	s := c.Strategy
	refresh, err := parseDuration("strategy.order_refresh_time", s.OrderRefreshTime, 30*time.Second)
	if err != nil {
		return strategy.Config{}, err
	}
	pt, err := market.ParsePriceType(s.PriceType)
	if err != nil {
		return strategy.Config{}, ErrInvalid(err.Error())
	}
	out := strategy.Config{
		Exchange:             s.Exchange,
		TradingPair:          s.TradingPair,
		OrderAmount:          decimal.NewFromFloat(s.OrderAmount),
		BaseSpread:           decimal.NewFromFloat(s.BaseSpread),
		MaxSpread:            decimal.NewFromFloat(s.MaxSpread),
		RiskAversion:         decimal.NewFromFloat(s.RiskAversion),
		OrderRefreshTime:     refresh,
		PriceType:            pt,
		VolatilityLookback:   s.VolatilityLookback,
		InventorySkewEnabled: s.InventorySkewEnabled,
	}
	if err := out.Validate(); err != nil {
		return strategy.Config{}, ErrInvalid("strategy: " + err.Error())
	}
	return out, nil
}

// PaperBalances 返回 decimal 形式的初始余额；未配置时给 base 1 个、quote 100000。
func (c AppConfig) PaperBalances() map[string]decimal.Decimal {
	balances := c.Paper.Balances
	if len(balances) == 0 {
		base, quote, _ := strategy.SplitTradingPair(c.Strategy.TradingPair)
		balances = map[string]float64{base: 1, quote: 100000}
	}
	out := make(map[string]decimal.Decimal, len(balances))
	for asset, amt := range balances {
		out[strings.ToUpper(asset)] = decimal.NewFromFloat(amt)
	}
	return out
}

// PaperInterval 返回随机游走的推送间隔。
func (c AppConfig) PaperInterval() time.Duration {
	d, _ := parseDuration("paper.interval", c.Paper.Interval, time.Second)
	return d
}

// MaxStaleness 返回行情过期阈值，0 表示不检查。
func (c AppConfig) MaxStaleness() time.Duration {
	d, _ := parseDuration("feed.max_staleness", c.Feed.MaxStaleness, 0)
	return d
}

// NotifyThrottle 返回成交通知的节流间隔。
func (c AppConfig) NotifyThrottle() time.Duration {
	d, _ := parseDuration("notify.throttle", c.Notify.Throttle, 0)
	return d
}

// Constraints 返回各交易对的下单精度限制。
func (c AppConfig) Constraints() map[string]order.SymbolConstraints {
	out := make(map[string]order.SymbolConstraints, len(c.Symbols))
	for sym, sc := range c.Symbols {
		out[sym] = order.SymbolConstraints{
			TickSize:    decimal.NewFromFloat(sc.TickSize),
			StepSize:    decimal.NewFromFloat(sc.StepSize),
			MinQty:      decimal.NewFromFloat(sc.MinQty),
			MaxQty:      decimal.NewFromFloat(sc.MaxQty),
			MinNotional: decimal.NewFromFloat(sc.MinNotional),
		}
	}
	return out
}

func parseDuration(field, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, ErrInvalid(fmt.Sprintf("%s: %v", field, err))
	}
	if d < 0 {
		return 0, ErrInvalid(fmt.Sprintf("%s must be >= 0", field))
	}
	return d, nil
}
