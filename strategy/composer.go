package strategy

import (
	"sync"

	"github.com/shopspring/decimal"

	"pmm-go/market"
)

// MinProfitThreshold 买卖价差占参考价的最小比例（0.01%），低于此值本周期不报价。
var MinProfitThreshold = decimal.RequireFromString("0.0001")

// PriceOracle 提供当前参考价（mid 或 last）。
type PriceOracle interface {
	ReferencePrice() (decimal.Decimal, bool)
}

// BalanceOracle 提供单个资产的可用余额；未知时 ok=false，按 0 处理。
type BalanceOracle interface {
	Balance(asset string) (decimal.Decimal, bool)
}

// Composer 报价引擎：维护价格缓冲区，组合五个信号得到最终 bid/ask。
// CreateProposal 与 Reconfigure 互斥；Config/History 可在其他 goroutine 读取。
type Composer struct {
	mu       sync.RWMutex
	cfg      Config
	history  *market.PriceHistory
	prices   PriceOracle
	balances BalanceOracle

	rsiPeriod   int
	bandsPeriod int
}

// NewComposer 创建报价引擎；balances 可以为 nil（库存比例按 0.5 处理）。
func NewComposer(cfg Config, prices PriceOracle, balances BalanceOracle) (*Composer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Composer{
		cfg:         cfg,
		history:     market.NewPriceHistory(cfg.VolatilityLookback),
		prices:      prices,
		balances:    balances,
		rsiPeriod:   DefaultRSIPeriod,
		bandsPeriod: DefaultBollingerPeriod,
	}, nil
}

func (c *Composer) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// History 返回价格样本副本。
func (c *Composer) History() []decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history.Snapshot()
}

// Reconfigure 在周期之间替换配置；回看窗口变化时保留最近的样本。
func (c *Composer) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg.VolatilityLookback != c.history.Capacity() {
		next := market.NewPriceHistory(cfg.VolatilityLookback)
		for _, p := range c.history.Snapshot() {
			next.Append(p)
		}
		c.history = next
	}
	c.cfg = cfg
	return nil
}

// CreateProposal 执行一次报价流程。不会 panic，也不返回错误：
// 参考价无效或价差过窄时返回带原因的空提案。
func (c *Composer) CreateProposal() Proposal {
	c.mu.Lock()
	defer c.mu.Unlock()

	var diag Diagnostics

	ref, ok := decimal.Zero, false
	if c.prices != nil {
		ref, ok = c.prices.ReferencePrice()
	}
	diag.ReferencePrice = ref
	if !ok || !ref.IsPositive() {
		diag.HistoryLen = c.history.Len()
		return emptyProposal(ReasonInvalidReferencePrice, diag)
	}

	c.history.Append(ref)
	prices := c.history.Snapshot()
	diag.HistoryLen = len(prices)

	vol := VolatilityEstimator{BaseSpread: c.cfg.BaseSpread, MaxSpread: c.cfg.MaxSpread}
	diag.VolatilityMultiplier = vol.Multiplier(prices)
	diag.SpreadMultiplier = diag.VolatilityMultiplier.Mul(one.Add(c.cfg.RiskAversion))

	bid := c.cfg.BaseSpread.Mul(diag.SpreadMultiplier)
	ask := bid
	diag.Steps = append(diag.Steps, Step{Name: "volatility", Bid: bid, Ask: ask})

	diag.Trend = DetectTrend(prices)
	bid, ask = TrendAdjustment(diag.Trend).apply(bid, ask)
	diag.Steps = append(diag.Steps, Step{Name: "trend", Bid: bid, Ask: ask})

	if c.cfg.InventorySkewEnabled {
		diag.InventorySkewApplied = true
		diag.BaseBalance = c.balance(c.cfg.BaseAsset())
		diag.QuoteBalance = c.balance(c.cfg.QuoteAsset())
		diag.InventoryRatio = InventoryRatio(diag.BaseBalance, diag.QuoteBalance, ref)
		bid, ask = SkewAdjustment(diag.InventoryRatio).apply(bid, ask)
		diag.Steps = append(diag.Steps, Step{Name: "inventory", Bid: bid, Ask: ask})
	}

	diag.RSI = RSI(prices, c.rsiPeriod)
	bid, ask = RSIAdjustment(diag.RSI).apply(bid, ask)
	diag.Steps = append(diag.Steps, Step{Name: "rsi", Bid: bid, Ask: ask})

	diag.Bands = BollingerBands(prices, c.bandsPeriod)
	bid, ask = BandsAdjustment(ref, diag.Bands).apply(bid, ask)
	diag.Steps = append(diag.Steps, Step{Name: "bollinger", Bid: bid, Ask: ask})

	diag.BidSpread, diag.AskSpread = bid, ask
	diag.BuyPrice = ref.Mul(one.Sub(bid))
	diag.SellPrice = ref.Mul(one.Add(ask))
	diag.RealizedSpread = diag.SellPrice.Sub(diag.BuyPrice).Div(ref)

	if diag.RealizedSpread.LessThan(MinProfitThreshold) {
		return emptyProposal(ReasonSpreadTooTight, diag)
	}
	if !diag.BuyPrice.IsPositive() {
		return emptyProposal(ReasonNonPositiveBid, diag)
	}

	return Proposal{
		Buy: Candidate{
			TradingPair: c.cfg.TradingPair,
			Side:        SideBuy,
			Price:       diag.BuyPrice,
			Amount:      c.cfg.OrderAmount,
		},
		Sell: Candidate{
			TradingPair: c.cfg.TradingPair,
			Side:        SideSell,
			Price:       diag.SellPrice,
			Amount:      c.cfg.OrderAmount,
		},
		Diagnostics: diag,
	}
}

func (c *Composer) balance(asset string) decimal.Decimal {
	if c.balances == nil || asset == "" {
		return decimal.Zero
	}
	b, ok := c.balances.Balance(asset)
	if !ok {
		return decimal.Zero
	}
	return b
}
