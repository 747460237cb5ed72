package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"pmm-go/strategy"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 报价指标
	referencePrice       prometheus.Gauge
	volatilityMultiplier prometheus.Gauge
	spreadMultiplier     prometheus.Gauge
	bidSpread            prometheus.Gauge
	askSpread            prometheus.Gauge
	buyPrice             prometheus.Gauge
	sellPrice            prometheus.Gauge
	rsi                  prometheus.Gauge
	bands                *prometheus.GaugeVec
	trend                prometheus.Gauge
	inventoryRatio       prometheus.Gauge
	historyLen           prometheus.Gauge
	proposals            *prometheus.CounterVec

	// 订单指标
	ordersPlaced   prometheus.Counter
	ordersCanceled prometheus.Counter
	ordersRejected prometheus.Counter
	ordersSkipped  prometheus.Counter

	// 成交与仓位
	fillsTotal    *prometheus.CounterVec
	tradedVolume  prometheus.Counter
	position      prometheus.Gauge
	unrealizedPnL prometheus.Gauge
	realizedPnL   prometheus.Gauge

	// 系统指标
	cycleDuration prometheus.Histogram
	cycleFaults   prometheus.Counter
	wsReconnects  prometheus.Counter
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "pmm",
		Subsystem: "quote",
	}
}

// New 创建新的Monitor实例，指标注册在独立 registry 上。
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &Monitor{
		registry: reg,

		referencePrice:       gauge("reference_price", "当前参考价（mid 或 last）"),
		volatilityMultiplier: gauge("volatility_multiplier", "波动率乘数"),
		spreadMultiplier:     gauge("spread_multiplier", "波动率乘数 x (1+风险厌恶)"),
		bidSpread:            gauge("bid_spread", "最终买侧价差比例"),
		askSpread:            gauge("ask_spread", "最终卖侧价差比例"),
		buyPrice:             gauge("buy_price", "买单报价"),
		sellPrice:            gauge("sell_price", "卖单报价"),
		rsi:                  gauge("rsi", "RSI 动量指标"),
		bands: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "bollinger",
			Help:      "布林带（lower/mid/upper），数据不足时为 0",
		}, []string{"band"}),
		trend:          gauge("trend", "趋势：1 上涨，-1 下跌，0 中性"),
		inventoryRatio: gauge("inventory_ratio", "base 资产市值占比"),
		historyLen:     gauge("history_length", "价格缓冲区样本数"),
		proposals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "proposals_total",
			Help:      "报价周期结果计数",
		}, []string{"outcome"}),

		ordersPlaced:   counter("orders_placed_total", "订单下单总数"),
		ordersCanceled: counter("orders_canceled_total", "订单撤单总数"),
		ordersRejected: counter("orders_rejected_total", "订单拒绝总数"),
		ordersSkipped:  counter("orders_budget_skipped_total", "资金不足跳过的报价周期"),

		fillsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "fills_total",
			Help:      "成交笔数",
		}, []string{"side"}),
		tradedVolume:  counter("traded_volume_total", "累计成交量（base）"),
		position:      gauge("position", "当前净仓位"),
		unrealizedPnL: gauge("unrealized_pnl", "未实现盈亏"),
		realizedPnL:   gauge("realized_pnl", "已实现盈亏"),

		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "报价周期耗时分布（秒）",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		cycleFaults:  counter("cycle_faults_total", "周期内捕获的异常"),
		wsReconnects: counter("ws_reconnects_total", "行情 ws 重连次数"),
	}
}

// ObserveProposal 记录一次报价周期的诊断信息。
func (m *Monitor) ObserveProposal(p strategy.Proposal) {
	outcome := "quoted"
	if p.Empty() {
		outcome = string(p.Reason)
	}
	m.proposals.WithLabelValues(outcome).Inc()

	d := p.Diagnostics
	m.referencePrice.Set(f(d.ReferencePrice))
	m.historyLen.Set(float64(d.HistoryLen))
	if p.Reason == strategy.ReasonInvalidReferencePrice {
		return
	}
	m.volatilityMultiplier.Set(f(d.VolatilityMultiplier))
	m.spreadMultiplier.Set(f(d.SpreadMultiplier))
	m.bidSpread.Set(f(d.BidSpread))
	m.askSpread.Set(f(d.AskSpread))
	m.buyPrice.Set(f(d.BuyPrice))
	m.sellPrice.Set(f(d.SellPrice))
	m.rsi.Set(f(d.RSI))
	m.bands.WithLabelValues("lower").Set(f(d.Bands.Lower))
	m.bands.WithLabelValues("mid").Set(f(d.Bands.Mid))
	m.bands.WithLabelValues("upper").Set(f(d.Bands.Upper))
	m.trend.Set(trendValue(d.Trend))
	if d.InventorySkewApplied {
		m.inventoryRatio.Set(f(d.InventoryRatio))
	}
}

// 订单相关方法
func (m *Monitor) RecordOrderPlaced(n int) {
	m.ordersPlaced.Add(float64(n))
}

func (m *Monitor) RecordOrderCanceled(n int) {
	m.ordersCanceled.Add(float64(n))
}

func (m *Monitor) RecordOrderRejected() {
	m.ordersRejected.Inc()
}

func (m *Monitor) RecordBudgetSkip() {
	m.ordersSkipped.Inc()
}

// RecordFill 记录一笔成交。
func (m *Monitor) RecordFill(side string, qty decimal.Decimal) {
	m.fillsTotal.WithLabelValues(side).Inc()
	m.tradedVolume.Add(f(qty))
}

// 仓位相关方法
func (m *Monitor) UpdatePosition(net, unrealized, realized decimal.Decimal) {
	m.position.Set(f(net))
	m.unrealizedPnL.Set(f(unrealized))
	m.realizedPnL.Set(f(realized))
}

// 系统相关方法
func (m *Monitor) ObserveCycle(seconds float64) {
	m.cycleDuration.Observe(seconds)
}

func (m *Monitor) RecordCycleFault() {
	m.cycleFaults.Inc()
}

func (m *Monitor) RecordWSReconnect() {
	m.wsReconnects.Inc()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func f(d decimal.Decimal) float64 { return d.InexactFloat64() }

func trendValue(t strategy.Trend) float64 {
	switch t {
	case strategy.TrendUp:
		return 1
	case strategy.TrendDown:
		return -1
	default:
		return 0
	}
}
