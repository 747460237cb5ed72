package sim

import (
	"github.com/shopspring/decimal"

	"pmm-go/inventory"
	"pmm-go/market"
	"pmm-go/order"
	"pmm-go/strategy"
)

// PaperConfig 描述模拟盘组件的参数。
type PaperConfig struct {
	Strategy    strategy.Config
	Balances    map[string]decimal.Decimal // 初始余额
	Constraints order.SymbolConstraints
	StartPrice  float64
	Seed        int64
}

// Paper 一组接好线的内存组件：随机游走行情 -> market.Service -> 报价引擎，
// 订单经 order.Manager 下到 PaperExchange。
type Paper struct {
	Market   *market.Service
	Exchange *PaperExchange
	Orders   *order.Manager
	Composer *strategy.Composer
	Feed     *RandomWalk
}

// BuildPaper 基于配置快速组装模拟盘（使用内存组件，适合离线/仿真）。
func BuildPaper(cfg PaperConfig) (*Paper, error) {
	svc := market.NewService(nil)
	ex := NewPaperExchange(inventory.NewLedger(cfg.Balances))
	oracle := market.Oracle{Svc: svc, Symbol: cfg.Strategy.TradingPair, Type: cfg.Strategy.PriceType}
	composer, err := strategy.NewComposer(cfg.Strategy, oracle, ex)
	if err != nil {
		return nil, err
	}

	mgr := order.NewManager(ex)
	mgr.SetConstraints(map[string]order.SymbolConstraints{
		cfg.Strategy.TradingPair: cfg.Constraints,
	})

	start := cfg.StartPrice
	if start <= 0 {
		start = 100
	}
	return &Paper{
		Market:   svc,
		Exchange: ex,
		Orders:   mgr,
		Composer: composer,
		Feed:     NewRandomWalk(cfg.Strategy.TradingPair, start, cfg.Seed),
	}, nil
}
