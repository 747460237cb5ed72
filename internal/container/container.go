package container

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"pmm-go/config"
	"pmm-go/gateway"
	"pmm-go/infrastructure/alert"
	"pmm-go/infrastructure/logger"
	"pmm-go/infrastructure/monitor"
	"pmm-go/internal/engine"
	"pmm-go/inventory"
	"pmm-go/market"
	"pmm-go/order"
	"pmm-go/posttrade"
	"pmm-go/sim"
	"pmm-go/strategy"
)

// Options 命令行传入的运行选项
type Options struct {
	ConfigPath string // 为空则使用默认配置且不启动热更新
	Feed       string // paper / binance，覆盖配置文件
	DryRun     bool   // 只记录下单日志，不进入撮合
}

// Container 依赖注入容器，管理所有组件的生命周期
type Container struct {
	cfg  *config.AppConfig
	opts Options
	pair string // 启动时确定，热更新不可修改

	// 基础设施
	logger  *logger.Logger
	monitor *monitor.Monitor
	alerts  *alert.Manager

	// 核心服务
	marketData *market.Service
	exchange   *sim.PaperExchange
	composer   *strategy.Composer
	orders     *order.Manager
	runner     *engine.Runner

	// HTTP服务器
	metricsServer *http.Server

	// 生命周期管理
	lifecycle *LifecycleManager
}

// New 加载配置并创建 Container
func New(opts Options) (*Container, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadWithEnvOverrides(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config failed: %w", err)
		}
		cfg = loaded
	}
	return NewFromConfig(cfg, opts)
}

// NewFromConfig 使用已加载的配置创建 Container
func NewFromConfig(cfg config.AppConfig, opts Options) (*Container, error) {
	if opts.Feed != "" {
		cfg.Feed.Source = opts.Feed
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Container{
		cfg:       &cfg,
		opts:      opts,
		lifecycle: NewLifecycleManager(),
	}, nil
}

// Build 构建所有组件
func (c *Container) Build() error {
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}
	if err := c.buildCoreServices(); err != nil {
		return fmt.Errorf("build core services failed: %w", err)
	}
	if err := c.registerLifecycleComponents(); err != nil {
		return fmt.Errorf("register components failed: %w", err)
	}
	c.logger.Info("container built successfully",
		zap.String("env", c.cfg.Env),
		zap.String("feed", c.cfg.Feed.Source),
		zap.Bool("dry_run", c.opts.DryRun))
	return nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(c.cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	c.monitor = monitor.New(monitor.DefaultConfig())

	if c.cfg.Notify.Enabled {
		c.alerts = alert.NewManager([]alert.Channel{
			alert.NewZapChannel("log", c.logger.Logger),
			alert.NewConsoleChannel("console", os.Stdout),
		}, c.cfg.NotifyThrottle())
	}

	c.logger.Info("infrastructure built")
	return nil
}

func (c *Container) buildCoreServices() error {
	stratCfg, err := c.cfg.StrategyConfig()
	if err != nil {
		return err
	}

	c.pair = stratCfg.TradingPair
	c.marketData = market.NewService(market.NewPublisher())
	c.exchange = sim.NewPaperExchange(inventory.NewLedger(c.cfg.PaperBalances()))

	prices := market.Oracle{Svc: c.marketData, Symbol: stratCfg.TradingPair, Type: stratCfg.PriceType}
	c.composer, err = strategy.NewComposer(stratCfg, prices, c.exchange)
	if err != nil {
		return fmt.Errorf("create composer failed: %w", err)
	}

	var gw order.Gateway = c.exchange
	if c.opts.DryRun {
		gw = &dryRunGateway{logger: c.logger}
	}
	c.orders = order.NewManager(gw)
	c.orders.SetConstraints(c.cfg.Constraints())

	c.runner, err = engine.New(engine.Config{MaxStaleness: c.cfg.MaxStaleness()}, engine.Components{
		Composer:  c.composer,
		Orders:    c.orders,
		Budget:    c.exchange,
		Prices:    prices,
		Ledger:    c.exchange.Ledger(),
		PostTrade: posttrade.NewAnalyzer(prices, 0),
		Freshness: prices,
		Alerts:    c.alerts,
		Monitor:   c.monitor,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("create engine failed: %w", err)
	}
	c.exchange.OnFill(c.runner.OnFill)

	c.logger.Info("core services built", zap.String("trading_pair", stratCfg.TradingPair))
	return nil
}

// registerLifecycleComponents 启动顺序：metrics -> 行情 -> 撮合 -> 配置监听 -> 引擎
func (c *Container) registerLifecycleComponents() error {
	if c.cfg.Metrics.Addr != "" {
		c.lifecycle.Register(&httpServerComponent{
			name:    "metrics_server",
			handler: c.monitor.Handler(),
			addr:    c.cfg.Metrics.Addr,
			logger:  c.logger,
			server:  &c.metricsServer,
		})
	}

	feed, err := c.buildFeed()
	if err != nil {
		return err
	}
	c.lifecycle.Register(feed)

	if !c.opts.DryRun {
		tickers := c.marketData.Publisher().SubscribeTicker()
		c.lifecycle.Register(newTask("paper_matcher", c.logger, func(ctx context.Context) error {
			return c.exchange.Run(ctx, tickers)
		}))
	}

	if c.opts.ConfigPath != "" {
		w := config.Watcher{Path: c.opts.ConfigPath, Logger: c.logger.Logger}
		c.lifecycle.Register(newTask("config_watcher", c.logger, func(ctx context.Context) error {
			return w.Start(ctx, c.onConfigUpdate)
		}))
	}

	c.lifecycle.Register(c.runner)
	return nil
}

func (c *Container) buildFeed() (Lifecycle, error) {
	pair := c.pair
	switch strings.ToLower(c.cfg.Feed.Source) {
	case "paper":
		walk := sim.NewRandomWalk(pair, c.cfg.Paper.StartPrice, c.cfg.Paper.Seed)
		if c.cfg.Paper.Volatility > 0 {
			walk.Vol = c.cfg.Paper.Volatility
		}
		walk.Interval = c.cfg.PaperInterval()
		return newTask("paper_feed", c.logger, func(ctx context.Context) error {
			return walk.Run(ctx, c.marketData)
		}), nil
	case "binance":
		ws := gateway.NewBinanceWSReal(c.logger.Logger)
		if c.cfg.Feed.WSEndpoint != "" {
			ws.BaseEndpoint = c.cfg.Feed.WSEndpoint
		}
		ws.OnReconnect = c.monitor.RecordWSReconnect
		if err := ws.SubscribeTicker(pair); err != nil {
			return nil, err
		}
		handler := gateway.NewMarketDataHandler(c.marketData, c.logger.Logger, pair)
		return newTask("binance_feed", c.logger, func(ctx context.Context) error {
			return ws.Run(ctx, handler)
		}), nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", c.cfg.Feed.Source)
	}
}

// onConfigUpdate 热更新只替换策略参数，在下个周期边界生效。
func (c *Container) onConfigUpdate(next config.AppConfig) {
	sc, err := next.StrategyConfig()
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "reload_config"})
		return
	}
	if sc.TradingPair != c.pair {
		c.logger.Warn("trading_pair change requires restart, ignored",
			zap.String("current", c.pair),
			zap.String("requested", sc.TradingPair))
		sc.TradingPair = c.pair
	}
	if err := c.runner.Reconfigure(sc); err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "reconfigure"})
	}
}

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")

	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	c.logger.Info("container started")
	return nil
}

// Stop 逆序停止组件；引擎停止时会撤销所有挂单。
func (c *Container) Stop() error {
	c.logger.Info("stopping container...")

	err := c.lifecycle.StopAll()
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
	}

	stats := c.runner.GetStatistics()
	fills := c.runner.FillStats()
	pt := c.runner.PostTradeStats()
	c.logger.Info("session summary",
		zap.Int64("cycles", stats.TotalCycles),
		zap.Int64("orders", stats.TotalOrders),
		zap.Int("fills", fills.TotalFills),
		zap.String("bought", fills.BoughtQty.String()),
		zap.String("sold", fills.SoldQty.String()),
		zap.String("realized_pnl", c.runner.GetInventory().RealizedPnL().String()),
		zap.String("adverse_selection_rate", pt.AdverseSelectionRate.StringFixed(4)),
		zap.String("avg_markout_5s", pt.AvgMarkout5s.String()))

	_ = c.logger.Close()
	return err
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}

func (c *Container) Logger() *logger.Logger   { return c.logger }
func (c *Container) Runner() *engine.Runner    { return c.runner }
func (c *Container) Market() *market.Service   { return c.marketData }
func (c *Container) Monitor() *monitor.Monitor { return c.monitor }

// dryRunGateway 只记录日志，不进入撮合
type dryRunGateway struct {
	logger *logger.Logger
}

func (g *dryRunGateway) Place(o order.Order) (string, error) {
	g.logger.LogOrder("order_place_dry_run", o.ID, map[string]interface{}{
		"symbol": o.Symbol,
		"side":   o.Side,
		"price":  o.Price.String(),
		"qty":    o.Quantity.String(),
	})
	return o.ID, nil
}

func (g *dryRunGateway) Cancel(orderID string) error {
	g.logger.LogOrder("order_cancel_dry_run", orderID, nil)
	return nil
}
