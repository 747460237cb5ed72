package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pmm-go/infrastructure/alert"
	"pmm-go/infrastructure/logger"
	"pmm-go/infrastructure/monitor"
	"pmm-go/inventory"
	"pmm-go/order"
	"pmm-go/posttrade"
	"pmm-go/strategy"
)

// EngineState 引擎状态
type EngineState int

const (
	// StateIdle 空闲状态
	StateIdle EngineState = iota
	// StateRunning 运行状态
	StateRunning
	// StatePaused 暂停状态
	StatePaused
	// StateStopped 停止状态
	StateStopped
)

// String 返回状态名称
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config 引擎配置
type Config struct {
	TickInterval time.Duration // 检查周期是否到期的间隔，默认 1s
	StopTimeout  time.Duration // 等待主循环退出的最长时间
	MaxStaleness time.Duration // 行情超过该时长未更新则跳过本周期；0 表示不检查
}

// Freshness 报告行情距上次更新的时长；从未收到时返回负值。
type Freshness interface {
	Staleness() time.Duration
}

// Components 引擎依赖组件
type Components struct {
	Composer  *strategy.Composer
	Orders    *order.Manager
	Budget    order.AvailableBalances // 可选；为空时不做资金检查
	Prices    strategy.PriceOracle    // 可选；成交后估值用
	Inventory *inventory.Tracker
	Ledger    *inventory.Ledger
	Fills     *order.FillTracker
	PostTrade *posttrade.Analyzer // 可选；成交后 markout 统计
	Freshness Freshness           // 可选；配合 MaxStaleness 使用
	Alerts    *alert.Manager
	Monitor   *monitor.Monitor
	Logger    *logger.Logger
}

// Statistics 引擎统计信息
type Statistics struct {
	StartTime      time.Time
	TotalTicks     int64
	TotalCycles    int64
	TotalQuotes    int64
	EmptyProposals int64
	BudgetSkips    int64
	StaleSkips     int64
	TotalOrders    int64
	TotalCanceled  int64
	TotalFills     int64
	TotalErrors    int64
	LastCycleTime  time.Time
	NextCycle      time.Time
}

// Runner 报价周期驱动：每个 tick 检查是否到达下一周期，
// 到期则撤掉旧单、生成新报价、按资金裁剪后下单。
type Runner struct {
	config Config

	composer  *strategy.Composer
	orders    *order.Manager
	budget    order.BudgetChecker
	prices    strategy.PriceOracle
	inventory *inventory.Tracker
	ledger    *inventory.Ledger
	fills     *order.FillTracker
	postTrade *posttrade.Analyzer
	freshness Freshness
	alertMgr  *alert.Manager
	monitor   *monitor.Monitor
	logger    *logger.Logger

	// 状态
	state EngineState
	mu    sync.RWMutex

	// 热更新配置，在周期边界生效
	pending   *strategy.Config
	pendingMu sync.Mutex

	// 控制通道
	stopChan chan struct{}
	doneChan chan struct{}

	stats   Statistics
	statsMu sync.RWMutex

	nextCycle time.Time
	now       func() time.Time
}

// New 创建周期驱动器
func New(cfg Config, comp Components) (*Runner, error) {
	if err := validateComponents(comp); err != nil {
		return nil, fmt.Errorf("invalid components: %w", err)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}
	if comp.Inventory == nil {
		comp.Inventory = &inventory.Tracker{}
	}
	if comp.Fills == nil {
		comp.Fills = order.NewFillTracker(0, 0)
	}

	return &Runner{
		config:    cfg,
		composer:  comp.Composer,
		orders:    comp.Orders,
		budget:    order.BudgetChecker{Balances: comp.Budget},
		prices:    comp.Prices,
		inventory: comp.Inventory,
		ledger:    comp.Ledger,
		fills:     comp.Fills,
		postTrade: comp.PostTrade,
		freshness: comp.Freshness,
		alertMgr:  comp.Alerts,
		monitor:   comp.Monitor,
		logger:    comp.Logger,
		state:     StateIdle,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		now:       time.Now,
	}, nil
}

// Start 启动主循环
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle && r.state != StateStopped {
		r.mu.Unlock()
		return fmt.Errorf("engine already started (state: %s)", r.state)
	}
	if r.state == StateStopped {
		r.stopChan = make(chan struct{})
		r.doneChan = make(chan struct{})
	}
	r.state = StateRunning
	r.mu.Unlock()

	r.statsMu.Lock()
	r.stats.StartTime = r.now()
	r.statsMu.Unlock()

	cfg := r.composer.Config()
	r.logger.Info("Quote engine starting",
		zap.String("exchange", cfg.Exchange),
		zap.String("trading_pair", cfg.TradingPair),
		zap.Duration("order_refresh_time", cfg.OrderRefreshTime),
		zap.Duration("tick_interval", r.config.TickInterval))

	go r.run(ctx)
	return nil
}

// Stop 停止主循环并撤销所有挂单；重复调用无副作用。
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.state != StateRunning && r.state != StatePaused {
		r.mu.Unlock()
		return nil
	}
	r.state = StateStopped
	r.mu.Unlock()

	r.logger.Info("Quote engine stopping...")

	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}

	select {
	case <-r.doneChan:
	case <-time.After(r.config.StopTimeout):
		r.logger.Warn("Timeout waiting for engine to stop")
	}

	if n, err := r.orders.CancelAll(); err != nil {
		r.logger.Error("Failed to cancel all orders", zap.Error(err))
	} else {
		r.recordCanceled(n)
	}

	r.logger.Info("Quote engine stopped")
	return nil
}

// Pause 暂停报价（已挂订单保持不动）
func (r *Runner) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning {
		return fmt.Errorf("engine not running (state: %s)", r.state)
	}
	r.state = StatePaused
	r.logger.Info("Quote engine paused")
	return nil
}

// Resume 恢复报价
func (r *Runner) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePaused {
		return fmt.Errorf("engine not paused (state: %s)", r.state)
	}
	r.state = StateRunning
	r.logger.Info("Quote engine resumed")
	return nil
}

// Health 供生命周期管理检查
func (r *Runner) Health() error {
	if st := r.GetState(); st != StateRunning && st != StatePaused {
		return fmt.Errorf("engine not running (state: %s)", st)
	}
	return nil
}

// Reconfigure 提交新的策略配置，下一个周期开始前生效。
func (r *Runner) Reconfigure(cfg strategy.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.pendingMu.Lock()
	r.pending = &cfg
	r.pendingMu.Unlock()
	return nil
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.config.TickInterval)
	defer ticker.Stop()

	r.onTick()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Context done, stopping engine")
			return
		case <-r.stopChan:
			r.logger.Info("Stop signal received")
			return
		case <-ticker.C:
			r.onTick()
		}
	}
}

// onTick 到期才执行一个完整周期
func (r *Runner) onTick() {
	if r.GetState() != StateRunning {
		return
	}
	now := r.now()

	r.statsMu.Lock()
	r.stats.TotalTicks++
	r.statsMu.Unlock()

	if r.postTrade != nil {
		r.postTrade.Sample(now)
	}
	if now.Before(r.nextCycle) {
		return
	}
	r.runCycle(now)
}

// runCycle 执行一个报价周期；任何 panic 都在这里兜住，只跳过本周期。
func (r *Runner) runCycle(now time.Time) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.recordFault(fmt.Errorf("cycle panic: %v", rec))
		}
		if r.monitor != nil {
			r.monitor.ObserveCycle(time.Since(start).Seconds())
		}
	}()

	r.applyPending()
	cfg := r.composer.Config()
	r.nextCycle = now.Add(cfg.OrderRefreshTime)

	r.statsMu.Lock()
	r.stats.TotalCycles++
	r.stats.LastCycleTime = now
	r.stats.NextCycle = r.nextCycle
	r.statsMu.Unlock()

	// 1. 撤掉上一周期的挂单
	n, err := r.orders.CancelAll()
	r.recordCanceled(n)
	if err != nil {
		r.logger.Error("Failed to cancel old orders", zap.Error(err))
		r.recordError()
	}

	// 行情断流时不挂新单
	if stale, ok := r.staleFeed(); ok {
		r.logger.Warn("Market data stale, skip quoting",
			zap.String("trading_pair", cfg.TradingPair),
			zap.Duration("staleness", stale),
			zap.Duration("max_staleness", r.config.MaxStaleness))
		r.statsMu.Lock()
		r.stats.StaleSkips++
		r.statsMu.Unlock()
		return
	}

	// 2. 生成报价
	proposal := r.composer.CreateProposal()
	r.logger.LogProposal(proposal)
	if r.monitor != nil {
		r.monitor.ObserveProposal(proposal)
	}
	if proposal.Empty() {
		r.statsMu.Lock()
		r.stats.EmptyProposals++
		r.statsMu.Unlock()
		return
	}
	r.statsMu.Lock()
	r.stats.TotalQuotes++
	r.statsMu.Unlock()

	// 3. 资金检查，不够则整组放弃
	cands := r.budget.Adjust(proposal.Candidates())
	if len(cands) == 0 {
		r.logger.Info("Insufficient balance, skip quoting",
			zap.String("trading_pair", cfg.TradingPair),
			zap.String("buy_notional", proposal.Buy.Notional().String()),
			zap.String("sell_amount", proposal.Sell.Amount.String()))
		r.statsMu.Lock()
		r.stats.BudgetSkips++
		r.statsMu.Unlock()
		if r.monitor != nil {
			r.monitor.RecordBudgetSkip()
		}
		return
	}

	// 4. 下单
	placed, err := r.orders.SubmitCandidates(cands)
	if err != nil {
		r.logger.Error("Failed to place order", zap.Error(err))
		r.recordError()
		if r.monitor != nil {
			for i := len(placed); i < len(cands); i++ {
				r.monitor.RecordOrderRejected()
			}
		}
	}
	for _, o := range placed {
		r.logger.LogOrder("order_placed", o.ID, map[string]interface{}{
			"symbol": o.Symbol,
			"side":   o.Side,
			"price":  o.Price.String(),
			"qty":    o.Quantity.String(),
		})
	}
	if r.monitor != nil {
		r.monitor.RecordOrderPlaced(len(placed))
	}
	r.statsMu.Lock()
	r.stats.TotalOrders += int64(len(placed))
	r.statsMu.Unlock()
}

// staleFeed 未收到过行情（负值）交给 CreateProposal 按无参考价处理。
func (r *Runner) staleFeed() (time.Duration, bool) {
	if r.freshness == nil || r.config.MaxStaleness <= 0 {
		return 0, false
	}
	d := r.freshness.Staleness()
	return d, d > r.config.MaxStaleness
}

func (r *Runner) applyPending() {
	r.pendingMu.Lock()
	next := r.pending
	r.pending = nil
	r.pendingMu.Unlock()
	if next == nil {
		return
	}
	if err := r.composer.Reconfigure(*next); err != nil {
		r.logger.Error("Reconfigure rejected", zap.Error(err))
		return
	}
	r.logger.Info("Strategy config applied",
		zap.String("trading_pair", next.TradingPair),
		zap.String("base_spread", next.BaseSpread.String()),
		zap.String("max_spread", next.MaxSpread.String()),
		zap.Duration("order_refresh_time", next.OrderRefreshTime))
}

// OnFill 处理成交回报：更新订单与仓位，写日志，发送通知。
// 可在任意 goroutine 调用。
func (r *Runner) OnFill(f order.Fill) {
	if _, err := r.orders.ApplyFill(f.OrderID, f.Quantity); err != nil {
		r.logger.Warn("Fill for untracked order",
			zap.String("order_id", f.OrderID),
			zap.Error(err))
	}

	delta := f.Quantity
	if f.Side == string(strategy.SideSell) {
		delta = delta.Neg()
	}
	r.inventory.Update(delta, f.Price)
	r.fills.RecordFill(f.OrderID, f.Side, f.Price, f.Quantity)
	if r.postTrade != nil {
		ts := f.Ts
		if ts.IsZero() {
			ts = r.now()
		}
		r.postTrade.OnFill(f.OrderID, f.Side, f.Price, ts)
	}

	r.statsMu.Lock()
	r.stats.TotalFills++
	r.statsMu.Unlock()

	mark := f.Price
	if r.prices != nil {
		if ref, ok := r.prices.ReferencePrice(); ok {
			mark = ref
		}
	}
	snap := (&inventory.Sync{Tracker: r.inventory, Ledger: r.ledger}).Snapshot(mark)

	fields := map[string]interface{}{
		"order_id":     f.OrderID,
		"symbol":       f.Symbol,
		"side":         f.Side,
		"price":        f.Price.String(),
		"qty":          f.Quantity.String(),
		"net":          snap.Net.String(),
		"realized_pnl": snap.RealizedPnL.String(),
	}
	for asset, amt := range snap.Balances {
		fields["balance_"+asset] = amt.String()
	}
	r.logger.LogTrade("order_filled", fields)

	if r.monitor != nil {
		r.monitor.RecordFill(f.Side, f.Quantity)
		r.monitor.UpdatePosition(snap.Net, snap.UnrealizedPnL, snap.RealizedPnL)
	}
	if r.alertMgr != nil {
		err := r.alertMgr.NotifyFill(f.Symbol, f.Side, f.Quantity.String(), f.Price.String())
		if err != nil && !errors.Is(err, alert.ErrThrottled) {
			r.logger.Warn("Fill notification failed", zap.Error(err))
		}
	}
}

func (r *Runner) recordCanceled(n int) {
	if n == 0 {
		return
	}
	r.statsMu.Lock()
	r.stats.TotalCanceled += int64(n)
	r.statsMu.Unlock()
	if r.monitor != nil {
		r.monitor.RecordOrderCanceled(n)
	}
}

func (r *Runner) recordFault(err error) {
	r.logger.Error("Cycle fault, skipping", zap.Error(err))
	r.recordError()
	if r.monitor != nil {
		r.monitor.RecordCycleFault()
	}
}

func (r *Runner) recordError() {
	r.statsMu.Lock()
	r.stats.TotalErrors++
	r.statsMu.Unlock()
}

// GetState 获取引擎状态
func (r *Runner) GetState() EngineState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// GetStatistics 获取统计信息
func (r *Runner) GetStatistics() Statistics {
	r.statsMu.RLock()
	defer r.statsMu.RUnlock()
	return r.stats
}

// GetInventory 获取当前净仓
func (r *Runner) GetInventory() *inventory.Tracker {
	return r.inventory
}

// FillStats 成交统计
func (r *Runner) FillStats() order.FillTrackerStats {
	return r.fills.GetStats()
}

// PostTradeStats 成交后 markout 统计；未配置分析器时返回零值。
func (r *Runner) PostTradeStats() posttrade.Stats {
	if r.postTrade == nil {
		return posttrade.Stats{}
	}
	return r.postTrade.Stats()
}

func validateComponents(comp Components) error {
	if comp.Composer == nil {
		return errors.New("composer is required")
	}
	if comp.Orders == nil {
		return errors.New("order manager is required")
	}
	if comp.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}
