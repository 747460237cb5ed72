package inventory

import "github.com/shopspring/decimal"

// Snapshot 仓位与余额的时点快照，成交后写日志用。
type Snapshot struct {
	Net           decimal.Decimal
	AvgCost       decimal.Decimal
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Balances      map[string]decimal.Decimal
}

// Sync 将 Tracker 与 Ledger 组合起来，外部可定期调用以获取当前快照。
type Sync struct {
	Tracker *Tracker
	Ledger  *Ledger
}

func (s *Sync) Snapshot(mid decimal.Decimal) Snapshot {
	var snap Snapshot
	if s.Tracker != nil {
		snap.Net, snap.UnrealizedPnL = s.Tracker.Valuation(mid)
		snap.AvgCost = s.Tracker.AvgCost()
		snap.RealizedPnL = s.Tracker.RealizedPnL()
	}
	if s.Ledger != nil {
		snap.Balances = s.Ledger.Balances()
	}
	return snap
}
