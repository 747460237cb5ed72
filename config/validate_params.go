package config

import (
	"fmt"
	"net"
)

// ValidateParams 额外验证交易对精度与服务地址。
func ValidateParams(cfg AppConfig) error {
	for sym, sc := range cfg.Symbols {
		if sc.TickSize < 0 || sc.StepSize < 0 {
			return ErrInvalid(fmt.Sprintf("symbols.%s tick_size/step_size must be >= 0", sym))
		}
		if sc.MinQty < 0 || sc.MaxQty < 0 || sc.MinNotional < 0 {
			return ErrInvalid(fmt.Sprintf("symbols.%s qty bounds must be >= 0", sym))
		}
		if sc.MaxQty > 0 && sc.MinQty > sc.MaxQty {
			return ErrInvalid(fmt.Sprintf("symbols.%s min_qty > max_qty", sym))
		}
	}
	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return ErrInvalid(fmt.Sprintf("metrics.addr %q: %v", cfg.Metrics.Addr, err))
		}
	}
	if cfg.Strategy.Exchange == "binance_paper_trade" && cfg.Feed.Source == "paper" && cfg.Paper.StartPrice <= 0 {
		return ErrInvalid("paper.start_price must be > 0")
	}
	return nil
}

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }
