package sim

import (
	"github.com/shopspring/decimal"

	"pmm-go/strategy"
)

// Replay 将价格序列逐个喂给报价引擎（不下单），用于离线检查参数。
type Replay struct {
	Composer *strategy.Composer
	feed     *feedOracle
}

// NewReplay balances 可为 nil，此时库存比例按 0.5 处理。
func NewReplay(cfg strategy.Config, balances strategy.BalanceOracle) (*Replay, error) {
	feed := &feedOracle{}
	c, err := strategy.NewComposer(cfg, feed, balances)
	if err != nil {
		return nil, err
	}
	return &Replay{Composer: c, feed: feed}, nil
}

// Step 以 price 作为参考价执行一个报价周期。
func (r *Replay) Step(price decimal.Decimal) strategy.Proposal {
	r.feed.price = price
	return r.Composer.CreateProposal()
}

// Run 依次回放全部价格。
func (r *Replay) Run(prices []decimal.Decimal) []strategy.Proposal {
	out := make([]strategy.Proposal, 0, len(prices))
	for _, p := range prices {
		out = append(out, r.Step(p))
	}
	return out
}

type feedOracle struct {
	price decimal.Decimal
}

func (f *feedOracle) ReferencePrice() (decimal.Decimal, bool) {
	return f.price, !f.price.IsZero()
}
