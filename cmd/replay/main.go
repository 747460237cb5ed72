package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"pmm-go/config"
	"pmm-go/inventory"
	"pmm-go/sim"
	"pmm-go/strategy"
)

// 离线回放价格序列，逐周期打印报价与诊断信息（不下单）。
// 用法：
//
//	go run ./cmd/replay -config configs/config.yaml -in data/mids.csv
//	go run ./cmd/replay -random 200
func main() {
	cfgPath := flag.String("config", "", "配置文件路径，留空使用默认配置")
	inPath := flag.String("in", "-", "价格文件（每行一个价格，或 CSV 最后一列），- 表示 stdin")
	random := flag.Int("random", 0, "不读文件，按 paper 段参数生成 N 个随机游走价格")
	outPath := flag.String("out", "", "若指定则写入 CSV")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		cfg = loaded
	}
	stratCfg, err := cfg.StrategyConfig()
	if err != nil {
		log.Fatalf("策略配置无效: %v", err)
	}

	var prices []decimal.Decimal
	if *random > 0 {
		walk := sim.NewRandomWalk(stratCfg.TradingPair, cfg.Paper.StartPrice, cfg.Paper.Seed)
		if cfg.Paper.Volatility > 0 {
			walk.Vol = cfg.Paper.Volatility
		}
		prices = walk.Series(*random)
	} else {
		in := io.Reader(os.Stdin)
		if *inPath != "-" {
			f, err := os.Open(*inPath)
			if err != nil {
				log.Fatalf("打开 %s 失败: %v", *inPath, err)
			}
			defer f.Close()
			in = f
		}
		prices, err = parsePrices(in)
		if err != nil {
			log.Fatalf("读取价格失败: %v", err)
		}
	}
	if len(prices) == 0 {
		log.Fatal("没有可回放的价格")
	}

	replay, err := sim.NewReplay(stratCfg, inventory.NewLedger(cfg.PaperBalances()))
	if err != nil {
		log.Fatalf("初始化报价引擎失败: %v", err)
	}
	proposals := replay.Run(prices)

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("创建 %s 失败: %v", *outPath, err)
		}
		defer f.Close()
		out = f
	}
	if err := writeProposals(out, proposals); err != nil {
		log.Fatalf("写出结果失败: %v", err)
	}

	quoted := 0
	for _, p := range proposals {
		if !p.Empty() {
			quoted++
		}
	}
	fmt.Fprintf(os.Stderr, "cycles=%d quoted=%d skipped=%d\n", len(proposals), quoted, len(proposals)-quoted)
}

// parsePrices 读取每行最后一列作为价格；无法解析的行（如表头）跳过。
func parsePrices(r io.Reader) ([]decimal.Decimal, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var out []decimal.Decimal
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}
		p, err := decimal.NewFromString(strings.TrimSpace(rec[len(rec)-1]))
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func writeProposals(w io.Writer, proposals []strategy.Proposal) error {
	cw := csv.NewWriter(w)
	header := []string{"cycle", "ref", "outcome", "trend", "rsi", "bb_lower", "bb_upper",
		"vol_multiplier", "bid_spread", "ask_spread", "buy", "sell"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, p := range proposals {
		d := p.Diagnostics
		outcome := "quoted"
		if p.Empty() {
			outcome = string(p.Reason)
		}
		row := []string{
			fmt.Sprint(i + 1),
			d.ReferencePrice.String(),
			outcome,
			d.Trend.String(),
			d.RSI.StringFixed(2),
			d.Bands.Lower.StringFixed(4),
			d.Bands.Upper.StringFixed(4),
			d.VolatilityMultiplier.StringFixed(6),
			d.BidSpread.StringFixed(8),
			d.AskSpread.StringFixed(8),
			"", "",
		}
		if !p.Empty() {
			row[10] = p.Buy.Price.StringFixed(8)
			row[11] = p.Sell.Price.StringFixed(8)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
