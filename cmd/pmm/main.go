package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"pmm-go/internal/container"
)

// 常驻报价进程。
// 用法：
//
//	go run ./cmd/pmm -config configs/config.yaml -feed paper
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径，留空使用默认配置")
	feed := flag.String("feed", "", "行情来源 paper|binance，覆盖配置文件")
	dryRun := flag.Bool("dryRun", false, "仅日志输出，不进入撮合")
	flag.Parse()

	c, err := container.New(container.Options{
		ConfigPath: *cfgPath,
		Feed:       *feed,
		DryRun:     *dryRun,
	})
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := c.Build(); err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	lg := c.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Start(ctx); err != nil {
		lg.Error("start failed", zap.Error(err))
		_ = c.Stop()
		os.Exit(1)
	}
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		lg.Warn("sd_notify READY failed", zap.Error(err))
	}
	go watchdog(ctx, c, lg.Logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	lg.Info("shutdown signal received", zap.String("signal", sig.String()))

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	if err := c.Stop(); err != nil {
		os.Exit(1)
	}
}

// watchdog 在 systemd 开启 WatchdogSec 时定期上报；组件不健康则停止上报，由 systemd 重启。
func watchdog(ctx context.Context, c *container.Container, lg *zap.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.HealthCheck(); err != nil {
				lg.Warn("health check failed, skip watchdog", zap.Error(err))
				continue
			}
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
