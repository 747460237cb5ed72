package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 基于 fsnotify 监听配置文件，变化后重新加载并回调。
// 监听所在目录而不是文件本身，编辑器先写临时文件再 rename 时也能收到事件。
type Watcher struct {
	Path     string
	Cooldown time.Duration // 冷却时间，合并短时间内的多次写入
	Logger   *zap.Logger

	// load 便于测试替换
	load func(string) (AppConfig, error)
}

// Start 阻塞监听直到 ctx 取消（返回 nil）；加载失败只记录日志，保留旧配置。
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if w.Logger == nil {
		w.Logger = zap.NewNop()
	}
	if w.load == nil {
		w.load = LoadWithEnvOverrides
	}
	if w.Cooldown <= 0 {
		w.Cooldown = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Cooldown)
			} else {
				timer.Reset(w.Cooldown)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			cfg, err := w.load(w.Path)
			if err != nil {
				w.Logger.Warn("config reload failed, keeping previous config",
					zap.String("path", w.Path), zap.Error(err))
				continue
			}
			w.Logger.Info("config reloaded", zap.String("path", w.Path))
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
