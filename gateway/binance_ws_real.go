package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// BinanceSpotWSEndpoint 现货 combined stream 地址。
const BinanceSpotWSEndpoint = "wss://stream.binance.com:9443"

// BinanceWSReal 订阅 bookTicker/trade 行情流并连接真实 WS，断线后按限速重连。
type BinanceWSReal struct {
	BaseEndpoint string
	Dialer       *websocket.Dialer
	ReadTimeout  time.Duration
	Limiter      RateLimiter
	Logger       *zap.Logger
	OnReconnect  func() // 每次断线后回调，可用于计数

	streams []string
}

func NewBinanceWSReal(logger *zap.Logger) *BinanceWSReal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BinanceWSReal{
		BaseEndpoint: BinanceSpotWSEndpoint,
		Dialer:       websocket.DefaultDialer,
		ReadTimeout:  30 * time.Second,
		Limiter:      NewTokenBucketLimiter(0.2, 3),
		Logger:       logger,
	}
}

// SubscribeTicker 订阅交易对的最优挂单与逐笔成交。
func (b *BinanceWSReal) SubscribeTicker(pair string) error {
	if pair == "" {
		return fmt.Errorf("symbol required")
	}
	sym := strings.ToLower(ExchangeSymbol(pair))
	b.streams = append(b.streams, sym+"@bookTicker", sym+"@trade")
	return nil
}

// StreamURL 构建 combined stream 地址。
func (b *BinanceWSReal) StreamURL() (string, error) {
	if len(b.streams) == 0 {
		return "", fmt.Errorf("no streams subscribed")
	}
	base, err := url.Parse(b.BaseEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	u := url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/stream"}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("streams", strings.Join(b.streams, "/"))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run 持续读取消息直到 ctx 取消；连接断开后自动重连。
func (b *BinanceWSReal) Run(ctx context.Context, handler WSHandler) error {
	if handler == nil {
		return fmt.Errorf("handler required")
	}
	addr, err := b.StreamURL()
	if err != nil {
		return err
	}
	for {
		if b.Limiter != nil {
			if err := b.Limiter.Wait(ctx); err != nil {
				return nil
			}
		}
		err := b.runOnce(ctx, addr, handler)
		if ctx.Err() != nil {
			return nil
		}
		b.Logger.Warn("binance ws disconnected, reconnecting", zap.String("url", addr), zap.Error(err))
		if b.OnReconnect != nil {
			b.OnReconnect()
		}
	}
}

func (b *BinanceWSReal) runOnce(ctx context.Context, addr string, handler WSHandler) error {
	conn, _, err := b.Dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	b.Logger.Info("binance ws connected", zap.String("url", addr))

	// ctx 取消时关闭连接以打断阻塞读
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	timeout := b.ReadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("closed by server")
			}
			return err
		}
		handler.OnRawMessage(message)
	}
}
