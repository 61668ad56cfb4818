package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"signalengine/internal/candlestore"
	"signalengine/internal/circuit"
	"signalengine/internal/logging"
)

// BinanceAdapter implements Adapter against Binance's public REST and
// websocket kline streams. It never places orders or touches account
// endpoints; it only reads market data.
type BinanceAdapter struct {
	httpClient *http.Client
	baseURL    string
	wsURL      string

	backfillLimit        int
	reconnectMinDelay    time.Duration
	reconnectMaxDelay    time.Duration
	reconnectMaxAttempts int
	pingInterval         time.Duration

	breaker *circuit.Breaker
	log     *logging.Logger

	// OnReconnectAttempt, if set, is called once per dial attempt
	// (including the first) so callers can track reconnect counts.
	OnReconnectAttempt func()
}

func NewBinanceAdapter(baseURL, wsURL string, backfillLimit int, minDelay, maxDelay time.Duration, maxAttempts int, pingInterval time.Duration) *BinanceAdapter {
	return &BinanceAdapter{
		httpClient:           &http.Client{Timeout: 10 * time.Second},
		baseURL:              baseURL,
		wsURL:                wsURL,
		backfillLimit:        backfillLimit,
		reconnectMinDelay:    minDelay,
		reconnectMaxDelay:    maxDelay,
		reconnectMaxAttempts: maxAttempts,
		pingInterval:         pingInterval,
		breaker:              circuit.New(circuit.Config{MaxConsecutiveFailures: maxAttempts, CooldownMinutes: 5}),
		log:                  logging.WithComponent("ingestion"),
	}
}

// Breaker exposes the adapter's reconnect circuit breaker so the status
// API can report it without this package depending on apiserver.
func (a *BinanceAdapter) Breaker() *circuit.Breaker { return a.breaker }

type rawKline struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	IsClosed  bool   `json:"x"`
}

func (a *BinanceAdapter) Backfill(ctx context.Context, symbol, tf string, limit int, startTime, endTime int64) ([]candlestore.Candle, error) {
	if limit <= 0 {
		limit = a.backfillLimit
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", tf)
	params.Set("limit", strconv.Itoa(limit))
	if startTime > 0 {
		params.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	if endTime > 0 {
		params.Set("endTime", strconv.FormatInt(endTime, 10))
	}

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", a.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackfillUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackfillUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrBackfillUnavailable, resp.StatusCode, string(body))
	}

	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackfillUnavailable, err)
	}

	candles := make([]candlestore.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 7 {
			continue
		}
		open, _ := strconv.ParseFloat(row[1].(string), 64)
		high, _ := strconv.ParseFloat(row[2].(string), 64)
		low, _ := strconv.ParseFloat(row[3].(string), 64)
		closeP, _ := strconv.ParseFloat(row[4].(string), 64)
		vol, _ := strconv.ParseFloat(row[5].(string), 64)
		candles = append(candles, candlestore.Candle{
			OpenTime:  int64(row[0].(float64)),
			CloseTime: int64(row[6].(float64)),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeP,
			Volume:    vol,
			IsClosed:  true,
		})
	}
	return candles, nil
}

type combinedStreamEnvelope struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType string   `json:"e"`
		Symbol    string   `json:"s"`
		Kline     rawKline `json:"k"`
	} `json:"data"`
}

// Run dials the combined kline stream for every (symbol, timeframe) pair,
// reconnecting with exponential backoff on failure. After each reconnect it
// backfills the gap for every pair before resuming delivery.
func (a *BinanceAdapter) Run(ctx context.Context, symbols, timeframes []string, onClosed OnClosed, onForming OnForming) error {
	streamURL := a.buildStreamURL(symbols, timeframes)

	attempts := 0
	firstConnect := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if allowed, reason := a.breaker.Allow(); !allowed {
			a.log.WithField("reason", reason).Warn("reconnect blocked by circuit breaker")
			if !sleepCtx(ctx, a.reconnectMaxDelay) {
				return ctx.Err()
			}
			continue
		}

		if !firstConnect {
			if err := a.backfillGap(ctx, symbols, timeframes, onClosed); err != nil {
				a.log.WithError(err).Warn("gap backfill after reconnect failed")
			}
		}

		if a.OnReconnectAttempt != nil {
			a.OnReconnectAttempt()
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
		if err != nil {
			attempts++
			a.breaker.RecordFailure()
			if attempts > a.reconnectMaxAttempts {
				return fmt.Errorf("ingestion: exceeded %d reconnect attempts: %w", a.reconnectMaxAttempts, err)
			}
			delay := a.backoffDelay(attempts)
			a.log.WithFields(map[string]interface{}{"attempt": attempts, "delay": delay.String()}).Warn("stream dial failed, backing off")
			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		attempts = 0
		firstConnect = false
		a.breaker.RecordSuccess()
		a.log.Info("stream connected")

		err = a.readUntilDisconnect(ctx, conn, onClosed, onForming)
		conn.Close()
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		a.log.WithError(err).Warn("stream disconnected, reconnecting")
	}
}

func (a *BinanceAdapter) backoffDelay(attempt int) time.Duration {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = a.reconnectMinDelay
	eb.MaxInterval = a.reconnectMaxDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0.2
	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = eb.NextBackOff()
	}
	if d > a.reconnectMaxDelay {
		d = a.reconnectMaxDelay
	}
	return d
}

func (a *BinanceAdapter) readUntilDisconnect(ctx context.Context, conn *websocket.Conn, onClosed OnClosed, onForming OnForming) error {
	done := make(chan struct{})
	defer close(done)

	if a.pingInterval > 0 {
		go a.pingLoop(ctx, conn, done)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env combinedStreamEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			a.log.WithError(err).Warn("failed to decode stream message")
			continue
		}
		if env.Data.EventType != "kline" {
			continue
		}

		symbol, tf := splitStreamName(env.Stream)
		if symbol == "" {
			continue
		}
		candle := klineToCandle(env.Data.Kline)

		if candle.IsClosed {
			onClosed(symbol, tf, candle)
		} else if onForming != nil {
			onForming(symbol, tf, candle)
		}
	}
}

func (a *BinanceAdapter) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(a.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				a.log.WithError(err).Debug("liveness ping failed")
				return
			}
		}
	}
}

func (a *BinanceAdapter) backfillGap(ctx context.Context, symbols, timeframes []string, onClosed OnClosed) error {
	var firstErr error
	for _, symbol := range symbols {
		for _, tf := range timeframes {
			candles, err := a.Backfill(ctx, symbol, tf, a.backfillLimit, 0, 0)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			for _, c := range candles {
				onClosed(symbol, tf, c)
			}
		}
	}
	return firstErr
}

func (a *BinanceAdapter) buildStreamURL(symbols, timeframes []string) string {
	parts := make([]string, 0, len(symbols)*len(timeframes))
	for _, symbol := range symbols {
		for _, tf := range timeframes {
			parts = append(parts, strings.ToLower(symbol)+"@kline_"+tf)
		}
	}
	return a.wsURL + "/stream?streams=" + strings.Join(parts, "/")
}

func splitStreamName(stream string) (symbol, tf string) {
	parts := strings.SplitN(stream, "@kline_", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.ToUpper(parts[0]), parts[1]
}

func klineToCandle(k rawKline) candlestore.Candle {
	open, _ := strconv.ParseFloat(k.Open, 64)
	high, _ := strconv.ParseFloat(k.High, 64)
	low, _ := strconv.ParseFloat(k.Low, 64)
	closeP, _ := strconv.ParseFloat(k.Close, 64)
	vol, _ := strconv.ParseFloat(k.Volume, 64)
	return candlestore.Candle{
		OpenTime:  k.OpenTime,
		CloseTime: k.CloseTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		Volume:    vol,
		IsClosed:  k.IsClosed,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
