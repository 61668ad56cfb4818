package ingestion

import (
	"testing"
	"time"
)

func newTestAdapter() *BinanceAdapter {
	return NewBinanceAdapter("https://api.binance.com", "wss://stream.binance.com:9443", 500,
		time.Second, 60*time.Second, 10, 15*time.Second)
}

func TestBuildStreamURLCombinesSymbolsAndTimeframes(t *testing.T) {
	a := newTestAdapter()
	got := a.buildStreamURL([]string{"BTCUSDT", "ETHUSDT"}, []string{"1h", "4h"})
	want := "wss://stream.binance.com:9443/stream?streams=btcusdt@kline_1h/btcusdt@kline_4h/ethusdt@kline_1h/ethusdt@kline_4h"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSplitStreamName(t *testing.T) {
	symbol, tf := splitStreamName("btcusdt@kline_1h")
	if symbol != "BTCUSDT" || tf != "1h" {
		t.Fatalf("expected BTCUSDT/1h, got %s/%s", symbol, tf)
	}
}

func TestSplitStreamNameRejectsMalformed(t *testing.T) {
	symbol, tf := splitStreamName("not-a-kline-stream")
	if symbol != "" || tf != "" {
		t.Fatalf("expected empty result for malformed stream name, got %s/%s", symbol, tf)
	}
}

func TestKlineToCandleParsesStrings(t *testing.T) {
	k := rawKline{OpenTime: 1000, CloseTime: 2000, Open: "100.5", High: "101.2", Low: "99.8", Close: "100.9", Volume: "1234.5", IsClosed: true}
	c := klineToCandle(k)
	if c.Open != 100.5 || c.High != 101.2 || c.Low != 99.8 || c.Close != 100.9 || c.Volume != 1234.5 {
		t.Fatalf("unexpected candle conversion: %+v", c)
	}
	if !c.IsClosed || c.OpenTime != 1000 || c.CloseTime != 2000 {
		t.Fatalf("unexpected candle metadata: %+v", c)
	}
}

func TestBackoffDelayGrowsThenCaps(t *testing.T) {
	a := newTestAdapter()
	first := a.backoffDelay(1)
	later := a.backoffDelay(8)
	if first <= 0 {
		t.Fatalf("expected positive initial backoff, got %v", first)
	}
	if later > a.reconnectMaxDelay {
		t.Fatalf("expected backoff capped at %v, got %v", a.reconnectMaxDelay, later)
	}
	if later < first {
		t.Fatalf("expected later backoff to be at least as large as the first: first=%v later=%v", first, later)
	}
}

func TestIntervalDurationKnownAndFallback(t *testing.T) {
	if intervalDuration("1h") != time.Hour {
		t.Fatalf("expected 1h to map to time.Hour")
	}
	if intervalDuration("bogus") != time.Minute {
		t.Fatalf("expected unknown timeframe to fall back to time.Minute")
	}
}
