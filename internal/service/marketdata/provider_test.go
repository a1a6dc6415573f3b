package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
)

type fakeBars struct {
	candles map[string][]models.Candle
	quotes  map[string]*models.Quote
	err     error
}

func (f *fakeBars) Quote(_ context.Context, symbol string) (*models.Quote, error) {
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	if f.err != nil {
		return nil, errors.New("no quote")
	}
	return nil, nil
}

func (f *fakeBars) DailyCandles(_ context.Context, symbol string, _ int) ([]models.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candles[symbol], nil
}

type fakeLive map[string]float64

func (f fakeLive) LastPrices(context.Context, []string, time.Duration) (map[string]float64, error) {
	return f, nil
}

func trend(symbol string, n int, start, step float64) []models.Candle {
	out := make([]models.Candle, n)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := start + step*float64(i)
		out[i] = models.Candle{Bucket: day.AddDate(0, 0, i), Symbol: symbol, Close: c, Open: c, High: c, Low: c, Volume: 1000}
	}
	out[n-1].Volume = 2000
	return out
}

func TestBuildReadingUptrend(t *testing.T) {
	r := BuildReading("AAPL", trend("AAPL", 220, 100, 0.5))
	if r == nil || r.RSI == nil || r.MACD == nil || r.MA == nil || r.VolumeRatio == nil {
		t.Fatalf("expected full reading, got %+v", r)
	}
	if !r.MA.HasEMA200 || !r.MA.AboveEMA200 || !r.MA.GoldenCross || r.MA.DeathCross {
		t.Fatalf("unexpected MA state %+v", r.MA)
	}
	if r.MACD.MACD <= 0 || *r.RSI != 100 {
		t.Fatalf("uptrend should read bullish: macd=%+v rsi=%v", r.MACD, *r.RSI)
	}
	if !r.HighVolume || *r.VolumeRatio != 2 {
		t.Fatalf("volume ratio: %v high=%v", *r.VolumeRatio, r.HighVolume)
	}
}

func TestBuildReadingShortHistory(t *testing.T) {
	r := BuildReading("X", trend("X", 60, 10, 0.1))
	if r == nil || r.MA == nil || r.MA.HasEMA200 {
		t.Fatalf("EMA200 must be absent with short history: %+v", r)
	}
	if BuildReading("X", nil) != nil {
		t.Fatalf("no bars must mean no reading")
	}
}

func TestReadingFallsBackToQuote(t *testing.T) {
	p := New(Config{}, &fakeBars{
		err:    errors.New("rate limited"),
		quotes: map[string]*models.Quote{"MSFT": {Symbol: "MSFT", Price: 410}},
	}, nil)
	r, err := p.GetTechnicalReading(context.Background(), "msft")
	if err != nil || r == nil || r.Price != 410 || r.RSI != nil {
		t.Fatalf("expected price-only reading, got %+v err=%v", r, err)
	}
	if _, err := p.GetTechnicalReading(context.Background(), "NONE"); err == nil {
		t.Fatalf("expected error when bars and quote both fail")
	}
}

func TestBatchOverlaysLivePrice(t *testing.T) {
	bars := &fakeBars{candles: map[string][]models.Candle{
		"AAPL": trend("AAPL", 80, 100, 1),
		"TSLA": trend("TSLA", 80, 200, -1),
	}}
	p := New(Config{LiveWindow: time.Millisecond, MaxConcurrency: 1}, bars, fakeLive{"AAPL": 1})
	readings, errs := p.GetTechnicalReadings(context.Background(), []string{"AAPL", "TSLA", "NONE"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if len(readings) != 2 {
		t.Fatalf("symbol without bars must be absent: %v", readings)
	}
	if readings["AAPL"].Price != 1 || readings["AAPL"].MA.AboveEMA50 {
		t.Fatalf("live price not applied: %+v", readings["AAPL"].MA)
	}
}

func TestMarketSnapshotRegime(t *testing.T) {
	p := New(Config{Benchmark: "SPY"}, &fakeBars{candles: map[string][]models.Candle{
		"SPY": trend("SPY", 60, 500, 0),
	}}, nil)
	snap, err := p.GetMarketSnapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Regime != models.RegimeLowVol || snap.Price != 500 {
		t.Fatalf("flat benchmark should be LOW_VOL: %+v", snap)
	}
}
