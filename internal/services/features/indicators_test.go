package features

import (
    "math"
    "testing"
    "time"

    "SignalForge/internal/domain/models"
)

func ramp(n int, start, step float64) []float64 {
    out := make([]float64, n)
    for i := range out {
        out[i] = start + float64(i)*step
    }
    return out
}

func TestRSIExtremes(t *testing.T) {
    up, ok := RSI(ramp(30, 100, 1), 14)
    if !ok || up != 100 {
        t.Fatalf("monotonic rise should give RSI 100, got %v", up)
    }
    down, ok := RSI(ramp(30, 100, -1), 14)
    if !ok || down != 0 {
        t.Fatalf("monotonic fall should give RSI 0, got %v", down)
    }
    flat, ok := RSI(ramp(30, 100, 0), 14)
    if !ok || flat != 50 {
        t.Fatalf("flat series should give RSI 50, got %v", flat)
    }
    if _, ok := RSI(ramp(10, 100, 1), 14); ok {
        t.Fatalf("expected insufficient data")
    }
}

func TestEMAConstantSeries(t *testing.T) {
    e := EMA(ramp(50, 10, 0), 20)
    if len(e) != 31 {
        t.Fatalf("unexpected length %d", len(e))
    }
    for _, v := range e {
        if v != 10 {
            t.Fatalf("ema of constant should be constant, got %v", v)
        }
    }
}

func TestMACDSignOnTrend(t *testing.T) {
    m, ok := MACD(ramp(60, 100, 1), 12, 26, 9)
    if !ok {
        t.Fatalf("expected macd")
    }
    if m.MACD <= 0 {
        t.Fatalf("uptrend should have positive macd, got %+v", m)
    }
    if _, ok := MACD(ramp(20, 100, 1), 12, 26, 9); ok {
        t.Fatalf("expected insufficient data")
    }
}

func TestVolumeRatio(t *testing.T) {
    vols := append(ramp(20, 1000, 0), 2000)
    r, ok := VolumeRatio(vols, 20)
    if !ok || r != 2 {
        t.Fatalf("expected ratio 2, got %v", r)
    }
}

func TestVolatilityLevel(t *testing.T) {
    candles := make([]models.Candle, 30)
    price := 100.0
    for i := range candles {
        if i%2 == 0 {
            price *= 1.01
        } else {
            price /= 1.01
        }
        candles[i] = models.Candle{Bucket: time.Unix(int64(i)*86400, 0), Close: price}
    }
    lvl, ok := VolatilityLevel(candles)
    if !ok {
        t.Fatalf("expected level")
    }
    // alternating +-1% daily moves annualize to roughly 16.2%
    if math.Abs(lvl-16.2) > 0.3 {
        t.Fatalf("unexpected level %v", lvl)
    }
}
