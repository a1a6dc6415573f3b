package features

import (
    "math"

    "SignalForge/internal/domain/models"
)

// TradingDaysPerYear annualizes daily-bar statistics.
const TradingDaysPerYear = 252

// Closes extracts close prices in bar order.
func Closes(candles []models.Candle) []float64 {
    out := make([]float64, len(candles))
    for i, c := range candles {
        out[i] = c.Close
    }
    return out
}

// Volumes extracts volumes in bar order.
func Volumes(candles []models.Candle) []float64 {
    out := make([]float64, len(candles))
    for i, c := range candles {
        out[i] = c.Volume
    }
    return out
}

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(candles)-1, or nil if insufficient data.
func ComputeLogReturns(candles []models.Candle) []float64 {
    if len(candles) < 2 {
        return nil
    }
    out := make([]float64, 0, len(candles)-1)
    for i := 1; i < len(candles); i++ {
        prev := candles[i-1].Close
        cur := candles[i].Close
        if prev <= 0 || cur <= 0 {
            out = append(out, 0)
            continue
        }
        out = append(out, math.Log(cur/prev))
    }
    return out
}

// RealizedVolatility computes annualized realized volatility over a rolling window
// using the provided number of bars per year. Returns the latest window sigma.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
    if window <= 1 || len(logReturns) < window {
        return 0
    }
    sum := 0.0
    sum2 := 0.0
    for i := len(logReturns) - window; i < len(logReturns); i++ {
        r := logReturns[i]
        sum += r
        sum2 += r * r
    }
    n := float64(window)
    mean := sum / n
    variance := (sum2 - n*mean*mean) / (n - 1)
    if variance < 0 {
        variance = 0
    }
    // annualize
    return math.Sqrt(variance * barsPerYear)
}

// VolatilityLevel converts daily bars into a VIX-style level: annualized
// 20-day realized volatility in percent.
func VolatilityLevel(candles []models.Candle) (float64, bool) {
    rets := ComputeLogReturns(candles)
    if len(rets) < 20 {
        return 0, false
    }
    return RealizedVolatility(rets, 20, TradingDaysPerYear) * 100, true
}
