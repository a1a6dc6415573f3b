package features

// RSI computes the Wilder-smoothed relative strength index over period.
func RSI(closes []float64, period int) (float64, bool) {
    if period <= 0 || len(closes) < period+1 {
        return 0, false
    }
    gain, loss := 0.0, 0.0
    for i := 1; i <= period; i++ {
        d := closes[i] - closes[i-1]
        if d > 0 {
            gain += d
        } else {
            loss -= d
        }
    }
    avgGain := gain / float64(period)
    avgLoss := loss / float64(period)
    p := float64(period)
    for i := period + 1; i < len(closes); i++ {
        d := closes[i] - closes[i-1]
        up, down := 0.0, 0.0
        if d > 0 {
            up = d
        } else {
            down = -d
        }
        avgGain = (avgGain*(p-1) + up) / p
        avgLoss = (avgLoss*(p-1) + down) / p
    }
    if avgLoss == 0 {
        if avgGain == 0 {
            return 50, true
        }
        return 100, true
    }
    rs := avgGain / avgLoss
    return 100 - 100/(1+rs), true
}

// EMA returns the exponential moving average series seeded with the first
// period's simple mean. The result is aligned to values[period-1:].
func EMA(values []float64, period int) []float64 {
    if period <= 0 || len(values) < period {
        return nil
    }
    k := 2.0 / float64(period+1)
    seed := 0.0
    for _, v := range values[:period] {
        seed += v
    }
    out := make([]float64, 0, len(values)-period+1)
    prev := seed / float64(period)
    out = append(out, prev)
    for _, v := range values[period:] {
        prev = v*k + prev*(1-k)
        out = append(out, prev)
    }
    return out
}

// LastEMA returns the latest EMA value.
func LastEMA(values []float64, period int) (float64, bool) {
    e := EMA(values, period)
    if len(e) == 0 {
        return 0, false
    }
    return e[len(e)-1], true
}

// MACDResult is the latest MACD line, its signal line and their difference.
type MACDResult struct {
    MACD      float64
    Signal    float64
    Histogram float64
}

// MACD computes the fast/slow EMA spread and its signal EMA.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, bool) {
    if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal-1 {
        return MACDResult{}, false
    }
    fastEMA := EMA(closes, fast)
    slowEMA := EMA(closes, slow)
    // align fast to slow: slow starts at index slow-1, fast at fast-1
    offset := slow - fast
    line := make([]float64, len(slowEMA))
    for i := range slowEMA {
        line[i] = fastEMA[i+offset] - slowEMA[i]
    }
    sig := EMA(line, signal)
    if len(sig) == 0 {
        return MACDResult{}, false
    }
    m := line[len(line)-1]
    s := sig[len(sig)-1]
    return MACDResult{MACD: m, Signal: s, Histogram: m - s}, true
}

// VolumeRatio is the latest volume over the mean of the preceding window bars.
func VolumeRatio(volumes []float64, window int) (float64, bool) {
    if window <= 0 || len(volumes) < window+1 {
        return 0, false
    }
    last := volumes[len(volumes)-1]
    sum := 0.0
    for _, v := range volumes[len(volumes)-1-window : len(volumes)-1] {
        sum += v
    }
    avg := sum / float64(window)
    if avg <= 0 {
        return 0, false
    }
    return last / avg, true
}
