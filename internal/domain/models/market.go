package models

import "time"

// Candle represents one daily OHLCV bar.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is the latest price snapshot for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	Volume    float64   `json:"volume"`
	AsOf      time.Time `json:"as_of"`
}

type Crossover string

const (
	CrossoverBullish Crossover = "bullish"
	CrossoverBearish Crossover = "bearish"
	CrossoverNeutral Crossover = "neutral"
)

type MACDState struct {
	MACD      float64   `json:"macd"`
	Signal    float64   `json:"signal"`
	Histogram float64   `json:"histogram"`
	Crossover Crossover `json:"crossover"`
}

// MAState summarizes price position against the exponential moving averages.
// EMA200 fields are only meaningful when HasEMA200 is set.
type MAState struct {
	EMA20       float64 `json:"ema20"`
	EMA50       float64 `json:"ema50"`
	EMA200      float64 `json:"ema200,omitempty"`
	AboveEMA20  bool    `json:"above_ema20"`
	AboveEMA50  bool    `json:"above_ema50"`
	AboveEMA200 bool    `json:"above_ema200"`
	HasEMA200   bool    `json:"has_ema200"`
	GoldenCross bool    `json:"golden_cross"`
	DeathCross  bool    `json:"death_cross"`
}

// TechnicalReading is the per-symbol indicator snapshot. Nil indicator
// pointers mean the indicator could not be computed.
type TechnicalReading struct {
	Symbol      string     `json:"symbol"`
	Price       float64    `json:"price"`
	ChangePct   float64    `json:"change_pct"`
	RSI         *float64   `json:"rsi,omitempty"`
	MACD        *MACDState `json:"macd,omitempty"`
	MA          *MAState   `json:"ma,omitempty"`
	VolumeRatio *float64   `json:"volume_ratio,omitempty"`
	HighVolume  bool       `json:"high_volume"`
	AsOf        time.Time  `json:"as_of"`
}

type VolatilityRegime string

const (
	RegimeLowVol   VolatilityRegime = "LOW_VOL"
	RegimeNormal   VolatilityRegime = "NORMAL"
	RegimeElevated VolatilityRegime = "ELEVATED"
	RegimeHighVol  VolatilityRegime = "HIGH_VOL"
)

// ClassifyVolatility buckets a VIX-style level (annualized vol in percent).
func ClassifyVolatility(level float64) VolatilityRegime {
	switch {
	case level < 15:
		return RegimeLowVol
	case level < 20:
		return RegimeNormal
	case level < 30:
		return RegimeElevated
	default:
		return RegimeHighVol
	}
}

// MarketSnapshot is the broad market context attached to each run.
type MarketSnapshot struct {
	Benchmark       string           `json:"benchmark"`
	Price           float64          `json:"price"`
	ChangePct       float64          `json:"change_pct"`
	VolatilityLevel float64          `json:"volatility_level"`
	Regime          VolatilityRegime `json:"regime"`
	AsOf            time.Time        `json:"as_of"`
}
