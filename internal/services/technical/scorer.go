package technical

import (
	"math"

	"SignalForge/internal/domain/models"
)

// Slot weights. Missing indicators score 0 in their slot; weights are not
// redistributed.
const (
	WeightRSI    = 0.30
	WeightMACD   = 0.25
	WeightMA     = 0.30
	WeightVolume = 0.15
)

// Breakdown holds the clamped sub-scores behind a technical score.
type Breakdown struct {
	RSI    float64
	MACD   float64
	MA     float64
	Volume float64
	Total  float64
}

// Dominant returns the name of the slot with the largest weighted contribution.
func (b Breakdown) Dominant() string {
	name, best := "", 0.0
	for _, s := range []struct {
		name string
		v    float64
	}{
		{"rsi", b.RSI * WeightRSI},
		{"macd", b.MACD * WeightMACD},
		{"moving_averages", b.MA * WeightMA},
		{"volume", b.Volume * WeightVolume},
	} {
		if math.Abs(s.v) > best {
			name, best = s.name, math.Abs(s.v)
		}
	}
	return name
}

type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

// Score converts a reading into a directional score in [-1, 1].
func (s *Scorer) Score(r *models.TechnicalReading) float64 {
	return s.Breakdown(r).Total
}

// DominantFactor names the slot contributing most to the score.
func (s *Scorer) DominantFactor(r *models.TechnicalReading) string {
	return s.Breakdown(r).Dominant()
}

func (s *Scorer) Breakdown(r *models.TechnicalReading) Breakdown {
	var b Breakdown
	if r == nil {
		return b
	}
	if r.RSI != nil {
		b.RSI = rsiScore(*r.RSI)
	}
	if r.MACD != nil {
		b.MACD = macdScore(r.MACD)
	}
	if r.MA != nil {
		b.MA = maScore(r.MA)
	}
	trend := b.RSI*WeightRSI + b.MACD*WeightMACD + b.MA*WeightMA
	if r.VolumeRatio != nil {
		b.Volume = volumeScore(*r.VolumeRatio, trend)
	}
	b.Total = clamp(trend+b.Volume*WeightVolume, -1, 1)
	return b
}

// rsiScore treats oversold as bullish: RSI 30 maps to +1, RSI 70 to -1.
func rsiScore(rsi float64) float64 {
	return clamp((50-rsi)/20, -1, 1)
}

func macdScore(m *models.MACDState) float64 {
	v := 0.0
	switch m.Crossover {
	case models.CrossoverBullish:
		v += 0.6
	case models.CrossoverBearish:
		v -= 0.6
	}
	scale := math.Max(math.Abs(m.MACD), math.Abs(m.Signal))
	if scale > 0 {
		v += 0.4 * math.Tanh(m.Histogram/scale)
	}
	return clamp(v, -1, 1)
}

func maScore(ma *models.MAState) float64 {
	v := 0.0
	if ma.HasEMA200 {
		if ma.AboveEMA200 {
			v += 0.5
		} else {
			v -= 0.5
		}
	}
	if ma.AboveEMA50 {
		v += 0.25
	} else {
		v -= 0.25
	}
	if ma.GoldenCross {
		v += 0.25
	}
	if ma.DeathCross {
		v -= 0.25
	}
	return clamp(v, -1, 1)
}

// volumeScore confirms the trend of the other slots; it has no direction of
// its own.
func volumeScore(ratio, trend float64) float64 {
	if trend == 0 {
		return 0
	}
	v := clamp(ratio-1, -1, 1)
	if trend < 0 {
		v = -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
