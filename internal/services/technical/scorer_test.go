package technical

import (
	"math"
	"testing"

	"SignalForge/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestScoreMissingIndicatorsIsZero(t *testing.T) {
	s := NewScorer()
	if got := s.Score(&models.TechnicalReading{Symbol: "AAPL", Price: 100}); got != 0 {
		t.Fatalf("expected 0 for empty reading, got %v", got)
	}
	if got := s.Score(nil); got != 0 {
		t.Fatalf("expected 0 for nil reading, got %v", got)
	}
}

func TestScoreBullishSetup(t *testing.T) {
	r := &models.TechnicalReading{
		Symbol: "NVDA",
		Price:  120,
		RSI:    f(30),
		MACD:   &models.MACDState{MACD: 1, Signal: 0.5, Histogram: 0.5, Crossover: models.CrossoverBullish},
		MA: &models.MAState{
			AboveEMA50: true, AboveEMA200: true, HasEMA200: true, GoldenCross: true,
		},
		VolumeRatio: f(2.5),
	}
	b := NewScorer().Breakdown(r)
	if b.RSI != 1 || b.MA != 1 || b.Volume != 1 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	wantMACD := 0.6 + 0.4*math.Tanh(0.5)
	if math.Abs(b.MACD-wantMACD) > 1e-9 {
		t.Fatalf("macd sub-score: got %v want %v", b.MACD, wantMACD)
	}
	want := 0.3 + 0.25*wantMACD + 0.3 + 0.15
	if math.Abs(b.Total-want) > 1e-9 {
		t.Fatalf("total: got %v want %v", b.Total, want)
	}
	if b.Dominant() != "rsi" && b.Dominant() != "moving_averages" {
		t.Fatalf("dominant: %s", b.Dominant())
	}
}

func TestVolumeConfirmsBearishTrend(t *testing.T) {
	r := &models.TechnicalReading{
		Price:       50,
		RSI:         f(80),
		MA:          &models.MAState{HasEMA200: true, DeathCross: true},
		VolumeRatio: f(1.5),
	}
	b := NewScorer().Breakdown(r)
	if b.Volume != -0.5 {
		t.Fatalf("expected volume to follow bearish trend, got %v", b.Volume)
	}
	if b.Total >= 0 || b.Total < -1 {
		t.Fatalf("expected bounded bearish score, got %v", b.Total)
	}
}

func TestSubScoresClamped(t *testing.T) {
	cases := []struct {
		rsi  float64
		want float64
	}{
		{0, 1},
		{100, -1},
		{50, 0},
		{60, -0.5},
	}
	for _, c := range cases {
		if got := rsiScore(c.rsi); got != c.want {
			t.Fatalf("rsiScore(%v) = %v want %v", c.rsi, got, c.want)
		}
	}
	if got := volumeScore(10, 0.2); got != 1 {
		t.Fatalf("volume clamp: %v", got)
	}
	if got := volumeScore(2, 0); got != 0 {
		t.Fatalf("volume without trend: %v", got)
	}
}
