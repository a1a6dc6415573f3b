package marketdata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	"SignalForge/internal/services/features"
	"SignalForge/pkg/logger"
)

// Indicator parameters.
const (
	rsiPeriod         = 14
	macdFast          = 12
	macdSlow          = 26
	macdSignal        = 9
	volumeWindow      = 20
	highVolumeRatio   = 1.5
	ema200Bars        = 200
	defaultConcurrent = 4
)

// BarSource supplies quotes and daily bars.
type BarSource interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	DailyCandles(ctx context.Context, symbol string, bars int) ([]models.Candle, error)
}

// LivePrices returns last-trade prices observed during a short window.
type LivePrices interface {
	LastPrices(ctx context.Context, symbols []string, window time.Duration) (map[string]float64, error)
}

type Config struct {
	Benchmark      string
	HistoryBars    int
	MaxConcurrency int
	Timeout        time.Duration
	LiveWindow     time.Duration
}

// Provider builds TechnicalReadings from daily bars and, when configured,
// overlays a fresher live price.
type Provider struct {
	cfg    Config
	bars   BarSource
	live   LivePrices
	logger *logger.Logger
}

func New(cfg Config, bars BarSource, live LivePrices) *Provider {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultConcurrent
	}
	if cfg.HistoryBars <= 0 {
		cfg.HistoryBars = 220
	}
	if cfg.Benchmark == "" {
		cfg.Benchmark = "SPY"
	}
	return &Provider{cfg: cfg, bars: bars, live: live, logger: logger.Nop()}
}

func (p *Provider) SetLogger(l *logger.Logger) {
	if l != nil {
		p.logger = l
	}
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.Timeout)
}

// GetTechnicalReading returns (nil, nil) when no price is available.
func (p *Provider) GetTechnicalReading(ctx context.Context, symbol string) (*models.TechnicalReading, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	cctx, cancel := p.withTimeout(ctx)
	defer cancel()

	candles, barsErr := p.bars.DailyCandles(cctx, symbol, p.cfg.HistoryBars)
	if barsErr != nil {
		p.logger.Warn("daily bars unavailable, falling back to quote",
			logger.String("symbol", symbol), logger.Error(barsErr))
	}
	r := BuildReading(symbol, candles)
	if r == nil {
		q, err := p.bars.Quote(cctx, symbol)
		if err != nil {
			if barsErr != nil {
				return nil, errors.Join(barsErr, err)
			}
			return nil, err
		}
		if q == nil || q.Price <= 0 {
			return nil, nil
		}
		r = &models.TechnicalReading{Symbol: symbol, Price: q.Price, ChangePct: q.ChangePct, AsOf: q.AsOf}
	}
	return r, nil
}

// GetTechnicalReadings fetches readings with bounded parallelism.
func (p *Provider) GetTechnicalReadings(ctx context.Context, symbols []string) (map[string]*models.TechnicalReading, map[string]error) {
	readings := make(map[string]*models.TechnicalReading, len(symbols))
	errs := make(map[string]error)

	var live map[string]float64
	liveDone := make(chan struct{})
	go func() {
		defer close(liveDone)
		live = p.livePrices(ctx, symbols)
	}()

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.MaxConcurrency)
	for _, s := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				errs[symbol] = ctx.Err()
				mu.Unlock()
				return
			}
			defer func() { <-sem }()
			r, err := p.GetTechnicalReading(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs[symbol] = err
			case r != nil:
				readings[r.Symbol] = r
			}
		}(s)
	}
	wg.Wait()
	<-liveDone

	for sym, price := range live {
		if r, ok := readings[sym]; ok && price > 0 {
			r.Price = price
			if r.MA != nil {
				r.MA.AboveEMA20 = price > r.MA.EMA20
				r.MA.AboveEMA50 = price > r.MA.EMA50
				if r.MA.HasEMA200 {
					r.MA.AboveEMA200 = price > r.MA.EMA200
				}
			}
		}
	}
	return readings, errs
}

func (p *Provider) livePrices(ctx context.Context, symbols []string) map[string]float64 {
	if p.live == nil || p.cfg.LiveWindow <= 0 {
		return nil
	}
	prices, err := p.live.LastPrices(ctx, symbols, p.cfg.LiveWindow)
	if err != nil {
		p.logger.Warn("live prices unavailable", logger.Error(err))
		return nil
	}
	return prices
}

// GetMarketSnapshot reports the benchmark level and a volatility regime
// derived from its realized volatility.
func (p *Provider) GetMarketSnapshot(ctx context.Context) (*models.MarketSnapshot, error) {
	cctx, cancel := p.withTimeout(ctx)
	defer cancel()
	candles, err := p.bars.DailyCandles(cctx, p.cfg.Benchmark, p.cfg.HistoryBars)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, drepo.NewProviderError("marketdata", "snapshot", errors.New("no benchmark bars"))
	}
	last := candles[len(candles)-1]
	snap := &models.MarketSnapshot{
		Benchmark: p.cfg.Benchmark,
		Price:     last.Close,
		AsOf:      last.Bucket,
	}
	if len(candles) > 1 {
		snap.ChangePct = pctChange(candles[len(candles)-2].Close, last.Close)
	}
	if lvl, ok := features.VolatilityLevel(candles); ok {
		snap.VolatilityLevel = lvl
		snap.Regime = models.ClassifyVolatility(lvl)
	}
	return snap, nil
}

// BuildReading computes indicators from daily bars, oldest first. It returns
// nil when there is no usable close.
func BuildReading(symbol string, candles []models.Candle) *models.TechnicalReading {
	if len(candles) == 0 || candles[len(candles)-1].Close <= 0 {
		return nil
	}
	closes := features.Closes(candles)
	last := candles[len(candles)-1]
	r := &models.TechnicalReading{
		Symbol: symbol,
		Price:  last.Close,
		AsOf:   last.Bucket,
	}
	if len(candles) > 1 {
		r.ChangePct = pctChange(closes[len(closes)-2], last.Close)
	}
	if v, ok := features.RSI(closes, rsiPeriod); ok {
		r.RSI = &v
	}
	if m, ok := features.MACD(closes, macdFast, macdSlow, macdSignal); ok {
		state := &models.MACDState{MACD: m.MACD, Signal: m.Signal, Histogram: m.Histogram, Crossover: models.CrossoverNeutral}
		switch {
		case m.Histogram > 0:
			state.Crossover = models.CrossoverBullish
		case m.Histogram < 0:
			state.Crossover = models.CrossoverBearish
		}
		r.MACD = state
	}
	ema20, ok20 := features.LastEMA(closes, 20)
	ema50, ok50 := features.LastEMA(closes, 50)
	if ok20 && ok50 {
		ma := &models.MAState{
			EMA20:      ema20,
			EMA50:      ema50,
			AboveEMA20: r.Price > ema20,
			AboveEMA50: r.Price > ema50,
		}
		if len(closes) >= ema200Bars {
			if ema200, ok := features.LastEMA(closes, 200); ok {
				ma.EMA200 = ema200
				ma.HasEMA200 = true
				ma.AboveEMA200 = r.Price > ema200
				ma.GoldenCross = ema50 > ema200
				ma.DeathCross = ema50 < ema200
			}
		}
		r.MA = ma
	}
	if v, ok := features.VolumeRatio(features.Volumes(candles), volumeWindow); ok {
		r.VolumeRatio = &v
		r.HighVolume = v > highVolumeRatio
	}
	return r
}

func pctChange(prev, cur float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
