package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	"SignalForge/internal/service/ratelimit"
	"SignalForge/pkg/cache"
	xhttp "SignalForge/pkg/http"
	"SignalForge/pkg/logger"
	"SignalForge/pkg/util"
)

const providerName = "alphavantage"

var (
	ErrRateLimited = errors.New("alphavantage: rate limited")
	ErrNoData      = errors.New("alphavantage: no data")
	ErrNoAPIKey    = errors.New("alphavantage: api key not configured")
)

type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute float64
	CacheTTL          time.Duration
	Timeout           time.Duration
	RetryAttempts     int
}

// Client reads quotes and daily bars from Alpha Vantage. Calls share one
// token bucket and responses are cached for CacheTTL.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	cache   cache.Service
	logger  *logger.Logger
}

func New(cfg Config, limiter *ratelimit.Limiter, c cache.Service) *Client {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		cache:   c,
		logger:  logger.Nop(),
	}
}

func (c *Client) SetLogger(l *logger.Logger) {
	if l != nil {
		c.logger = l
	}
}

type globalQuoteResponse struct {
	Quote map[string]string `json:"Global Quote"`
}

type dailyResponse struct {
	Series map[string]map[string]string `json:"Time Series (Daily)"`
}

// Quote returns the latest GLOBAL_QUOTE for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	key := cache.GenerateKeyWithParams("av:quote", symbol)
	q, err := cache.GetOrLoad(ctx, c.cache, key, c.cfg.CacheTTL, func(ctx context.Context) (models.Quote, error) {
		var resp globalQuoteResponse
		if err := c.query(ctx, "GLOBAL_QUOTE", map[string]string{"symbol": symbol}, &resp); err != nil {
			return models.Quote{}, err
		}
		return parseQuote(symbol, resp.Quote)
	})
	if err != nil {
		return nil, drepo.NewProviderError(providerName, "GLOBAL_QUOTE "+symbol, err)
	}
	return &q, nil
}

// DailyCandles returns up to bars daily candles, oldest first.
func (c *Client) DailyCandles(ctx context.Context, symbol string, bars int) ([]models.Candle, error) {
	outputSize := "compact"
	if bars > 100 {
		outputSize = "full"
	}
	key := cache.GenerateKeyWithParams("av:daily", symbol, outputSize)
	candles, err := cache.GetOrLoad(ctx, c.cache, key, c.cfg.CacheTTL, func(ctx context.Context) ([]models.Candle, error) {
		var resp dailyResponse
		err := c.query(ctx, "TIME_SERIES_DAILY", map[string]string{"symbol": symbol, "outputsize": outputSize}, &resp)
		if err != nil {
			return nil, err
		}
		return parseDaily(symbol, resp.Series)
	})
	if err != nil {
		return nil, drepo.NewProviderError(providerName, "TIME_SERIES_DAILY "+symbol, err)
	}
	if bars > 0 && len(candles) > bars {
		candles = candles[len(candles)-bars:]
	}
	return candles, nil
}

func (c *Client) query(ctx context.Context, function string, params map[string]string, dest interface{}) error {
	if c.cfg.APIKey == "" {
		return ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx, providerName, c.cfg.RequestsPerMinute, c.cfg.RequestsPerMinute/60); err != nil {
		return err
	}
	q := map[string][]string{
		"function": {function},
		"apikey":   {c.cfg.APIKey},
	}
	for k, v := range params {
		q[k] = []string{v}
	}
	var raw []byte
	err := c.http.SendAndParseWithRetry(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.cfg.BaseURL,
		QueryParams: q,
	}, &raw, c.cfg.RetryAttempts)
	if err != nil {
		return err
	}
	if err := checkEnvelope(raw); err != nil {
		c.logger.Warn("alphavantage refused request",
			logger.String("function", function),
			logger.Error(err))
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", function, err)
	}
	return nil
}

// checkEnvelope detects the throttling and error payloads Alpha Vantage
// returns with a 200 status.
func checkEnvelope(raw []byte) error {
	var env struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	switch {
	case env.Note != "":
		return fmt.Errorf("%w: %s", ErrRateLimited, env.Note)
	case env.Information != "":
		return fmt.Errorf("%w: %s", ErrRateLimited, env.Information)
	case env.ErrorMessage != "":
		return errors.New(env.ErrorMessage)
	}
	return nil
}

func parseQuote(symbol string, f map[string]string) (models.Quote, error) {
	if len(f) == 0 {
		return models.Quote{}, ErrNoData
	}
	q := models.Quote{
		Symbol:    strings.ToUpper(symbol),
		Open:      util.ParseFloatDefault(f["02. open"], 0),
		High:      util.ParseFloatDefault(f["03. high"], 0),
		Low:       util.ParseFloatDefault(f["04. low"], 0),
		Price:     util.ParseFloatDefault(f["05. price"], 0),
		Volume:    util.ParseFloatDefault(f["06. volume"], 0),
		PrevClose: util.ParseFloatDefault(f["08. previous close"], 0),
		Change:    util.ParseFloatDefault(f["09. change"], 0),
		ChangePct: util.ParseFloatDefault(f["10. change percent"], 0),
		AsOf:      time.Now().UTC(),
	}
	if day, ok := util.ParseTimeLayouts(f["07. latest trading day"], "2006-01-02"); ok {
		q.AsOf = day
	}
	if q.Price <= 0 {
		return models.Quote{}, ErrNoData
	}
	return q, nil
}

func parseDaily(symbol string, series map[string]map[string]string) ([]models.Candle, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}
	out := make([]models.Candle, 0, len(series))
	for day, f := range series {
		t, ok := util.ParseTimeLayouts(day, "2006-01-02")
		if !ok {
			continue
		}
		out = append(out, models.Candle{
			Bucket: t,
			Symbol: strings.ToUpper(symbol),
			Open:   util.ParseFloatDefault(f["1. open"], 0),
			High:   util.ParseFloatDefault(f["2. high"], 0),
			Low:    util.ParseFloatDefault(f["3. low"], 0),
			Close:  util.ParseFloatDefault(f["4. close"], 0),
			Volume: util.ParseFloatDefault(f["5. volume"], 0),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}
