package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Log         LogConfig       `yaml:"log"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Tracing     TracingConfig   `yaml:"tracing"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
	Providers   ProvidersConfig `yaml:"providers"`
	Market      MarketConfig    `yaml:"market"`
	Finnhub     FinnhubConfig   `yaml:"finnhub"`
	News        NewsConfig      `yaml:"news"`
	Social      SocialConfig    `yaml:"social"`
	Sentiment   SentimentConfig `yaml:"sentiment"`
	Extractor   ExtractorConfig `yaml:"extractor"`
	Fusion      FusionConfig    `yaml:"fusion"`
	History     HistoryConfig   `yaml:"history"`
	Redis       RedisConfig     `yaml:"redis"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	ClickHouse  ClickHouse      `yaml:"clickhouse"`
	Output      OutputConfig    `yaml:"output"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout" validate:"required"`
}

// ServerConfig is the ops-only HTTP server (health and metrics).
type ServerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Port            int           `yaml:"port" default:"9102" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled" default:"true"`
	Path           string `yaml:"path" default:"/metrics"`
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `yaml:"job" default:"signalforge"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name" default:"signalforge"`
	PrettyPrint bool   `yaml:"pretty_print"`
}

type SchedulerConfig struct {
	Mode     string `yaml:"mode" default:"once" validate:"oneof=once schedule"`
	Cron     string `yaml:"cron" default:"*/30 9-16 * * 1-5"`
	Timezone string `yaml:"timezone" default:"America/New_York"`

	// LockTTL bounds the cross-instance run lock held in Redis.
	LockTTL time.Duration `yaml:"lock_ttl" default:"10m" validate:"gt=0"`
}

type ProvidersConfig struct {
	Timeout       time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	RetryAttempts int           `yaml:"retry_attempts" default:"2" validate:"min=1,max=10"`
	UserAgent     string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; SignalForge/1.0)"`
}

type MarketConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co/query" validate:"url"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" default:"5" validate:"gt=0"`
	MaxConcurrency    int           `yaml:"max_concurrency" default:"4" validate:"min=1,max=32"`
	HistoryBars       int           `yaml:"history_bars" default:"220" validate:"min=30"`
	CacheTTL          time.Duration `yaml:"cache_ttl" default:"5m"`
	Benchmark         string        `yaml:"benchmark" default:"SPY"`
	Watchlist         []string      `yaml:"watchlist" default:"[\"AAPL\",\"MSFT\",\"GOOGL\",\"AMZN\",\"NVDA\",\"TSLA\",\"META\",\"AMD\",\"NFLX\",\"DIS\",\"COIN\",\"PLTR\",\"SHOP\",\"SQ\",\"PYPL\"]"`
}

// FinnhubConfig drives the optional live price confirmation stream.
type FinnhubConfig struct {
	Enabled      bool          `yaml:"enabled"`
	APIKey       string        `yaml:"api_key"`
	WebSocketURL string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
	Window       time.Duration `yaml:"window" default:"3s"`
	PingInterval time.Duration `yaml:"ping_interval" default:"15s"`
}

type FeedConfig struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required,url"`
}

type NewsAPIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url" default:"https://newsapi.org/v2"`
	Category string `yaml:"category" default:"business"`
	Country  string `yaml:"country" default:"us"`
	PageSize int    `yaml:"page_size" default:"50" validate:"min=1,max=100"`
}

// ScrapeConfig describes one HTML headline page scraped with CSS selectors.
type ScrapeConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Name            string   `yaml:"name" default:"finviz"`
	URL             string   `yaml:"url" default:"https://finviz.com/news.ashx"`
	AllowedDomains  []string `yaml:"allowed_domains" default:"[\"finviz.com\"]"`
	ItemSelector    string   `yaml:"item_selector" default:"tr.news_table-row"`
	TitleSelector   string   `yaml:"title_selector" default:"a.nn-tab-link"`
	SummarySelector string   `yaml:"summary_selector"`
	TimeSelector    string   `yaml:"time_selector"`
}

type EnrichConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxArticles      int           `yaml:"max_articles" default:"10" validate:"min=0"`
	MaxContentLength int           `yaml:"max_content_length" default:"600" validate:"min=0"`
	Timeout          time.Duration `yaml:"timeout" default:"10s"`
}

type NewsConfig struct {
	Lookback     time.Duration `yaml:"lookback" default:"6h" validate:"gt=0"`
	MaxArticles  int           `yaml:"max_articles" default:"100" validate:"min=1"`
	PerFeedLimit int           `yaml:"per_feed_limit" default:"20" validate:"min=1"`
	Workers      int           `yaml:"workers" default:"4" validate:"min=1"`
	Feeds        []FeedConfig  `yaml:"feeds" validate:"dive"`
	NewsAPI      NewsAPIConfig `yaml:"newsapi"`
	Scrape       ScrapeConfig  `yaml:"scrape"`
	Enrich       EnrichConfig  `yaml:"enrich"`
}

type SocialConfig struct {
	Enabled       bool          `yaml:"enabled" default:"true"`
	Limit         int           `yaml:"limit" default:"50" validate:"min=1"`
	CacheTTL      time.Duration `yaml:"cache_ttl" default:"10m"`
	ApeWisdomURL  string        `yaml:"apewisdom_url" default:"https://apewisdom.io/api/v1.0"`
	ApeFilter     string        `yaml:"apewisdom_filter" default:"all-stocks"`
	TradestieURL  string        `yaml:"tradestie_url" default:"https://tradestie.com/api/v1/apps/reddit"`
	CryptoTickers []string      `yaml:"crypto_tickers" default:"[\"BTC\",\"ETH\",\"DOGE\",\"SHIB\",\"XRP\",\"SOL\",\"ADA\",\"DOT\",\"AVAX\",\"MATIC\",\"LTC\",\"LINK\",\"UNI\",\"ATOM\",\"XLM\",\"BNB\",\"USDT\",\"USDC\",\"PEPE\",\"TRX\"]"`
}

type SentimentConfig struct {
	ServiceURL    string        `yaml:"service_url" validate:"omitempty,url"`
	BatchSize     int           `yaml:"batch_size" default:"32" validate:"min=1"`
	MinConfidence float64       `yaml:"min_confidence" default:"0.6" validate:"gte=0,lte=1"`
	RetryAttempts int           `yaml:"retry_attempts" default:"3" validate:"min=1"`
	Timeout       time.Duration `yaml:"timeout" default:"30s"`
	LoadBackoff   time.Duration `yaml:"load_backoff" default:"1m" validate:"gte=0"`
}

type ExtractorConfig struct {
	MinConfidence float64 `yaml:"min_confidence" default:"0.6" validate:"gte=0,lte=1"`
}

// Thresholds are the lower bounds of each category on the confidence scale.
type Thresholds struct {
	TradeAlert    float64 `yaml:"trade_alert" validate:"gt=0,lte=1"`
	WatchList     float64 `yaml:"watch_list" validate:"gt=0,lte=1"`
	MarketContext float64 `yaml:"market_context" validate:"gt=0,lte=1"`
}

type FusionConfig struct {
	NewsWeight            float64    `yaml:"news_weight" default:"0.7" validate:"gte=0,lte=1"`
	TechnicalWeight       float64    `yaml:"technical_weight" default:"0.3" validate:"gte=0,lte=1"`
	MinDirectional        float64    `yaml:"min_directional" default:"0.3" validate:"gte=0,lte=1"`
	NoNewsWeight          float64    `yaml:"no_news_weight" default:"0.7" validate:"gt=0,lte=1"`
	TechnicalOnlyWeight   float64    `yaml:"technical_only_weight" default:"1.0" validate:"gt=0,lte=1"`
	NeutralBand           float64    `yaml:"neutral_band" default:"0.05" validate:"gte=0,lt=1"`
	SocialBoostCap        float64    `yaml:"social_boost_cap" default:"0.1" validate:"gte=0,lte=1"`
	MaxSignals            int        `yaml:"max_signals" default:"10" validate:"min=1"`
	MaxSupportingArticles int        `yaml:"max_supporting_articles" default:"3" validate:"min=1"`
	FallbackSymbols       int        `yaml:"fallback_symbols" default:"3" validate:"min=0"`
	Full                  Thresholds `yaml:"thresholds"`
	TechnicalOnly         Thresholds `yaml:"technical_only_thresholds"`
}

type HistoryConfig struct {
	Backend      string        `yaml:"backend" default:"sqlite" validate:"oneof=sqlite redis memory"`
	DSN          string        `yaml:"dsn" default:"signalforge.db"`
	ExpiryWindow time.Duration `yaml:"expiry_window" default:"168h" validate:"gt=0"`
	Retention    time.Duration `yaml:"retention" default:"720h" validate:"gte=0"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"signalforge"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	ClientID     string   `yaml:"client_id" default:"signalforge"`
	RunTopic     string   `yaml:"run_topic" default:"signals.runs"`
	SignalTopic  string   `yaml:"signal_topic" default:"signals.emitted"`
	LogTopic     string   `yaml:"log_topic" default:"signals.logs"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"100ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"producer"`
}

type ClickHouse struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"signalforge"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type OutputConfig struct {
	Stdout bool `yaml:"stdout" default:"true"`
	Pretty bool `yaml:"pretty"`
}

// DefaultFeeds are used when no RSS feeds are configured.
var DefaultFeeds = []FeedConfig{
	{Name: "marketwatch", URL: "https://www.marketwatch.com/rss/topstories"},
	{Name: "cnbc", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10000664"},
	{Name: "yahoo", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "seekingalpha", URL: "https://seekingalpha.com/feed.xml"},
	{Name: "reuters", URL: "https://www.reutersagency.com/feed/?best-topics=business-finance&post_type=best"},
}

var validate = validator.New()

// Default returns a config populated only with defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	c.applyDerivedDefaults()
	return &c, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDerivedDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides secrets and deployment-specific values from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Market.APIKey = v
	}
	if v := getenv("NEWSAPI_KEY"); v != "" {
		c.News.NewsAPI.APIKey = v
		c.News.NewsAPI.Enabled = true
	}
	if v := getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := getenv("SENTIMENT_SERVICE_URL"); v != "" {
		c.Sentiment.ServiceURL = v
	}
	if v := getenv("WATCHLIST"); v != "" {
		c.Market.Watchlist = splitList(v)
	}
	if v := getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := getenv("HISTORY_DSN"); v != "" {
		c.History.DSN = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = p
		}
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushgatewayURL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	c.applyDerivedDefaults()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if w := c.Fusion.NewsWeight + c.Fusion.TechnicalWeight; math.Abs(w-1) > 1e-9 {
		return fmt.Errorf("fusion.news_weight + fusion.technical_weight must be 1, got %.3f", w)
	}
	if err := c.Fusion.Full.check("fusion.thresholds"); err != nil {
		return err
	}
	if err := c.Fusion.TechnicalOnly.check("fusion.technical_only_thresholds"); err != nil {
		return err
	}
	if len(c.Market.Watchlist) == 0 {
		return fmt.Errorf("market.watchlist cannot be empty")
	}
	if c.History.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("history.backend 'redis' requires redis.enabled")
	}
	if c.History.Backend == "sqlite" && c.History.DSN == "" {
		return fmt.Errorf("history.dsn is required for the sqlite backend")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Finnhub.Enabled && c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required when finnhub is enabled")
	}
	if c.News.NewsAPI.Enabled && c.News.NewsAPI.APIKey == "" {
		return fmt.Errorf("news.newsapi.api_key is required when newsapi is enabled")
	}
	return nil
}

func (t Thresholds) check(name string) error {
	if !(t.MarketContext < t.WatchList && t.WatchList < t.TradeAlert) {
		return fmt.Errorf("%s must satisfy market_context < watch_list < trade_alert, got %.2f/%.2f/%.2f",
			name, t.MarketContext, t.WatchList, t.TradeAlert)
	}
	return nil
}

// applyDerivedDefaults fills values that struct tags cannot express.
func (c *Config) applyDerivedDefaults() {
	if len(c.News.Feeds) == 0 {
		c.News.Feeds = append([]FeedConfig(nil), DefaultFeeds...)
	}
	if c.Fusion.Full == (Thresholds{}) {
		c.Fusion.Full = Thresholds{TradeAlert: 0.6, WatchList: 0.4, MarketContext: 0.3}
	}
	if c.Fusion.TechnicalOnly == (Thresholds{}) {
		c.Fusion.TechnicalOnly = Thresholds{TradeAlert: 0.5, WatchList: 0.35, MarketContext: 0.25}
	}
	for i, s := range c.Market.Watchlist {
		c.Market.Watchlist[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
