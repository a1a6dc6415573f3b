package di

import (
	"context"
	"fmt"
	"os"
	"time"

	domrepo "SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/handler/api"
	internalrepo "SignalForge/internal/repository"
	"SignalForge/internal/service/alphavantage"
	"SignalForge/internal/service/finnhub"
	"SignalForge/internal/service/marketdata"
	"SignalForge/internal/service/news"
	"SignalForge/internal/service/ratelimit"
	"SignalForge/internal/service/social"
	"SignalForge/internal/services/extractor"
	"SignalForge/internal/services/sentiment"
	"SignalForge/internal/services/technical"
	"SignalForge/internal/usecase"
	"SignalForge/pkg/cache"
	pkgch "SignalForge/pkg/clickhouse"
	"SignalForge/pkg/config"
	xhttp "SignalForge/pkg/http"
	pkgkafka "SignalForge/pkg/kafka"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/metrics"
	"SignalForge/pkg/server"
	"SignalForge/pkg/tracing"
)

// ProvideLogger creates the root logger. When Kafka is enabled, repeated
// errors are aggregated and shipped to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideHTTPClient creates the shared outbound client for provider adapters.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Providers.Timeout),
		xhttp.WithUserAgent(cfg.Providers.UserAgent),
	)
}

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideProviderCache fronts Redis with a memory layer, or falls back to
// memory alone so a single run still shares responses across components.
func ProvideProviderCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(5000))
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(2000),
		cache.WithLayeredMemoryTTL(time.Minute),
	)
}

// ProvideRunLock returns the cross-instance lock backend, nil without Redis.
func ProvideRunLock(rc *cache.RedisCache) server.RunLock {
	if rc == nil {
		return nil
	}
	return rc
}

func ProvideAlphaVantage(cfg *config.Config, c cache.Service, l *applogger.Logger) *alphavantage.Client {
	av := alphavantage.New(alphavantage.Config{
		APIKey:            cfg.Market.APIKey,
		BaseURL:           cfg.Market.BaseURL,
		RequestsPerMinute: cfg.Market.RequestsPerMinute,
		CacheTTL:          cfg.Market.CacheTTL,
		Timeout:           cfg.Providers.Timeout,
		RetryAttempts:     cfg.Providers.RetryAttempts,
	}, ratelimit.New(), c)
	av.SetLogger(l.Component("alphavantage"))
	return av
}

// ProvideLivePrices returns the Finnhub trade stream when enabled.
func ProvideLivePrices(cfg *config.Config, l *applogger.Logger) marketdata.LivePrices {
	if !cfg.Finnhub.Enabled {
		return nil
	}
	fc := finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.WebSocketURL, cfg.Finnhub.PingInterval)
	fc.SetLogger(l.Component("finnhub"))
	return fc
}

func ProvideMarketData(cfg *config.Config, av *alphavantage.Client, live marketdata.LivePrices, l *applogger.Logger) domrepo.MarketData {
	p := marketdata.New(marketdata.Config{
		Benchmark:      cfg.Market.Benchmark,
		HistoryBars:    cfg.Market.HistoryBars,
		MaxConcurrency: cfg.Market.MaxConcurrency,
		Timeout:        cfg.Providers.Timeout,
		LiveWindow:     cfg.Finnhub.Window,
	}, av, live)
	p.SetLogger(l.Component("marketdata"))
	return p
}

// ProvideNewsFeed assembles the RSS feeds, the optional NewsAPI and scrape
// sources, and the readability enricher behind one aggregator.
func ProvideNewsFeed(cfg *config.Config, client *xhttp.Client, l *applogger.Logger) domrepo.NewsFeed {
	nc := cfg.News
	sources := make([]news.Source, 0, len(nc.Feeds)+2)
	for _, f := range nc.Feeds {
		sources = append(sources, news.NewRSSSource(f.Name, f.URL, nc.PerFeedLimit, client))
	}
	if nc.NewsAPI.Enabled {
		sources = append(sources, news.NewNewsAPISource(
			nc.NewsAPI.BaseURL, nc.NewsAPI.APIKey, nc.NewsAPI.Category, nc.NewsAPI.Country, nc.NewsAPI.PageSize, client))
	}
	if nc.Scrape.Enabled {
		sources = append(sources, news.NewScrapeSource(
			nc.Scrape.Name, nc.Scrape.URL, nc.Scrape.AllowedDomains,
			news.Selectors{
				Item:    nc.Scrape.ItemSelector,
				Title:   nc.Scrape.TitleSelector,
				Summary: nc.Scrape.SummarySelector,
				Time:    nc.Scrape.TimeSelector,
			},
			nc.PerFeedLimit, cfg.Providers.Timeout, cfg.Providers.UserAgent))
	}

	var enricher *news.Enricher
	if nc.Enrich.Enabled {
		ec := xhttp.NewClient(
			xhttp.WithTimeout(nc.Enrich.Timeout),
			xhttp.WithUserAgent(cfg.Providers.UserAgent),
		)
		enricher = news.NewEnricher(ec, nc.Enrich.MaxArticles, nc.Enrich.MaxContentLength, nc.Workers)
	}

	agg := news.NewAggregator(news.Config{
		MaxArticles: nc.MaxArticles,
		Workers:     nc.Workers,
		Timeout:     cfg.Providers.Timeout,
	}, sources, enricher)
	agg.SetLogger(l.Component("news"))
	return agg
}

// ProvideSocialFeed returns the ApeWisdom then Tradestie chain, or nil when
// social input is disabled.
func ProvideSocialFeed(cfg *config.Config, client *xhttp.Client, c cache.Service, l *applogger.Logger) domrepo.SocialFeed {
	if !cfg.Social.Enabled {
		return nil
	}
	chain := social.NewChain([]social.Source{
		social.NewApeWisdom(cfg.Social.ApeWisdomURL, cfg.Social.ApeFilter, client),
		social.NewTradestie(cfg.Social.TradestieURL, client),
	}, cfg.Social.CryptoTickers, c, cfg.Social.CacheTTL)
	chain.SetLogger(l.Component("social"))
	return chain
}

// ProvideSentimentScorer uses the inference service when one is configured
// and the finance lexicon otherwise.
func ProvideSentimentScorer(cfg *config.Config, l *applogger.Logger) domsvc.SentimentScorer {
	loader := sentiment.LexiconLoader()
	if cfg.Sentiment.ServiceURL != "" {
		loader = sentiment.HTTPLoader(cfg.Sentiment.ServiceURL, cfg.Sentiment.Timeout, cfg.Sentiment.RetryAttempts)
	}
	s := sentiment.NewScorer(loader, cfg.Sentiment.BatchSize)
	s.SetLoadBackoff(cfg.Sentiment.LoadBackoff)
	s.SetLogger(l.Component("sentiment"))
	return s
}

func ProvideExtractor(cfg *config.Config) domsvc.SymbolExtractor {
	return extractor.New(cfg.Extractor.MinConfidence)
}

func ProvideTechnicalScorer() domsvc.TechnicalScorer {
	return technical.NewScorer()
}

// ProvideHistoryStore opens the configured dedup backend.
func ProvideHistoryStore(cfg *config.Config, rc *cache.RedisCache, l *applogger.Logger) (domrepo.HistoryStore, func(), error) {
	var store domrepo.HistoryStore
	switch cfg.History.Backend {
	case "redis":
		if rc == nil {
			return nil, nil, fmt.Errorf("history: redis backend selected but redis is disabled")
		}
		store = internalrepo.NewCacheHistoryStore(rc)
	case "memory":
		store = internalrepo.NewCacheHistoryStore(cache.NewMemoryCache(cache.WithMemoryMaxSize(100000)))
	default:
		gs, err := internalrepo.OpenGormHistoryStore(cfg.History.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("history: %w", err)
		}
		gs.SetLogger(l.Component("history"))
		store = gs
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("history close error", applogger.Error(err))
		}
	}
	// Redis is closed by its own provider.
	if cfg.History.Backend == "redis" {
		cleanup = func() {}
	}
	return store, cleanup, nil
}

// ProvideKafkaProducer creates a Kafka producer when enabled; nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithClientID(cfg.Kafka.ClientID),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideClickHouseClient connects and creates the audit table when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.AuditSchema); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideAuditLog returns the ClickHouse audit log, nil when ClickHouse is off.
func ProvideAuditLog(ch *pkgch.Client, l *applogger.Logger) domrepo.AuditLog {
	if ch == nil {
		return nil
	}
	a := internalrepo.NewCHAuditLog(ch)
	a.SetLogger(l.Component("audit"))
	return a
}

// ProvideOpsHandler builds the ops endpoints and registers infra health checks.
func ProvideOpsHandler(history domrepo.HistoryStore, ch *pkgch.Client, rc *cache.RedisCache, l *applogger.Logger) *api.OpsEchoHandler {
	h := api.NewOpsEchoHandler(l.Component("ops"), history)
	if ch != nil {
		h.AddCheck("clickhouse", ch)
	}
	if rc != nil {
		h.AddCheck("redis", redisHealth{rc})
	}
	return h
}

type redisHealth struct{ rc *cache.RedisCache }

func (r redisHealth) Health(ctx context.Context) error { return r.rc.Ping(ctx) }

// ProvidePublishers lists every run sink: the ops handler's last-run view,
// Kafka, and stdout.
func ProvidePublishers(cfg *config.Config, producer *pkgkafka.Producer, ops *api.OpsEchoHandler) []domrepo.RunPublisher {
	pubs := []domrepo.RunPublisher{ops}
	if producer != nil {
		pubs = append(pubs, internalrepo.NewKafkaRunPublisher(producer, cfg.Kafka.RunTopic, cfg.Kafka.SignalTopic))
	}
	if cfg.Output.Stdout {
		pubs = append(pubs, internalrepo.NewStdoutPublisher(os.Stdout, cfg.Output.Pretty))
	}
	return pubs
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) *metrics.Recorder {
	if !cfg.Metrics.Enabled {
		return metrics.NewWithRegistry(nil)
	}
	return metrics.New()
}

func ProvideTracer(cfg *config.Config) (*tracing.Provider, error) {
	return tracing.New(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		PrettyPrint: cfg.Tracing.PrettyPrint,
	})
}

// ProvideGenerator creates the signal generation use case.
func ProvideGenerator(
	cfg *config.Config,
	market domrepo.MarketData,
	newsFeed domrepo.NewsFeed,
	socialFeed domrepo.SocialFeed,
	scorer domsvc.SentimentScorer,
	ext domsvc.SymbolExtractor,
	tech domsvc.TechnicalScorer,
	history domrepo.HistoryStore,
	pubs []domrepo.RunPublisher,
	audit domrepo.AuditLog,
	rec *metrics.Recorder,
	tracer *tracing.Provider,
	l *applogger.Logger,
) *usecase.Generator {
	f := cfg.Fusion
	return usecase.NewGenerator(usecase.GeneratorConfig{
		Watchlist:        cfg.Market.Watchlist,
		NewsLookback:     cfg.News.Lookback,
		SocialLimit:      cfg.Social.Limit,
		MinSentimentConf: cfg.Sentiment.MinConfidence,
		MaxSignals:       f.MaxSignals,
		ExpiryWindow:     cfg.History.ExpiryWindow,
		FallbackSymbols:  f.FallbackSymbols,
		Fusion: usecase.FusionConfig{
			NewsWeight:            f.NewsWeight,
			TechnicalWeight:       f.TechnicalWeight,
			MinDirectional:        f.MinDirectional,
			NoNewsWeight:          f.NoNewsWeight,
			TechnicalOnlyWeight:   f.TechnicalOnlyWeight,
			NeutralBand:           f.NeutralBand,
			SocialBoostCap:        f.SocialBoostCap,
			MaxSupportingArticles: f.MaxSupportingArticles,
			Full:                  usecase.Thresholds(f.Full),
			TechnicalOnly:         usecase.Thresholds(f.TechnicalOnly),
		},
	}, usecase.Deps{
		Market:     market,
		News:       newsFeed,
		Social:     socialFeed,
		Scorer:     scorer,
		Extractor:  ext,
		Technical:  tech,
		History:    history,
		Publishers: pubs,
		Audit:      audit,
		Metrics:    rec,
		Tracer:     tracer,
		Logger:     l.Component("generator"),
	})
}

var _ server.HistoryPruner = (*internalrepo.GormHistoryStore)(nil)

// ProvideHistoryPruner returns the store when it keeps a ledger that needs
// trimming. TTL-based backends expire on their own.
func ProvideHistoryPruner(store domrepo.HistoryStore) server.HistoryPruner {
	if p, ok := store.(server.HistoryPruner); ok {
		return p
	}
	return nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	gen *usecase.Generator,
	ops *api.OpsEchoHandler,
	lock server.RunLock,
	pruner server.HistoryPruner,
	rec *metrics.Recorder,
	tracer *tracing.Provider,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, gen, ops, lock, pruner, rec, tracer, l.Component("app"))
}
