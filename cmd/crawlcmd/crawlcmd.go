// Package crawlcmd wires configuration, logging, storage, fetching and the
// engine together for one crawl run.
package crawlcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-micro/plugins/v4/config/encoder/toml"
	"github.com/marketintel/crawler/crawl"
	"github.com/marketintel/crawler/engine"
	"github.com/marketintel/crawler/limiter"
	"github.com/marketintel/crawler/log"
	"github.com/marketintel/crawler/proxy"
	"github.com/marketintel/crawler/robots"
	"github.com/marketintel/crawler/storage/sqlstorage"
	"go-micro.dev/v4/config"
	"go-micro.dev/v4/config/reader"
	"go-micro.dev/v4/config/reader/json"
	"go-micro.dev/v4/config/source"
	"go-micro.dev/v4/config/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

type LimitConfig struct {
	EventCount int
	EventDur   int // seconds
	Bucket     int
}

func Run(configPath string) {
	// load config
	enc := toml.NewEncoder()
	cfg, err := config.NewConfig(config.WithReader(json.NewReader(reader.WithEncoder(enc))))
	if err != nil {
		panic(err)
	}
	err = cfg.Load(file.NewSource(
		file.WithPath(configPath),
		source.WithEncoder(enc),
	))
	if err != nil {
		panic(err)
	}

	// log
	logText := cfg.Get("logLevel").String("INFO")
	logLevel, err := zapcore.ParseLevel(logText)
	if err != nil {
		panic(err)
	}
	plugin := log.NewStdoutPlugin(logLevel)
	logger := log.NewLogger(plugin)
	zap.ReplaceGlobals(logger)

	// every log line of a run carries the same id
	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Fatal("snowflake node init failed", zap.Error(err))
	}
	logger = logger.With(zap.String("run_id", node.Generate().String()))
	logger.Info("log init end")

	// fetcher
	timeout := cfg.Get("fetcher", "timeout").Int(5000)
	userAgent := cfg.Get("fetcher", "userAgent").String("marketintel-crawler")
	proxyURLs := cfg.Get("fetcher", "proxy").StringSlice([]string{})

	var p proxy.Func
	if len(proxyURLs) > 0 {
		p, err = proxy.RoundRobinSwitcher(proxyURLs...)
		if err != nil {
			logger.Fatal("proxy switcher init failed", zap.Error(err))
		}
	}
	fetcher := &crawl.BrowserFetch{
		Timeout:   time.Duration(timeout) * time.Millisecond,
		Proxy:     p,
		UserAgent: userAgent,
		Logger:    logger,
	}

	// storage; failing to open the store is the one non-recoverable error
	dbPath := cfg.Get("storage", "dbPath").String("books.db")
	batchCount := cfg.Get("storage", "batchCount").Int(1)
	store, err := sqlstorage.New(
		sqlstorage.WithDBPath(dbPath),
		sqlstorage.WithBatchCount(batchCount),
		sqlstorage.WithLogger(logger.Named("sqlstorage")),
	)
	if err != nil {
		logger.Fatal("create sqlstorage failed", zap.Error(err))
	}
	defer store.Close()

	// task
	seed := cfg.Get("task", "seed").String("http://books.toscrape.com/")
	workers := cfg.Get("task", "workers").Int(5)
	maxDepth := cfg.Get("task", "maxDepth").Int(0)

	var limitCfgs []LimitConfig
	if err := cfg.Get("task", "limits").Scan(&limitCfgs); err != nil {
		logger.Error("read limit config failed", zap.Error(err))
	}
	var multiLimiter limiter.RateLimiter
	if len(limitCfgs) > 0 {
		var limits []limiter.RateLimiter
		for _, lcfg := range limitCfgs {
			l := rate.NewLimiter(limiter.Per(lcfg.EventCount, time.Duration(lcfg.EventDur)*time.Second), lcfg.Bucket)
			limits = append(limits, l)
		}
		multiLimiter = limiter.NewMultiLimiter(limits...)
	}

	throttle := engine.ThrottleBounds{
		Start:   time.Duration(cfg.Get("task", "throttle", "startMs").Int(5000)) * time.Millisecond,
		Floor:   time.Duration(cfg.Get("task", "throttle", "minMs").Int(1000)) * time.Millisecond,
		Ceiling: time.Duration(cfg.Get("task", "throttle", "maxMs").Int(60000)) * time.Millisecond,
	}

	var robotsPolicy engine.RobotsPolicy
	if cfg.Get("task", "obeyRobots").Bool(true) {
		robotsPolicy = robots.New(userAgent, time.Duration(timeout)*time.Millisecond, logger.Named("robots"))
	}

	crawler := engine.NewEngine(
		engine.WithSeed(seed),
		engine.WithWorkCount(workers),
		engine.WithMaxDepth(maxDepth),
		engine.WithFetcher(fetcher),
		engine.WithStorage(store),
		engine.WithLimiter(multiLimiter),
		engine.WithThrottle(throttle),
		engine.WithRobots(robotsPolicy),
		engine.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := crawler.Run(ctx); err != nil {
		logger.Warn("crawl interrupted", zap.Error(err))
	}
}
