package engine

import (
	"context"
	"time"

	"github.com/marketintel/crawler/books"
	"github.com/marketintel/crawler/crawl"
	"github.com/marketintel/crawler/limiter"
	"github.com/marketintel/crawler/pipeline"
	"github.com/marketintel/crawler/storage"
	"go.uber.org/zap"
)

// Parser covers link discovery and field extraction for the target site.
type Parser interface {
	ParseListing(pageURL string, body []byte) (*books.ListingPage, error)
	ParseDetail(pageURL string, body []byte) (*books.RawItem, error)
}

// RobotsPolicy decides whether a URL may be fetched at all.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

type siteParser struct{}

func (siteParser) ParseListing(pageURL string, body []byte) (*books.ListingPage, error) {
	return books.ParseListing(pageURL, body)
}

func (siteParser) ParseDetail(pageURL string, body []byte) (*books.RawItem, error) {
	return books.ParseDetail(pageURL, body)
}

// ThrottleBounds configures the adaptive per-host delay; a zero value
// disables throttling.
type ThrottleBounds struct {
	Start   time.Duration
	Floor   time.Duration
	Ceiling time.Duration
}

type Option func(opts *Options)

type Options struct {
	WorkCount int
	MaxDepth  int
	Seed      string
	Fetcher   crawl.Fetcher
	Storage   storage.Storage
	Limiter   limiter.RateLimiter
	Robots    RobotsPolicy
	Throttle  ThrottleBounds
	Parser    Parser
	Stages    []pipeline.Stage
	Logger    *zap.Logger
	Scheduler Scheduler
}

var defaultOptions = Options{
	WorkCount: 5,
	Logger:    zap.NewNop(),
	Parser:    siteParser{},
}

func WithWorkCount(workCount int) Option {
	return func(opts *Options) {
		opts.WorkCount = workCount
	}
}

func WithMaxDepth(maxDepth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = maxDepth
	}
}

func WithSeed(seed string) Option {
	return func(opts *Options) {
		opts.Seed = seed
	}
}

func WithFetcher(fetcher crawl.Fetcher) Option {
	return func(opts *Options) {
		opts.Fetcher = fetcher
	}
}

func WithStorage(storage storage.Storage) Option {
	return func(opts *Options) {
		opts.Storage = storage
	}
}

func WithLimiter(limit limiter.RateLimiter) Option {
	return func(opts *Options) {
		opts.Limiter = limit
	}
}

func WithRobots(robots RobotsPolicy) Option {
	return func(opts *Options) {
		opts.Robots = robots
	}
}

func WithThrottle(bounds ThrottleBounds) Option {
	return func(opts *Options) {
		opts.Throttle = bounds
	}
}

func WithParser(parser Parser) Option {
	return func(opts *Options) {
		opts.Parser = parser
	}
}

func WithStages(stages []pipeline.Stage) Option {
	return func(opts *Options) {
		opts.Stages = stages
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithScheduler(scheduler Scheduler) Option {
	return func(opts *Options) {
		opts.Scheduler = scheduler
	}
}
