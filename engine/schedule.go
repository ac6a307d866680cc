// Package engine drives the crawl: a frontier of pending page visits drains
// through a bounded worker pool, listing visits feed the frontier, detail
// visits feed the store, and the crawl is done when nothing is outstanding.
package engine

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/marketintel/crawler/crawl"
	"github.com/marketintel/crawler/limiter"
	"github.com/marketintel/crawler/pipeline"
	"go.uber.org/zap"
)

// Scheduler moves requests between producers (workers discovering links) and
// consumers (workers pulling their next visit).
type Scheduler interface {
	Schedule()
	Push(...*crawl.Request)
	// Pull returns nil once the scheduler has been stopped.
	Pull() *crawl.Request
	Stop()
}

type ScheduleEngine struct {
	requestCh chan *crawl.Request
	workerCh  chan *crawl.Request
	reqQueue  []*crawl.Request
	done      chan struct{}
	stopOnce  sync.Once
}

func NewSchedule() *ScheduleEngine {
	return &ScheduleEngine{
		requestCh: make(chan *crawl.Request),
		workerCh:  make(chan *crawl.Request),
		done:      make(chan struct{}),
	}
}

// Schedule shuttles requests from requestCh through the in-memory queue to
// workerCh until Stop is called.
func (s *ScheduleEngine) Schedule() {
	var req *crawl.Request
	for {
		var ch chan *crawl.Request
		if req == nil && len(s.reqQueue) > 0 {
			req = s.reqQueue[0]
			s.reqQueue = s.reqQueue[1:]
		}
		if req != nil {
			ch = s.workerCh
		}

		select {
		case r := <-s.requestCh:
			s.reqQueue = append(s.reqQueue, r)
		case ch <- req:
			req = nil
		case <-s.done:
			close(s.workerCh)
			return
		}
	}
}

func (s *ScheduleEngine) Push(reqs ...*crawl.Request) {
	for _, req := range reqs {
		select {
		case s.requestCh <- req:
		case <-s.done:
			return
		}
	}
}

func (s *ScheduleEngine) Pull() *crawl.Request {
	return <-s.workerCh
}

func (s *ScheduleEngine) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Stats counts what a finished crawl did.
type Stats struct {
	ListingPages int64
	DetailPages  int64
	Saved        int64
	Dropped      int64
	FetchErrors  int64
}

type Crawler struct {
	Options

	stages  []pipeline.Stage
	visited map[string]bool
	vMu     sync.Mutex

	throttles map[string]*limiter.Throttle
	tMu       sync.Mutex

	wg    sync.WaitGroup
	stats Stats
}

func NewEngine(opts ...Option) *Crawler {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	c := &Crawler{}
	c.Options = options
	if c.Scheduler == nil {
		c.Scheduler = NewSchedule()
	}
	c.stages = c.Options.Stages
	if c.stages == nil {
		c.stages = pipeline.DefaultStages()
	}
	c.visited = make(map[string]bool)
	c.throttles = make(map[string]*limiter.Throttle)
	return c
}

// Run crawls from the seed until the frontier drains or ctx is cancelled,
// then reports what happened.
func (c *Crawler) Run(ctx context.Context) (*Stats, error) {
	go c.Scheduler.Schedule()
	for i := 0; i < c.WorkCount; i++ {
		go c.work(ctx)
	}

	c.dispatch(ctx, &crawl.Request{URL: c.Seed, Kind: crawl.KindListing})
	c.wg.Wait()
	c.Scheduler.Stop()

	stats := c.snapshot()
	c.Logger.Info("crawl done",
		zap.Int64("listing_pages", stats.ListingPages),
		zap.Int64("detail_pages", stats.DetailPages),
		zap.Int64("saved", stats.Saved),
		zap.Int64("dropped", stats.Dropped),
		zap.Int64("fetch_errors", stats.FetchErrors),
	)
	return stats, ctx.Err()
}

func (c *Crawler) work(ctx context.Context) {
	for {
		req := c.Scheduler.Pull()
		if req == nil {
			return
		}
		if ctx.Err() == nil {
			c.handle(ctx, req)
		}
		c.wg.Done()
	}
}

// dispatch vets discovered requests and adds the survivors to the frontier.
// Revisits, over-deep requests and robots-disallowed paths are filtered here,
// before any fetch is issued.
func (c *Crawler) dispatch(ctx context.Context, reqs ...*crawl.Request) {
	accepted := make([]*crawl.Request, 0, len(reqs))
	for _, req := range reqs {
		if err := req.Check(c.MaxDepth); err != nil {
			c.Logger.Debug("request rejected", zap.String("url", req.URL), zap.Error(err))
			continue
		}
		if c.Robots != nil && !c.Robots.Allowed(ctx, req.URL) {
			c.Logger.Warn("blocked by robots.txt", zap.String("url", req.URL))
			continue
		}
		if c.markVisited(req) {
			continue
		}
		accepted = append(accepted, req)
	}
	if len(accepted) == 0 {
		return
	}
	c.wg.Add(len(accepted))
	c.Scheduler.Push(accepted...)
}

func (c *Crawler) markVisited(req *crawl.Request) bool {
	fp := req.Fingerprint()
	c.vMu.Lock()
	defer c.vMu.Unlock()
	if c.visited[fp] {
		return true
	}
	c.visited[fp] = true
	return false
}

func (c *Crawler) handle(ctx context.Context, req *crawl.Request) {
	body, ok := c.fetch(ctx, req)
	if !ok {
		return
	}

	switch req.Kind {
	case crawl.KindListing:
		c.handleListing(ctx, req, body)
	case crawl.KindDetail:
		c.handleDetail(req, body)
	}
}

// fetch runs the politeness gates and the network round trip. A failed fetch
// abandons just this branch of the traversal.
func (c *Crawler) fetch(ctx context.Context, req *crawl.Request) ([]byte, bool) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, false
		}
	}
	throttle := c.throttleFor(req.URL)
	if throttle != nil {
		if err := throttle.Wait(ctx); err != nil {
			return nil, false
		}
	}

	body, latency, err := c.Fetcher.Get(ctx, req)
	if throttle != nil {
		throttle.Update(latency, err == nil)
	}
	if err != nil {
		atomic.AddInt64(&c.stats.FetchErrors, 1)
		c.Logger.Error("fetch failed",
			zap.String("url", req.URL),
			zap.String("kind", req.Kind.String()),
			zap.Error(err))
		return nil, false
	}
	return body, true
}

func (c *Crawler) handleListing(ctx context.Context, req *crawl.Request, body []byte) {
	atomic.AddInt64(&c.stats.ListingPages, 1)

	page, err := c.Parser.ParseListing(req.URL, body)
	if err != nil {
		c.Logger.Error("parse listing failed", zap.String("url", req.URL), zap.Error(err))
		return
	}

	next := make([]*crawl.Request, 0, len(page.DetailURLs)+1)
	for _, u := range page.DetailURLs {
		next = append(next, &crawl.Request{URL: u, Kind: crawl.KindDetail, Depth: req.Depth + 1})
	}
	// An empty listing page still advances through its next link.
	if page.NextURL != "" {
		next = append(next, &crawl.Request{URL: page.NextURL, Kind: crawl.KindListing, Depth: req.Depth + 1})
	}
	c.dispatch(ctx, next...)
}

func (c *Crawler) handleDetail(req *crawl.Request, body []byte) {
	atomic.AddInt64(&c.stats.DetailPages, 1)

	raw, err := c.Parser.ParseDetail(req.URL, body)
	if err != nil {
		c.Logger.Error("parse detail failed", zap.String("url", req.URL), zap.Error(err))
		atomic.AddInt64(&c.stats.Dropped, 1)
		return
	}

	book, err := pipeline.Run(c.stages, raw)
	if err != nil {
		atomic.AddInt64(&c.stats.Dropped, 1)
		c.Logger.Warn("record dropped",
			zap.String("url", req.URL),
			zap.String("raw_price", raw.Price),
			zap.Error(err))
		return
	}

	if err := c.Storage.Save(book); err != nil {
		// The storage layer already retried; nothing more to do here.
		atomic.AddInt64(&c.stats.Dropped, 1)
		c.Logger.Error("save failed", zap.String("upc", book.UPC), zap.Error(err))
		return
	}
	atomic.AddInt64(&c.stats.Saved, 1)
	c.Logger.Debug("record saved", zap.String("upc", book.UPC), zap.String("title", book.Title))
}

func (c *Crawler) throttleFor(rawURL string) *limiter.Throttle {
	if c.Throttle == (ThrottleBounds{}) {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	c.tMu.Lock()
	defer c.tMu.Unlock()
	t, ok := c.throttles[u.Host]
	if !ok {
		t = limiter.NewThrottle(c.Throttle.Start, c.Throttle.Floor, c.Throttle.Ceiling)
		c.throttles[u.Host] = t
	}
	return t
}

func (c *Crawler) snapshot() *Stats {
	return &Stats{
		ListingPages: atomic.LoadInt64(&c.stats.ListingPages),
		DetailPages:  atomic.LoadInt64(&c.stats.DetailPages),
		Saved:        atomic.LoadInt64(&c.stats.Saved),
		Dropped:      atomic.LoadInt64(&c.stats.Dropped),
		FetchErrors:  atomic.LoadInt64(&c.stats.FetchErrors),
	}
}
