// Package robots gates every fetch behind the target site's published
// exclusion rules, cached per host for the lifetime of a crawl.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

type Cache struct {
	agent  string
	client *http.Client
	logger *zap.Logger

	mu     sync.Mutex
	groups map[string]*robotstxt.Group // keyed by scheme://host
}

func New(agent string, timeout time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		agent:  agent,
		client: &http.Client{Timeout: timeout},
		logger: logger,
		groups: make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether the crawl may fetch rawURL. An unreachable or
// unparsable robots.txt permits the fetch; a served policy is enforced.
func (c *Cache) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	group := c.groupFor(ctx, u)
	if group == nil {
		return true
	}
	return group.Test(u.Path)
}

func (c *Cache) groupFor(ctx context.Context, u *url.URL) *robotstxt.Group {
	origin := u.Scheme + "://" + u.Host

	c.mu.Lock()
	group, ok := c.groups[origin]
	c.mu.Unlock()
	if ok {
		return group
	}

	group = c.fetch(ctx, origin)
	c.mu.Lock()
	c.groups[origin] = group
	c.mu.Unlock()
	return group
}

func (c *Cache) fetch(ctx context.Context, origin string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("robots.txt unreachable, allowing crawl",
			zap.String("origin", origin), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		c.logger.Debug("robots.txt unparsable, allowing crawl",
			zap.String("origin", origin), zap.Error(err))
		return nil
	}
	return data.FindGroup(c.agent)
}
