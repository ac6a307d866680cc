package crawl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marketintel/crawler/extensions"
	"github.com/marketintel/crawler/proxy"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Fetcher retrieves a page body. Latency is reported for all attempts that
// reached the network so the throttle can react to slow hosts.
type Fetcher interface {
	Get(ctx context.Context, req *Request) (body []byte, latency time.Duration, err error)
}

// StatusError marks a non-success HTTP response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// BrowserFetch issues requests that look like an ordinary browser session.
type BrowserFetch struct {
	Timeout   time.Duration
	Proxy     proxy.Func
	UserAgent string
	Logger    *zap.Logger
}

func (b *BrowserFetch) Get(ctx context.Context, request *Request) ([]byte, time.Duration, error) {
	client := &http.Client{
		Timeout: b.Timeout,
	}

	if b.Proxy != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = b.Proxy
		client.Transport = transport
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request for %s: %w", request.URL, err)
	}

	ua := b.UserAgent
	if ua == "" {
		ua = extensions.GenerateRandomUA()
	}
	req.Header.Set("User-Agent", ua)

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, latency, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, latency, &StatusError{Code: resp.StatusCode, URL: request.URL}
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := b.determineEncoding(bodyReader)
	utf8Reader := transform.NewReader(bodyReader, e.NewDecoder())
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, latency, fmt.Errorf("read body of %s: %w", request.URL, err)
	}
	return body, latency, nil
}

func (b *BrowserFetch) determineEncoding(r *bufio.Reader) encoding.Encoding {
	peeked, err := r.Peek(1024)
	if err != nil && err != io.EOF {
		if b.Logger != nil {
			b.Logger.Debug("peek body failed, assuming utf-8", zap.Error(err))
		}
		return unicode.UTF8
	}
	e, _, _ := charset.DetermineEncoding(peeked, "")
	return e
}
