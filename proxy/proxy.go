package proxy

import (
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Func decides the proxy for an outgoing request, matching the signature of
// http.Transport.Proxy.
type Func func(*http.Request) (*url.URL, error)

type roundRobinSwitcher struct {
	proxyURLs []*url.URL
	index     uint32
}

func (r *roundRobinSwitcher) getProxy(*http.Request) (*url.URL, error) {
	index := atomic.AddUint32(&r.index, 1) - 1
	return r.proxyURLs[index%uint32(len(r.proxyURLs))], nil
}

// RoundRobinSwitcher rotates requests through the given proxy URLs.
func RoundRobinSwitcher(proxyURLs ...string) (Func, error) {
	if len(proxyURLs) == 0 {
		return nil, errors.New("proxy URL list is empty")
	}
	urls := make([]*url.URL, len(proxyURLs))
	for i, u := range proxyURLs {
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, err
		}
		urls[i] = parsed
	}
	s := &roundRobinSwitcher{proxyURLs: urls}
	return s.getProxy, nil
}
