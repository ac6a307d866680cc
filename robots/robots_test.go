package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newServer(robotsBody string, status int) (*httptest.Server, *int32) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		fmt.Fprint(w, robotsBody)
	})
	return httptest.NewServer(mux), &hits
}

func TestDisallowedPathBlocked(t *testing.T) {
	ts, _ := newServer("User-agent: *\nDisallow: /private/\n", http.StatusOK)
	defer ts.Close()

	c := New("marketintel-crawler", time.Second, zap.NewNop())
	assert.False(t, c.Allowed(context.Background(), ts.URL+"/private/page.html"))
	assert.True(t, c.Allowed(context.Background(), ts.URL+"/catalogue/page.html"))
}

func TestAgentSpecificGroup(t *testing.T) {
	body := "User-agent: marketintel-crawler\nDisallow: /blocked/\n\nUser-agent: *\nDisallow:\n"
	ts, _ := newServer(body, http.StatusOK)
	defer ts.Close()

	c := New("marketintel-crawler", time.Second, zap.NewNop())
	assert.False(t, c.Allowed(context.Background(), ts.URL+"/blocked/x"))
	assert.True(t, c.Allowed(context.Background(), ts.URL+"/open/x"))
}

func TestMissingRobotsAllowsAll(t *testing.T) {
	ts, _ := newServer("", http.StatusNotFound)
	defer ts.Close()

	c := New("marketintel-crawler", time.Second, zap.NewNop())
	assert.True(t, c.Allowed(context.Background(), ts.URL+"/anything"))
}

func TestUnreachableHostAllows(t *testing.T) {
	c := New("marketintel-crawler", 100*time.Millisecond, zap.NewNop())
	assert.True(t, c.Allowed(context.Background(), "http://127.0.0.1:1/page.html"))
}

func TestPolicyFetchedOncePerHost(t *testing.T) {
	ts, hits := newServer("User-agent: *\nDisallow: /x/\n", http.StatusOK)
	defer ts.Close()

	c := New("marketintel-crawler", time.Second, zap.NewNop())
	for i := 0; i < 5; i++ {
		c.Allowed(context.Background(), fmt.Sprintf("%s/page-%d.html", ts.URL, i))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestMalformedURLBlocked(t *testing.T) {
	c := New("marketintel-crawler", time.Second, zap.NewNop())
	assert.False(t, c.Allowed(context.Background(), "://not-a-url"))
}
