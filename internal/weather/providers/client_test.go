package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchReturnsBody(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		if ua := r.Header.Get("User-Agent"); ua != "wx-forecast/test" {
			t.Errorf("User-Agent = %q", ua)
		}
		_, _ = w.Write([]byte("<dwml/>"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{HTTP: srv.Client(), UserAgent: "wx-forecast/test"})
	params := url.Values{}
	params.Set("listLatLon", "38.99,-77.01 37.7,-122.4")
	params.Set("maxt", "maxt")

	res, err := c.Fetch(context.Background(), srv.URL+"/xml", params)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.StatusCode != http.StatusOK || string(res.Body) != "<dwml/>" {
		t.Fatalf("response = %d %q", res.StatusCode, res.Body)
	}
	if gotQuery.Get("listLatLon") != "38.99,-77.01 37.7,-122.4" {
		t.Fatalf("listLatLon = %q", gotQuery.Get("listLatLon"))
	}
}

func TestFetchNon200IsAResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down for maintenance"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{HTTP: srv.Client()})
	res, err := c.Fetch(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v, want a response", err)
	}
	if res.StatusCode != http.StatusServiceUnavailable || string(res.Body) != "down for maintenance" {
		t.Fatalf("response = %d %q", res.StatusCode, res.Body)
	}
}

func TestFetchNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{HTTP: &http.Client{Timeout: time.Second}})
	if _, err := c.Fetch(context.Background(), addr, nil); err == nil {
		t.Fatal("Fetch() against a closed server returned no error")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{HTTP: srv.Client(), MaxConsecutiveFailures: 2, OpenTimeout: time.Hour})
	for i := 0; i < 2; i++ {
		if _, err := c.Fetch(context.Background(), srv.URL, nil); err != nil {
			t.Fatalf("call %d: unexpected error %v", i, err)
		}
	}

	_, err := c.Fetch(context.Background(), srv.URL, nil)
	if !errors.Is(err, errCircuitOpen) {
		t.Fatalf("third call err = %v, want circuit open", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("server saw %d requests, want 2", got)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{HTTP: srv.Client(), RequestsPerSecond: 0.01})
	if _, err := c.Fetch(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Fetch(ctx, srv.URL, nil); err == nil {
		t.Fatal("second call inside the limiter window should fail on the deadline")
	}
}

func TestBuildURL(t *testing.T) {
	params := url.Values{"a": {"1"}}
	cases := map[string]string{
		"http://x/y":     "http://x/y?a=1",
		"http://x/y?b=2": "http://x/y?b=2&a=1",
	}
	for in, want := range cases {
		if got := buildURL(in, params); got != want {
			t.Errorf("buildURL(%q) = %q, want %q", in, got, want)
		}
	}
	if got := buildURL("http://x/y", nil); got != "http://x/y" {
		t.Errorf("buildURL without params = %q", got)
	}
}
