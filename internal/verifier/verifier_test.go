package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewHTTPProber(t *testing.T) {
	prober := NewHTTPProber(0, "")

	if prober == nil {
		t.Fatal("NewHTTPProber returned nil")
	}

	if prober.client.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, prober.client.Timeout)
	}

	if !strings.Contains(prober.userAgent, "Mozilla") {
		t.Error("User agent doesn't look like a browser")
	}
}

func TestHTTPProber_Probe_Success(t *testing.T) {
	var method string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method

		if r.Header.Get("User-Agent") != "ampclean-test" {
			t.Errorf("unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewHTTPProber(5*time.Second, "ampclean-test")
	outcome := prober.Probe(context.Background(), server.URL+"/story")

	if method != http.MethodHead {
		t.Errorf("expected HEAD request, got %s", method)
	}

	if !outcome.OK() {
		t.Errorf("expected OK outcome, got %+v", outcome)
	}

	if outcome.FinalURL != server.URL+"/story" {
		t.Errorf("unexpected final URL %s", outcome.FinalURL)
	}
}

func TestHTTPProber_Probe_Redirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/amp/story":
			http.Redirect(w, r, "/story", http.StatusMovedPermanently)
		case "/story":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	prober := NewHTTPProber(5*time.Second, "")
	outcome := prober.Probe(context.Background(), server.URL+"/amp/story")

	if outcome.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", outcome.StatusCode)
	}

	if outcome.FinalURL != server.URL+"/story" {
		t.Errorf("expected final URL %s/story, got %s", server.URL, outcome.FinalURL)
	}
}

func TestHTTPProber_Probe_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	outcome := NewHTTPProber(5*time.Second, "").Probe(context.Background(), server.URL)

	if outcome.OK() {
		t.Error("404 should not be OK")
	}

	if outcome.Failed() {
		t.Error("404 is a response, not a failure")
	}

	if outcome.Status() != "404" {
		t.Errorf("unexpected status text %q", outcome.Status())
	}
}

func TestHTTPProber_Probe_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	outcome := NewHTTPProber(50*time.Millisecond, "").Probe(context.Background(), server.URL)

	if !outcome.Failed() {
		t.Fatalf("expected failure marker, got %+v", outcome)
	}

	if outcome.Error == "" {
		t.Error("expected an error description")
	}

	if outcome.Status() != "failed" {
		t.Errorf("unexpected status text %q", outcome.Status())
	}
}

func TestHTTPProber_Probe_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	outcome := NewHTTPProber(time.Second, "").Probe(context.Background(), target)

	if !outcome.Failed() {
		t.Errorf("expected failure for closed server, got %+v", outcome)
	}
}

func TestHTTPProber_Probe_InvalidURL(t *testing.T) {
	outcome := NewHTTPProber(time.Second, "").Probe(context.Background(), "https://exa mple.com/")

	if !outcome.Failed() || !strings.Contains(outcome.Error, "invalid URL") {
		t.Errorf("expected invalid URL failure, got %+v", outcome)
	}
}

func TestStatic(t *testing.T) {
	prober := Static{
		Statuses: map[string]int{"https://a.example/": 200},
		Fallback: 404,
	}

	if !prober.Probe(context.Background(), "https://a.example/").OK() {
		t.Error("expected listed URL to be OK")
	}

	if got := prober.Probe(context.Background(), "https://b.example/").StatusCode; got != 404 {
		t.Errorf("expected fallback 404, got %d", got)
	}

	failing := Static{}
	if !failing.Probe(context.Background(), "https://c.example/").Failed() {
		t.Error("zero fallback should be a failure")
	}
}
