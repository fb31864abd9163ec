// Package verifier checks whether a URL currently resolves.
package verifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// maxRedirects caps the redirect chain followed by a probe.
const maxRedirects = 10

// Outcome is the result of probing one URL. A zero StatusCode marks a
// failed probe (timeout, connection error, invalid URL).
type Outcome struct {
	URL        string        `json:"url"`
	FinalURL   string        `json:"final_url,omitempty"`
	Error      string        `json:"error,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// OK reports whether the probe returned 200.
func (o Outcome) OK() bool {
	return o.StatusCode == http.StatusOK
}

// Failed reports whether the probe produced no HTTP response at all.
func (o Outcome) Failed() bool {
	return o.StatusCode == 0
}

// Status renders the status for logs: the code, or "failed".
func (o Outcome) Status() string {
	if o.Failed() {
		return "failed"
	}

	return fmt.Sprintf("%d", o.StatusCode)
}

// Prober issues a liveness check against a URL. Implementations never return
// an error; failures are encoded in the Outcome.
type Prober interface {
	Probe(ctx context.Context, target string) Outcome
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, target string) Outcome

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, target string) Outcome {
	return f(ctx, target)
}

// HTTPProber probes URLs with a single HEAD request that follows redirects.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber creates a prober with browser-like configuration. A zero
// timeout uses DefaultTimeout.
func NewHTTPProber(timeout time.Duration, userAgent string) *HTTPProber {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConnsPerHost: 10,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			// Preserve headers through redirects
			if len(via) > 0 {
				req.Header = via[0].Header.Clone()
			}
			return nil
		},
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &HTTPProber{
		client:    client,
		userAgent: userAgent,
	}
}

// Probe performs the HEAD request. It is never retried.
func (p *HTTPProber) Probe(ctx context.Context, target string) Outcome {
	start := time.Now()
	outcome := Outcome{URL: target, FinalURL: target}

	parsed, err := url.Parse(target)
	if err != nil {
		outcome.Error = fmt.Sprintf("invalid URL: %v", err)
		outcome.Duration = time.Since(start)

		return outcome
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, parsed.String(), http.NoBody)
	if err != nil {
		outcome.Error = fmt.Sprintf("build request: %v", err)
		outcome.Duration = time.Since(start)

		return outcome
	}

	p.addBrowserHeaders(req)

	resp, err := p.client.Do(req)
	outcome.Duration = time.Since(start)

	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	defer resp.Body.Close()

	outcome.StatusCode = resp.StatusCode
	outcome.FinalURL = resp.Request.URL.String()

	return outcome
}

// addBrowserHeaders makes the probe look like a page load; several news sites
// answer bare clients with 403.
func (p *HTTPProber) addBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Static answers probes from a fixed table. URLs missing from the table get
// Fallback. Useful for offline runs and tests.
type Static struct {
	Statuses map[string]int
	Fallback int
}

// Probe looks target up in the table.
func (s Static) Probe(_ context.Context, target string) Outcome {
	status, ok := s.Statuses[target]
	if !ok {
		status = s.Fallback
	}

	outcome := Outcome{URL: target, FinalURL: target, StatusCode: status}
	if status == 0 {
		outcome.Error = "no response"
	}

	return outcome
}
