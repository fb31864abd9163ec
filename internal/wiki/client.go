// Package wiki reads and saves article text through the MediaWiki Action API.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// DefaultAPIURL is the English Wikipedia Action API endpoint.
const DefaultAPIURL = "https://en.wikipedia.org/w/api.php"

var (
	// ErrPageMissing is returned when the requested page does not exist.
	ErrPageMissing = errors.New("page does not exist")
	// ErrNoContent is returned when a page has no main-slot revision content.
	ErrNoContent = errors.New("page has no content")
)

// APIError is an error object returned by the API.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: %s: %s", e.Code, e.Info)
}

// Options configures a Client.
type Options struct {
	APIURL    string
	UserAgent string
	Timeout   time.Duration
	// FailureThreshold is the number of consecutive transport failures that
	// opens the circuit breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Client talks to a MediaWiki API endpoint. All requests share one circuit
// breaker so a dead endpoint fails fast instead of stalling every article.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	apiURL  string
}

// NewClient creates a Client with defaults filled in.
func NewClient(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}

	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	if opts.UserAgent != "" {
		httpClient.SetHeader("User-Agent", opts.UserAgent)
	}

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mediawiki",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &Client{
		http:    httpClient,
		breaker: breaker,
		apiURL:  opts.APIURL,
	}
}

type queryResponse struct {
	Error *APIError `json:"error"`
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
		Tokens struct {
			CSRFToken string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type editResponse struct {
	Error *APIError `json:"error"`
	Edit  struct {
		Result   string `json:"result"`
		NoChange bool   `json:"nochange"`
	} `json:"edit"`
}

// FetchText returns the current wikitext of title.
func (c *Client) FetchText(ctx context.Context, title string) (string, error) {
	var out queryResponse

	err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"action":        "query",
				"prop":          "revisions",
				"titles":        title,
				"rvprop":        "content",
				"rvslots":       "main",
				"format":        "json",
				"formatversion": "2",
			}).
			SetResult(&out).
			Get(c.apiURL)
	})
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", title, err)
	}

	if out.Error != nil {
		return "", fmt.Errorf("fetch %q: %w", title, out.Error)
	}

	if len(out.Query.Pages) == 0 {
		return "", fmt.Errorf("fetch %q: %w", title, ErrNoContent)
	}

	page := out.Query.Pages[0]
	if page.Missing || page.Invalid {
		return "", fmt.Errorf("fetch %q: %w", title, ErrPageMissing)
	}

	if len(page.Revisions) == 0 {
		return "", fmt.Errorf("fetch %q: %w", title, ErrNoContent)
	}

	return page.Revisions[0].Slots.Main.Content, nil
}

// SaveText replaces the text of an existing page as a minor bot edit.
func (c *Client) SaveText(ctx context.Context, title, text, summary string) error {
	token, err := c.csrfToken(ctx)
	if err != nil {
		return fmt.Errorf("save %q: %w", title, err)
	}

	var out editResponse

	err = c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"action":        "edit",
				"title":         title,
				"text":          text,
				"summary":       summary,
				"token":         token,
				"bot":           "1",
				"minor":         "1",
				"nocreate":      "1",
				"format":        "json",
				"formatversion": "2",
			}).
			SetResult(&out).
			Post(c.apiURL)
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", title, err)
	}

	if out.Error != nil {
		return fmt.Errorf("save %q: %w", title, out.Error)
	}

	if out.Edit.Result != "Success" {
		return fmt.Errorf("save %q: unexpected edit result %q", title, out.Edit.Result)
	}

	return nil
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	var out queryResponse

	err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"action":        "query",
				"meta":          "tokens",
				"type":          "csrf",
				"format":        "json",
				"formatversion": "2",
			}).
			SetResult(&out).
			Get(c.apiURL)
	})
	if err != nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}

	if out.Error != nil {
		return "", fmt.Errorf("csrf token: %w", out.Error)
	}

	if out.Query.Tokens.CSRFToken == "" {
		return "", errors.New("csrf token: empty token")
	}

	return out.Query.Tokens.CSRFToken, nil
}

// do runs one request through the circuit breaker. Transport errors and
// non-2xx responses count as breaker failures; API error objects do not.
func (c *Client) do(request func() (*resty.Response, error)) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := request()
		if err != nil {
			return nil, err
		}

		if resp.IsError() {
			return nil, fmt.Errorf("http status %s", resp.Status())
		}

		return resp, nil
	})

	return err
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
