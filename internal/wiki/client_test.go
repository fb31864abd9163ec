package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func TestClient_FetchText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "revisions", q.Get("prop"))
		assert.Equal(t, "ampclean-test", r.Header.Get("User-Agent"))

		switch q.Get("titles") {
		case "Present":
			writeJSON(w, `{"query":{"pages":[{"title":"Present","revisions":[{"slots":{"main":{"content":"Hello <ref>x</ref>"}}}]}]}}`)
		case "Absent":
			writeJSON(w, `{"query":{"pages":[{"title":"Absent","missing":true}]}}`)
		default:
			writeJSON(w, `{"error":{"code":"badvalue","info":"bad title"}}`)
		}
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL, UserAgent: "ampclean-test"})

	text, err := client.FetchText(context.Background(), "Present")
	require.NoError(t, err)
	assert.Equal(t, "Hello <ref>x</ref>", text)

	_, err = client.FetchText(context.Background(), "Absent")
	assert.ErrorIs(t, err, ErrPageMissing)

	_, err = client.FetchText(context.Background(), "???")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "badvalue", apiErr.Code)
}

func TestClient_SaveText(t *testing.T) {
	var saved map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			assert.Equal(t, "tokens", r.URL.Query().Get("meta"))
			writeJSON(w, `{"query":{"tokens":{"csrftoken":"abc+\\"}}}`)
			return
		}

		assert.NoError(t, r.ParseForm())

		saved = map[string]string{
			"action":  r.PostForm.Get("action"),
			"title":   r.PostForm.Get("title"),
			"text":    r.PostForm.Get("text"),
			"summary": r.PostForm.Get("summary"),
			"token":   r.PostForm.Get("token"),
			"bot":     r.PostForm.Get("bot"),
		}

		writeJSON(w, `{"edit":{"result":"Success"}}`)
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL})

	err := client.SaveText(context.Background(), "Page", "new text", "removed AMP tracking from URLs")
	require.NoError(t, err)

	assert.Equal(t, "edit", saved["action"])
	assert.Equal(t, "Page", saved["title"])
	assert.Equal(t, "new text", saved["text"])
	assert.Equal(t, "removed AMP tracking from URLs", saved["summary"])
	assert.Equal(t, `abc+\`, saved["token"])
	assert.Equal(t, "1", saved["bot"])
}

func TestClient_SaveText_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, `{"query":{"tokens":{"csrftoken":"tok"}}}`)
			return
		}

		writeJSON(w, `{"error":{"code":"protectedpage","info":"This page has been protected"}}`)
	}))
	defer server.Close()

	err := NewClient(Options{APIURL: server.URL}).SaveText(context.Background(), "Page", "t", "s")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "protectedpage", apiErr.Code)
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Options{
		APIURL:           server.URL,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 2; i++ {
		_, err := client.FetchText(context.Background(), "Page")
		require.Error(t, err)
	}

	assert.Equal(t, "open", client.BreakerState())

	_, err := client.FetchText(context.Background(), "Page")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls, "open breaker must not reach the server")
}
