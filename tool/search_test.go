package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duckDuckGoPage = `<html><body>
<div class="result results_links web-result">
  <h2 class="result__title"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fpoyang&amp;rut=x">鄱阳湖 - 百科</a></h2>
  <a class="result__snippet">中国第一大淡水湖。</a>
</div>
<div class="result"><a class="result__a" href="https://example.org/dongting">洞庭湖</a>
  <div class="result__snippet">位于湖南北部。</div>
</div>
<div class="result"><a class="result__a" href="https://example.org/taihu">太湖</a></div>
</body></html>`

func TestDuckDuckGoSearch_Call(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("q")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(duckDuckGoPage))
	}))
	defer srv.Close()

	search := NewDuckDuckGoSearch(WithDuckDuckGoBaseURL(srv.URL), WithDuckDuckGoMaxResults(2))
	assert.Equal(t, "DuckDuckGo_Search", search.Name())
	assert.NotEmpty(t, search.Description())

	out, err := search.Call(context.Background(), "鄱阳湖")
	require.NoError(t, err)
	assert.Equal(t, "鄱阳湖", gotQuery)
	assert.Contains(t, out, "1. Title: 鄱阳湖 - 百科\nURL: https://example.org/poyang\nDescription: 中国第一大淡水湖。")
	assert.Contains(t, out, "2. Title: 洞庭湖")
	assert.NotContains(t, out, "太湖")
}

func TestDuckDuckGoSearch_NoResultsAndErrors(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))
	defer empty.Close()

	out, err := NewDuckDuckGoSearch(WithDuckDuckGoBaseURL(empty.URL)).Call(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, NoResults, out)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer failing.Close()

	_, err = NewDuckDuckGoSearch(WithDuckDuckGoBaseURL(failing.URL)).Call(context.Background(), "x")
	assert.ErrorIs(t, err, ErrSearch)
	assert.Contains(t, err.Error(), "429")
}

func TestBraveSearch(t *testing.T) {
	// Mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "洞庭湖", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"web":{"results":[{"title":"洞庭湖","url":"https://example.org/d","description":"湖南"}]}}`))
	}))
	defer server.Close()

	b, err := NewBraveSearch("test-key", WithBraveBaseURL(server.URL), WithBraveCount(3))
	require.NoError(t, err)
	assert.Equal(t, "Brave_Search", b.Name())

	out, err := b.Call(context.Background(), "洞庭湖")
	require.NoError(t, err)
	assert.Equal(t, "1. Title: 洞庭湖\nURL: https://example.org/d\nDescription: 湖南\n\n", out)
}

func TestBraveSearch_Options(t *testing.T) {
	t.Setenv("BRAVE_API_KEY", "")
	_, err := NewBraveSearch("")
	assert.Error(t, err)

	t.Setenv("BRAVE_API_KEY", "env-key")
	b, err := NewBraveSearch("", WithBraveCount(50), WithBraveLang("en"), WithBraveCountry("US"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", b.APIKey)
	assert.Equal(t, 20, b.Count)
	assert.Equal(t, "en", b.Lang)
	assert.Equal(t, "US", b.Country)

	b, err = NewBraveSearch("k", WithBraveCount(0))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count)
}

func TestBraveSearch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	b, err := NewBraveSearch("k", WithBraveBaseURL(server.URL))
	require.NoError(t, err)
	_, err = b.Call(context.Background(), "q")
	assert.ErrorIs(t, err, ErrSearch)
}
