package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(url string, maxRetries int) *Embedder {
	cfg := &config.EmbeddingConfig{
		BaseURL:       url,
		Model:         "text-embedding-3-small",
		APIKey:        "k",
		Timeout:       time.Second,
		MaxTokens:     512,
		QueryPrefix:   "query: ",
		PassagePrefix: "passage: ",
	}
	return NewEmbedder(cfg, retry.NewRetrier(&retry.Config{
		MaxRetries:    maxRetries,
		BackoffFactor: 1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
	}))
}

func TestEmbedder_EncodeQueryUsesPrefix(t *testing.T) {
	var got embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer server.Close()

	vec, err := newTestEmbedder(server.URL, 0).Embed(context.Background(), "learn python")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"query: learn python"}, got.Input)
	assert.Equal(t, "text-embedding-3-small", got.Model)
}

func TestEmbedder_EncodePassagesOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"passage: Biology", "passage: Python"}, req.Input)
		w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	vecs, err := newTestEmbedder(server.URL, 0).EncodePassages(context.Background(), []string{"Biology", "Python"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbedder_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL, 2).Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedder_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL, 3).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrProviderUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedder_UnavailableAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL, 1).Embed(context.Background(), "x")
	assert.True(t, errors.Is(err, core.ErrProviderUnavailable))
}
