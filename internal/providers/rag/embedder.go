package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sandevgo/vrmentor/pkg/retry"
	"github.com/sandevgo/vrmentor/pkg/tokens"
)

// maxBatch bounds inputs per /v1/embeddings request.
const maxBatch = 64

// Embedder calls an OpenAI-compatible /v1/embeddings endpoint.
type Embedder struct {
	client  *http.Client
	cfg     config.EmbeddingConfig
	retrier *retry.Retrier
}

func NewEmbedder(cfg *config.EmbeddingConfig, retrier *retry.Retrier) *Embedder {
	if retrier == nil {
		retrier = retry.NewRetrier(retry.NewReadConfig(2))
	}
	return &Embedder{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     *cfg,
		retrier: retrier,
	}
}

func (e *Embedder) GetModelName() string {
	return e.cfg.Model
}

// Embed implements core.Embedder for search queries.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EncodeQuery(ctx, text)
}

func (e *Embedder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{e.cfg.QueryPrefix + text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{e.cfg.PassagePrefix + text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) EncodePassages(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		batch := make([]string, 0, end-start)
		for _, t := range texts[start:end] {
			batch = append(batch, e.cfg.PassagePrefix+t)
		}

		vecs, err := e.embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	for i, in := range inputs {
		inputs[i] = tokens.Truncate(in, e.cfg.MaxTokens)
	}

	body, err := json.Marshal(embeddingRequest{Model: e.cfg.Model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var vecs [][]float32
	err = e.retrier.Do(ctx, func() error {
		out, err := e.post(ctx, body, len(inputs))
		if err != nil && !errors.Is(err, core.ErrProviderUnavailable) {
			return retry.Permanent(err)
		}
		if err != nil {
			log.FromCtx(ctx).Debug().Err(err).Msg("embedding request failed, retrying")
		}
		vecs = out
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vecs, nil
}

func (e *Embedder) post(ctx context.Context, body []byte, want int) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.AppUserAgent)
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %v: %w", err, core.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, core.ErrProviderUnavailable)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("http %d: %s: %w", resp.StatusCode, string(data), core.ErrProviderUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var result embeddingResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(result.Data) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(result.Data))
	}

	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })

	vecs := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", d.Index)
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
