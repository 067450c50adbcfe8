// Package colpali is the HTTP client for the visual embedding service. The
// service wraps a ColPali-family model: each page image (or text query) is
// embedded as a variable-length set of 128-float patch vectors.
package colpali

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/metrics"
	"github.com/pagesight/pagesight/internal/retry"
)

// Task selects the embedding mode of the service.
type Task string

const (
	// TaskImage embeds page images.
	TaskImage Task = "image"
	// TaskQuery embeds a text query.
	TaskQuery Task = "query"
)

// Config holds the embedding client settings.
type Config struct {
	URL          string
	Token        string
	BatchSize    int
	BatchDelay   time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Client calls the embedding service with batching, pacing, and bounded
// retries for transport failures.
type Client struct {
	url        string
	token      string
	batchSize  int
	batchDelay time.Duration
	policy     retry.Policy
	httpClient *http.Client
	logger     *zap.Logger
	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an embedding client.
func New(cfg Config) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		url:        cfg.URL,
		token:      cfg.Token,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		policy: retry.Policy{
			MaxAttempts: uint64(cfg.MaxAttempts),
			Delay:       cfg.RetryBackoff,
			// A non-2xx application response is a hard failure; only
			// transport-level errors are worth another attempt.
			Retryable: retry.IsTransport,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
		sleep:      sleepCtx,
	}
}

// EmbedImages embeds base64-encoded page images in input order. Images are
// sent in fixed-size batches, sequentially, with a pacing delay between
// batches so the service's throughput limit is respected.
func (c *Client) EmbedImages(ctx context.Context, images []string) ([]domain.VectorSet, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to embed: %w", domain.ErrValidation)
	}

	sets := make([]domain.VectorSet, 0, len(images))
	batches := (len(images) + c.batchSize - 1) / c.batchSize

	for i := 0; i < len(images); i += c.batchSize {
		end := i + c.batchSize
		if end > len(images) {
			end = len(images)
		}
		batch := images[i:end]
		metrics.EmbeddingBatchSize.Observe(float64(len(batch)))

		batchSets, err := c.call(ctx, TaskImage, batch)
		if err != nil {
			return nil, err
		}
		if len(batchSets) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: sent %d images, got %d embeddings: %w",
				len(batch), len(batchSets), domain.ErrEmbeddingFailed)
		}
		sets = append(sets, batchSets...)

		c.logger.Info("embedded image batch",
			zap.Int("batch", i/c.batchSize+1), zap.Int("batches", batches))

		if end < len(images) {
			if err := c.sleep(ctx, c.batchDelay); err != nil {
				return nil, err
			}
		}
	}

	return sets, nil
}

// EmbedQuery embeds a text query, returning its multi-vector representation.
// The vector count depends on the query's token length.
func (c *Client) EmbedQuery(ctx context.Context, query string) (domain.VectorSet, error) {
	sets, err := c.call(ctx, TaskQuery, []string{query})
	if err != nil {
		return nil, err
	}
	if len(sets) != 1 {
		return nil, fmt.Errorf("expected one query embedding, got %d: %w", len(sets), domain.ErrEmbeddingFailed)
	}
	return sets[0], nil
}

// EmbedImageQuery embeds a base64 image as a query.
func (c *Client) EmbedImageQuery(ctx context.Context, imageB64 string) (domain.VectorSet, error) {
	sets, err := c.call(ctx, TaskImage, []string{imageB64})
	if err != nil {
		return nil, err
	}
	if len(sets) != 1 {
		return nil, fmt.Errorf("expected one query embedding, got %d: %w", len(sets), domain.ErrEmbeddingFailed)
	}
	return sets[0], nil
}

type embedRequest struct {
	Input embedInput `json:"input"`
}

type embedInput struct {
	Task      Task     `json:"task"`
	InputData []string `json:"input_data"`
}

type embedResponse struct {
	Output struct {
		Data []struct {
			Embedding [][]float32 `json:"embedding"`
			Index     int         `json:"index"`
			Object    string      `json:"object"`
		} `json:"data"`
	} `json:"output"`
}

// call performs one embedding request under the retry policy and validates
// the response shape.
func (c *Client) call(ctx context.Context, task Task, inputs []string) ([]domain.VectorSet, error) {
	body, err := json.Marshal(embedRequest{Input: embedInput{Task: task, InputData: inputs}})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	var sets []domain.VectorSet
	start := time.Now()

	err = c.policy.Do(ctx, func() error {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if rerr != nil {
			return fmt.Errorf("build embedding request: %w", rerr)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, derr := c.httpClient.Do(req)
		if derr != nil {
			return fmt.Errorf("embedding request: %w", derr)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("embedding service status %d: %s: %w",
				resp.StatusCode, bytes.TrimSpace(detail), domain.ErrEmbeddingFailed)
		}

		var parsed embedResponse
		if jerr := json.NewDecoder(resp.Body).Decode(&parsed); jerr != nil {
			return fmt.Errorf("decode embedding response: %w: %w", domain.ErrEmbeddingFailed, jerr)
		}

		// The service indexes each embedding by input position; place by
		// index rather than trusting arrival order.
		sets = make([]domain.VectorSet, len(parsed.Output.Data))
		for _, item := range parsed.Output.Data {
			if item.Index < 0 || item.Index >= len(sets) {
				return fmt.Errorf("embedding index %d out of range: %w", item.Index, domain.ErrEmbeddingFailed)
			}
			if sets[item.Index] != nil {
				return fmt.Errorf("duplicate embedding index %d: %w", item.Index, domain.ErrEmbeddingFailed)
			}
			set := domain.VectorSet(item.Embedding)
			if verr := set.Validate(); verr != nil {
				return fmt.Errorf("embedding %d: %w", item.Index, verr)
			}
			sets[item.Index] = set
		}
		return nil
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(string(task), status).Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(string(task)).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return sets, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
