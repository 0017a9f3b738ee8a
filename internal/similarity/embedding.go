package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"promocut/internal/cache"
	"promocut/internal/logging"
	"promocut/internal/services"
)

// Embedder turns texts into vectors. The returned slice is parallel to texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// OpenAIOptions configures NewOpenAIEmbedder.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOpenAIEmbedder constructs an embedder. Retries are left to the caller.
func NewOpenAIEmbedder(opts OpenAIOptions) *OpenAIEmbedder {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(opts.BaseURL) != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}
	return &OpenAIEmbedder{client: openai.NewClient(clientOpts...), model: opts.Model}
}

// Model implements Embedder.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "similarity", "embed", "Embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, services.Wrap(services.ErrExternalService, "similarity", "embed",
			fmt.Sprintf("Embedding response returned %d vectors for %d inputs", len(resp.Data), len(texts)), nil)
	}
	out := make([][]float32, len(texts))
	for i, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		out[idx] = vec
	}
	return out, nil
}

// Embedding scores texts by cosine similarity of their embeddings. Vectors
// are memoized in memory and, when a store is provided, persisted.
type Embedding struct {
	embedder Embedder
	store    *cache.Store
	policy   services.RetryPolicy
	logger   *slog.Logger

	mu   sync.Mutex
	memo map[string][]float32
}

// NewEmbedding constructs an embedding-backed Scorer. store may be nil.
func NewEmbedding(embedder Embedder, store *cache.Store, policy services.RetryPolicy, logger *slog.Logger) *Embedding {
	return &Embedding{
		embedder: embedder,
		store:    store,
		policy:   policy,
		logger:   logging.NewComponentLogger(logger, "embedding"),
		memo:     make(map[string][]float32),
	}
}

// Similarity implements Scorer. Negative cosine values clamp to 0.
func (e *Embedding) Similarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := e.vectors(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return Clamp(Cosine(vecs[0], vecs[1])), nil
}

// Prefetch embeds texts in one batch so later Similarity calls hit the memo.
func (e *Embedding) Prefetch(ctx context.Context, texts []string) error {
	_, err := e.vectors(ctx, texts)
	return err
}

func (e *Embedding) vectors(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	missingIdx := map[string][]int{}

	e.mu.Lock()
	for i, text := range texts {
		if vec, ok := e.memo[text]; ok {
			out[i] = vec
			continue
		}
		if _, queued := missingIdx[text]; !queued {
			missing = append(missing, text)
		}
		missingIdx[text] = append(missingIdx[text], i)
	}
	e.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	var toFetch []string
	if e.store != nil {
		for _, text := range missing {
			vec, ok, err := e.store.Embedding(ctx, e.key(text))
			if err != nil {
				e.logger.Debug("embedding cache read failed", logging.Error(err))
			}
			if ok {
				e.remember(text, vec, out, missingIdx)
				continue
			}
			toFetch = append(toFetch, text)
		}
	} else {
		toFetch = missing
	}
	if len(toFetch) == 0 {
		return out, nil
	}

	var fetched [][]float32
	err := services.Retry(ctx, e.policy, func(ctx context.Context) error {
		var embedErr error
		fetched, embedErr = e.embedder.Embed(ctx, toFetch)
		return embedErr
	})
	if err != nil {
		return nil, err
	}
	for i, text := range toFetch {
		e.remember(text, fetched[i], out, missingIdx)
		if e.store != nil {
			if err := e.store.PutEmbedding(ctx, e.key(text), e.embedder.Model(), fetched[i]); err != nil {
				e.logger.Debug("embedding cache write failed", logging.Error(err))
			}
		}
	}
	e.logger.Debug("embeddings fetched", logging.Int("count", len(toFetch)))
	return out, nil
}

func (e *Embedding) remember(text string, vec []float32, out [][]float32, idx map[string][]int) {
	e.mu.Lock()
	e.memo[text] = vec
	e.mu.Unlock()
	for _, i := range idx[text] {
		out[i] = vec
	}
}

func (e *Embedding) key(text string) string {
	return cache.Key("embedding", e.embedder.Model(), text)
}
