package similarity

import (
	"fmt"
	"log/slog"
	"time"

	"promocut/internal/cache"
	"promocut/internal/config"
	"promocut/internal/services"
)

// New builds the Scorer selected by scoring.similarity. store may be nil to disable caching.
func New(cfg *config.Config, store *cache.Store, logger *slog.Logger) (Scorer, error) {
	switch cfg.Scoring.Similarity {
	case "lexical", "":
		var scorer Scorer = Lexical{}
		if store != nil {
			scorer = NewCached(scorer, store, "lexical", logger)
		}
		return scorer, nil
	case "embedding":
		embedder := NewOpenAIEmbedder(OpenAIOptions{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.EmbeddingModel,
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
		return NewEmbedding(embedder, store, cfg.RetryPolicy(), logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "similarity", "new",
			fmt.Sprintf("Unknown similarity backend %q", cfg.Scoring.Similarity), nil)
	}
}
