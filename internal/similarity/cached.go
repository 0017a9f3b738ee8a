package similarity

import (
	"context"
	"log/slog"

	"promocut/internal/cache"
	"promocut/internal/logging"
)

// Cached memoizes another Scorer's results in a cache store.
type Cached struct {
	next    Scorer
	store   *cache.Store
	backend string
	logger  *slog.Logger
}

// NewCached wraps next. backend namespaces keys so lexical and embedding
// scores for the same pair never collide.
func NewCached(next Scorer, store *cache.Store, backend string, logger *slog.Logger) *Cached {
	return &Cached{next: next, store: store, backend: backend, logger: logging.NewComponentLogger(logger, "similarity-cache")}
}

// Similarity implements Scorer. Cache failures fall through to the wrapped scorer.
func (c *Cached) Similarity(ctx context.Context, a, b string) (float64, error) {
	key := cache.Key(c.backend, a, b)
	if score, ok, err := c.store.Score(ctx, key); err != nil {
		c.logger.Debug("score cache read failed", logging.Error(err))
	} else if ok {
		return score, nil
	}
	score, err := c.next.Similarity(ctx, a, b)
	if err != nil {
		return 0, err
	}
	if err := c.store.PutScore(ctx, key, c.backend, score); err != nil {
		c.logger.Debug("score cache write failed", logging.Error(err))
	}
	return score, nil
}
