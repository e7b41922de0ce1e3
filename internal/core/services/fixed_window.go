package services

import (
	"context"
	"fmt"

	"github.com/acronis/go-appkit/log"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

// FixedWindowLimiter conta requisições por chave em um contador que expira ao
// fim da janela.
type FixedWindowLimiter struct {
	storage ports.Storage
	logger  log.FieldLogger
}

var _ ports.Limiter = (*FixedWindowLimiter)(nil)

func NewFixedWindowLimiter(storage ports.Storage, opts ...Option) (*FixedWindowLimiter, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	o := buildOptions(opts)
	return &FixedWindowLimiter{storage: storage, logger: o.logger}, nil
}

func (l *FixedWindowLimiter) Strategy() domain.Strategy {
	return domain.StrategyFixedWindow
}

func (l *FixedWindowLimiter) Decide(ctx context.Context, key domain.ClientKey, rule domain.RateLimitRule) (domain.Decision, error) {
	decision := domain.Decision{Key: key, Strategy: domain.StrategyFixedWindow, Limit: rule.Limit}

	storageKey := key.StorageKey(domain.StrategyFixedWindow)
	count, err := l.storage.IncrementWithExpiry(ctx, storageKey, rule.Window)
	if err != nil {
		return storeError(decision, "increment", storageKey, err)
	}
	decision.Count = count

	if count > int64(rule.Limit) {
		decision.Outcome = domain.OutcomeRejected
		l.logger.Debug("fixed window limit exceeded",
			log.String("key", key.String()), log.Int64("count", count), log.Int("limit", rule.Limit))
		return decision, domain.ErrRateExceeded
	}

	decision.Allowed = true
	decision.Outcome = domain.OutcomeAdmitted
	return decision, nil
}
