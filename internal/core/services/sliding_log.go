package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/acronis/go-appkit/log"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

// SlidingLogLimiter mantém, por chave, um log dos timestamps (ms) das últimas
// requisições admitidas e rejeita quando o mais antigo ainda está na janela.
//
// É uma janela deslizante aproximada: apenas o elemento do índice 0 é
// inspecionado, sem podar todos os timestamps anteriores ao início da janela.
// Cada decisão faz no máximo LLEN, LINDEX, RPUSH, LTRIM e EXPIRE.
type SlidingLogLimiter struct {
	storage ports.Storage
	logger  log.FieldLogger
	now     func() time.Time
}

var _ ports.Limiter = (*SlidingLogLimiter)(nil)

func NewSlidingLogLimiter(storage ports.Storage, opts ...Option) (*SlidingLogLimiter, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	o := buildOptions(opts)
	return &SlidingLogLimiter{storage: storage, logger: o.logger, now: o.now}, nil
}

func (l *SlidingLogLimiter) Strategy() domain.Strategy {
	return domain.StrategySlidingLog
}

func (l *SlidingLogLimiter) Decide(ctx context.Context, key domain.ClientKey, rule domain.RateLimitRule) (domain.Decision, error) {
	decision := domain.Decision{Key: key, Strategy: domain.StrategySlidingLog, Limit: rule.Limit}
	storageKey := key.StorageKey(domain.StrategySlidingLog)

	now := l.now().UnixMilli()
	windowStart := now - rule.Window.Milliseconds()

	count, err := l.storage.ListLength(ctx, storageKey)
	if err != nil {
		return storeError(decision, "length", storageKey, err)
	}
	decision.Count = count

	if count >= int64(rule.Limit) {
		raw, found, err := l.storage.ListIndex(ctx, storageKey, 0)
		if err != nil {
			return storeError(decision, "index", storageKey, err)
		}
		if found {
			oldest, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return storeError(decision, "parse oldest timestamp", storageKey, err)
			}
			if oldest >= windowStart {
				decision.Outcome = domain.OutcomeRejected
				l.logger.Debug("sliding log limit exceeded",
					log.String("key", key.String()), log.Int64("count", count), log.Int("limit", rule.Limit))
				return decision, domain.ErrRateExceeded
			}
		}
	}

	if _, err := l.storage.ListPush(ctx, storageKey, strconv.FormatInt(now, 10)); err != nil {
		return storeError(decision, "push", storageKey, err)
	}
	if err := l.storage.ListTrim(ctx, storageKey, int64(rule.Limit)); err != nil {
		return storeError(decision, "trim", storageKey, err)
	}
	if err := l.storage.Expire(ctx, storageKey, rule.Window); err != nil {
		return storeError(decision, "expire", storageKey, err)
	}

	decision.Allowed = true
	decision.Outcome = domain.OutcomeAdmitted
	return decision, nil
}

func storeError(decision domain.Decision, op, key string, err error) (domain.Decision, error) {
	decision.Allowed = false
	decision.Outcome = domain.OutcomeStoreError
	return decision, fmt.Errorf("%w: %s %s: %w", domain.ErrStoreFailure, op, key, err)
}
