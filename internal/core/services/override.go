package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acronis/go-appkit/log"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

const overrideKeyPrefix = "override:"

// OverrideStatus descreve um override ativo.
type OverrideStatus struct {
	Client    string
	Limit     int
	ExpiresIn time.Duration
}

// OverrideResolver lê e grava limites temporários por cliente. Ele só escolhe
// qual teto é comparado; nunca toca contadores nem logs.
type OverrideResolver struct {
	storage ports.Storage
	logger  log.FieldLogger
}

func NewOverrideResolver(storage ports.Storage, opts ...Option) (*OverrideResolver, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	o := buildOptions(opts)
	return &OverrideResolver{storage: storage, logger: o.logger}, nil
}

// Resolve busca o override do cliente. Valores malformados ou não positivos são
// ignorados como se não existissem.
func (r *OverrideResolver) Resolve(ctx context.Context, client string) (int, bool, error) {
	key := overrideKey(client)
	raw, found, err := r.storage.Get(ctx, key)
	if err != nil {
		return 0, false, fmt.Errorf("%w: get %s: %w", domain.ErrStoreFailure, key, err)
	}
	if !found {
		return 0, false, nil
	}

	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		r.logger.Warn("ignoring malformed rate limit override",
			log.String("client", client), log.String("value", raw))
		return 0, false, nil
	}
	return limit, true, nil
}

// SetTemporaryRateLimit grava um teto para o cliente que expira após duration.
func (r *OverrideResolver) SetTemporaryRateLimit(ctx context.Context, client string, limit int, duration time.Duration) error {
	if strings.TrimSpace(client) == "" {
		return fmt.Errorf("%w: client address is required", domain.ErrInvalidRule)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: override limit must be positive, got %d", domain.ErrInvalidRule, limit)
	}
	if duration < time.Second {
		return fmt.Errorf("%w: override duration must be at least 1s, got %s", domain.ErrInvalidRule, duration)
	}

	key := overrideKey(client)
	if err := r.storage.SetWithExpiry(ctx, key, strconv.Itoa(limit), duration); err != nil {
		return fmt.Errorf("%w: set %s: %w", domain.ErrStoreFailure, key, err)
	}
	r.logger.Info("rate limit override set",
		log.String("client", client), log.Int("limit", limit), log.Duration("duration", duration))
	return nil
}

// Lookup devolve o override ativo junto com o tempo restante.
func (r *OverrideResolver) Lookup(ctx context.Context, client string) (OverrideStatus, bool, error) {
	limit, found, err := r.Resolve(ctx, client)
	if err != nil || !found {
		return OverrideStatus{}, false, err
	}

	key := overrideKey(client)
	ttl, _, err := r.storage.TTL(ctx, key)
	if err != nil {
		return OverrideStatus{}, false, fmt.Errorf("%w: ttl %s: %w", domain.ErrStoreFailure, key, err)
	}
	return OverrideStatus{Client: client, Limit: limit, ExpiresIn: ttl}, true, nil
}

func overrideKey(client string) string {
	return overrideKeyPrefix + strings.TrimSpace(client)
}
