// Package bootstrap monta as dependências compartilhadas pelos binários.
package bootstrap

import (
	"fmt"

	"github.com/acronis/go-appkit/log"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/storage/memory"
	redisstorage "github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/storage/redis"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/config"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/services"
)

func NewLogger(cfg config.LogConfig) (log.FieldLogger, log.CloseFunc) {
	logCfg := log.NewDefaultConfig()
	logCfg.Level = log.Level(cfg.Level)
	logCfg.Format = log.Format(cfg.Format)
	return log.NewLogger(logCfg)
}

// NewStorage abre o store configurado. A função de fechamento nunca é nil.
func NewStorage(cfg config.StorageConfig, logger log.FieldLogger) (ports.Storage, func(), error) {
	switch cfg.Type {
	case "redis":
		storage, err := redisstorage.New(redisstorage.Config{
			Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				logger.Error("failed to close redis storage", log.Error(err))
			}
		}, nil
	case "memory":
		logger.Warn("using in-memory storage, limits are not shared between instances")
		return memory.New(), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// NewLimiter instancia a estratégia escolhida para o deployment.
func NewLimiter(strategy domain.Strategy, storage ports.Storage, opts ...services.Option) (ports.Limiter, error) {
	switch strategy {
	case domain.StrategyFixedWindow:
		return services.NewFixedWindowLimiter(storage, opts...)
	case domain.StrategySlidingLog:
		return services.NewSlidingLogLimiter(storage, opts...)
	default:
		return nil, fmt.Errorf("%w: unsupported strategy %q", domain.ErrInvalidRule, strategy)
	}
}

// NewRateLimiterServices cria um serviço de admissão por endpoint configurado.
func NewRateLimiterServices(
	cfg config.RateLimiterConfig, limiter ports.Limiter, overrides *services.OverrideResolver, opts ...services.Option,
) ([]*services.RateLimiterService, error) {
	result := make([]*services.RateLimiterService, 0, len(cfg.Endpoints))
	for _, endpoint := range cfg.Endpoints {
		svc, err := services.NewRateLimiterService(limiter, overrides, services.Config{
			Endpoint:      endpoint.Endpoint,
			Window:        endpoint.Window,
			Limits:        endpoint.Limits,
			FailurePolicy: cfg.FailurePolicy,
		}, opts...)
		if err != nil {
			return nil, err
		}
		result = append(result, svc)
	}
	return result, nil
}
