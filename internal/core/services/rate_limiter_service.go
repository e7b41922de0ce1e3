package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-appkit/log"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

// Config agrega os limites de um endpoint utilizados pelo serviço de rate limiting.
type Config struct {
	Endpoint      string
	Window        time.Duration
	Limits        domain.RoleLimits
	FailurePolicy domain.FailurePolicy
}

// RateLimiterService compõe o resolver de overrides e uma estratégia de limitação
// para decidir a admissão de cada requisição de um endpoint.
type RateLimiterService struct {
	limiter   ports.Limiter
	overrides *OverrideResolver
	config    Config
	logger    log.FieldLogger
	recorder  ports.DecisionRecorder
}

var _ ports.Admitter = (*RateLimiterService)(nil)

// NewRateLimiterService cria uma nova instância do serviço. overrides pode ser nil.
func NewRateLimiterService(limiter ports.Limiter, overrides *OverrideResolver, cfg Config, opts ...Option) (*RateLimiterService, error) {
	if limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", domain.ErrInvalidRule)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive for endpoint %s", domain.ErrInvalidRule, cfg.Endpoint)
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", cfg.Endpoint, err)
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = domain.FailClosed
	}
	if _, err := domain.ParseFailurePolicy(string(cfg.FailurePolicy)); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return &RateLimiterService{
		limiter:   limiter,
		overrides: overrides,
		config:    cfg,
		logger:    o.logger.With(log.String("endpoint", cfg.Endpoint), log.String("strategy", string(limiter.Strategy()))),
		recorder:  o.recorder,
	}, nil
}

func (s *RateLimiterService) Endpoint() string {
	return s.config.Endpoint
}

func (s *RateLimiterService) Strategy() domain.Strategy {
	return s.limiter.Strategy()
}

// Admit avalia se a requisição pode prosseguir. Retorna domain.ErrRateExceeded
// quando rejeitada e um erro com domain.ErrStoreFailure quando o store falha e
// a política é fail-closed.
func (s *RateLimiterService) Admit(ctx context.Context, req domain.AdmissionRequest) (domain.Decision, error) {
	key := domain.ClientKey{Endpoint: s.config.Endpoint, Client: strings.TrimSpace(req.Client)}
	if key.Client == "" {
		return domain.Decision{}, fmt.Errorf("client address is required")
	}

	limit, source, err := s.resolveLimit(ctx, key.Client, req.Role)
	if err != nil {
		if s.config.FailurePolicy != domain.FailOpen {
			decision := domain.Decision{Key: key, Strategy: s.limiter.Strategy(), Outcome: domain.OutcomeStoreError}
			return s.finish(decision, err)
		}
		// Sem o override, o teto padrão do papel continua sendo aplicado.
		s.logger.Warn("rate limit override lookup failed, using role default",
			log.String("key", key.String()), log.Error(err))
		limit, source = s.config.Limits.For(req.Role), domain.LimitSourceDefault
	}

	rule := domain.RateLimitRule{Endpoint: s.config.Endpoint, Window: s.config.Window, Limit: limit}
	decision, err := s.limiter.Decide(ctx, key, rule)
	decision.LimitSource = source
	return s.finish(decision, err)
}

func (s *RateLimiterService) resolveLimit(ctx context.Context, client string, role domain.Role) (int, domain.LimitSource, error) {
	if s.overrides != nil {
		override, found, err := s.overrides.Resolve(ctx, client)
		if err != nil {
			return 0, "", err
		}
		if found {
			return override, domain.LimitSourceOverride, nil
		}
	}
	return s.config.Limits.For(role), domain.LimitSourceDefault, nil
}

func (s *RateLimiterService) finish(decision domain.Decision, err error) (domain.Decision, error) {
	if err != nil && domain.IsStoreFailure(err) {
		if s.config.FailurePolicy == domain.FailOpen {
			s.logger.Warn("rate limit store failure, admitting request", log.String("key", decision.Key.String()), log.Error(err))
			s.record(decision)
			decision.Allowed = true
			decision.Outcome = domain.OutcomeAdmitted
			return decision, nil
		}
		s.logger.Error("rate limit store failure, rejecting request", log.String("key", decision.Key.String()), log.Error(err))
	}
	s.record(decision)
	return decision, err
}

func (s *RateLimiterService) record(decision domain.Decision) {
	if s.recorder != nil {
		s.recorder.RecordDecision(decision)
	}
}
