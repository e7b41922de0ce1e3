// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
)

// Limiter decide a admissão de uma requisição dado uma chave e uma regra.
// Rejeições retornam domain.ErrRateExceeded; falhas de store retornam
// erros que envolvem domain.ErrStoreFailure.
type Limiter interface {
	Decide(ctx context.Context, key domain.ClientKey, rule domain.RateLimitRule) (domain.Decision, error)
	Strategy() domain.Strategy
}

// Admitter é o ponto de composição consumido pela camada HTTP.
type Admitter interface {
	Admit(ctx context.Context, req domain.AdmissionRequest) (domain.Decision, error)
}

// DecisionRecorder recebe cada decisão tomada, para métricas.
type DecisionRecorder interface {
	RecordDecision(decision domain.Decision)
}
