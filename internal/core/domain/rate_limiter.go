// Package domain concentra entidades e estruturas centrais do rate limiter.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Strategy identifica o algoritmo de limitação usado em um deployment.
type Strategy string

const (
	StrategyFixedWindow Strategy = "fixed-window"
	StrategySlidingLog  Strategy = "sliding-log"
)

// ParseStrategy converte o valor de configuração em Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyFixedWindow:
		return StrategyFixedWindow, nil
	case StrategySlidingLog:
		return StrategySlidingLog, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidRule, value)
	}
}

type Role int

const (
	RoleUnauthenticated Role = iota
	RoleAuthenticated
)

func (r Role) String() string {
	if r == RoleAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// ClientKey identifica o bucket de rate limiting de um cliente em um endpoint.
type ClientKey struct {
	Endpoint string
	Client   string
}

func (k ClientKey) String() string {
	return k.Endpoint + "/" + k.Client
}

// StorageKey renderiza a chave usada no store compartilhado. O segmento da
// estratégia impede que contador e log disputem a mesma chave.
func (k ClientKey) StorageKey(strategy Strategy) string {
	return fmt.Sprintf("ratelimit:%s:%s", strategy, k.String())
}

// RateLimitRule descreve a janela e o teto de requisições. Imutável após a construção.
type RateLimitRule struct {
	Endpoint string
	Window   time.Duration
	Limit    int
}

// NewRateLimitRule valida e constrói uma regra.
func NewRateLimitRule(endpoint string, window time.Duration, limit int) (RateLimitRule, error) {
	rule := RateLimitRule{Endpoint: endpoint, Window: window, Limit: limit}
	if err := rule.Validate(); err != nil {
		return RateLimitRule{}, err
	}
	return rule, nil
}

func (r RateLimitRule) Validate() error {
	if r.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidRule, r.Limit)
	}
	if r.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidRule, r.Window)
	}
	return nil
}

// WithLimit devolve uma cópia da regra com outro teto.
func (r RateLimitRule) WithLimit(limit int) RateLimitRule {
	r.Limit = limit
	return r
}

// RoleLimits agrupa os tetos padrão por papel do cliente.
type RoleLimits struct {
	Authenticated   int
	Unauthenticated int
}

func (l RoleLimits) For(role Role) int {
	if role == RoleAuthenticated {
		return l.Authenticated
	}
	return l.Unauthenticated
}

func (l RoleLimits) Validate() error {
	if l.Authenticated <= 0 || l.Unauthenticated <= 0 {
		return fmt.Errorf("%w: role limits must be positive, got authenticated=%d unauthenticated=%d",
			ErrInvalidRule, l.Authenticated, l.Unauthenticated)
	}
	return nil
}

// FailurePolicy define o comportamento quando o store falha.
type FailurePolicy string

const (
	FailClosed FailurePolicy = "closed"
	FailOpen   FailurePolicy = "open"
)

func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case FailClosed:
		return FailClosed, nil
	case FailOpen:
		return FailOpen, nil
	default:
		return "", fmt.Errorf("%w: unknown failure policy %q", ErrInvalidRule, value)
	}
}

type Outcome int

const (
	OutcomeAdmitted Outcome = iota
	OutcomeRejected
	OutcomeStoreError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdmitted:
		return "admitted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "store_error"
	}
}

// LimitSource indica de onde veio o teto aplicado.
type LimitSource string

const (
	LimitSourceDefault  LimitSource = "default"
	LimitSourceOverride LimitSource = "override"
)

type AdmissionRequest struct {
	Client string
	Role   Role
}

type Decision struct {
	Allowed     bool
	Outcome     Outcome
	Key         ClientKey
	Strategy    Strategy
	Limit       int
	LimitSource LimitSource
	// Count é o valor observado no store: contador pós-incremento (fixed window)
	// ou tamanho do log antes da inserção (sliding log).
	Count int64
}

// Remaining estima quantas requisições ainda cabem na janela.
func (d Decision) Remaining() int {
	used := d.Count
	if d.Strategy == StrategySlidingLog && d.Allowed {
		used++
	}
	remaining := int64(d.Limit) - used
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}
