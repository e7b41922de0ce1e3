// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"
)

// Storage é o store compartilhado de contadores e logs. Implementações devem
// ser seguras para uso concorrente.
type Storage interface {
	// IncrementWithExpiry incrementa a chave atomicamente e aplica ttl quando o
	// valor resultante é 1.
	IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
	// TTL retorna o tempo restante da chave; found=false se a chave não existe
	// ou não tem expiração.
	TTL(ctx context.Context, key string) (ttl time.Duration, found bool, err error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	ListPush(ctx context.Context, key, value string) (int64, error)
	ListLength(ctx context.Context, key string) (int64, error)
	ListIndex(ctx context.Context, key string, index int64) (value string, found bool, err error)
	// ListTrim mantém apenas os últimos keepLast elementos.
	ListTrim(ctx context.Context, key string, keepLast int64) error
}
