// Package redis disponibiliza a implementação do storage baseada em Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

// incrementScript incrementa e aplica a expiração apenas na primeira escrita,
// em uma única operação do lado do servidor.
var incrementScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type Storage struct {
	client redis.UniversalClient
}

var _ ports.Storage = (*Storage)(nil)

type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func New(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Storage{client: client}, nil
}

// NewFromClient reaproveita um client já configurado.
func NewFromClient(client redis.UniversalClient) *Storage {
	return &Storage{client: client}
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return incrementScript.Run(ctx, s.client, []string{key}, ttl.Milliseconds()).Int64()
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *Storage) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	// -2: chave inexistente, -1: sem expiração.
	if ttl < 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}

func (s *Storage) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *Storage) ListPush(ctx context.Context, key, value string) (int64, error) {
	return s.client.RPush(ctx, key, value).Result()
}

func (s *Storage) ListLength(ctx context.Context, key string) (int64, error) {
	return s.client.LLen(ctx, key).Result()
}

func (s *Storage) ListIndex(ctx context.Context, key string, index int64) (string, bool, error) {
	value, err := s.client.LIndex(ctx, key, index).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) ListTrim(ctx context.Context, key string, keepLast int64) error {
	if keepLast <= 0 {
		return s.client.Del(ctx, key).Err()
	}
	return s.client.LTrim(ctx, key, -keepLast, -1).Err()
}
