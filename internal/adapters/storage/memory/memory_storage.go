// Package memory disponibiliza uma implementação em memória do storage, para
// testes e execuções de um único nó.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

type entry struct {
	value     string
	list      []string
	isList    bool
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Storage guarda strings e listas com expiração. Todas as operações são
// serializadas por um único mutex.
type Storage struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

var _ ports.Storage = (*Storage)(nil)

type Option func(*Storage)

// WithClock substitui time.Now para controlar a expiração em testes.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) { s.now = now }
}

func New(opts ...Option) *Storage {
	s := &Storage{entries: make(map[string]*entry), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) Close() error {
	return nil
}

// Flush remove todas as chaves.
func (s *Storage) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// lookup deve ser chamado com o mutex adquirido.
func (s *Storage) lookup(key string) *entry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil
	}
	return e
}

func (s *Storage) IncrementWithExpiry(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		e = &entry{value: "0"}
		s.entries[key] = e
	}
	if e.isList {
		return 0, fmt.Errorf("key %s holds a list", key)
	}
	current, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("key %s is not an integer: %w", key, err)
	}
	current++
	e.value = strconv.FormatInt(current, 10)
	if current == 1 && ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	return current, nil
}

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return "", false, nil
	}
	if e.isList {
		return "", false, fmt.Errorf("key %s holds a list", key)
	}
	return e.value, true, nil
}

func (s *Storage) SetWithExpiry(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *Storage) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil || e.expiresAt.IsZero() {
		return 0, false, nil
	}
	return e.expiresAt.Sub(s.now()), true, nil
}

func (s *Storage) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return nil
	}
	if ttl <= 0 {
		delete(s.entries, key)
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	return nil
}

func (s *Storage) ListPush(_ context.Context, key, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.listEntry(key, true)
	if err != nil {
		return 0, err
	}
	e.list = append(e.list, value)
	return int64(len(e.list)), nil
}

func (s *Storage) ListLength(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.listEntry(key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.list)), nil
}

func (s *Storage) ListIndex(_ context.Context, key string, index int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.listEntry(key, false)
	if err != nil || e == nil {
		return "", false, err
	}
	n := int64(len(e.list))
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return "", false, nil
	}
	return e.list[index], true, nil
}

func (s *Storage) ListTrim(_ context.Context, key string, keepLast int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.listEntry(key, false)
	if err != nil || e == nil {
		return err
	}
	if keepLast <= 0 {
		delete(s.entries, key)
		return nil
	}
	if n := int64(len(e.list)); n > keepLast {
		e.list = append([]string(nil), e.list[n-keepLast:]...)
	}
	return nil
}

// listEntry deve ser chamado com o mutex adquirido.
func (s *Storage) listEntry(key string, create bool) (*entry, error) {
	e := s.lookup(key)
	if e == nil {
		if !create {
			return nil, nil
		}
		e = &entry{isList: true}
		s.entries[key] = e
		return e, nil
	}
	if !e.isList {
		return nil, fmt.Errorf("key %s does not hold a list", key)
	}
	return e, nil
}
