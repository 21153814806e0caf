// Package memory implements the rjq store contract fully in memory.
// It is intended for unit tests and development, not production use.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rjq-io/rjq"
)

// listBuffer bounds how many values a list holds before Push fails.
const listBuffer = 1024

// Store is an in-memory rjq.Store. Keyed values carry their expiry and are
// reaped lazily on read; lists are buffered channels, so a blocking pop is
// a real blocking wait and concurrent poppers each receive a value at most
// once, matching the dispatch-list delivery guarantee.
type Store struct {
	mu     sync.Mutex
	values map[string]entry
	lists  map[string]chan string
	closed bool
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

var _ rjq.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		values: make(map[string]entry),
		lists:  make(map[string]chan string),
	}
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rjq.ErrStoreClosed
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.values[key] = e
	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", rjq.ErrStoreClosed
	}
	e, ok := s.values[key]
	if !ok {
		return "", rjq.ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.values, key)
		return "", rjq.ErrNotFound
	}
	return e.value, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rjq.ErrStoreClosed
	}
	delete(s.values, key)
	return nil
}

func (s *Store) Push(_ context.Context, list, value string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return rjq.ErrStoreClosed
	}
	ch := s.list(list)
	s.mu.Unlock()

	select {
	case ch <- value:
		return nil
	default:
		return fmt.Errorf("memory: list %s full", list)
	}
}

func (s *Store) BlockingPop(ctx context.Context, list string, wait time.Duration) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", rjq.ErrStoreClosed
	}
	ch := s.list(list)
	s.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v, nil
	case <-timer.C:
		return "", rjq.ErrNotFound
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) DropPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rjq.ErrStoreClosed
	}
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			delete(s.values, k)
		}
	}
	for k := range s.lists {
		if strings.HasPrefix(k, prefix) {
			delete(s.lists, k)
		}
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rjq.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// list returns the channel backing the named list, creating it on first
// use. Callers must hold mu.
func (s *Store) list(key string) chan string {
	ch, ok := s.lists[key]
	if !ok {
		ch = make(chan string, listBuffer)
		s.lists[key] = ch
	}
	return ch
}
