// Package memory provides an in-memory history store for tests and
// single-process embedding.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/invoke/history"
)

// Compile-time interface check.
var _ history.Store = (*Store)(nil)

// Store keeps records in an append-ordered slice guarded by a mutex.
type Store struct {
	mu      sync.Mutex
	records []*history.Record
	closed  bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Append implements history.Store.
func (s *Store) Append(_ context.Context, r *history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return history.ErrClosed
	}
	cp := *r
	s.records = append(s.records, &cp)
	return nil
}

// List implements history.Store. Records are returned newest first.
func (s *Store) List(_ context.Context, f history.Filter) ([]*history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, history.ErrClosed
	}

	var out []*history.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if f.Command != "" && r.Command != f.Command {
			continue
		}
		if f.Action != "" && r.Action != f.Action {
			continue
		}
		cp := *r
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Purge implements history.Store.
func (s *Store) Purge(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, history.ErrClosed
	}

	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if r.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// Close implements history.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	return nil
}
