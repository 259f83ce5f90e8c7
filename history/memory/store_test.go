package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/invoke/history"
	"github.com/xraph/invoke/history/memory"
	"github.com/xraph/invoke/id"
)

func newRecord(action, command string, at time.Time) *history.Record {
	return &history.Record{
		ID:        id.NewRecordID(),
		Action:    action,
		Command:   command,
		Group:     "INVOKE",
		Outcome:   "success",
		Severity:  "info",
		CreatedAt: at,
	}
}

func TestStore_AppendAndList(t *testing.T) {
	s := memory.New()
	defer s.Close()
	ctx := context.Background()

	base := time.Now()
	for i, cmd := range []string{"DRAW", "ERASE", "DRAW"} {
		if err := s.Append(ctx, newRecord("invocation.completed", cmd, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := s.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	// Newest first.
	if all[0].Command != "DRAW" || !all[0].CreatedAt.After(all[2].CreatedAt) {
		t.Errorf("expected newest-first ordering, got %v then %v", all[0].CreatedAt, all[2].CreatedAt)
	}
}

func TestStore_ListFilters(t *testing.T) {
	s := memory.New()
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	_ = s.Append(ctx, newRecord("invocation.completed", "DRAW", now))
	_ = s.Append(ctx, newRecord("invocation.failed", "DRAW", now.Add(time.Second)))
	_ = s.Append(ctx, newRecord("invocation.completed", "ERASE", now.Add(2*time.Second)))

	byCmd, err := s.List(ctx, history.Filter{Command: "DRAW"})
	if err != nil {
		t.Fatalf("list by command: %v", err)
	}
	if len(byCmd) != 2 {
		t.Fatalf("expected 2 DRAW records, got %d", len(byCmd))
	}

	byAction, err := s.List(ctx, history.Filter{Action: "invocation.failed"})
	if err != nil {
		t.Fatalf("list by action: %v", err)
	}
	if len(byAction) != 1 || byAction[0].Command != "DRAW" {
		t.Fatalf("expected 1 failed DRAW record, got %v", byAction)
	}

	limited, err := s.List(ctx, history.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Command != "ERASE" {
		t.Fatalf("expected newest record only, got %v", limited)
	}
}

func TestStore_Purge(t *testing.T) {
	s := memory.New()
	defer s.Close()
	ctx := context.Background()

	cutoff := time.Now()
	_ = s.Append(ctx, newRecord("invocation.completed", "OLD", cutoff.Add(-time.Hour)))
	_ = s.Append(ctx, newRecord("invocation.completed", "NEW", cutoff.Add(time.Hour)))

	removed, err := s.Purge(ctx, cutoff)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	rest, err := s.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rest) != 1 || rest[0].Command != "NEW" {
		t.Fatalf("expected only NEW to survive, got %v", rest)
	}
}

func TestStore_ClosedRejectsOperations(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	_ = s.Close()

	if err := s.Append(ctx, newRecord("invocation.completed", "X", time.Now())); err != history.ErrClosed {
		t.Errorf("append after close: expected ErrClosed, got %v", err)
	}
	if _, err := s.List(ctx, history.Filter{}); err != history.ErrClosed {
		t.Errorf("list after close: expected ErrClosed, got %v", err)
	}
	if _, err := s.Purge(ctx, time.Now()); err != history.ErrClosed {
		t.Errorf("purge after close: expected ErrClosed, got %v", err)
	}
}

func TestStore_AppendCopiesRecord(t *testing.T) {
	s := memory.New()
	defer s.Close()
	ctx := context.Background()

	r := newRecord("invocation.completed", "DRAW", time.Now())
	_ = s.Append(ctx, r)
	r.Command = "MUTATED"

	got, err := s.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].Command != "DRAW" {
		t.Errorf("stored record aliased caller memory: %q", got[0].Command)
	}
}
