// Package history defines the invocation audit trail: a Record type
// describing a single lifecycle event and a Store interface persisting
// records. Backends live in the memory, sqlite, and redis subpackages.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/invoke/id"
)

// ErrClosed is returned by store operations after Close.
var ErrClosed = errors.New("history: store closed")

// Record is one persisted audit trail entry. Records are append-only;
// a store never mutates them after Append.
type Record struct {
	// ID uniquely identifies this record. Every record gets its own
	// fresh ID ("rec" prefix); backends may use it as a primary key.
	ID id.RecordID `json:"id"`

	// Subject is the entity the event concerns — the command ID for
	// command lifecycle events, the invocation ID for invocation
	// events. Nil when the event has no single subject.
	Subject id.ID `json:"subject,omitempty"`

	Action    string         `json:"action"`
	Command   string         `json:"command,omitempty"`
	Group     string         `json:"group,omitempty"`
	Trigger   string         `json:"trigger,omitempty"`
	Outcome   string         `json:"outcome"`
	Severity  string         `json:"severity"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	// Command matches records for the named command. The match is
	// exact: records carry the name as it was registered.
	Command string
	// Action matches a single audit action, e.g. "invocation.failed".
	Action string
	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

// Store persists audit trail records.
type Store interface {
	// Append persists a record. The record's ID and CreatedAt must be
	// set by the caller.
	Append(ctx context.Context, r *Record) error

	// List returns records matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]*Record, error)

	// Purge removes records created before the cutoff and reports how
	// many were removed.
	Purge(ctx context.Context, before time.Time) (int, error)

	// Close releases backend resources. Stores owned by a caller-managed
	// connection may implement this as a no-op.
	Close() error
}
