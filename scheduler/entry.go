package scheduler

import (
	"time"

	"github.com/xraph/invoke/id"
)

// Entry represents a recurring schedule driving one command.
type Entry struct {
	ID       id.ScheduleID `json:"id"`
	Name     string        `json:"name"`
	Schedule string        `json:"schedule"`
	Command  string        `json:"command"`
	Group    string        `json:"group,omitempty"`
	Param    any           `json:"param,omitempty"`
	Enabled  bool          `json:"enabled"`

	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`

	// Deferral state while the document is busy or the gate refuses.
	deferrals     int
	deferredUntil time.Time
}
