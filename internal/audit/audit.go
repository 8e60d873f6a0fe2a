// Package audit keeps a local trail of the moderation actions issued
// through the console. The trail is advisory: it records what this
// operator did and how the API answered, independent of any server-side
// audit log.
package audit

import (
	"context"
	"time"
)

// Action is a type of recorded console action.
type Action string

const (
	ActionResolveReport Action = "resolve_report"
	ActionRejectReport  Action = "reject_report"
	ActionDeletePost    Action = "delete_post"
	ActionSystemCheck   Action = "system_check"
)

// Outcome records how the API answered the action.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Entry is one recorded action.
type Entry struct {
	ID        string
	Action    Action
	TargetID  string // report or post id; empty for system checks
	Actor     string // email of the logged-in admin, or "anonymous"
	Detail    string // review comment or error message
	Outcome   Outcome
	CreatedAt time.Time
}

// Recorder appends entries to a trail. A nil Recorder disables auditing.
type Recorder interface {
	Append(ctx context.Context, e Entry) error
}
