// Package lifecycle owns the ticket status field and the fields derived from
// status changes: started_at, closed_at, working_hours and claim assignment.
package lifecycle

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Action is a dedicated lifecycle operation exposed by the staff console.
type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionClose  Action = "close"
)

// actionEdges lists, per action, the states it may leave from and the state it enters.
var actionEdges = map[Action]struct {
	from []domain.TicketStatus
	to   domain.TicketStatus
}{
	ActionStart:  {from: []domain.TicketStatus{domain.TicketStatusOpen}, to: domain.TicketStatusInProgress},
	ActionPause:  {from: []domain.TicketStatus{domain.TicketStatusInProgress}, to: domain.TicketStatusPaused},
	ActionResume: {from: []domain.TicketStatus{domain.TicketStatusPaused}, to: domain.TicketStatusInProgress},
	ActionClose:  {from: []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusPaused}, to: domain.TicketStatusClosed},
}

// Change reports what a transition did to a ticket.
type Change struct {
	From    domain.TicketStatus
	To      domain.TicketStatus
	Claimed bool
	Started bool
	Closed  bool
}

// Noop reports whether the ticket was left untouched.
func (c Change) Noop() bool { return c.From == c.To }

// Engine applies status changes with an injected clock and business-hours location.
type Engine struct {
	now func() time.Time
	loc *time.Location
}

// NewEngine builds an engine. A nil clock means time.Now, a nil location time.Local.
func NewEngine(loc *time.Location, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{now: now, loc: loc}
}

// Location returns the business-hours location.
func (e *Engine) Location() *time.Location { return e.loc }

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time { return e.now() }

// Step runs a dedicated action, which only follows the edges
// open→in-progress, in-progress⇄paused and in-progress|paused→closed.
func (e *Engine) Step(t *domain.Ticket, action Action, actor string) (Change, error) {
	edge, ok := actionEdges[action]
	if !ok {
		return Change{}, apperrors.NewValidationError("unknown action", map[string]any{"action": action})
	}
	allowed := false
	for _, from := range edge.from {
		if t.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return Change{}, apperrors.NewConflict("invalid status transition", map[string]any{
			"action": action,
			"status": t.Status,
		})
	}
	return e.Apply(t, edge.to, actor)
}

// Apply overwrites the status with any valid value, applying the derived-field
// policy of the target state. Setting the current status again is a no-op.
// On error the ticket is left unchanged.
//
// Reopening a closed ticket keeps closed_at and working_hours as they were.
func (e *Engine) Apply(t *domain.Ticket, to domain.TicketStatus, actor string) (Change, error) {
	if !to.Valid() {
		return Change{}, apperrors.NewValidationError("invalid status", map[string]any{"status": to})
	}
	change := Change{From: t.Status, To: to}
	if t.Status == to {
		return change, nil
	}

	switch to {
	case domain.TicketStatusInProgress:
		if !t.Assigned() && actor != "" {
			assignee := actor
			t.AssignedTo = &assignee
			change.Claimed = true
		}
		if t.StartedAt == nil {
			now := e.now()
			t.StartedAt = &now
			change.Started = true
		}
	case domain.TicketStatusClosed:
		if t.StartedAt == nil {
			return Change{}, apperrors.NewValidationError("ticket not started", map[string]any{"ticket_id": t.ID})
		}
		now := e.now()
		hours := WorkingHours(*t.StartedAt, now, e.loc)
		t.ClosedAt = &now
		t.WorkingHours = &hours
		change.Closed = true
	}
	t.Status = to
	return change, nil
}

// Assign sets or clears the assignee. An empty or nil value clears it.
func Assign(t *domain.Ticket, assignee *string) (old *string) {
	old = t.AssignedTo
	if assignee == nil || *assignee == "" {
		t.AssignedTo = nil
		return old
	}
	v := *assignee
	t.AssignedTo = &v
	return old
}
