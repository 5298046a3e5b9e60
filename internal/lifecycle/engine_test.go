package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// fakeClock returns a settable clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(start time.Time) (*Engine, *fakeClock) {
	clock := &fakeClock{t: start}
	return NewEngine(time.UTC, clock.Now), clock
}

// 2024-03-04 is a Monday.
var monday9 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestApply_InProgressClaimsAndStartsOnce(t *testing.T) {
	engine, clock := newTestEngine(monday9)
	ticket := &domain.Ticket{ID: 1, Status: domain.TicketStatusOpen, Division: domain.DivisionCloud}

	change, err := engine.Apply(ticket, domain.TicketStatusInProgress, "alice")
	require.NoError(t, err)
	assert.True(t, change.Claimed)
	assert.True(t, change.Started)
	require.NotNil(t, ticket.AssignedTo)
	assert.Equal(t, "alice", *ticket.AssignedTo)
	require.NotNil(t, ticket.StartedAt)
	firstStart := *ticket.StartedAt

	clock.Advance(2 * time.Hour)
	_, err = engine.Apply(ticket, domain.TicketStatusPaused, "bob")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	change, err = engine.Apply(ticket, domain.TicketStatusInProgress, "bob")
	require.NoError(t, err)
	assert.False(t, change.Claimed, "already assigned tickets are not claimed again")
	assert.False(t, change.Started)
	assert.Equal(t, "alice", *ticket.AssignedTo)
	assert.True(t, firstStart.Equal(*ticket.StartedAt))
}

func TestApply_RepeatedInProgressNeverMovesStartedAt(t *testing.T) {
	engine, clock := newTestEngine(monday9)
	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}

	_, err := engine.Apply(ticket, domain.TicketStatusInProgress, "alice")
	require.NoError(t, err)
	started := *ticket.StartedAt

	for _, next := range []domain.TicketStatus{
		domain.TicketStatusInProgress,
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusPaused,
		domain.TicketStatusInProgress,
	} {
		clock.Advance(30 * time.Minute)
		_, err := engine.Apply(ticket, next, "bob")
		require.NoError(t, err)
		assert.True(t, started.Equal(*ticket.StartedAt))
	}
}

func TestApply_ClaimWhenAssigneeCleared(t *testing.T) {
	engine, _ := newTestEngine(monday9)
	ticket := &domain.Ticket{Status: domain.TicketStatusPaused, AssignedTo: strPtr("  ")}

	change, err := engine.Apply(ticket, domain.TicketStatusInProgress, "carol")
	require.NoError(t, err)
	assert.True(t, change.Claimed)
	assert.Equal(t, "carol", *ticket.AssignedTo)
}

func TestApply_CloseUnstartedFailsWithoutChanges(t *testing.T) {
	engine, _ := newTestEngine(monday9)
	ticket := &domain.Ticket{ID: 9, Status: domain.TicketStatusOpen}
	before := *ticket

	_, err := engine.Apply(ticket, domain.TicketStatusClosed, "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Equal(t, before, *ticket)
}

func TestApply_CloseComputesWorkingHours(t *testing.T) {
	engine, clock := newTestEngine(monday9)
	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}

	_, err := engine.Apply(ticket, domain.TicketStatusInProgress, "alice")
	require.NoError(t, err)

	clock.Advance(26 * time.Hour) // Tuesday 11:00
	change, err := engine.Apply(ticket, domain.TicketStatusClosed, "alice")
	require.NoError(t, err)
	assert.True(t, change.Closed)
	require.NotNil(t, ticket.ClosedAt)
	require.NotNil(t, ticket.WorkingHours)
	assert.True(t, clock.Now().Equal(*ticket.ClosedAt))
	assert.Equal(t, 11, *ticket.WorkingHours) // 9 on Monday, 2 on Tuesday
}

func TestApply_ReopenKeepsClosureFields(t *testing.T) {
	engine, clock := newTestEngine(monday9)
	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}

	_, err := engine.Apply(ticket, domain.TicketStatusInProgress, "alice")
	require.NoError(t, err)
	clock.Advance(3 * time.Hour)
	_, err = engine.Apply(ticket, domain.TicketStatusClosed, "alice")
	require.NoError(t, err)
	closedAt, hours := *ticket.ClosedAt, *ticket.WorkingHours

	_, err = engine.Apply(ticket, domain.TicketStatusOpen, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.NotNil(t, ticket.ClosedAt)
	require.NotNil(t, ticket.WorkingHours)
	assert.True(t, closedAt.Equal(*ticket.ClosedAt))
	assert.Equal(t, hours, *ticket.WorkingHours)
}

func TestApply_PauseHasNoTimestampEffects(t *testing.T) {
	engine, _ := newTestEngine(monday9)
	started := monday9.Add(-time.Hour)
	ticket := &domain.Ticket{Status: domain.TicketStatusInProgress, StartedAt: &started, AssignedTo: strPtr("alice")}

	_, err := engine.Apply(ticket, domain.TicketStatusPaused, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPaused, ticket.Status)
	assert.True(t, started.Equal(*ticket.StartedAt))
	assert.Nil(t, ticket.ClosedAt)
	assert.Nil(t, ticket.WorkingHours)
	assert.Equal(t, "alice", *ticket.AssignedTo)
}

func TestApply_InvalidStatus(t *testing.T) {
	engine, _ := newTestEngine(monday9)
	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}

	_, err := engine.Apply(ticket, domain.TicketStatus("resolved"), "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
}

func TestStep_StrictEdges(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.TicketStatus
		action  Action
		want    domain.TicketStatus
		wantErr string
	}{
		{name: "start open", from: domain.TicketStatusOpen, action: ActionStart, want: domain.TicketStatusInProgress},
		{name: "start paused", from: domain.TicketStatusPaused, action: ActionStart, wantErr: "CONFLICT"},
		{name: "pause in progress", from: domain.TicketStatusInProgress, action: ActionPause, want: domain.TicketStatusPaused},
		{name: "pause open", from: domain.TicketStatusOpen, action: ActionPause, wantErr: "CONFLICT"},
		{name: "resume paused", from: domain.TicketStatusPaused, action: ActionResume, want: domain.TicketStatusInProgress},
		{name: "resume closed", from: domain.TicketStatusClosed, action: ActionResume, wantErr: "CONFLICT"},
		{name: "close in progress", from: domain.TicketStatusInProgress, action: ActionClose, want: domain.TicketStatusClosed},
		{name: "close paused", from: domain.TicketStatusPaused, action: ActionClose, want: domain.TicketStatusClosed},
		{name: "close open", from: domain.TicketStatusOpen, action: ActionClose, wantErr: "CONFLICT"},
		{name: "unknown action", from: domain.TicketStatusOpen, action: Action("escalate"), wantErr: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(monday9)
			started := monday9.Add(-time.Hour)
			ticket := &domain.Ticket{Status: tt.from}
			if tt.from != domain.TicketStatusOpen {
				ticket.StartedAt = &started
			}

			_, err := engine.Step(ticket, tt.action, "alice")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, tt.wantErr), "got %v", err)
				assert.Equal(t, tt.from, ticket.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ticket.Status)
		})
	}
}

func TestAssign(t *testing.T) {
	ticket := &domain.Ticket{AssignedTo: strPtr("alice")}

	old := Assign(ticket, strPtr("bob"))
	assert.Equal(t, "alice", *old)
	assert.Equal(t, "bob", *ticket.AssignedTo)

	old = Assign(ticket, nil)
	assert.Equal(t, "bob", *old)
	assert.Nil(t, ticket.AssignedTo)

	Assign(ticket, strPtr(""))
	assert.Nil(t, ticket.AssignedTo)
}
