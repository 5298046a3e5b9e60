package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusPaused     TicketStatus = "paused"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPaused, TicketStatusClosed:
		return true
	}
	return false
}

// Division is the internal routing category for tickets and staff.
type Division string

const (
	DivisionCloud      Division = "cloud"
	DivisionNetworking Division = "networking"
	DivisionITCare     Division = "it-care"
)

// Divisions lists every division in display order.
var Divisions = []Division{DivisionCloud, DivisionNetworking, DivisionITCare}

// Valid reports whether the division is known.
func (d Division) Valid() bool {
	switch d {
	case DivisionCloud, DivisionNetworking, DivisionITCare:
		return true
	}
	return false
}

// ParseDivision normalizes and validates a division string.
func ParseDivision(raw string) (Division, error) {
	d := Division(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown division %q", raw)
	}
	return d, nil
}

// categoryDivisions maps the assistance category chosen by a client to the
// division that handles it. Italian keys are what the client portal sends.
var categoryDivisions = map[string]Division{
	"network":   DivisionNetworking,
	"rete":      DivisionNetworking,
	"vm":        DivisionCloud,
	"technical": DivisionITCare,
	"tecnica":   DivisionITCare,
}

// DivisionForCategory resolves a client assistance category.
func DivisionForCategory(category string) (Division, bool) {
	d, ok := categoryDivisions[strings.ToLower(strings.TrimSpace(category))]
	return d, ok
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID               int64
	Title            string
	Description      string
	Division         Division
	Status           TicketStatus
	CreatedAt        time.Time
	StartedAt        *time.Time
	ClosedAt         *time.Time
	WorkingHours     *int
	CreatedBy        string
	AssignedTo       *string
	ClientID         *int64
	ProjectID        *int64
	InfrastructureID *int64
	Attachment       *string
	Notes            *string

	// Read-side joins, empty when the association is absent.
	ClientName         string
	ProjectName        string
	InfrastructureName string
}

// Assigned reports whether a specific username owns the ticket.
func (t *Ticket) Assigned() bool {
	return t.AssignedTo != nil && strings.TrimSpace(*t.AssignedTo) != ""
}

// StatusCount is a row of the per-status breakdown.
type StatusCount struct {
	Status TicketStatus `json:"status"`
	Count  int64        `json:"count"`
}

// DivisionCount is a row of the per-division breakdown.
type DivisionCount struct {
	Division Division `json:"division"`
	Count    int64    `json:"count"`
}

// TicketStats aggregates dashboard counters.
type TicketStats struct {
	ByStatus   []StatusCount   `json:"byStatus"`
	ByDivision []DivisionCount `json:"byDivision"`
}
