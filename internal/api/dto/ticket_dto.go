package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest is the staff ticket payload. It arrives either as JSON
// or as multipart form fields next to an optional attachment.
type CreateTicketRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	Division    string  `json:"division" validate:"required"`
	AssignedTo  *string `json:"assigned_to"`
	ClientID    *int64  `json:"client_id"`
	ProjectID   *int64  `json:"project_id"`
}

// ClientTicketRequest is the client portal payload. Either category or
// division selects the routing division.
type ClientTicketRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category"`
	Division    string `json:"division"`
	ProjectID   *int64 `json:"project_id"`
}

// StatusRequest sets an arbitrary lifecycle status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignRequest reassigns a ticket; null clears the assignee.
type AssignRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// NoteRequest appends a note.
type NoteRequest struct {
	Note string `json:"note" validate:"required"`
}

// TicketResponse is the flat ticket row the consoles render.
type TicketResponse struct {
	ID                 int64               `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Division           domain.Division     `json:"division"`
	Status             domain.TicketStatus `json:"status"`
	CreatedAt          time.Time           `json:"created_at"`
	StartedAt          *time.Time          `json:"started_at"`
	ClosedAt           *time.Time          `json:"closed_at"`
	WorkingHours       *int                `json:"working_hours"`
	CreatedBy          string              `json:"created_by"`
	AssignedTo         *string             `json:"assigned_to"`
	ClientID           *int64              `json:"client_id"`
	ProjectID          *int64              `json:"project_id"`
	InfrastructureID   *int64              `json:"infrastructure_id"`
	Attachment         *string             `json:"attachment"`
	Notes              *string             `json:"notes"`
	ClientName         string              `json:"client_name,omitempty"`
	ProjectName        string              `json:"project_name,omitempty"`
	InfrastructureName string              `json:"infrastructure_name,omitempty"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         int64                   `json:"id"`
	TicketID   int64                   `json:"ticket_id"`
	ChangedBy  string                  `json:"changed_by"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   map[string]any          `json:"old_value"`
	NewValue   map[string]any          `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Division:           t.Division,
		Status:             t.Status,
		CreatedAt:          t.CreatedAt,
		StartedAt:          t.StartedAt,
		ClosedAt:           t.ClosedAt,
		WorkingHours:       t.WorkingHours,
		CreatedBy:          t.CreatedBy,
		AssignedTo:         t.AssignedTo,
		ClientID:           t.ClientID,
		ProjectID:          t.ProjectID,
		InfrastructureID:   t.InfrastructureID,
		Attachment:         t.Attachment,
		Notes:              t.Notes,
		ClientName:         t.ClientName,
		ProjectName:        t.ProjectName,
		InfrastructureName: t.InfrastructureName,
	}
}

// NewTicketResponses maps a list, never returning nil.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []HistoryResponse {
	items := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryResponse{
			ID:         e.ID,
			TicketID:   e.TicketID,
			ChangedBy:  e.ChangedBy,
			ChangeType: e.ChangeType,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return items
}
