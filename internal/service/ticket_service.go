package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/export"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AttachmentStore persists uploaded files and returns their stored name.
type AttachmentStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Remove(name string) error
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	catalog     repository.CatalogRepository
	attachments AttachmentStore
	engine      *lifecycle.Engine
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	CatalogRepo repository.CatalogRepository
	Attachments AttachmentStore
	Engine      *lifecycle.Engine
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// AttachmentInput is an uploaded file waiting to be stored.
type AttachmentInput struct {
	Filename string
	Content  io.Reader
}

// TicketCreateInput describes a ticket opened by staff.
type TicketCreateInput struct {
	Title       string
	Description string
	Division    string
	AssignedTo  *string
	ClientID    *int64
	ProjectID   *int64
	Attachment  *AttachmentInput
}

// ClientTicketCreateInput describes a ticket opened from the client portal.
// Category wins over Division when both are sent.
type ClientTicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Division    string
	ProjectID   *int64
	Attachment  *AttachmentInput
}

// TicketListInput carries raw listing parameters.
type TicketListInput struct {
	Division string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := deps.Engine
	if engine == nil {
		engine = lifecycle.NewEngine(nil, nil)
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		history:     deps.HistoryRepo,
		catalog:     deps.CatalogRepo,
		attachments: deps.Attachments,
		engine:      engine,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// requestedDivision parses an optional division filter. A malformed value
// only matters to managers, since everyone else has the filter ignored.
func requestedDivision(p domain.Principal, raw string) (*domain.Division, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := domain.ParseDivision(raw)
	if err != nil {
		if ip, ok := p.(domain.InternalPrincipal); ok && ip.IsManager() {
			return nil, apperrors.NewValidationError("invalid division", map[string]any{"division": raw})
		}
		return nil, nil
	}
	return &d, nil
}

func (s *TicketService) scopedFilter(p domain.Principal, rawDivision string) (repository.TicketFilter, error) {
	requested, err := requestedDivision(p, rawDivision)
	if err != nil {
		return repository.TicketFilter{}, err
	}
	scope, err := policy.ListingScope(p, requested)
	if err != nil {
		return repository.TicketFilter{}, err
	}
	return repository.TicketFilter{Division: scope.Division, ClientID: scope.ClientID}, nil
}

// ListTickets returns the tickets visible to the principal.
func (s *TicketService) ListTickets(ctx context.Context, p domain.Principal, input TicketListInput) ([]domain.Ticket, error) {
	filter, err := s.scopedFilter(p, input.Division)
	if err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		filter.Status = &status
	}
	if search := strings.TrimSpace(input.Search); search != "" {
		filter.SearchTerm = &search
	}
	filter.Limit = input.Limit
	filter.Offset = input.Offset
	return s.tickets.ListWithFilter(ctx, filter)
}

// Stats returns per-status and per-division counters within the listing scope.
func (s *TicketService) Stats(ctx context.Context, p domain.Principal, rawDivision string) (*domain.TicketStats, error) {
	filter, err := s.scopedFilter(p, rawDivision)
	if err != nil {
		return nil, err
	}
	return s.tickets.Stats(ctx, filter)
}

// Export renders the tickets of an optional division for a manager.
func (s *TicketService) Export(ctx context.Context, p domain.Principal, rawDivision, rawFormat string) ([]byte, export.Format, string, error) {
	if err := policy.CanExport(p); err != nil {
		return nil, "", "", err
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, "", "", apperrors.NewValidationError("unsupported export format", map[string]any{"format": rawFormat})
	}
	filter, err := s.scopedFilter(p, rawDivision)
	if err != nil {
		return nil, "", "", err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, "", "", err
	}
	data, err := export.Write(format, tickets, s.engine.Location())
	if err != nil {
		return nil, "", "", apperrors.NewInternalError(err)
	}
	return data, format, format.Filename(filter.Division), nil
}

func (s *TicketService) load(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// GetTicket returns a single ticket the principal may read.
func (s *TicketService) GetTicket(ctx context.Context, p domain.Principal, id int64) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanRead(p, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// CreateTicket opens a ticket on behalf of a staff member.
func (s *TicketService) CreateTicket(ctx context.Context, p domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	staff, err := policy.RequireInternal(p)
	if err != nil {
		return nil, err
	}
	title, description, err := requireText(input.Title, input.Description)
	if err != nil {
		return nil, err
	}
	division, err := domain.ParseDivision(input.Division)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid division", map[string]any{"division": input.Division})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Division:    division,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   staff.Identity(),
	}
	lifecycle.Assign(ticket, trimmed(input.AssignedTo))

	if input.ProjectID != nil {
		project, err := s.project(ctx, *input.ProjectID)
		if err != nil {
			return nil, err
		}
		if input.ClientID != nil && *input.ClientID != project.ClientID {
			return nil, apperrors.NewValidationError("project does not belong to client", map[string]any{
				"client_id":  *input.ClientID,
				"project_id": project.ID,
			})
		}
		bindProject(ticket, project)
	} else if input.ClientID != nil {
		client, err := s.catalog.GetClient(ctx, *input.ClientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("client", map[string]any{"id": *input.ClientID})
			}
			return nil, err
		}
		ticket.ClientID = &client.ID
		ticket.ClientName = client.Name
	}

	return s.create(ctx, ticket, input.Attachment)
}

// CreateClientTicket opens a ticket from the client portal. Client and
// creator are taken from the principal; the category picks the division.
func (s *TicketService) CreateClientTicket(ctx context.Context, p domain.Principal, input ClientTicketCreateInput) (*domain.Ticket, error) {
	client, err := policy.RequireClient(p)
	if err != nil {
		return nil, err
	}
	title, description, err := requireText(input.Title, input.Description)
	if err != nil {
		return nil, err
	}
	division, err := clientDivision(input.Category, input.Division)
	if err != nil {
		return nil, err
	}

	clientID := client.ClientID
	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Division:    division,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   client.Identity(),
		ClientID:    &clientID,
		ClientName:  client.CompanyName,
	}

	if input.ProjectID != nil {
		project, err := s.project(ctx, *input.ProjectID)
		if err != nil {
			return nil, err
		}
		if err := policy.CanAccessClient(p, project.ClientID); err != nil {
			return nil, err
		}
		bindProject(ticket, project)
	}

	return s.create(ctx, ticket, input.Attachment)
}

func clientDivision(category, rawDivision string) (domain.Division, error) {
	if strings.TrimSpace(category) != "" {
		division, ok := domain.DivisionForCategory(category)
		if !ok {
			return "", apperrors.NewValidationError("unknown assistance category", map[string]any{"category": category})
		}
		return division, nil
	}
	division, err := domain.ParseDivision(rawDivision)
	if err != nil {
		return "", apperrors.NewValidationError("category or division is required", map[string]any{"division": rawDivision})
	}
	return division, nil
}

func (s *TicketService) project(ctx context.Context, id int64) (*domain.Project, error) {
	project, err := s.catalog.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return nil, err
	}
	return project, nil
}

func bindProject(t *domain.Ticket, project *domain.Project) {
	projectID, infraID, clientID := project.ID, project.InfrastructureID, project.ClientID
	t.ProjectID = &projectID
	t.InfrastructureID = &infraID
	t.ClientID = &clientID
	t.ProjectName = project.Name
	if project.ClientName != "" {
		t.ClientName = project.ClientName
	}
}

func (s *TicketService) create(ctx context.Context, ticket *domain.Ticket, attachment *AttachmentInput) (*domain.Ticket, error) {
	if attachment != nil && attachment.Content != nil {
		if s.attachments == nil {
			return nil, apperrors.NewValidationError("attachments are not accepted", nil)
		}
		name, err := s.attachments.Save(ctx, attachment.Filename, attachment.Content)
		if err != nil {
			return nil, err
		}
		ticket.Attachment = &name
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if ticket.Attachment != nil {
			if rmErr := s.attachments.Remove(*ticket.Attachment); rmErr != nil {
				s.logger.Warn("remove orphaned attachment failed",
					zap.String("attachment", *ticket.Attachment), zap.Error(rmErr))
			}
		}
		return nil, err
	}
	s.metrics.TicketCreated(string(ticket.Division))

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Actor:     ticket.CreatedBy,
		Timestamp: ticket.CreatedAt,
		Payload: events.TicketCreatedPayload{
			Division:    ticket.Division,
			ClientName:  ticket.ClientName,
			Title:       ticket.Title,
			Description: ticket.Description,
			CreatedBy:   ticket.CreatedBy,
			AssignedTo:  ticket.AssignedTo,
			CreatedAt:   ticket.CreatedAt,
		},
	})
	return ticket, nil
}

// StepTicket runs one of the dedicated lifecycle actions.
func (s *TicketService) StepTicket(ctx context.Context, p domain.Principal, id int64, action lifecycle.Action) (*domain.Ticket, error) {
	return s.transition(ctx, p, id, func(t *domain.Ticket) (lifecycle.Change, error) {
		return s.engine.Step(t, action, p.Identity())
	})
}

// SetStatus overwrites the status with any valid value.
func (s *TicketService) SetStatus(ctx context.Context, p domain.Principal, id int64, rawStatus string) (*domain.Ticket, error) {
	if strings.TrimSpace(rawStatus) == "" {
		return nil, apperrors.NewValidationError("status is required", nil)
	}
	status := domain.TicketStatus(strings.TrimSpace(rawStatus))
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": rawStatus})
	}
	return s.transition(ctx, p, id, func(t *domain.Ticket) (lifecycle.Change, error) {
		return s.engine.Apply(t, status, p.Identity())
	})
}

func (s *TicketService) transition(ctx context.Context, p domain.Principal, id int64, apply func(*domain.Ticket) (lifecycle.Change, error)) (*domain.Ticket, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanTransition(p, ticket); err != nil {
		return nil, err
	}

	prevAssignee := ticket.AssignedTo
	change, err := apply(ticket)
	if err != nil {
		return nil, err
	}
	if change.Noop() {
		return ticket, nil
	}
	stored, err := s.tickets.Transition(ctx, transitionOf(ticket, change))
	if err != nil {
		return nil, s.writeError(err, ticket.ID)
	}
	ticket = stored
	s.metrics.TicketTransitioned(string(change.To))

	s.recordHistory(ctx, ticket.ID, p.Identity(), domain.ChangeTypeStatus,
		map[string]any{"status": change.From},
		map[string]any{"status": change.To})
	if change.Claimed && ticket.AssignedTo != nil && *ticket.AssignedTo == p.Identity() {
		s.recordHistory(ctx, ticket.ID, p.Identity(), domain.ChangeTypeAssignee,
			map[string]any{"assigned_to": prevAssignee},
			map[string]any{"assigned_to": ticket.AssignedTo})
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		Actor:     p.Identity(),
		Timestamp: s.engine.Now(),
		Payload: events.TicketStatusChangedPayload{
			Division:  ticket.Division,
			OldStatus: change.From,
			NewStatus: change.To,
		},
	})
	return ticket, nil
}

// transitionOf turns an applied change into a guarded store write.
func transitionOf(t *domain.Ticket, change lifecycle.Change) repository.TicketTransition {
	tr := repository.TicketTransition{ID: t.ID, From: change.From, To: change.To}
	if change.Started {
		tr.StartedAt = t.StartedAt
	}
	if change.Claimed {
		tr.Claim = t.AssignedTo
	}
	if change.Closed {
		tr.ClosedAt = t.ClosedAt
		tr.WorkingHours = t.WorkingHours
	}
	return tr
}

// writeError maps store outcomes of a mutation onto API errors.
func (s *TicketService) writeError(err error, id int64) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	case errors.Is(err, repository.ErrStaleStatus):
		return apperrors.NewConflict("ticket status changed concurrently", map[string]any{"id": id})
	default:
		return err
	}
}

// AssignTicket sets or clears the assignee.
func (s *TicketService) AssignTicket(ctx context.Context, p domain.Principal, id int64, assignee *string) (*domain.Ticket, error) {
	if err := policy.CanReassign(p); err != nil {
		return nil, err
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	old := lifecycle.Assign(ticket, trimmed(assignee))
	ticket, err = s.tickets.SetAssignee(ctx, id, ticket.AssignedTo)
	if err != nil {
		return nil, s.writeError(err, id)
	}

	s.recordHistory(ctx, ticket.ID, p.Identity(), domain.ChangeTypeAssignee,
		map[string]any{"assigned_to": old},
		map[string]any{"assigned_to": ticket.AssignedTo})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Actor:     p.Identity(),
		Timestamp: s.engine.Now(),
		Payload:   events.TicketAssignedPayload{OldAssignee: old, NewAssignee: ticket.AssignedTo},
	})
	return ticket, nil
}

// AddNote appends a timestamped block to the ticket notes.
func (s *TicketService) AddNote(ctx context.Context, p domain.Principal, id int64, note string) (*domain.Ticket, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.NewValidationError("note is required", nil)
	}
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAnnotate(p, ticket); err != nil {
		return nil, err
	}

	block := lifecycle.NoteBlock(note, p.Identity(), s.engine.Now(), s.engine.Location())
	ticket, err = s.tickets.AppendNotes(ctx, id, block)
	if err != nil {
		return nil, s.writeError(err, id)
	}

	s.recordHistory(ctx, ticket.ID, p.Identity(), domain.ChangeTypeNote, nil, map[string]any{"note": note})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketNoteAdded,
		TicketID:  ticket.ID,
		Actor:     p.Identity(),
		Timestamp: s.engine.Now(),
		Payload:   events.TicketNoteAddedPayload{Note: note},
	})
	return ticket, nil
}

// History lists the audit trail of a readable ticket.
func (s *TicketService) History(ctx context.Context, p domain.Principal, id int64) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, p, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, id)
}

// ListClientTickets returns the tickets of a client company.
func (s *TicketService) ListClientTickets(ctx context.Context, p domain.Principal, clientID int64) ([]domain.Ticket, error) {
	if err := policy.CanAccessClient(p, clientID); err != nil {
		return nil, err
	}
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{ClientID: &clientID})
}

// recordHistory is best effort: the ticket row is already committed.
func (s *TicketService) recordHistory(ctx context.Context, ticketID int64, actor string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  actor,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record ticket history failed",
			zap.Int64("ticket_id", ticketID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func requireText(title, description string) (string, string, error) {
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	missing := []string{}
	if title == "" {
		missing = append(missing, "title")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return "", "", apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	return title, description, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
