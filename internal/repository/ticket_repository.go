package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
)

// TicketFilter captures listing parameters. Division and ClientID come from
// the caller's listing scope, never straight from the query string.
type TicketFilter struct {
	Division   *domain.Division
	ClientID   *int64
	Status     *domain.TicketStatus
	SearchTerm *string
	Limit      int
	Offset     int
}

// ErrStaleStatus reports that a guarded transition found the ticket in a
// different status than the one it was computed from.
var ErrStaleStatus = errors.New("ticket status changed")

// TicketTransition is a status write guarded on the status it was computed
// from. StartedAt and Claim only fill empty columns; nil ClosedAt and
// WorkingHours leave the stored values alone.
type TicketTransition struct {
	ID           int64
	From         domain.TicketStatus
	To           domain.TicketStatus
	StartedAt    *time.Time
	Claim        *string
	ClosedAt     *time.Time
	WorkingHours *int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Transition(ctx context.Context, tr TicketTransition) (*domain.Ticket, error)
	SetAssignee(ctx context.Context, id int64, assignee *string) (*domain.Ticket, error)
	AppendNotes(ctx context.Context, id int64, block string) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Stats(ctx context.Context, filter TicketFilter) (*domain.TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
        t.id, t.title, t.description, t.division, t.status, t.created_at, t.started_at, t.closed_at,
        t.working_hours, t.created_by, t.assigned_to, t.client_id, t.project_id, t.infrastructure_id,
        t.attachment, t.notes,
        COALESCE(c.name, ''), COALESCE(p.name, ''), COALESCE(i.name, '')`

const ticketRelations = `
        LEFT JOIN projects p ON p.id = t.project_id
        LEFT JOIN infrastructures i ON i.id = COALESCE(t.infrastructure_id, p.infrastructure_id)
        LEFT JOIN clients c ON c.id = COALESCE(t.client_id, i.client_id)`

const ticketJoins = `
        FROM tickets t` + ticketRelations

// returningTicket wraps a single-row UPDATE so the caller reads back the
// stored row with its catalog names.
func returningTicket(update string) string {
	return "WITH t AS (" + update + " RETURNING *) SELECT" + ticketColumns + " FROM t" + ticketRelations
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, division, status, created_by, assigned_to,
            client_id, project_id, infrastructure_id, attachment, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at`
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Division,
		ticket.Status,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.ClientID,
		ticket.ProjectID,
		ticket.InfrastructureID,
		ticket.Attachment,
		ticket.Notes,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

// Transition writes a status change in one statement. started_at and the
// claim are set at most once, and the write is dropped when the row no longer
// carries tr.From.
func (r *ticketRepository) Transition(ctx context.Context, tr TicketTransition) (*domain.Ticket, error) {
	query := returningTicket(`
        UPDATE tickets SET status=$1,
            started_at=COALESCE(started_at, $2),
            assigned_to=COALESCE(NULLIF(assigned_to, ''), $3),
            closed_at=COALESCE($4, closed_at),
            working_hours=COALESCE($5, working_hours)
        WHERE id=$6 AND status=$7`)
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		tr.To,
		tr.StartedAt,
		tr.Claim,
		tr.ClosedAt,
		tr.WorkingHours,
		tr.ID,
		tr.From,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missingOrStale(ctx, tr.ID)
	}
	return ticket, err
}

func (r *ticketRepository) missingOrStale(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)", id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrStaleStatus
}

// SetAssignee overwrites the assignee; nil clears it.
func (r *ticketRepository) SetAssignee(ctx context.Context, id int64, assignee *string) (*domain.Ticket, error) {
	query := returningTicket("UPDATE tickets SET assigned_to=$1 WHERE id=$2")
	return scanTicket(r.pool.QueryRow(ctx, query, assignee, id))
}

// AppendNotes concatenates block onto the stored notes in the database, so
// concurrent appends never overwrite each other.
func (r *ticketRepository) AppendNotes(ctx context.Context, id int64, block string) (*domain.Ticket, error) {
	query := returningTicket(`
        UPDATE tickets SET notes = CASE WHEN notes IS NULL OR notes = '' THEN $1
            ELSE notes || $2 || $1 END
        WHERE id=$3`)
	return scanTicket(r.pool.QueryRow(ctx, query, block, lifecycle.NoteSeparator, id))
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketJoins + " WHERE t.id=$1"
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Division,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.StartedAt,
		&ticket.ClosedAt,
		&ticket.WorkingHours,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.ClientID,
		&ticket.ProjectID,
		&ticket.InfrastructureID,
		&ticket.Attachment,
		&ticket.Notes,
		&ticket.ClientName,
		&ticket.ProjectName,
		&ticket.InfrastructureName,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// whereClause renders the filter as SQL conditions over the joined ticket row.
func (f TicketFilter) whereClause() (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if f.Division != nil {
		args = append(args, *f.Division)
		clauses = append(clauses, fmt.Sprintf("t.division=$%d", len(args)))
	}
	if f.ClientID != nil {
		args = append(args, *f.ClientID)
		clauses = append(clauses, fmt.Sprintf("t.client_id=$%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if f.SearchTerm != nil && strings.TrimSpace(*f.SearchTerm) != "" {
		args = append(args, "%"+strings.TrimSpace(*f.SearchTerm)+"%")
		idx := len(args)
		clauses = append(clauses, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d OR c.name ILIKE $%d)", idx, idx, idx))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := filter.whereClause()
	query := "SELECT" + ticketColumns + ticketJoins + where + " ORDER BY t.created_at DESC, t.id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) Stats(ctx context.Context, filter TicketFilter) (*domain.TicketStats, error) {
	filter.Status = nil
	where, args := filter.whereClause()
	stats := &domain.TicketStats{ByStatus: []domain.StatusCount{}, ByDivision: []domain.DivisionCount{}}

	rows, err := r.pool.Query(ctx, "SELECT t.status, COUNT(*)"+ticketJoins+where+" GROUP BY t.status ORDER BY t.status", args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var row domain.StatusCount
		if err := rows.Scan(&row.Status, &row.Count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByStatus = append(stats.ByStatus, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, "SELECT t.division, COUNT(*)"+ticketJoins+where+" GROUP BY t.division ORDER BY t.division", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var row domain.DivisionCount
		if err := rows.Scan(&row.Division, &row.Count); err != nil {
			return nil, err
		}
		stats.ByDivision = append(stats.ByDivision, row)
	}
	return stats, rows.Err()
}
