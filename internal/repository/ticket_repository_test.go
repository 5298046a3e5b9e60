package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestTicketFilterWhereClause(t *testing.T) {
	division := domain.DivisionCloud
	clientID := int64(7)
	status := domain.TicketStatusPaused
	search := "  vpn "

	tests := []struct {
		name   string
		filter TicketFilter
		where  string
		args   []any
	}{
		{
			name:   "unscoped",
			filter: TicketFilter{},
			where:  " WHERE 1=1",
			args:   []any{},
		},
		{
			name:   "division and status",
			filter: TicketFilter{Division: &division, Status: &status},
			where:  " WHERE 1=1 AND t.division=$1 AND t.status=$2",
			args:   []any{division, status},
		},
		{
			name:   "client with search",
			filter: TicketFilter{ClientID: &clientID, SearchTerm: &search},
			where:  " WHERE 1=1 AND t.client_id=$1 AND (t.title ILIKE $2 OR t.description ILIKE $2 OR c.name ILIKE $2)",
			args:   []any{clientID, "%vpn%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.whereClause()
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestTicketFilterIgnoresBlankSearch(t *testing.T) {
	blank := "   "
	where, args := TicketFilter{SearchTerm: &blank}.whereClause()
	assert.Equal(t, " WHERE 1=1", where)
	assert.Empty(t, args)
}

func TestReturningTicketReadsBackJoinedRow(t *testing.T) {
	query := returningTicket("UPDATE tickets SET assigned_to=$1 WHERE id=$2")

	assert.True(t, strings.HasPrefix(query, "WITH t AS (UPDATE tickets SET assigned_to=$1 WHERE id=$2 RETURNING *) SELECT"))
	assert.Contains(t, query, "FROM t"+ticketRelations)
	assert.NotContains(t, query, "FROM tickets t")
}
