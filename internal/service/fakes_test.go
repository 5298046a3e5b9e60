package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// fakeTicketRepo stores copies so callers cannot mutate persisted rows.
type fakeTicketRepo struct {
	mu         sync.Mutex
	rows       map[int64]domain.Ticket
	nextID     int64
	now        time.Time
	lastFilter repository.TicketFilter
	updates    int
	createErr  error
	// afterGet runs once, right after the next GetByID returns, to let
	// another request commit in between a read and its write.
	afterGet func()
}

func newFakeTicketRepo(now time.Time) *fakeTicketRepo {
	return &fakeTicketRepo{rows: map[int64]domain.Ticket{}, now: now}
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = r.now
	r.rows[t.ID] = *t
	return nil
}

// Transition mirrors the guarded UPDATE of the postgres repository.
func (r *fakeTicketRepo) Transition(_ context.Context, tr repository.TicketTransition) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[tr.ID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if t.Status != tr.From {
		return nil, repository.ErrStaleStatus
	}
	r.updates++
	t.Status = tr.To
	if t.StartedAt == nil {
		t.StartedAt = tr.StartedAt
	}
	if t.AssignedTo == nil || *t.AssignedTo == "" {
		t.AssignedTo = tr.Claim
	}
	if tr.ClosedAt != nil {
		t.ClosedAt = tr.ClosedAt
	}
	if tr.WorkingHours != nil {
		t.WorkingHours = tr.WorkingHours
	}
	r.rows[t.ID] = t
	return &t, nil
}

func (r *fakeTicketRepo) SetAssignee(_ context.Context, id int64, assignee *string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.updates++
	t.AssignedTo = assignee
	r.rows[id] = t
	return &t, nil
}

func (r *fakeTicketRepo) AppendNotes(_ context.Context, id int64, block string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.updates++
	notes := lifecycle.JoinNotes(t.Notes, block)
	t.Notes = &notes
	r.rows[id] = t
	return &t, nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	t, ok := r.rows[id]
	hook := r.afterGet
	r.afterGet = nil
	r.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if hook != nil {
		hook()
	}
	return &t, nil
}

func (r *fakeTicketRepo) stored(id int64) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *fakeTicketRepo) put(t domain.Ticket) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	r.rows[t.ID] = t
	return t.ID
}

func (r *fakeTicketRepo) match(f repository.TicketFilter, t domain.Ticket) bool {
	if f.Division != nil && t.Division != *f.Division {
		return false
	}
	if f.ClientID != nil && (t.ClientID == nil || *t.ClientID != *f.ClientID) {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(*f.SearchTerm)
		if !strings.Contains(strings.ToLower(t.Title+" "+t.Description+" "+t.ClientName), term) {
			return false
		}
	}
	return true
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f
	out := []domain.Ticket{}
	for _, t := range r.rows {
		if r.match(f, t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTicketRepo) Stats(ctx context.Context, f repository.TicketFilter) (*domain.TicketStats, error) {
	tickets, err := r.ListWithFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	byStatus := map[domain.TicketStatus]int64{}
	byDivision := map[domain.Division]int64{}
	for _, t := range tickets {
		byStatus[t.Status]++
		byDivision[t.Division]++
	}
	stats := &domain.TicketStats{ByStatus: []domain.StatusCount{}, ByDivision: []domain.DivisionCount{}}
	for s, c := range byStatus {
		stats.ByStatus = append(stats.ByStatus, domain.StatusCount{Status: s, Count: c})
	}
	for d, c := range byDivision {
		stats.ByDivision = append(stats.ByDivision, domain.DivisionCount{Division: d, Count: c})
	}
	return stats, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, h *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, *h)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, h := range r.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeCatalogRepo struct {
	clients  map[int64]domain.Client
	infras   []domain.Infrastructure
	projects map[int64]domain.Project
}

func newFakeCatalog() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		clients: map[int64]domain.Client{
			7: {ID: 7, Name: "ACME"},
			8: {ID: 8, Name: "Globex"},
		},
		infras: []domain.Infrastructure{
			{ID: 70, ClientID: 7, Name: "acme-dc"},
			{ID: 80, ClientID: 8, Name: "globex-dc"},
		},
		projects: map[int64]domain.Project{
			700: {ID: 700, InfrastructureID: 70, Name: "acme-web", ClientID: 7, ClientName: "ACME"},
			800: {ID: 800, InfrastructureID: 80, Name: "globex-erp", ClientID: 8, ClientName: "Globex"},
		},
	}
}

func (r *fakeCatalogRepo) ListClients(context.Context) ([]domain.Client, error) {
	out := []domain.Client{}
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCatalogRepo) GetClient(_ context.Context, id int64) (*domain.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r *fakeCatalogRepo) ListInfrastructures(_ context.Context, clientID int64) ([]domain.Infrastructure, error) {
	var out []domain.Infrastructure
	for _, i := range r.infras {
		if i.ClientID == clientID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListProjectsByInfrastructure(_ context.Context, infraID int64) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range r.projects {
		if p.InfrastructureID == infraID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListProjectsByClient(_ context.Context, clientID int64) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range r.projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) GetProject(_ context.Context, id int64) (*domain.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.Username]; ok {
		return errors.New("duplicate")
	}
	u.ID = int64(len(r.users) + 1)
	r.users[u.Username] = *u
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, username, hash string) error {
	u, ok := r.users[username]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	r.users[username] = u
	return nil
}

func (r *fakeUserRepo) ListUsernamesByDivision(_ context.Context, d domain.Division) ([]string, error) {
	out := []string{}
	for _, u := range r.users {
		if u.Division == d {
			out = append(out, u.Username)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeClientUserRepo struct {
	users map[int64]domain.ClientUser
}

func (r *fakeClientUserRepo) GetByEmail(_ context.Context, email string) (*domain.ClientUser, error) {
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeClientUserRepo) GetByID(_ context.Context, id int64) (*domain.ClientUser, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *fakeClientUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

type fakeAttachments struct {
	saved   []string
	removed []string
}

func (f *fakeAttachments) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.saved = append(f.saved, name)
	return "stored-" + name, nil
}

func (f *fakeAttachments) Remove(name string) error {
	f.removed = append(f.removed, name)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	err     error
	notices []notify.TicketNotice
}

func (f *fakeNotifier) NotifyTicketCreated(_ context.Context, n notify.TicketNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	return f.err
}

func (f *fakeNotifier) calls() []notify.TicketNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.TicketNotice{}, f.notices...)
}
