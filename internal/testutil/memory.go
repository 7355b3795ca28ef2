package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// TicketRepo is an in-memory repository.TicketRepository with the same
// uniqueness and compare-and-swap behaviour as the Postgres one.
type TicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket // guild|channel
	now     func() time.Time

	// CreateErr, when set, is returned by the next Create call and cleared.
	CreateErr error
}

func NewTicketRepo() *TicketRepo {
	return &TicketRepo{tickets: make(map[string]*domain.Ticket), now: time.Now}
}

func key(guildID, channelID string) string { return guildID + "|" + channelID }

func clone(t *domain.Ticket) *domain.Ticket {
	c := *t
	return &c
}

func (r *TicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.CreateErr; err != nil {
		r.CreateErr = nil
		return err
	}
	if _, ok := r.tickets[key(ticket.GuildID, ticket.ChannelID)]; ok {
		return repository.ErrDuplicateChannel
	}
	for _, t := range r.tickets {
		if t.GuildID == ticket.GuildID && t.Number == ticket.Number {
			return repository.ErrDuplicateNumber
		}
	}
	ticket.CreatedAt = r.now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[key(ticket.GuildID, ticket.ChannelID)] = clone(ticket)
	return nil
}

// Put stores ticket as-is, bypassing constraints.
func (r *TicketRepo) Put(ticket *domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[key(ticket.GuildID, ticket.ChannelID)] = clone(ticket)
}

func (r *TicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			return clone(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *TicketRepo) GetByChannel(_ context.Context, guildID, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[key(guildID, channelID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(t), nil
}

func (r *TicketRepo) GetByNumber(_ context.Context, guildID string, number int) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.GuildID == guildID && t.Number == number {
			return clone(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *TicketRepo) UpdateStatus(_ context.Context, u repository.StatusUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[key(u.GuildID, u.ChannelID)]
	if !ok {
		return false, nil
	}
	if len(u.From) > 0 {
		matched := false
		for _, s := range u.From {
			if t.Status == s {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}
	if u.ExpectedAssignee != nil && (t.AssignedTo == nil || *t.AssignedTo != *u.ExpectedAssignee) {
		return false, nil
	}

	now := r.now()
	t.Status = u.To
	t.UpdatedAt = now
	switch u.To {
	case domain.TicketStatusClosed:
		actor := u.ActorID
		t.ClosedAt = &now
		t.ClosedBy = &actor
	case domain.TicketStatusClaimed:
		actor := u.ActorID
		t.AssignedTo = &actor
	}
	if u.ClearAssignee && u.To != domain.TicketStatusClaimed {
		t.AssignedTo = nil
	}
	return true, nil
}

func (r *TicketRepo) SetControlMessage(_ context.Context, guildID, channelID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[key(guildID, channelID)]
	if !ok {
		return repository.ErrNotFound
	}
	t.ControlMessageID = &messageID
	return nil
}

func (r *TicketRepo) Delete(_ context.Context, guildID, channelID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(guildID, channelID)
	if _, ok := r.tickets[k]; !ok {
		return false, nil
	}
	delete(r.tickets, k)
	return true, nil
}

func (r *TicketRepo) ListActive(_ context.Context, guildID string) ([]domain.Ticket, error) {
	return r.filter(func(t *domain.Ticket) bool {
		return t.GuildID == guildID && t.Status != domain.TicketStatusArchived
	}), nil
}

func (r *TicketRepo) ListActiveByCreator(_ context.Context, guildID, userID string) ([]domain.Ticket, error) {
	return r.filter(func(t *domain.Ticket) bool {
		return t.GuildID == guildID && t.CreatorID == userID && t.Status.Active()
	}), nil
}

func (r *TicketRepo) filter(keep func(*domain.Ticket) bool) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

// Len returns the number of stored tickets.
func (r *TicketRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

// HistoryRepo is an in-memory repository.TicketHistoryRepository.
type HistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *HistoryRepo) Create(_ context.Context, h *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.CreatedAt = time.Now()
	r.entries = append(r.entries, *h)
	return nil
}

func (r *HistoryRepo) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("negative LIMIT or OFFSET: %d, %d", limit, offset)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range r.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Entries returns every recorded entry.
func (r *HistoryRepo) Entries() []domain.TicketHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TicketHistory(nil), r.entries...)
}

// SettingsStore is an in-memory settings.Store.
type SettingsStore struct {
	mu       sync.Mutex
	settings map[string]domain.GuildTicketSettings
	gets     int
	upserts  int

	// BeforeGet, when set, runs at the start of every Get outside the lock.
	// Get then fails if its context is done, as a database read would.
	BeforeGet func(guildID string)
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: make(map[string]domain.GuildTicketSettings)}
}

func (s *SettingsStore) Get(ctx context.Context, guildID string) (*domain.GuildTicketSettings, error) {
	if s.BeforeGet != nil {
		s.BeforeGet(guildID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	v, ok := s.settings[guildID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (s *SettingsStore) Upsert(_ context.Context, v *domain.GuildTicketSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	v.UpdatedAt = time.Now()
	s.settings[v.GuildID] = *v
	return nil
}

// Counts reports how many Get and Upsert calls reached the store.
func (s *SettingsStore) Counts() (gets, upserts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.upserts
}

// Allocator is an in-memory repository.NumberAllocator.
type Allocator struct {
	mu   sync.Mutex
	last map[string]int
	// Skip, when set, makes the next NextNumber for a guild return Skip[guild] instead.
	Skip map[string]int
}

func NewAllocator() *Allocator {
	return &Allocator{last: make(map[string]int), Skip: make(map[string]int)}
}

func (a *Allocator) NextNumber(_ context.Context, guildID string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.Skip[guildID]; ok {
		delete(a.Skip, guildID)
		return n, nil
	}
	a.last[guildID]++
	return a.last[guildID], nil
}

// Guard is an in-memory creation guard.
type Guard struct {
	mu   sync.Mutex
	held map[string]bool
	Err  error
}

func NewGuard() *Guard {
	return &Guard{held: make(map[string]bool)}
}

func (g *Guard) Acquire(_ context.Context, guildID, userID string, _ time.Duration) (func(), bool, error) {
	if g.Err != nil {
		return nil, false, g.Err
	}
	k := key(guildID, userID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[k] {
		return nil, false, nil
	}
	g.held[k] = true
	return func() {
		g.mu.Lock()
		delete(g.held, k)
		g.mu.Unlock()
	}, true, nil
}

// Hold takes the guard for (guild, user) until the returned func is called.
func (g *Guard) Hold(guildID, userID string) func() {
	release, _, _ := g.Acquire(context.Background(), guildID, userID, 0)
	return release
}
