package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// PanelRepo is an in-memory repository.PanelRepository.
type PanelRepo struct {
	mu     sync.Mutex
	panels map[string]domain.TicketPanel // guild|id
	seq    int

	// CreateErr, when set, is returned by Create.
	CreateErr error
}

func NewPanelRepo() *PanelRepo {
	return &PanelRepo{panels: make(map[string]domain.TicketPanel)}
}

func clonePanel(p domain.TicketPanel) domain.TicketPanel {
	if p.MessageID != nil {
		id := *p.MessageID
		p.MessageID = &id
	}
	return p
}

func (r *PanelRepo) Create(_ context.Context, p *domain.TicketPanel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.seq++
	// Creation order must survive equal clock readings.
	p.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Microsecond)
	p.UpdatedAt = p.CreatedAt
	p.ButtonText = p.Button()
	r.panels[key(p.GuildID, p.ID)] = clonePanel(*p)
	return nil
}

func (r *PanelRepo) Get(_ context.Context, guildID, id string) (*domain.TicketPanel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.panels[key(guildID, id)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = clonePanel(p)
	return &p, nil
}

func (r *PanelRepo) List(_ context.Context, guildID string) ([]domain.TicketPanel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketPanel
	for _, p := range r.panels {
		if p.GuildID == guildID {
			out = append(out, clonePanel(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *PanelRepo) Update(_ context.Context, p *domain.TicketPanel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(p.GuildID, p.ID)
	stored, ok := r.panels[k]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt, p.CreatedBy = stored.CreatedAt, stored.CreatedBy
	p.UpdatedAt = time.Now()
	p.ButtonText = p.Button()
	r.panels[k] = clonePanel(*p)
	return nil
}

func (r *PanelRepo) Delete(_ context.Context, guildID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(guildID, id)
	if _, ok := r.panels[k]; !ok {
		return false, nil
	}
	delete(r.panels, k)
	return true, nil
}

// ResponseRepo is an in-memory repository.ResponseRepository.
type ResponseRepo struct {
	mu        sync.Mutex
	responses map[string]domain.CannedResponse // guild|name
}

func NewResponseRepo() *ResponseRepo {
	return &ResponseRepo{responses: make(map[string]domain.CannedResponse)}
}

func (r *ResponseRepo) Create(_ context.Context, resp *domain.CannedResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(resp.GuildID, resp.Name)
	if _, ok := r.responses[k]; ok {
		return repository.ErrDuplicateName
	}
	resp.CreatedAt = time.Now()
	resp.UpdatedAt = resp.CreatedAt
	r.responses[k] = *resp
	return nil
}

func (r *ResponseRepo) GetByName(_ context.Context, guildID, name string) (*domain.CannedResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[key(guildID, name)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &resp, nil
}

func (r *ResponseRepo) List(_ context.Context, guildID string) ([]domain.CannedResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CannedResponse
	for _, resp := range r.responses {
		if resp.GuildID == guildID {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ResponseRepo) UpdateContent(_ context.Context, guildID, name, content string) (*domain.CannedResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(guildID, name)
	resp, ok := r.responses[k]
	if !ok {
		return nil, repository.ErrNotFound
	}
	resp.Content = content
	resp.UpdatedAt = time.Now()
	r.responses[k] = resp
	return &resp, nil
}

func (r *ResponseRepo) Delete(_ context.Context, guildID, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(guildID, name)
	if _, ok := r.responses[k]; !ok {
		return false, nil
	}
	delete(r.responses, k)
	return true, nil
}
