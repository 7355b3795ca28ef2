package repository_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/repository"
	"github.com/spec-kit/ticketbot/internal/testutil"
)

func newTicket(guildID, channelID, creatorID string, number int) *domain.Ticket {
	return &domain.Ticket{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		ChannelID: channelID,
		Number:    number,
		CreatorID: creatorID,
		Status:    domain.TicketStatusOpen,
		Subject:   domain.DefaultSubject(number),
	}
}

func TestTicketRepositoryUniqueness(t *testing.T) {
	pool := testutil.Pool(t)
	repo := repository.NewTicketRepository(pool)
	ctx := context.Background()
	guild := "g-" + uuid.NewString()

	if err := repo.Create(ctx, newTicket(guild, "c1", "u1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, newTicket(guild, "c1", "u2", 2))
	if !errors.Is(err, repository.ErrDuplicateChannel) {
		t.Fatalf("duplicate channel err = %v", err)
	}
	err = repo.Create(ctx, newTicket(guild, "c2", "u2", 1))
	if !errors.Is(err, repository.ErrDuplicateNumber) {
		t.Fatalf("duplicate number err = %v", err)
	}

	if _, err := repo.GetByChannel(ctx, guild, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByChannel missing err = %v", err)
	}
}

func TestTicketRepositoryCompareAndSwap(t *testing.T) {
	pool := testutil.Pool(t)
	repo := repository.NewTicketRepository(pool)
	ctx := context.Background()
	guild := "g-" + uuid.NewString()

	if err := repo.Create(ctx, newTicket(guild, "c1", "u1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claim := func(actor string) bool {
		ok, err := repo.UpdateStatus(ctx, repository.StatusUpdate{
			GuildID: guild, ChannelID: "c1", ActorID: actor,
			From: []domain.TicketStatus{domain.TicketStatusOpen},
			To:   domain.TicketStatusClaimed,
		})
		if err != nil {
			t.Errorf("claim: %v", err)
		}
		return ok
	}

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = claim(uuid.NewString())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, ok := range results {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want 1", winners)
	}

	ticket, err := repo.GetByChannel(ctx, guild, "c1")
	if err != nil {
		t.Fatalf("GetByChannel: %v", err)
	}
	if ticket.Status != domain.TicketStatusClaimed || ticket.AssignedTo == nil {
		t.Fatalf("ticket = %+v", ticket)
	}

	ok, err := repo.UpdateStatus(ctx, repository.StatusUpdate{
		GuildID: guild, ChannelID: "c1", ActorID: "closer",
		From: []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusClaimed},
		To:   domain.TicketStatusClosed,
	})
	if err != nil || !ok {
		t.Fatalf("close ok=%v err=%v", ok, err)
	}
	ticket, _ = repo.GetByChannel(ctx, guild, "c1")
	if ticket.ClosedAt == nil || ticket.ClosedBy == nil || *ticket.ClosedBy != "closer" {
		t.Fatalf("close did not stamp ticket: %+v", ticket)
	}

	ok, err = repo.UpdateStatus(ctx, repository.StatusUpdate{
		GuildID: guild, ChannelID: "c1",
		From:          []domain.TicketStatus{domain.TicketStatusClosed},
		To:            domain.TicketStatusOpen,
		ClearAssignee: true,
	})
	if err != nil || !ok {
		t.Fatalf("reopen ok=%v err=%v", ok, err)
	}
	ticket, _ = repo.GetByChannel(ctx, guild, "c1")
	if ticket.AssignedTo != nil || ticket.ClosedBy == nil {
		t.Fatalf("reopen = %+v", ticket)
	}
}

func TestCounterAllocatorNeverReuses(t *testing.T) {
	pool := testutil.Pool(t)
	tickets := repository.NewTicketRepository(pool)
	alloc := repository.NewCounterAllocator(pool)
	ctx := context.Background()
	guild := "g-" + uuid.NewString()

	// Existing rows seed the counter.
	if err := tickets.Create(ctx, newTicket(guild, "c-old", "u0", 41)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var (
		mu      sync.Mutex
		numbers []int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.NextNumber(ctx, guild)
			if err != nil {
				t.Errorf("NextNumber: %v", err)
				return
			}
			mu.Lock()
			numbers = append(numbers, n)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(numbers)
	for i, n := range numbers {
		if n != 42+i {
			t.Fatalf("numbers = %v", numbers)
		}
	}

	if _, err := tickets.Delete(ctx, guild, "c-old"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, err := alloc.NextNumber(ctx, guild)
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if n != 52 {
		t.Fatalf("after delete got %d, want 52", n)
	}
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	pool := testutil.Pool(t)
	repo := repository.NewSettingsRepository(pool)
	ctx := context.Background()
	guild := "g-" + uuid.NewString()

	if _, err := repo.Get(ctx, guild); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}

	s := domain.DefaultSettings(guild)
	s.IsEnabled = true
	role := "support"
	s.SupportRoleID = &role
	if err := repo.Upsert(ctx, &s); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	s.TicketNameFormat = "help-{number}"
	if err := repo.Upsert(ctx, &s); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := repo.Get(ctx, guild)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsEnabled || got.SupportRole() != "support" || got.TicketNameFormat != "help-{number}" {
		t.Fatalf("got %+v", got)
	}
}

func TestPanelRepositoryLifecycle(t *testing.T) {
	pool := testutil.Pool(t)
	repo := repository.NewPanelRepository(pool)
	ctx := context.Background()
	guild := "g-" + uuid.NewString()

	msg := "m1"
	panel := &domain.TicketPanel{
		ID: uuid.NewString(), GuildID: guild, Name: "main", ChannelID: "c1", MessageID: &msg,
		Title: "Support", Description: "Open a ticket", Color: domain.DefaultPanelColor, CreatedBy: "u1",
	}
	if err := repo.Create(ctx, panel); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, guild, panel.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ButtonText != domain.DefaultPanelButtonText || got.Message() != "m1" {
		t.Fatalf("stored panel = %+v", got)
	}

	moved := "m2"
	got.ChannelID, got.MessageID, got.Title = "c2", &moved, "Help desk"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	list, err := repo.List(ctx, guild)
	if err != nil || len(list) != 1 || list[0].ChannelID != "c2" || list[0].Title != "Help desk" {
		t.Fatalf("List = %+v, %v", list, err)
	}

	if _, err := repo.Get(ctx, "other", panel.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Get across guilds err = %v", err)
	}
	missing := *got
	missing.ID = uuid.NewString()
	if err := repo.Update(ctx, &missing); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update missing err = %v", err)
	}
	if deleted, err := repo.Delete(ctx, guild, panel.ID); err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	if deleted, _ := repo.Delete(ctx, guild, panel.ID); deleted {
		t.Fatal("second Delete reported a row")
	}
}

func TestResponseRepositoryNamesAreUnique(t *testing.T) {
	pool := testutil.Pool(t)
	repo := repository.NewResponseRepository(pool)
	ctx := context.Background()
	guild := "g-" + uuid.NewString()

	for _, name := range []string{"refund", "greeting"} {
		err := repo.Create(ctx, &domain.CannedResponse{ID: uuid.NewString(), GuildID: guild, Name: name, Content: "text", CreatedBy: "u1"})
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	err := repo.Create(ctx, &domain.CannedResponse{ID: uuid.NewString(), GuildID: guild, Name: "refund", Content: "again", CreatedBy: "u2"})
	if !errors.Is(err, repository.ErrDuplicateName) {
		t.Fatalf("duplicate name err = %v", err)
	}

	list, err := repo.List(ctx, guild)
	if err != nil || len(list) != 2 || list[0].Name != "greeting" {
		t.Fatalf("List = %+v, %v", list, err)
	}
	updated, err := repo.UpdateContent(ctx, guild, "refund", "Refunds take 5 days.")
	if err != nil || updated.Content != "Refunds take 5 days." {
		t.Fatalf("UpdateContent = %+v, %v", updated, err)
	}
	if _, err := repo.UpdateContent(ctx, guild, "missing", "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdateContent missing err = %v", err)
	}
	if deleted, err := repo.Delete(ctx, guild, "refund"); err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
}
