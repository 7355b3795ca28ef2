package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/gateway"
	"github.com/spec-kit/ticketbot/internal/settings"
	"github.com/spec-kit/ticketbot/internal/testutil"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

const testGuild = "g1"

var (
	staff1   = domain.Actor{UserID: "staff1", RoleIDs: []string{"support"}}
	staff2   = domain.Actor{UserID: "staff2", RoleIDs: []string{"support"}}
	admin    = domain.Actor{UserID: "admin", Elevated: true}
	creator  = domain.Actor{UserID: "u1"}
	outsider = domain.Actor{UserID: "u2"}
)

type harness struct {
	tickets  *testutil.TicketRepo
	history  *testutil.HistoryRepo
	numbers  *testutil.Allocator
	store    *testutil.SettingsStore
	settings *settings.Cache
	gw       *testutil.Gateway
	runner   *gateway.InlineRunner
	guard    *testutil.Guard
	svc      *TicketService
	actions  *ActionDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tickets: testutil.NewTicketRepo(),
		history: &testutil.HistoryRepo{},
		numbers: testutil.NewAllocator(),
		store:   testutil.NewSettingsStore(),
		gw:      testutil.NewGateway(),
		runner:  &gateway.InlineRunner{Logger: zap.NewNop()},
		guard:   testutil.NewGuard(),
	}
	category, role, logChannel := "cat", "support", "log"
	s := domain.DefaultSettings(testGuild)
	s.IsEnabled = true
	s.CategoryID = &category
	s.SupportRoleID = &role
	s.LogChannelID = &logChannel
	if err := h.store.Upsert(context.Background(), &s); err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	h.settings = settings.NewCache(h.store)

	dispatcher := events.NewInMemoryDispatcher()
	h.svc = NewTicketService(TicketDependencies{
		Tickets:    h.tickets,
		History:    h.history,
		Numbers:    h.numbers,
		Settings:   h.settings,
		Gateway:    h.gw,
		Followups:  h.runner,
		Guard:      h.guard,
		Dispatcher: dispatcher,
	}, TicketConfig{DeleteDelay: 5 * time.Second, CreateAttempts: 2, CreateLockTTL: time.Second})
	NewNotificationService(NotificationDependencies{
		Dispatcher: dispatcher,
		Gateway:    h.gw,
		Followups:  h.runner,
		Tickets:    h.tickets,
		Settings:   h.settings,
	}).RegisterHandlers()
	h.actions = NewActionDispatcher(DispatcherDependencies{Tickets: h.svc, Settings: h.settings})
	return h
}

// put stores a ticket directly, bypassing the lifecycle.
func (h *harness) put(number int, status domain.TicketStatus, creatorID, assignee string) *domain.Ticket {
	t := &domain.Ticket{
		ID:        fmt.Sprintf("t-%d", number),
		GuildID:   testGuild,
		ChannelID: channelFor(number),
		Number:    number,
		CreatorID: creatorID,
		Status:    status,
		Subject:   domain.DefaultSubject(number),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if assignee != "" {
		t.AssignedTo = &assignee
	}
	h.tickets.Put(t)
	return t
}

func channelFor(number int) string {
	return fmt.Sprintf("ticket-chan-%d", number)
}

func (h *harness) press(channelID string, action domain.Action, actor domain.Actor) Outcome {
	return h.actions.Dispatch(context.Background(), Interaction{
		GuildID:   testGuild,
		ChannelID: channelID,
		ControlID: action.ControlID(),
		Actor:     actor,
	})
}

func (h *harness) reload(t *testing.T, channelID string) *domain.Ticket {
	t.Helper()
	got, err := h.tickets.GetByChannel(context.Background(), testGuild, channelID)
	if err != nil {
		t.Fatalf("reload %s: %v", channelID, err)
	}
	return got
}

func wantCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	de := apperrors.ToDomainError(err)
	if de.Code != code {
		t.Fatalf("code = %s (%q), want %s", de.Code, de.Message, code)
	}
	return de
}

func wantOutcome(t *testing.T, out Outcome, code string) {
	t.Helper()
	if out.Err == nil {
		t.Fatalf("expected %s, got success %q", code, out.Message)
	}
	if out.Err.Code != code {
		t.Fatalf("code = %s (%q), want %s", out.Err.Code, out.Message, code)
	}
}

func taskNames(r *gateway.InlineRunner) []string {
	var names []string
	for _, task := range r.Tasks() {
		names = append(names, task.Name)
	}
	return names
}
