package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/observability"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

func TestDispatchRejectsOutsiderClaim(t *testing.T) {
	h := newHarness(t)
	h.put(5, domain.TicketStatusClaimed, "u1", "staff1")

	out := h.press(channelFor(5), domain.ActionClaim, outsider)
	wantOutcome(t, out, apperrors.CodeUnauthorized)
	if out.Message != "You do not have permission to manage this ticket." {
		t.Fatalf("message = %q", out.Message)
	}
	if got := h.reload(t, channelFor(5)); !got.ClaimedBy("staff1") {
		t.Fatalf("ticket changed: %+v", got)
	}
}

func TestDispatchLifecycle(t *testing.T) {
	h := newHarness(t)

	out := h.press("panel", domain.ActionCreate, creator)
	if out.Err != nil {
		t.Fatalf("create: %v", out.Err)
	}
	channelID := out.Ticket.ChannelID
	if out.Message != "Your ticket has been created: <#"+channelID+">" {
		t.Fatalf("message = %q", out.Message)
	}

	steps := []struct {
		action domain.Action
		actor  domain.Actor
		want   string
	}{
		{domain.ActionClaim, staff1, "Ticket claimed by <@staff1>."},
		{domain.ActionUnclaim, staff1, "Ticket #1 is no longer claimed."},
		{domain.ActionClose, creator, "Ticket #1 has been closed."},
		{domain.ActionReopen, staff2, "Ticket #1 has been reopened."},
		{domain.ActionClose, staff2, "Ticket #1 has been closed."},
		{domain.ActionDelete, admin, "Ticket #1 will be deleted in 5 seconds."},
	}
	for _, step := range steps {
		out := h.press(channelID, step.action, step.actor)
		if out.Err != nil {
			t.Fatalf("%s: %v", step.action, out.Err)
		}
		if out.Message != step.want {
			t.Fatalf("%s message = %q, want %q", step.action, out.Message, step.want)
		}
	}

	wantOutcome(t, h.press(channelID, domain.ActionReopen, admin), apperrors.CodeNotATicket)
}

func TestDispatchNonTicketChannel(t *testing.T) {
	h := newHarness(t)

	out := h.press("general", domain.ActionClose, admin)
	wantOutcome(t, out, apperrors.CodeNotATicket)
	if out.Message != "This channel is not a valid ticket." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestDispatchUnknownControl(t *testing.T) {
	h := newHarness(t)

	out := h.actions.Dispatch(context.Background(), Interaction{GuildID: testGuild, ChannelID: "x", ControlID: "ticket_transcript", Actor: admin})
	wantOutcome(t, out, apperrors.CodeValidation)
}

type brokenSettings struct{}

func (brokenSettings) Get(context.Context, string) (domain.GuildTicketSettings, error) {
	return domain.GuildTicketSettings{}, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestDispatchMasksInternalErrors(t *testing.T) {
	h := newHarness(t)
	h.put(1, domain.TicketStatusOpen, "u1", "")

	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics()
	d := NewActionDispatcher(DispatcherDependencies{
		Tickets:  h.svc,
		Settings: brokenSettings{},
		Metrics:  metrics,
		Logger:   zap.New(core),
	})

	out := d.Dispatch(context.Background(), Interaction{
		GuildID:   testGuild,
		ChannelID: channelFor(1),
		ControlID: domain.ActionClaim.ControlID(),
		Actor:     staff1,
	})
	wantOutcome(t, out, apperrors.CodeInternal)
	if out.Message != apperrors.GenericMessage {
		t.Fatalf("message = %q", out.Message)
	}

	entries := logs.FilterMessage("ticket action rejected").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel || entries[0].ContextMap()["code"] != apperrors.CodeInternal {
		t.Fatalf("entry = %+v", entries[0])
	}
	if n := metrics.Snapshot().Actions["claim|"+apperrors.CodeInternal]; n != 1 {
		t.Fatalf("action metric = %d", n)
	}
}
