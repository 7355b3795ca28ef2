package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/api/http/handlers"
	"github.com/spec-kit/ticketbot/internal/auth"
	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/gateway"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/service"
	"github.com/spec-kit/ticketbot/internal/settings"
	"github.com/spec-kit/ticketbot/internal/testutil"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	tickets *testutil.TicketRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewSettingsStore()
	category, role := "cat", "support"
	s := domain.DefaultSettings("g1")
	s.IsEnabled = true
	s.CategoryID = &category
	s.SupportRoleID = &role
	if err := store.Upsert(context.Background(), &s); err != nil {
		t.Fatal(err)
	}
	cache := settings.NewCache(store)

	repo := testutil.NewTicketRepo()
	gw := testutil.NewGateway()
	runner := &gateway.InlineRunner{Logger: zap.NewNop()}
	svc := service.NewTicketService(service.TicketDependencies{
		Tickets:    repo,
		History:    &testutil.HistoryRepo{},
		Numbers:    testutil.NewAllocator(),
		Settings:   cache,
		Gateway:    gw,
		Followups:  runner,
		Dispatcher: events.NewInMemoryDispatcher(),
	}, service.TicketConfig{DeleteDelay: 5 * time.Second})
	actions := service.NewActionDispatcher(service.DispatcherDependencies{Tickets: svc, Settings: cache})
	panels := service.NewPanelService(service.PanelDependencies{Panels: testutil.NewPanelRepo(), Gateway: gw})

	tokens := auth.NewTokenManager("test-secret", 5)
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("ticketbot", "test", handlers.Probe{Name: "postgres", Pinger: stubPinger{}}),
		Settings:       handlers.NewSettingsHandler(cache),
		Tickets:        handlers.NewTicketsHandler(svc, actions, cache),
		Panels:         handlers.NewPanelsHandler(panels, cache),
		Responses:      handlers.NewResponsesHandler(service.NewResponseService(testutil.NewResponseRepo()), cache),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	repo.Put(&domain.Ticket{
		ID: "t1", GuildID: "g1", ChannelID: "c1", Number: 1, CreatorID: "u1",
		Status: domain.TicketStatusOpen, Subject: domain.DefaultSubject(1),
	})
	return &testServer{app: app, tokens: tokens, tickets: repo}
}

func (s *testServer) token(t *testing.T, userID string, grant auth.GuildGrant) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(userID, []auth.GuildGrant{grant})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if status, _ := s.do(t, nethttp.MethodGet, "/health/ready", "", nil); status != nethttp.StatusOK {
		t.Fatalf("ready status = %d", status)
	}
}

func TestReadinessProbes(t *testing.T) {
	down := stubPinger{err: errors.New("connection refused")}
	tests := []struct {
		name   string
		probes []handlers.Probe
		status int
		want   string
	}{
		{"all up", []handlers.Probe{{Name: "postgres", Pinger: stubPinger{}}}, nethttp.StatusOK, "ready"},
		{"optional down", []handlers.Probe{{Name: "postgres", Pinger: stubPinger{}}, {Name: "redis", Pinger: down, Optional: true}}, nethttp.StatusOK, "degraded"},
		{"required down", []handlers.Probe{{Name: "postgres", Pinger: down}, {Name: "redis", Pinger: stubPinger{}, Optional: true}}, nethttp.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ready", handlers.NewHealthHandler("ticketbot", "test", tt.probes...).Ready)

			resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/ready", nil))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body struct {
				Status string `json:"status"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&body)
			if body.Status != tt.want {
				t.Fatalf("body status = %q, want %q", body.Status, tt.want)
			}
		})
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets", "", nil)
	if status != nethttp.StatusUnauthorized || env.Error.Code != apperrors.CodeUnauthenticated {
		t.Fatalf("no token: %d %+v", status, env.Error)
	}

	member := s.token(t, "u9", auth.GuildGrant{ID: "g2"})
	status, env = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets", member, nil)
	if status != nethttp.StatusForbidden || env.Error.Code != apperrors.CodeUnauthorized {
		t.Fatalf("other guild: %d %+v", status, env.Error)
	}

	status, _ = s.do(t, nethttp.MethodGet, "/nowhere", "", nil)
	if status != nethttp.StatusNotFound {
		t.Fatalf("unknown route status = %d", status)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t)
	member := s.token(t, "u1", auth.GuildGrant{ID: "g1"})
	admin := s.token(t, "boss", auth.GuildGrant{ID: "g1", Admin: true})

	status, env := s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/settings", member, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("get status = %d", status)
	}

	format := "support-{number}"
	status, env = s.do(t, nethttp.MethodPut, "/api/guilds/g1/tickets/settings", member, map[string]any{"ticket_name_format": format})
	if status != nethttp.StatusForbidden {
		t.Fatalf("member update status = %d", status)
	}

	status, env = s.do(t, nethttp.MethodPut, "/api/guilds/g1/tickets/settings", admin, map[string]any{"ticket_name_format": "support"})
	if status != nethttp.StatusBadRequest || env.Error.Code != apperrors.CodeValidation {
		t.Fatalf("invalid update: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodPut, "/api/guilds/g1/tickets/settings", admin, map[string]any{"ticket_name_format": format, "log_channel_id": "logs"})
	if status != nethttp.StatusOK {
		t.Fatalf("update: %d %+v", status, env.Error)
	}

	_, env = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/settings", member, nil)
	var got struct {
		TicketNameFormat string  `json:"ticket_name_format"`
		LogChannelID     *string `json:"log_channel_id"`
		Configured       bool    `json:"configured"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.TicketNameFormat != format || got.LogChannelID == nil || *got.LogChannelID != "logs" || !got.Configured {
		t.Fatalf("settings after update = %+v", got)
	}
}

func TestTicketEndpoints(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "staff1", auth.GuildGrant{ID: "g1", RoleIDs: []string{"support"}})
	member := s.token(t, "u7", auth.GuildGrant{ID: "g1"})

	status, _ := s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets", member, nil)
	if status != nethttp.StatusForbidden {
		t.Fatalf("member list status = %d", status)
	}

	status, env := s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets", staff, nil)
	var list []struct {
		Number int `json:"number"`
	}
	if status != nethttp.StatusOK || json.Unmarshal(env.Data, &list) != nil || len(list) != 1 {
		t.Fatalf("list: %d %s", status, env.Data)
	}

	status, env = s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/1/close", staff, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("close: %d %+v", status, env.Error)
	}
	status, env = s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/1/close", staff, nil)
	if status != nethttp.StatusConflict || env.Error.Code != apperrors.CodeAlreadyInState {
		t.Fatalf("second close: %d %+v", status, env.Error)
	}
	if env.Error.Message != "This ticket is already closed." {
		t.Fatalf("message = %q", env.Error.Message)
	}

	status, env = s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/1/escalate", staff, nil)
	if status != nethttp.StatusBadRequest {
		t.Fatalf("unknown action: %d %+v", status, env.Error)
	}

	status, _ = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/99", staff, nil)
	if status != nethttp.StatusNotFound {
		t.Fatalf("missing ticket status = %d", status)
	}

	status, env = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/1/history", staff, nil)
	var history []struct {
		Action string `json:"action"`
	}
	if status != nethttp.StatusOK || json.Unmarshal(env.Data, &history) != nil || len(history) != 1 || history[0].Action != "close" {
		t.Fatalf("history: %d %s", status, env.Data)
	}

	status, env = s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/panels", staff, map[string]string{"channel_id": "help"})
	if status != nethttp.StatusCreated {
		t.Fatalf("panel: %d %+v", status, env.Error)
	}
}

func TestHistoryPagingIsBounded(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "staff1", auth.GuildGrant{ID: "g1", RoleIDs: []string{"support"}})
	if status, env := s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/1/close", staff, nil); status != nethttp.StatusOK {
		t.Fatalf("close: %d %+v", status, env.Error)
	}

	status, env := s.do(t, nethttp.MethodGet,
		"/api/guilds/g1/tickets/1/history?page=9223372036854775807&page_size=9223372036854775807", staff, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("huge page: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/1/history?page=1&page_size=100000", staff, nil)
	var history []struct {
		Action string `json:"action"`
	}
	if status != nethttp.StatusOK || json.Unmarshal(env.Data, &history) != nil || len(history) != 1 {
		t.Fatalf("capped page size: %d %s", status, env.Data)
	}
}

func TestPanelEndpoints(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "staff1", auth.GuildGrant{ID: "g1", RoleIDs: []string{"support"}})
	member := s.token(t, "u1", auth.GuildGrant{ID: "g1"})

	if status, _ := s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/panels", member, nil); status != nethttp.StatusForbidden {
		t.Fatalf("member list status = %d", status)
	}

	status, env := s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/panels", staff, map[string]string{
		"name": "main", "channel_id": "help", "title": "Support", "description": "Ask us", "color": "#00ff00",
	})
	var panel struct {
		ID        string `json:"id"`
		ChannelID string `json:"channel_id"`
		MessageID string `json:"message_id"`
		Color     string `json:"color"`
	}
	if status != nethttp.StatusCreated || json.Unmarshal(env.Data, &panel) != nil || panel.MessageID == "" || panel.Color != "#00FF00" {
		t.Fatalf("create: %d %s %+v", status, env.Data, env.Error)
	}

	status, env = s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/panels", staff, map[string]string{"channel_id": "help", "color": "green"})
	if status != nethttp.StatusBadRequest || env.Error.Code != apperrors.CodeValidation {
		t.Fatalf("bad color: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodPut, "/api/guilds/g1/tickets/panels/"+panel.ID, staff, map[string]string{"channel_id": "lobby"})
	var moved struct {
		ChannelID string `json:"channel_id"`
		MessageID string `json:"message_id"`
	}
	if status != nethttp.StatusOK || json.Unmarshal(env.Data, &moved) != nil || moved.ChannelID != "lobby" || moved.MessageID == panel.MessageID {
		t.Fatalf("move: %d %s %+v", status, env.Data, env.Error)
	}

	status, env = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/panels", staff, nil)
	var list []json.RawMessage
	if status != nethttp.StatusOK || json.Unmarshal(env.Data, &list) != nil || len(list) != 1 {
		t.Fatalf("list: %d %s", status, env.Data)
	}

	if status, _ := s.do(t, nethttp.MethodDelete, "/api/guilds/g1/tickets/panels/"+panel.ID, staff, nil); status != nethttp.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	status, env = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/panels/"+panel.ID, staff, nil)
	if status != nethttp.StatusNotFound || env.Error.Code != apperrors.CodeNotFound {
		t.Fatalf("get deleted: %d %+v", status, env.Error)
	}
}

func TestResponseEndpoints(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "staff1", auth.GuildGrant{ID: "g1", RoleIDs: []string{"support"}})

	body := map[string]string{"name": "refund", "content": "Refunds take 5 days."}
	if status, env := s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/responses", staff, body); status != nethttp.StatusCreated {
		t.Fatalf("create: %d %+v", status, env.Error)
	}
	status, env := s.do(t, nethttp.MethodPost, "/api/guilds/g1/tickets/responses", staff, body)
	if status != nethttp.StatusConflict || env.Error.Code != apperrors.CodeConflict {
		t.Fatalf("duplicate: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodPut, "/api/guilds/g1/tickets/responses/refund", staff, map[string]string{"content": "Three days."})
	var updated struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if status != nethttp.StatusOK || json.Unmarshal(env.Data, &updated) != nil || updated.Content != "Three days." {
		t.Fatalf("update: %d %s %+v", status, env.Data, env.Error)
	}
	if status, _ := s.do(t, nethttp.MethodPut, "/api/guilds/g1/tickets/responses/missing", staff, map[string]string{"content": "x"}); status != nethttp.StatusNotFound {
		t.Fatalf("update missing status = %d", status)
	}

	status, env = s.do(t, nethttp.MethodGet, "/api/guilds/g1/tickets/responses", staff, nil)
	var list []json.RawMessage
	if status != nethttp.StatusOK || json.Unmarshal(env.Data, &list) != nil || len(list) != 1 {
		t.Fatalf("list: %d %s", status, env.Data)
	}

	if status, _ := s.do(t, nethttp.MethodDelete, "/api/guilds/g1/tickets/responses/refund", staff, nil); status != nethttp.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	if status, _ := s.do(t, nethttp.MethodDelete, "/api/guilds/g1/tickets/responses/refund", staff, nil); status != nethttp.StatusNotFound {
		t.Fatalf("second delete status = %d", status)
	}
}
