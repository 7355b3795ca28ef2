package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/ticketbot/internal/gateway"
)

// SentMessage is a message recorded by Gateway.
type SentMessage struct {
	ChannelID string
	MessageID string
	Message   gateway.Message
	Edit      bool
}

// AccessChange is a SetMemberAccess call recorded by Gateway.
type AccessChange struct {
	ChannelID string
	UserID    string
	Allow     gateway.Permission
	Deny      gateway.Permission
}

// Gateway is a recording gateway.Gateway.
type Gateway struct {
	mu       sync.Mutex
	seq      int
	created  []gateway.ChannelSpec
	deleted  []string
	renamed  map[string]string
	access   []AccessChange
	messages []SentMessage
	missing  map[string]bool
	removed  []SentMessage

	// gone holds deleted message ids; editing one fails.
	gone map[string]bool

	Self             string
	CreateChannelErr error
	SendErr          error
	DeleteMessageErr error
}

func NewGateway() *Gateway {
	return &Gateway{
		Self:    "bot",
		renamed: make(map[string]string),
		missing: make(map[string]bool),
		gone:    make(map[string]bool),
	}
}

// MarkMissing makes ChannelExists report false for channelID.
func (g *Gateway) MarkMissing(channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.missing[channelID] = true
}

func (g *Gateway) SelfID(context.Context) (string, error) {
	return g.Self, nil
}

func (g *Gateway) ChannelExists(_ context.Context, channelID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.missing[channelID], nil
}

func (g *Gateway) CreateChannel(_ context.Context, spec gateway.ChannelSpec) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateChannelErr != nil {
		return "", g.CreateChannelErr
	}
	g.seq++
	g.created = append(g.created, spec)
	return fmt.Sprintf("chan-%d", g.seq), nil
}

func (g *Gateway) RenameChannel(_ context.Context, channelID, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.renamed[channelID] = name
	return nil
}

func (g *Gateway) DeleteChannel(_ context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, channelID)
	g.missing[channelID] = true
	return nil
}

func (g *Gateway) SetMemberAccess(_ context.Context, channelID, userID string, allow, deny gateway.Permission) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.access = append(g.access, AccessChange{ChannelID: channelID, UserID: userID, Allow: allow, Deny: deny})
	return nil
}

func (g *Gateway) SendMessage(_ context.Context, channelID string, msg gateway.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SendErr != nil {
		return "", g.SendErr
	}
	g.seq++
	id := fmt.Sprintf("msg-%d", g.seq)
	g.messages = append(g.messages, SentMessage{ChannelID: channelID, MessageID: id, Message: msg})
	return id, nil
}

func (g *Gateway) EditMessage(_ context.Context, channelID, messageID string, msg gateway.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gone[messageID] {
		return gateway.ErrMessageNotFound
	}
	g.messages = append(g.messages, SentMessage{ChannelID: channelID, MessageID: messageID, Message: msg, Edit: true})
	return nil
}

func (g *Gateway) DeleteMessage(_ context.Context, channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeleteMessageErr != nil {
		return g.DeleteMessageErr
	}
	g.gone[messageID] = true
	g.removed = append(g.removed, SentMessage{ChannelID: channelID, MessageID: messageID})
	return nil
}

// ForgetMessage makes later edits of messageID fail as if it had been deleted by hand.
func (g *Gateway) ForgetMessage(messageID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gone[messageID] = true
}

// DeletedMessages returns every DeleteMessage call that succeeded.
func (g *Gateway) DeletedMessages() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SentMessage(nil), g.removed...)
}

// Created returns every channel spec passed to CreateChannel.
func (g *Gateway) Created() []gateway.ChannelSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.ChannelSpec(nil), g.created...)
}

// Deleted returns every channel id passed to DeleteChannel.
func (g *Gateway) Deleted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deleted...)
}

// Renamed returns the last name set for channelID.
func (g *Gateway) Renamed(channelID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.renamed[channelID]
}

// Access returns every SetMemberAccess call.
func (g *Gateway) Access() []AccessChange {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]AccessChange(nil), g.access...)
}

// Messages returns sent and edited messages, optionally only for channelID.
func (g *Gateway) Messages(channelID string) []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []SentMessage
	for _, m := range g.messages {
		if channelID == "" || m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}
