// Package gateway is the boundary to the chat platform. The core talks in
// channels, member permissions and semantic messages; implementations render
// them for a concrete platform.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrMessageNotFound is returned by EditMessage when the message is gone.
var ErrMessageNotFound = errors.New("gateway: message not found")

// Permission is a platform-neutral channel permission bit set.
type Permission uint64

const (
	PermView Permission = 1 << iota
	PermSend
	PermReadHistory
	PermManageMessages
	PermEmbedLinks
)

// OverwriteKind says whether an overwrite targets a role or a single member.
type OverwriteKind int

const (
	OverwriteRole OverwriteKind = iota
	OverwriteMember
)

// Overwrite grants or denies permissions on one channel.
type Overwrite struct {
	ID    string
	Kind  OverwriteKind
	Allow Permission
	Deny  Permission
}

// ChannelSpec describes a text channel to create.
type ChannelSpec struct {
	GuildID    string
	ParentID   string
	Name       string
	Topic      string
	Overwrites []Overwrite
}

// ControlStyle is the visual weight of a control.
type ControlStyle int

const (
	StylePrimary ControlStyle = iota
	StyleSecondary
	StyleSuccess
	StyleDanger
)

// Control is an interactive button carrying an action id.
type Control struct {
	ID    string
	Label string
	Style ControlStyle
}

// Field is a name/value line on a card.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Card is a structured message block.
type Card struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Footer      string
	Timestamp   time.Time
}

// Message is what the core asks the platform to show.
type Message struct {
	Content  string
	Card     *Card
	Controls []Control
}

// Gateway performs platform side effects. All calls may fail; callers treat
// them as best effort once the store has been written.
type Gateway interface {
	SelfID(ctx context.Context) (string, error)
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	CreateChannel(ctx context.Context, spec ChannelSpec) (string, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error
	SetMemberAccess(ctx context.Context, channelID, userID string, allow, deny Permission) error
	SendMessage(ctx context.Context, channelID string, msg Message) (string, error)
	// EditMessage replaces content and card. Controls are only attached on send.
	EditMessage(ctx context.Context, channelID, messageID string, msg Message) error
	// DeleteMessage treats an already deleted message as success.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}
