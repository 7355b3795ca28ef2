package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord implements Gateway over a discordgo session. The session does not
// need an open websocket; REST calls are enough.
type Discord struct {
	session *discordgo.Session

	selfMu sync.Mutex
	selfID string
}

// NewDiscord wraps session.
func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

func (d *Discord) SelfID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s := d.session.State; s != nil && s.User != nil {
		return s.User.ID, nil
	}

	d.selfMu.Lock()
	defer d.selfMu.Unlock()
	if d.selfID != "" {
		return d.selfID, nil
	}
	user, err := d.session.User("@me")
	if err != nil {
		return "", err
	}
	d.selfID = user.ID
	return d.selfID, nil
}

func (d *Discord) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s := d.session.State; s != nil {
		if ch, err := s.Channel(channelID); err == nil && ch != nil {
			return true, nil
		}
	}
	_, err := d.session.Channel(channelID)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (d *Discord) CreateChannel(ctx context.Context, spec ChannelSpec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(spec.Overwrites))
	for _, o := range spec.Overwrites {
		overwrites = append(overwrites, toPermissionOverwrite(o))
	}
	ch, err := d.session.GuildChannelCreateComplex(spec.GuildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		ParentID:             spec.ParentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (d *Discord) RenameChannel(ctx context.Context, channelID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name})
	return err
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.session.ChannelDelete(channelID)
	if isNotFound(err) {
		return nil
	}
	return err
}

func (d *Discord) SetMemberAccess(ctx context.Context, channelID, userID string, allow, deny Permission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.session.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember,
		discordPermissions(allow), discordPermissions(deny))
}

func (d *Discord) SendMessage(ctx context.Context, channelID string, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	send := &discordgo.MessageSend{
		Content:    msg.Content,
		Components: renderControls(msg.Controls),
	}
	if msg.Card != nil {
		send.Embeds = []*discordgo.MessageEmbed{renderCard(msg.Card)}
	}
	sent, err := d.session.ChannelMessageSendComplex(channelID, send)
	if err != nil {
		return "", err
	}
	return sent.ID, nil
}

func (d *Discord) EditMessage(ctx context.Context, channelID, messageID string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := discordgo.NewMessageEdit(channelID, messageID)
	if msg.Content != "" {
		edit.SetContent(msg.Content)
	}
	if msg.Card != nil {
		edit.SetEmbeds([]*discordgo.MessageEmbed{renderCard(msg.Card)})
	}
	_, err := d.session.ChannelMessageEditComplex(edit)
	if isNotFound(err) {
		return ErrMessageNotFound
	}
	return err
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.session.ChannelMessageDelete(channelID, messageID)
	if isNotFound(err) {
		return nil
	}
	return err
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func toPermissionOverwrite(o Overwrite) *discordgo.PermissionOverwrite {
	kind := discordgo.PermissionOverwriteTypeRole
	if o.Kind == OverwriteMember {
		kind = discordgo.PermissionOverwriteTypeMember
	}
	return &discordgo.PermissionOverwrite{
		ID:    o.ID,
		Type:  kind,
		Allow: discordPermissions(o.Allow),
		Deny:  discordPermissions(o.Deny),
	}
}

var permissionBits = []struct {
	perm    Permission
	discord int64
}{
	{PermView, discordgo.PermissionViewChannel},
	{PermSend, discordgo.PermissionSendMessages},
	{PermReadHistory, discordgo.PermissionReadMessageHistory},
	{PermManageMessages, discordgo.PermissionManageMessages},
	{PermEmbedLinks, discordgo.PermissionEmbedLinks},
}

func discordPermissions(p Permission) int64 {
	var out int64
	for _, bit := range permissionBits {
		if p&bit.perm != 0 {
			out |= bit.discord
		}
	}
	return out
}

func renderCard(c *Card) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Description,
		Color:       c.Color,
	}
	for _, f := range c.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if c.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: c.Footer}
	}
	if !c.Timestamp.IsZero() {
		embed.Timestamp = c.Timestamp.UTC().Format(time.RFC3339)
	}
	return embed
}

var buttonStyles = map[ControlStyle]discordgo.ButtonStyle{
	StylePrimary:   discordgo.PrimaryButton,
	StyleSecondary: discordgo.SecondaryButton,
	StyleSuccess:   discordgo.SuccessButton,
	StyleDanger:    discordgo.DangerButton,
}

// renderControls lays controls out in rows of five, the platform limit.
func renderControls(controls []Control) []discordgo.MessageComponent {
	if len(controls) == 0 {
		return nil
	}
	var rows []discordgo.MessageComponent
	for start := 0; start < len(controls); start += 5 {
		end := start + 5
		if end > len(controls) {
			end = len(controls)
		}
		buttons := make([]discordgo.MessageComponent, 0, end-start)
		for _, c := range controls[start:end] {
			buttons = append(buttons, discordgo.Button{
				Label:    c.Label,
				Style:    buttonStyles[c.Style],
				CustomID: c.ID,
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}
