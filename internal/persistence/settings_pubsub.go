package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SettingsPubSub fans settings invalidations out to every process sharing Redis.
type SettingsPubSub struct {
	rdb     *redis.Client
	channel string
}

// NewSettingsPubSub publishes and subscribes on the settings channel of rdb.
func NewSettingsPubSub(rdb *redis.Client) *SettingsPubSub {
	return &SettingsPubSub{
		rdb:     rdb,
		channel: ChannelSettingsChanged(),
	}
}

type settingsChangedMsg struct {
	Type    string `json:"type"`
	GuildID string `json:"guild_id"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *SettingsPubSub) PublishSettingsChanged(ctx context.Context, guildID string) error {
	msg := settingsChangedMsg{
		Type:    "settings_changed",
		GuildID: guildID,
		TsUnix:  time.Now().Unix(),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks until ctx is done, calling handler for each notice.
func (p *SettingsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, guildID string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg settingsChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil && msg.GuildID != "" {
				handler(ctx, msg.GuildID)
			}
		}
	}
}
