// Package settings caches per-guild ticket configuration in process memory.
//
// Entries never expire on their own. Every write goes through Update, which
// invalidates the local entry and notifies other processes sharing the store.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// Store is the persistent source of settings.
type Store interface {
	Get(ctx context.Context, guildID string) (*domain.GuildTicketSettings, error)
	Upsert(ctx context.Context, settings *domain.GuildTicketSettings) error
}

// Notifier tells other processes that a guild's settings changed.
type Notifier interface {
	PublishSettingsChanged(ctx context.Context, guildID string) error
}

// Subscriber delivers change notices published by other processes.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, guildID string)) error
}

// loadTimeout bounds a shared store read. The read is detached from the
// caller that started it, since other callers may be waiting on it.
const loadTimeout = 5 * time.Second

// Option configures a Cache.
type Option func(*Cache)

func WithNotifier(n Notifier) Option {
	return func(c *Cache) { c.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// Cache is safe for concurrent use.
type Cache struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string]domain.GuildTicketSettings
	// gens is bumped on every invalidation so a load that started earlier
	// cannot write its result back.
	gens map[string]uint64
	sf   singleflight.Group
}

// NewCache returns an empty cache over store.
func NewCache(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		logger:  zap.NewNop(),
		entries: make(map[string]domain.GuildTicketSettings),
		gens:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the guild's settings, or defaults when none were saved.
// Defaults are not written to the store.
func (c *Cache) Get(ctx context.Context, guildID string) (domain.GuildTicketSettings, error) {
	c.mu.RLock()
	s, ok := c.entries[guildID]
	gen := c.gens[guildID]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	key := guildID + "#" + strconv.FormatUint(gen, 10)
	ch := c.sf.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return c.load(loadCtx, guildID, gen)
	})
	select {
	case <-ctx.Done():
		return domain.GuildTicketSettings{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.GuildTicketSettings{}, res.Err
		}
		return res.Val.(domain.GuildTicketSettings), nil
	}
}

func (c *Cache) load(ctx context.Context, guildID string, gen uint64) (domain.GuildTicketSettings, error) {
	stored, err := c.store.Get(ctx, guildID)
	var s domain.GuildTicketSettings
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s = domain.DefaultSettings(guildID)
	case err != nil:
		return domain.GuildTicketSettings{}, fmt.Errorf("settings.Cache.load: %w", err)
	default:
		s = *stored
	}

	c.mu.Lock()
	if c.gens[guildID] == gen {
		c.entries[guildID] = s
	}
	c.mu.Unlock()
	return s, nil
}

// Invalidate drops the cached entry for guildID.
func (c *Cache) Invalidate(guildID string) {
	c.mu.Lock()
	delete(c.entries, guildID)
	c.gens[guildID]++
	c.mu.Unlock()
}

// Update persists s and invalidates it here and in every subscribed process.
// Callers validate s first.
func (c *Cache) Update(ctx context.Context, s domain.GuildTicketSettings) (domain.GuildTicketSettings, error) {
	if err := c.store.Upsert(ctx, &s); err != nil {
		return domain.GuildTicketSettings{}, fmt.Errorf("settings.Cache.Update: %w", err)
	}
	c.Invalidate(s.GuildID)

	if c.notifier != nil {
		if err := c.notifier.PublishSettingsChanged(ctx, s.GuildID); err != nil {
			c.logger.Warn("settings change not broadcast; other processes may serve stale settings",
				zap.String("guild_id", s.GuildID), zap.Error(err))
		}
	}
	return s, nil
}

// Listen invalidates entries on remote change notices until ctx is done.
func (c *Cache) Listen(ctx context.Context, sub Subscriber) error {
	return sub.Subscribe(ctx, func(_ context.Context, guildID string) {
		c.logger.Debug("settings invalidated remotely", zap.String("guild_id", guildID))
		c.Invalidate(guildID)
	})
}
