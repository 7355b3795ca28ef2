package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// SettingsRepository persists per-guild ticket configuration.
type SettingsRepository interface {
	// Get returns ErrNotFound when the guild never saved settings.
	Get(ctx context.Context, guildID string) (*domain.GuildTicketSettings, error)
	Upsert(ctx context.Context, settings *domain.GuildTicketSettings) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository builds repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, guildID string) (*domain.GuildTicketSettings, error) {
	const op = "repository.settings.Get"
	const query = `
        SELECT guild_id, is_enabled, category_id, log_channel_id, support_role_id,
               welcome_message, ticket_name_format, updated_at
        FROM ticket_settings WHERE guild_id=$1`
	var s domain.GuildTicketSettings
	err := r.pool.QueryRow(ctx, query, guildID).Scan(
		&s.GuildID,
		&s.IsEnabled,
		&s.CategoryID,
		&s.LogChannelID,
		&s.SupportRoleID,
		&s.WelcomeMessage,
		&s.TicketNameFormat,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *domain.GuildTicketSettings) error {
	const op = "repository.settings.Upsert"
	const query = `
        INSERT INTO ticket_settings (guild_id, is_enabled, category_id, log_channel_id, support_role_id,
                                     welcome_message, ticket_name_format)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (guild_id) DO UPDATE SET
            is_enabled=EXCLUDED.is_enabled,
            category_id=EXCLUDED.category_id,
            log_channel_id=EXCLUDED.log_channel_id,
            support_role_id=EXCLUDED.support_role_id,
            welcome_message=EXCLUDED.welcome_message,
            ticket_name_format=EXCLUDED.ticket_name_format,
            updated_at=NOW()
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		s.GuildID,
		s.IsEnabled,
		s.CategoryID,
		s.LogChannelID,
		s.SupportRoleID,
		s.WelcomeMessage,
		s.TicketNameFormat,
	).Scan(&s.UpdatedAt)
	return wrapDBErr(op, err)
}
