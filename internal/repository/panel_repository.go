package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// PanelRepository persists saved "Create Ticket" panels.
type PanelRepository interface {
	Create(ctx context.Context, panel *domain.TicketPanel) error
	Get(ctx context.Context, guildID, id string) (*domain.TicketPanel, error)
	List(ctx context.Context, guildID string) ([]domain.TicketPanel, error)
	// Update rewrites every editable column and returns ErrNotFound for a missing row.
	Update(ctx context.Context, panel *domain.TicketPanel) error
	Delete(ctx context.Context, guildID, id string) (bool, error)
}

type panelRepository struct {
	pool *pgxpool.Pool
}

// NewPanelRepository builds repository.
func NewPanelRepository(pool *pgxpool.Pool) PanelRepository {
	return &panelRepository{pool: pool}
}

const panelColumns = `id, guild_id, name, channel_id, message_id, title, description, button_text, color,
               created_by, created_at, updated_at`

func (r *panelRepository) Create(ctx context.Context, p *domain.TicketPanel) error {
	const op = "repository.panel.Create"
	const query = `
        INSERT INTO ticket_panels (id, guild_id, name, channel_id, message_id, title, description,
                                   button_text, color, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.GuildID,
		p.Name,
		p.ChannelID,
		p.MessageID,
		p.Title,
		p.Description,
		p.Button(),
		p.Color,
		p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return wrapDBErr(op, err)
}

func (r *panelRepository) Get(ctx context.Context, guildID, id string) (*domain.TicketPanel, error) {
	const op = "repository.panel.Get"
	query := `SELECT ` + panelColumns + ` FROM ticket_panels WHERE guild_id=$1 AND id=$2`
	panel, err := scanPanel(r.pool.QueryRow(ctx, query, guildID, id))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	return panel, nil
}

func (r *panelRepository) List(ctx context.Context, guildID string) ([]domain.TicketPanel, error) {
	const op = "repository.panel.List"
	query := `SELECT ` + panelColumns + ` FROM ticket_panels WHERE guild_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var panels []domain.TicketPanel
	for rows.Next() {
		panel, err := scanPanel(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		panels = append(panels, *panel)
	}
	return panels, wrapDBErr(op, rows.Err())
}

func (r *panelRepository) Update(ctx context.Context, p *domain.TicketPanel) error {
	const op = "repository.panel.Update"
	const query = `
        UPDATE ticket_panels SET
            name=$3, channel_id=$4, message_id=$5, title=$6, description=$7,
            button_text=$8, color=$9, updated_at=NOW()
        WHERE guild_id=$1 AND id=$2
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.GuildID,
		p.ID,
		p.Name,
		p.ChannelID,
		p.MessageID,
		p.Title,
		p.Description,
		p.Button(),
		p.Color,
	).Scan(&p.UpdatedAt)
	return wrapDBErr(op, err)
}

func (r *panelRepository) Delete(ctx context.Context, guildID, id string) (bool, error) {
	const op = "repository.panel.Delete"
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_panels WHERE guild_id=$1 AND id=$2`, guildID, id)
	if err != nil {
		return false, wrapDBErr(op, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func scanPanel(row pgx.Row) (*domain.TicketPanel, error) {
	var p domain.TicketPanel
	if err := row.Scan(
		&p.ID,
		&p.GuildID,
		&p.Name,
		&p.ChannelID,
		&p.MessageID,
		&p.Title,
		&p.Description,
		&p.ButtonText,
		&p.Color,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
