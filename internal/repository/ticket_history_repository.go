package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const op = "repository.history.Create"
	const query = `
        INSERT INTO ticket_history (id, ticket_id, guild_id, ticket_number, actor_id, action, from_status, to_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, query,
		history.ID,
		history.TicketID,
		history.GuildID,
		history.Number,
		history.ActorID,
		history.Action,
		history.FromStatus,
		history.ToStatus,
	).Scan(&history.CreatedAt)
	return wrapDBErr(op, err)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	const op = "repository.history.ListByTicket"
	const query = `
        SELECT id, ticket_id, guild_id, ticket_number, actor_id, action, from_status, to_status, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.GuildID,
			&history.Number,
			&history.ActorID,
			&history.Action,
			&history.FromStatus,
			&history.ToStatus,
			&history.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		result = append(result, history)
	}
	return result, wrapDBErr(op, rows.Err())
}
