package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// StatusUpdate is a compare-and-swap status change. The row is only written
// when its current status is one of From (any status when From is empty) and,
// if ExpectedAssignee is set, its assignee matches.
type StatusUpdate struct {
	GuildID          string
	ChannelID        string
	From             []domain.TicketStatus
	To               domain.TicketStatus
	ActorID          string
	ExpectedAssignee *string
	ClearAssignee    bool
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByChannel(ctx context.Context, guildID, channelID string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, guildID string, number int) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) (bool, error)
	SetControlMessage(ctx context.Context, guildID, channelID, messageID string) error
	Delete(ctx context.Context, guildID, channelID string) (bool, error)
	ListActive(ctx context.Context, guildID string) ([]domain.Ticket, error)
	ListActiveByCreator(ctx context.Context, guildID, userID string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, guild_id, channel_id, ticket_number, creator_id, assigned_to, status, subject,
               control_message_id, created_at, updated_at, closed_at, closed_by`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const op = "repository.ticket.Create"
	const query = `
        INSERT INTO tickets (id, guild_id, channel_id, ticket_number, creator_id, assigned_to, status, subject)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.GuildID,
		ticket.ChannelID,
		ticket.Number,
		ticket.CreatorID,
		ticket.AssignedTo,
		ticket.Status,
		ticket.Subject,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	return wrapDBErr(op, err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, "repository.ticket.GetByID", query, id)
}

func (r *ticketRepository) GetByChannel(ctx context.Context, guildID, channelID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE guild_id=$1 AND channel_id=$2`
	return r.fetchSingle(ctx, "repository.ticket.GetByChannel", query, guildID, channelID)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, guildID string, number int) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE guild_id=$1 AND ticket_number=$2`
	return r.fetchSingle(ctx, "repository.ticket.GetByNumber", query, guildID, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, op, query string, args ...any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.GuildID,
		&ticket.ChannelID,
		&ticket.Number,
		&ticket.CreatorID,
		&ticket.AssignedTo,
		&ticket.Status,
		&ticket.Subject,
		&ticket.ControlMessageID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.ClosedBy,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, update StatusUpdate) (bool, error) {
	const op = "repository.ticket.UpdateStatus"
	query, args := buildStatusUpdate(update)
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, wrapDBErr(op, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func buildStatusUpdate(update StatusUpdate) (string, []any) {
	args := []any{update.To}
	sets := []string{"status=$1", "updated_at=NOW()"}

	switch update.To {
	case domain.TicketStatusClosed:
		args = append(args, update.ActorID)
		sets = append(sets, "closed_at=NOW()", fmt.Sprintf("closed_by=$%d", len(args)))
	case domain.TicketStatusClaimed:
		args = append(args, update.ActorID)
		sets = append(sets, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if update.ClearAssignee && update.To != domain.TicketStatusClaimed {
		sets = append(sets, "assigned_to=NULL")
	}

	args = append(args, update.GuildID, update.ChannelID)
	conds := []string{
		fmt.Sprintf("guild_id=$%d", len(args)-1),
		fmt.Sprintf("channel_id=$%d", len(args)),
	}
	if len(update.From) > 0 {
		from := make([]string, 0, len(update.From))
		for _, s := range update.From {
			from = append(from, string(s))
		}
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if update.ExpectedAssignee != nil {
		args = append(args, *update.ExpectedAssignee)
		conds = append(conds, fmt.Sprintf("assigned_to=$%d", len(args)))
	}

	query := "UPDATE tickets SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(conds, " AND ")
	return query, args
}

func (r *ticketRepository) SetControlMessage(ctx context.Context, guildID, channelID, messageID string) error {
	const op = "repository.ticket.SetControlMessage"
	const query = `UPDATE tickets SET control_message_id=$1, updated_at=NOW() WHERE guild_id=$2 AND channel_id=$3`
	cmd, err := r.pool.Exec(ctx, query, messageID, guildID, channelID)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if cmd.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, guildID, channelID string) (bool, error) {
	const op = "repository.ticket.Delete"
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE guild_id=$1 AND channel_id=$2`, guildID, channelID)
	if err != nil {
		return false, wrapDBErr(op, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) ListActive(ctx context.Context, guildID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE guild_id=$1 AND status <> 'archived'
        ORDER BY created_at DESC`
	return r.list(ctx, "repository.ticket.ListActive", query, guildID)
}

func (r *ticketRepository) ListActiveByCreator(ctx context.Context, guildID, userID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE guild_id=$1 AND creator_id=$2 AND status IN ('open', 'claimed')
        ORDER BY created_at DESC`
	return r.list(ctx, "repository.ticket.ListActiveByCreator", query, guildID, userID)
}

func (r *ticketRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, wrapDBErr(op, rows.Err())
}
