package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// ResponseRepository persists canned staff responses, keyed by guild and name.
type ResponseRepository interface {
	// Create returns ErrDuplicateName when the guild already has the name.
	Create(ctx context.Context, response *domain.CannedResponse) error
	GetByName(ctx context.Context, guildID, name string) (*domain.CannedResponse, error)
	List(ctx context.Context, guildID string) ([]domain.CannedResponse, error)
	UpdateContent(ctx context.Context, guildID, name, content string) (*domain.CannedResponse, error)
	Delete(ctx context.Context, guildID, name string) (bool, error)
}

type responseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository builds repository.
func NewResponseRepository(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepository{pool: pool}
}

const responseColumns = `id, guild_id, name, content, created_by, created_at, updated_at`

func (r *responseRepository) Create(ctx context.Context, resp *domain.CannedResponse) error {
	const op = "repository.response.Create"
	const query = `
        INSERT INTO ticket_responses (id, guild_id, name, content, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		resp.ID,
		resp.GuildID,
		resp.Name,
		resp.Content,
		resp.CreatedBy,
	).Scan(&resp.CreatedAt, &resp.UpdatedAt)
	return wrapDBErr(op, err)
}

func (r *responseRepository) GetByName(ctx context.Context, guildID, name string) (*domain.CannedResponse, error) {
	const op = "repository.response.GetByName"
	query := `SELECT ` + responseColumns + ` FROM ticket_responses WHERE guild_id=$1 AND name=$2`
	resp, err := scanResponse(r.pool.QueryRow(ctx, query, guildID, name))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	return resp, nil
}

func (r *responseRepository) List(ctx context.Context, guildID string) ([]domain.CannedResponse, error) {
	const op = "repository.response.List"
	query := `SELECT ` + responseColumns + ` FROM ticket_responses WHERE guild_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var out []domain.CannedResponse
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *resp)
	}
	return out, wrapDBErr(op, rows.Err())
}

func (r *responseRepository) UpdateContent(ctx context.Context, guildID, name, content string) (*domain.CannedResponse, error) {
	const op = "repository.response.UpdateContent"
	query := `
        UPDATE ticket_responses SET content=$3, updated_at=NOW()
        WHERE guild_id=$1 AND name=$2
        RETURNING ` + responseColumns
	resp, err := scanResponse(r.pool.QueryRow(ctx, query, guildID, name, content))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	return resp, nil
}

func (r *responseRepository) Delete(ctx context.Context, guildID, name string) (bool, error) {
	const op = "repository.response.Delete"
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_responses WHERE guild_id=$1 AND name=$2`, guildID, name)
	if err != nil {
		return false, wrapDBErr(op, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func scanResponse(row pgx.Row) (*domain.CannedResponse, error) {
	var resp domain.CannedResponse
	if err := row.Scan(
		&resp.ID,
		&resp.GuildID,
		&resp.Name,
		&resp.Content,
		&resp.CreatedBy,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}
