package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberAllocator hands out per-guild ticket numbers.
type NumberAllocator interface {
	NextNumber(ctx context.Context, guildID string) (int, error)
}

type counterAllocator struct {
	pool     *pgxpool.Pool
	attempts int
}

// NewCounterAllocator returns an allocator backed by ticket_counters. The
// counter is seeded from the highest stored ticket number and only grows, so
// concurrent callers get distinct numbers and deleted numbers are not reused.
func NewCounterAllocator(pool *pgxpool.Pool) NumberAllocator {
	return &counterAllocator{pool: pool, attempts: 3}
}

func (a *counterAllocator) NextNumber(ctx context.Context, guildID string) (int, error) {
	const op = "repository.counter.NextNumber"
	const query = `
        INSERT INTO ticket_counters (guild_id, last_number)
        VALUES ($1, (SELECT COALESCE(MAX(ticket_number), 0) + 1 FROM tickets WHERE guild_id=$1))
        ON CONFLICT (guild_id) DO UPDATE SET
            last_number=GREATEST(ticket_counters.last_number,
                (SELECT COALESCE(MAX(ticket_number), 0) FROM tickets WHERE guild_id=$1)) + 1,
            updated_at=NOW()
        RETURNING last_number`

	var (
		number int
		err    error
	)
	for i := 0; i < a.attempts; i++ {
		err = a.pool.QueryRow(ctx, query, guildID).Scan(&number)
		if err == nil {
			return number, nil
		}
		if !IsRetryable(err) {
			break
		}
	}
	return 0, wrapDBErr(op, err)
}
