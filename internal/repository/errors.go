package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrDuplicateChannel = fmt.Errorf("%w: channel already has a ticket", ErrConflict)
	ErrDuplicateNumber  = fmt.Errorf("%w: ticket number already taken", ErrConflict)
	ErrDuplicateName    = fmt.Errorf("%w: name already taken", ErrConflict)
)

const (
	constraintGuildChannel = "tickets_guild_channel_key"
	constraintGuildNumber  = "tickets_guild_number_key"
	constraintResponseName = "ticket_responses_guild_name_key"
)

// wrapDBErr maps driver errors to repository errors and prefixes the operation name.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) && pge.Code == "23505" {
		switch pge.ConstraintName {
		case constraintGuildChannel:
			return fmt.Errorf("%s: %w", op, ErrDuplicateChannel)
		case constraintGuildNumber:
			return fmt.Errorf("%s: %w", op, ErrDuplicateNumber)
		case constraintResponseName:
			return fmt.Errorf("%s: %w", op, ErrDuplicateName)
		}
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryable reports serialization failures and deadlocks.
func IsRetryable(err error) bool {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == "40001" || pge.Code == "40P01"
	}
	return false
}
