package repository

import (
	"errors"

	"github.com/jackc/pgx/v4"
)

var (
	ErrNotFound                 = errors.New("subscription not found")
	ErrMissingID                = errors.New("subscription has no id")
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
