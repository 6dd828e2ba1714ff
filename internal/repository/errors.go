package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsNotFound reports whether a store error means "no such row" as opposed
// to the storage layer being unreachable.
func IsNotFound(err error) bool {
	return isNoRows(err)
}
