package db

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

// Postgres error code for unique constraint violations.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolationCode
}
