package database

import (
	"strings"

	"github.com/itamcloud/itam-backend/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with a meaningful message.
// Returns nil if the error is not a pq.Error or the code has no mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// invalid_text_representation, e.g. a malformed uuid
	case "22P02":
		return errors.BadRequest("invalid identifier")

	// check_violation
	case "23514":
		return mapCheckConstraint(pqErr)

	// foreign_key_violation
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// undefined_table, undefined_column
	case "42P01", "42703":
		return errors.Internal("database schema mismatch", err)

	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch {
	case strings.Contains(pqErr.Constraint, "health_score"):
		return errors.Validation(map[string]string{
			"health_score": "must be between 0 and 100",
		})
	default:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	}
}
