package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/todo-api/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// Constraint names declared by the migrations and referenced when mapping errors.
const (
	usersEmailConstraint         = "users_email_lower_key"
	categoriesNameConstraint     = "categories_user_id_name_key"
	todosCategoryOwnerConstraint = "todos_category_owner_fkey"
)

// MapError maps a database error to the store error family.
// The original error is wrapped so it stays available for logging,
// while callers branch on the store sentinels with errors.Is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf(
				"%w: foreign key violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case checkViolationCode:
			return fmt.Errorf(
				"%w: check constraint violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case notNullViolationCode:
			return fmt.Errorf(
				"%w: not null violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ColumnName,
				err,
			)
		}
	}

	return err
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsForeignKeyViolation checks if the given error is a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// CheckRowsAffected returns notFound when an UPDATE or DELETE touched no rows.
// Scoping every statement by user id means a foreign row reports the same way as a missing one.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}

	return nil
}

// MapUniqueViolation maps a unique violation on the named constraint to specificError.
// Violations of other constraints map to the generic store.ErrDuplicate.
// Errors that are not unique violations pass through MapError.
func MapUniqueViolation(err error, constraintName string, specificError error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return MapError(err)
	}

	if specificError != nil && (constraintName == "" || pgErr.ConstraintName == constraintName) {
		return fmt.Errorf("%w: %v", specificError, err)
	}

	return fmt.Errorf("%w: duplicate value for constraint %s: %v", store.ErrDuplicate, pgErr.ConstraintName, err)
}

// MapForeignKeyViolation maps a foreign key violation on the named constraint
// to specificError. Anything else passes through MapError.
func MapForeignKeyViolation(err error, constraintName string, specificError error) error {
	var pgErr *pgconn.PgError
	if !IsForeignKeyViolation(err) || !errors.As(err, &pgErr) || pgErr.ConstraintName != constraintName {
		return MapError(err)
	}
	return fmt.Errorf("%w: %v", specificError, err)
}
