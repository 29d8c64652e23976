package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/artem13815/jobboard/pkg/apperr"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// translate maps driver errors onto apperr kinds. notFound is used for
// pgx.ErrNoRows; anything unrecognised becomes internal.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(notFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.New(apperr.KindConflict, "already exists", err)
		case codeForeignKeyViolation:
			return apperr.New(apperr.KindConflict, "record is referenced by other records", err)
		case codeCheckViolation:
			return apperr.New(apperr.KindValidation, "constraint "+pgErr.ConstraintName+" violated", err)
		}
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal("database error", err)
}
