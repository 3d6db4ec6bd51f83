package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbdesk/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBCreateExists    = 1007
	errDBDropExists      = 1008
	errDBAccessDenied    = 1044
	errAccessDenied      = 1045
	errUnknownDatabase   = 1049
	errTableExists       = 1050
	errUnknownTable      = 1051
	errBadFieldError     = 1054
	errDuplicateEntry    = 1062
	errInvalidDefault    = 1067
	errCantDropKey       = 1091
	errNoSuchTable       = 1146
	errTableAccessDenied = 1142
	errColAccessDenied   = 1143
	errCannotAddFK       = 1215
	errRowIsReferenced   = 1451
	errNoReferencedRow   = 1452
	errFKMissingIndex    = 1822
	errDropIndexFK       = 1553
	errConnRefused       = 2003
	errServerGone        = 2006
	errServerLost        = 2013
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
// The server's own message becomes the error message so it reaches the
// API caller unchanged.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(classifyMySQLCode(mysqlErr.Number), mysqlErr.Message, err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDuplicateEntry, errRowIsReferenced, errNoReferencedRow,
		errInvalidDefault, errCannotAddFK, errFKMissingIndex, errDropIndexFK, errTableExists, errDBCreateExists:
		return errs.ErrKindConstraint
	case errNoSuchTable, errUnknownTable, errUnknownDatabase, errDBDropExists:
		return errs.ErrKindNotFound
	case errDBAccessDenied, errAccessDenied, errTableAccessDenied, errColAccessDenied:
		return errs.ErrKindPermissionDenied
	case errConnRefused, errServerGone, errServerLost:
		return errs.ErrKindConnectionFailed
	case errBadFieldError, errCantDropKey:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
