package mysql

import (
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

// MySQL / TiDB error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied    = 1044
	errAccessDenied      = 1045
	errNoDatabase        = 1046
	errUnknownDatabase   = 1049
	errTooManyConns      = 1040
	errTooManyUserConns  = 1203
	errConnRefused       = 2003
	errServerGone        = 2006
	errServerLost        = 2013
	errDuplicateEntry    = 1062
	errBadFieldError     = 1054
	errParseError        = 1064
	errNoSuchTable       = 1146
	errQueryInterrupted  = 1317
	errMaxExecTimeExceed = 3024
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if e := database.MapCommonError(err, msg); e != nil {
		return e
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	// gomysql.ErrInvalidConn, ErrMalformPkt and friends land here.
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDBAccessDenied, errAccessDenied, errNoDatabase, errUnknownDatabase:
		return errs.ErrKindConnectionFailed
	case errTooManyConns, errTooManyUserConns, errConnRefused, errServerGone, errServerLost:
		return errs.ErrKindConnectionFailed
	case errQueryInterrupted, errMaxExecTimeExceed:
		return errs.ErrKindTimeout
	case errDuplicateEntry, errBadFieldError, errParseError, errNoSuchTable:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
