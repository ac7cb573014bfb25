package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

// PostgreSQL SQLSTATE error codes
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection  = "08"
	pgClassInvalidAuth = "28"
	pgErrTooManyConns  = "53300"
	pgErrQueryCanceled = "57014"
	pgErrAdminShutdown = "57P01"
	pgErrCannotConnect = "57P03"
)

// mapError translates pgx errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if e := database.MapCommonError(err, msg); e != nil {
		return e
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifyCode(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// *pgconn.ConnectError and other transport failures.
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyCode maps a SQLSTATE code to ErrKind.
func classifyCode(code string) errs.ErrKind {
	switch {
	case strings.HasPrefix(code, pgClassConnection), strings.HasPrefix(code, pgClassInvalidAuth):
		return errs.ErrKindConnectionFailed
	case code == pgErrTooManyConns, code == pgErrAdminShutdown, code == pgErrCannotConnect:
		return errs.ErrKindConnectionFailed
	case code == pgErrQueryCanceled:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
