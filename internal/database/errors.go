package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/koustreak/playerdb/internal/errs"
)

// MapCommonError classifies the errors every engine reports the same way:
// expired contexts, closed handles and broken network connections.
// It returns nil when err needs engine-specific treatment, so dialects call
// it first and fall through to their own codes:
//
//	if e := database.MapCommonError(err, msg); e != nil {
//	    return e
//	}
func MapCommonError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// database/sql keeps errDBClosed unexported; its text is stable.
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "sql: database is closed") {
		return errs.Wrap(errs.ErrKindClosed, msg, err)
	}

	if errors.Is(err, driver.ErrBadConn) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return nil
}
