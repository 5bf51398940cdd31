package sqlxrepos

import (
	"database/sql/driver"
	"fmt"
	"net"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tscswap/backend/core"
)

// postgres going away: admin_shutdown, crash_shutdown & cannot_connect_now
var shutdownCodes = map[pq.ErrorCode]bool{"57P01": true, "57P02": true, "57P03": true}

// wrapErr annotates err with msg. Losing the database turns err into a core shutdown error.
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if connectionLost(err) {
		return errors.Wrap(core.NewShutdownError("database connection lost", err), msg)
	}
	return errors.Wrap(err, msg)
}

func wrapErrf(err error, format string, args ...interface{}) error {
	return wrapErr(err, fmt.Sprintf(format, args...))
}

func connectionLost(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return shutdownCodes[pqErr.Code]
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
