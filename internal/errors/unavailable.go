package errors

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
)

// IsUnavailable reports whether err stems from the backing store being
// unreachable or timing out, rather than from bad input or a bug.
// Services wrap repository errors with %w, so the driver-level cause
// survives to the handler layer.
func IsUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
