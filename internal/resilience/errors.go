// Package resilience classifies storage errors and retries the
// recoverable ones.
package resilience

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// IsConnectionFailure reports whether an error indicates the underlying
// store connection is closed or broken, meaning the handle should be
// reopened before the next operation. Query-level errors (constraint
// violations, bad SQL) are not connection failures.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	// Caller gave up; reopening would not help.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// pgx and database/sql report closed handles by message only.
	msg := strings.ToLower(err.Error())
	connPatterns := []string{
		"conn closed",
		"closed pool",
		"pool closed",
		"connection reset by peer",
		"broken pipe",
		"database is closed",
		"sql: database is closed",
		"unexpected eof",
		"server closed idle connection",
		"terminating connection",
		"connection refused",
	}
	for _, p := range connPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransient reports whether an error is worth retrying at all:
// connection failures plus name-resolution and TLS hiccups seen while
// dialing.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionFailure(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
