package transport

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Transport error codes reported in error metadata
const (
	CodeConnectionReset = "ECONNRESET"
	CodeProtocol        = "EPROTO"
	CodeTimeout         = "ETIMEDOUT"
)

// IsTimeout reports whether err is a request that took too long
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsConnectionReset reports whether the peer reset the connection
func IsConnectionReset(err error) bool {
	return err != nil && errors.Is(err, syscall.ECONNRESET)
}

// IsProtocolError reports a transport-level protocol failure
func IsProtocolError(err error) bool {
	return err != nil && errors.Is(err, syscall.EPROTO)
}

// Code returns the transport error code for err, or "" when it has none
func Code(err error) string {
	switch {
	case IsConnectionReset(err):
		return CodeConnectionReset
	case IsProtocolError(err):
		return CodeProtocol
	case IsTimeout(err):
		return CodeTimeout
	default:
		return ""
	}
}
