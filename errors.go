// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package strand

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// Sentinel errors returned from constructors and Watch. Mid-session
// failures never surface as Go errors — they arrive as Response.Err —
// so these cover the hard-failure paths only. Match with errors.Is.
var (
	// ErrDialFailed wraps a failure to open the TCP connection.
	ErrDialFailed = errors.New("strand: dial failed")

	// ErrHandshakeFailed wraps a server-rejected or errored handshake.
	ErrHandshakeFailed = errors.New("strand: handshake failed")

	// ErrClosed reports use of a client after Close.
	ErrClosed = errors.New("strand: client is closed")
)

// isBrokenConn reports whether err indicates a dead connection that a
// reconnect can recover from: EOF, closed connection, broken pipe, or
// connection reset. Classification is by error kind, never by message
// substring — peers that full-close produce ECONNRESET and EPIPE on
// the surviving side where a half-close would produce EOF, and all of
// them mean the same thing here.
func isBrokenConn(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
