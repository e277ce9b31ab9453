// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package strand

import (
	"log/slog"
	"time"

	"github.com/strandkv/strand-go/wire"
)

// Option configures a Client before it dials. Options apply in order;
// later options win.
type Option func(*Client)

// WithID overrides the generated identity token. The token correlates
// the control and watch connections to one logical client on the
// server, so two clients sharing an ID share server-side watch state.
func WithID(id string) Option {
	return func(c *Client) { c.id = id }
}

// WithLogger sets the logger for connection lifecycle events
// (reconnects, watch failures). Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDialTimeout sets the maximum time to wait for a TCP connection
// to be established. Defaults to DefaultDialTimeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithRequestTimeout bounds one request/response cycle on the control
// connection via socket deadlines. Zero disables the deadline. The
// watch connection is exempt — its reads legitimately block until the
// server pushes an event. Defaults to DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithCodec replaces the default CBOR codec. The server must speak the
// same format.
func WithCodec(codec wire.Codec) Option {
	return func(c *Client) { c.codec = codec }
}
