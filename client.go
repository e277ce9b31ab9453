// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package strand

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strandkv/strand-go/frame"
	"github.com/strandkv/strand-go/wire"
)

const (
	// DefaultDialTimeout is the maximum time to wait for the TCP
	// connection to be established.
	DefaultDialTimeout = 5 * time.Second

	// DefaultRequestTimeout bounds one request/response cycle on the
	// control connection.
	DefaultRequestTimeout = 5 * time.Second

	// channelCommand and channelWatch are the handshake channel kinds.
	// The server correlates both connections through the client ID sent
	// alongside the kind.
	channelCommand = "command"
	channelWatch   = "watch"
)

// Client is a connection to one Strand server. It owns a single
// control connection carrying synchronous command/response cycles,
// and optionally one watch connection (see Watch) carrying
// server-pushed events.
//
// Client is safe for concurrent use: the control connection is guarded
// by a mutex, so concurrent Fire calls serialize rather than
// interleave frames. The identity token is fixed at construction and
// survives reconnects, so the server sees one logical client across
// connection churn.
type Client struct {
	id             string
	addr           string
	codec          wire.Codec
	logger         *slog.Logger
	dialTimeout    time.Duration
	requestTimeout time.Duration

	// mu guards conn for exactly one request/response cycle at a time.
	// It is non-reentrant: the reconnect path inside Fire runs as a
	// retry loop under the already-held lock, never by re-entering.
	mu   sync.Mutex
	conn net.Conn

	watchMu sync.Mutex
	watch   *Watch
}

// New dials the Strand server at host:port and performs the
// command-channel handshake. Construction failures are hard errors:
// the returned error wraps ErrDialFailed or ErrHandshakeFailed.
//
// Every client generates a fresh identity token (a random UUID) unless
// WithID overrides it. The token never changes for the life of the
// client.
func New(host string, port int, opts ...Option) (*Client, error) {
	c := &Client{
		id:             uuid.NewString(),
		addr:           net.JoinHostPort(host, strconv.Itoa(port)),
		codec:          wire.CBOR{},
		logger:         slog.Default(),
		dialTimeout:    DefaultDialTimeout,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := c.connect(channelCommand)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// ID returns the client's identity token.
func (c *Client) ID() string { return c.id }

// Addr returns the server address in host:port form.
func (c *Client) Addr() string { return c.addr }

// dial opens a TCP connection to the server.
func (c *Client) dial() (net.Conn, error) {
	return (&net.Dialer{Timeout: c.dialTimeout}).Dial("tcp", c.addr)
}

// connect dials a fresh connection and performs the handshake for the
// given channel kind. This is the shared path for construction, the
// Fire reconnect, and the watch subscription (open and reconnect).
func (c *Client) connect(kind string) (net.Conn, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDialFailed, c.addr, err)
	}
	handshake := &wire.Command{Cmd: "HANDSHAKE", Args: []string{c.id, kind}}
	resp, err := c.exchange(conn, handshake)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if resp.IsErr() {
		conn.Close()
		return nil, fmt.Errorf("%w: %s", ErrHandshakeFailed, resp.Err)
	}
	return conn, nil
}

// exchange performs one request/response cycle on conn: encode, frame,
// write, read one frame, decode. The returned error is non-nil only
// for transport failures — decode failures come back inside the
// Response per the codec contract. The caller is responsible for
// holding whatever lock guards conn.
func (c *Client) exchange(conn net.Conn, cmd *wire.Command) (*wire.Response, error) {
	data, err := c.codec.EncodeCommand(cmd)
	if err != nil {
		// Encoding is deterministic over plain strings; a failure here
		// is a programming error, not a transport condition.
		return &wire.Response{Err: fmt.Sprintf("encode command: %v", err)}, nil
	}
	if c.requestTimeout > 0 {
		conn.SetDeadline(time.Now().Add(c.requestTimeout))
		defer conn.SetDeadline(time.Time{})
	}
	if err := frame.Write(conn, data); err != nil {
		return nil, err
	}
	payload, err := frame.Read(conn)
	if err != nil {
		return nil, err
	}
	return c.codec.DecodeResponse(payload), nil
}

// Fire sends a command on the control connection and blocks for the
// response. Failures never surface as panics or Go errors: the
// returned Response carries Err instead.
//
// When the transport fails with a dead-connection error (peer closed,
// broken pipe, reset), Fire makes exactly one recovery attempt: close
// the old connection, dial a new one, replay the handshake, and retry
// the command once. If recovery fails, the caller sees the original
// failure in Response.Err.
func (c *Client) Fire(cmd *wire.Command) *wire.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return &wire.Response{Err: ErrClosed.Error()}
	}

	resp, err := c.exchange(c.conn, cmd)
	if err == nil {
		return resp
	}
	if !isBrokenConn(err) {
		return &wire.Response{Err: err.Error()}
	}

	c.logger.Warn("control connection lost, reconnecting",
		"addr", c.addr,
		"error", err,
	)
	conn, reconnectErr := c.connect(channelCommand)
	if reconnectErr != nil {
		c.logger.Error("reconnect failed",
			"addr", c.addr,
			"error", reconnectErr,
		)
		return &wire.Response{Err: err.Error()}
	}
	c.conn.Close()
	c.conn = conn

	resp, err = c.exchange(c.conn, cmd)
	if err != nil {
		return &wire.Response{Err: err.Error()}
	}
	return resp
}

// FireString parses a whitespace-delimited command line — first token
// the command name, the rest its arguments — and fires it.
func (c *Client) FireString(s string) *wire.Response {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return &wire.Response{Err: "empty command"}
	}
	return c.Fire(&wire.Command{Cmd: tokens[0], Args: tokens[1:]})
}

// Close stops the watch subscription if one is open and closes the
// control connection. Close is idempotent; calls after the first
// return nil without effect. Fire after Close reports ErrClosed via
// Response.Err.
func (c *Client) Close() error {
	c.watchMu.Lock()
	if c.watch != nil {
		c.watch.Stop()
		c.watch = nil
	}
	c.watchMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}
