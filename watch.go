// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package strand

import (
	"fmt"
	"net"
	"sync"

	"github.com/strandkv/strand-go/frame"
	"github.com/strandkv/strand-go/wire"
)

// Watch is a subscription to server-pushed events. It owns its own
// connection to the server, handshaken with the "watch" channel kind
// and the same identity token as the control connection, so the server
// can route events for this logical client to it.
//
// Events arrive on C in the order the server sent them. The receive
// loop buffers without bound, so a slow consumer delays delivery but
// never blocks the connection read.
//
// A Watch terminates one of two ways, never silently:
//
//   - Stop (or Client.Close): the stop signal interrupts the loop and
//     C is closed with no terminal entry.
//   - Unrecoverable read failure: after the one reconnect attempt
//     fails, a terminal Response with Err set is delivered on C, then
//     C is closed. The subscription is dead; call Client.Watch again
//     to open a new one.
type Watch struct {
	client *Client
	events chan *wire.Response

	stop     chan struct{}
	stopOnce sync.Once

	// mu guards conn, pending, done, and stopped. cond signals the
	// delivery goroutine when pending grows or the loop finishes.
	mu      sync.Mutex
	cond    *sync.Cond
	conn    net.Conn
	pending []*wire.Response
	done    bool
	stopped bool
}

// Watch opens the watch subscription, or returns the existing one if
// it is already open. Setup failures (dial, handshake) are hard errors
// wrapping ErrDialFailed or ErrHandshakeFailed; nothing is left
// running on failure.
func (c *Client) Watch() (*Watch, error) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.watch != nil {
		return c.watch, nil
	}

	conn, err := c.connect(channelWatch)
	if err != nil {
		return nil, err
	}

	w := &Watch{
		client: c,
		conn:   conn,
		stop:   make(chan struct{}),
		events: make(chan *wire.Response),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.readLoop()
	go w.deliverLoop()

	c.watch = w
	return w, nil
}

// clearWatch forgets w so a later Watch call opens a fresh
// subscription. No-op if another subscription already replaced it.
func (c *Client) clearWatch(w *Watch) {
	c.watchMu.Lock()
	if c.watch == w {
		c.watch = nil
	}
	c.watchMu.Unlock()
}

// C returns the event delivery channel. It is closed when the
// subscription ends; see the Watch type comment for the termination
// contract.
func (w *Watch) C() <-chan *wire.Response {
	return w.events
}

// Stop signals the subscription to terminate and closes its
// connection, which unblocks an in-progress read. Idempotent. Events
// not yet consumed from C may be dropped; C is closed once the loops
// wind down.
func (w *Watch) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.mu.Lock()
		w.stopped = true
		if w.conn != nil {
			w.conn.Close()
		}
		w.mu.Unlock()
	})
}

// readLoop reads framed responses from the watch connection and
// appends them to the pending queue until stopped or the connection
// fails unrecoverably. On a read failure it makes one
// reconnect-and-rehandshake attempt; if that fails, it enqueues a
// terminal error entry and exits.
func (w *Watch) readLoop() {
	defer w.finish()

	for {
		w.mu.Lock()
		conn := w.conn
		w.mu.Unlock()

		payload, err := frame.Read(conn)
		if err != nil {
			select {
			case <-w.stop:
				return
			default:
			}

			w.client.logger.Warn("watch connection lost, reconnecting",
				"addr", w.client.addr,
				"error", err,
			)
			fresh, reconnectErr := w.client.connect(channelWatch)
			if reconnectErr != nil {
				w.client.logger.Error("watch reconnect failed, subscription closed",
					"addr", w.client.addr,
					"error", reconnectErr,
				)
				w.push(&wire.Response{Err: fmt.Sprintf("watch: %v", err)})
				return
			}

			w.mu.Lock()
			if w.stopped {
				w.mu.Unlock()
				fresh.Close()
				return
			}
			w.conn.Close()
			w.conn = fresh
			w.mu.Unlock()
			continue
		}

		w.push(w.client.codec.DecodeResponse(payload))
	}
}

// push appends a response to the pending queue and wakes the delivery
// goroutine.
func (w *Watch) push(resp *wire.Response) {
	w.mu.Lock()
	w.pending = append(w.pending, resp)
	w.mu.Unlock()
	w.cond.Signal()
}

// finish marks the queue complete. The delivery goroutine drains what
// remains, then closes the events channel.
func (w *Watch) finish() {
	w.client.clearWatch(w)
	w.mu.Lock()
	w.done = true
	w.mu.Unlock()
	w.cond.Broadcast()
}

// deliverLoop moves responses from the pending queue to the events
// channel, preserving receive order. It exits — closing the channel —
// once the read loop is done and the queue is drained, or immediately
// on stop if the consumer is no longer receiving.
func (w *Watch) deliverLoop() {
	defer close(w.events)

	for {
		w.mu.Lock()
		for len(w.pending) == 0 && !w.done {
			w.cond.Wait()
		}
		if len(w.pending) == 0 {
			w.mu.Unlock()
			return
		}
		resp := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		select {
		case w.events <- resp:
		case <-w.stop:
			return
		}
	}
}
