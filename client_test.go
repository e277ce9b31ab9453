// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package strand

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/strandkv/strand-go/frame"
	"github.com/strandkv/strand-go/wire"
)

// fakeServer is an in-process Strand server speaking the frame+CBOR
// protocol. Each accepted connection runs the test-provided handler in
// its own goroutine.
type fakeServer struct {
	listener net.Listener
	host     string
	port     int
}

func newFakeServer(t *testing.T, handle func(conn net.Conn)) *fakeServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error: %v", err)
	}
	host, portString, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort() error: %v", err)
	}
	port, err := strconv.Atoi(portString)
	if err != nil {
		t.Fatalf("Atoi(%q) error: %v", portString, err)
	}
	s := &fakeServer{listener: listener, host: host, port: port}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go handle(conn)
		}
	}()
	t.Cleanup(func() { listener.Close() })
	return s
}

func (s *fakeServer) close() {
	s.listener.Close()
}

// readCommand reads one framed command from conn. Returns nil when the
// connection ends.
func readCommand(conn net.Conn) *wire.Command {
	payload, err := frame.Read(conn)
	if err != nil {
		return nil
	}
	var cmd wire.Command
	if err := wire.Unmarshal(payload, &cmd); err != nil {
		return nil
	}
	return &cmd
}

// writeResponse writes one framed response to conn.
func writeResponse(conn net.Conn, resp *wire.Response) error {
	data, err := wire.Marshal(resp)
	if err != nil {
		return err
	}
	return frame.Write(conn, data)
}

// acceptHandshake reads the first command, checks it is a HANDSHAKE,
// and replies with success. Returns the handshake command, or nil if
// the exchange failed.
func acceptHandshake(conn net.Conn) *wire.Command {
	cmd := readCommand(conn)
	if cmd == nil || cmd.Cmd != "HANDSHAKE" || len(cmd.Args) != 2 {
		conn.Close()
		return nil
	}
	if err := writeResponse(conn, &wire.Response{}); err != nil {
		conn.Close()
		return nil
	}
	return cmd
}

// serveEcho answers every command with its own name as a string value.
// PING gets the traditional PONG.
func serveEcho(conn net.Conn) {
	defer conn.Close()
	for {
		cmd := readCommand(conn)
		if cmd == nil {
			return
		}
		reply := cmd.Cmd
		if reply == "PING" {
			reply = "PONG"
		}
		if err := writeResponse(conn, &wire.Response{Value: wire.Str(reply)}); err != nil {
			return
		}
	}
}

func TestFire_Ping(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		if acceptHandshake(conn) == nil {
			return
		}
		serveEcho(conn)
	})

	client, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer client.Close()

	resp := client.Fire(&wire.Command{Cmd: "PING"})
	if resp.IsErr() {
		t.Fatalf("Fire(PING) error: %s", resp.Err)
	}
	if got := resp.Str(); got != "PONG" {
		t.Errorf("Fire(PING) = %q, want %q", got, "PONG")
	}
	if resp.Value.Kind != wire.KindStr {
		t.Errorf("Value.Kind = %d, want KindStr", resp.Value.Kind)
	}
}

func TestNew_SendsIdentityHandshake(t *testing.T) {
	handshakes := make(chan *wire.Command, 1)
	server := newFakeServer(t, func(conn net.Conn) {
		cmd := acceptHandshake(conn)
		if cmd == nil {
			return
		}
		handshakes <- cmd
		serveEcho(conn)
	})

	client, err := New(server.host, server.port, WithID("client-under-test"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer client.Close()

	cmd := <-handshakes
	if cmd.Args[0] != "client-under-test" {
		t.Errorf("handshake identity = %q, want %q", cmd.Args[0], "client-under-test")
	}
	if cmd.Args[1] != "command" {
		t.Errorf("handshake channel kind = %q, want %q", cmd.Args[1], "command")
	}
	if client.ID() != "client-under-test" {
		t.Errorf("ID() = %q, want %q", client.ID(), "client-under-test")
	}
}

func TestNew_DialFailed(t *testing.T) {
	// Grab a port that refuses connections by closing its listener.
	server := newFakeServer(t, func(conn net.Conn) { conn.Close() })
	server.close()

	_, err := New(server.host, server.port)
	if !errors.Is(err, ErrDialFailed) {
		t.Fatalf("New() error = %v, want ErrDialFailed", err)
	}
}

func TestNew_HandshakeRejected(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		if readCommand(conn) == nil {
			return
		}
		writeResponse(conn, &wire.Response{Err: "unknown client"})
	})

	_, err := New(server.host, server.port)
	if !errors.Is(err, ErrHandshakeFailed) {
		t.Fatalf("New() error = %v, want ErrHandshakeFailed", err)
	}
}

func TestFire_ReconnectsExactlyOnce(t *testing.T) {
	var connCount atomic.Int32
	handshakes := make(chan *wire.Command, 4)
	server := newFakeServer(t, func(conn net.Conn) {
		n := connCount.Add(1)
		cmd := acceptHandshake(conn)
		if cmd == nil {
			return
		}
		handshakes <- cmd
		if n == 1 {
			// Simulate the server dropping the session after handshake.
			conn.Close()
			return
		}
		serveEcho(conn)
	})

	client, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer client.Close()

	// The first connection is already dead. The caller must observe
	// only the final successful response.
	resp := client.Fire(&wire.Command{Cmd: "PING"})
	if resp.IsErr() {
		t.Fatalf("Fire(PING) after server close = error %q, want transparent reconnect", resp.Err)
	}
	if got := resp.Str(); got != "PONG" {
		t.Errorf("Fire(PING) = %q, want %q", got, "PONG")
	}

	if got := connCount.Load(); got != 2 {
		t.Errorf("server saw %d connections, want 2 (original + one reconnect)", got)
	}
	first, second := <-handshakes, <-handshakes
	if first.Args[0] != second.Args[0] {
		t.Errorf("identity changed across reconnect: %q then %q", first.Args[0], second.Args[0])
	}
	if second.Args[1] != "command" {
		t.Errorf("reconnect handshake kind = %q, want %q", second.Args[1], "command")
	}
}

func TestFire_ReconnectFailureReturnsError(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		if acceptHandshake(conn) == nil {
			return
		}
		conn.Close()
	})

	client, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer client.Close()

	// No server left to reconnect to.
	server.close()

	resp := client.Fire(&wire.Command{Cmd: "PING"})
	if !resp.IsErr() {
		t.Fatal("Fire() after unrecoverable connection loss returned success")
	}
	if !resp.IsNil() {
		t.Error("error response carries a populated value")
	}
}

func TestFire_Concurrent(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		if acceptHandshake(conn) == nil {
			return
		}
		serveEcho(conn)
	})

	client, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer client.Close()

	// Each goroutine fires uniquely-named commands and checks its own
	// echo. Any frame interleaving on the shared connection would
	// cross-wire the responses or corrupt the stream.
	const workers = 8
	const firesPerWorker = 25
	var wg sync.WaitGroup
	failures := make(chan string, workers*firesPerWorker)
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < firesPerWorker; i++ {
				name := fmt.Sprintf("CMD-%d-%d", worker, i)
				resp := client.Fire(&wire.Command{Cmd: name})
				if resp.IsErr() {
					failures <- fmt.Sprintf("%s: %s", name, resp.Err)
					return
				}
				if resp.Str() != name {
					failures <- fmt.Sprintf("%s: got %q", name, resp.Str())
					return
				}
			}
		}(worker)
	}
	wg.Wait()
	close(failures)
	for failure := range failures {
		t.Error(failure)
	}
}

func TestFireString(t *testing.T) {
	commands := make(chan *wire.Command, 1)
	server := newFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		if acceptHandshake(conn) == nil {
			return
		}
		for {
			cmd := readCommand(conn)
			if cmd == nil {
				return
			}
			commands <- cmd
			if err := writeResponse(conn, &wire.Response{Value: wire.Str("OK")}); err != nil {
				return
			}
		}
	})

	client, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer client.Close()

	resp := client.FireString("  SET  greeting   hello world ")
	if resp.IsErr() {
		t.Fatalf("FireString() error: %s", resp.Err)
	}
	cmd := <-commands
	if cmd.Cmd != "SET" {
		t.Errorf("Cmd = %q, want %q", cmd.Cmd, "SET")
	}
	want := []string{"greeting", "hello", "world"}
	if len(cmd.Args) != len(want) {
		t.Fatalf("Args = %v, want %v", cmd.Args, want)
	}
	for i := range want {
		if cmd.Args[i] != want[i] {
			t.Errorf("Args[%d] = %q, want %q", i, cmd.Args[i], want[i])
		}
	}

	if resp := client.FireString("   "); !resp.IsErr() {
		t.Error("FireString() on blank input returned success")
	}
}

func TestClose_Idempotent(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		if acceptHandshake(conn) == nil {
			return
		}
		serveEcho(conn)
	})

	client, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := client.Close(); err != nil {
			t.Fatalf("Close() call %d error: %v", i+1, err)
		}
	}

	resp := client.Fire(&wire.Command{Cmd: "PING"})
	if !resp.IsErr() {
		t.Fatal("Fire() after Close returned success")
	}
}
