// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package strand

import (
	"net"
	"testing"
)

func TestGetOrCreate_Nil(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		if acceptHandshake(conn) == nil {
			return
		}
		serveEcho(conn)
	})

	client, err := GetOrCreate(nil, server.host, server.port)
	if err != nil {
		t.Fatalf("GetOrCreate(nil) error: %v", err)
	}
	defer client.Close()

	if resp := client.FireString("PING"); resp.Str() != "PONG" {
		t.Errorf("new client PING = %q, want PONG", resp.Str())
	}
}

func TestGetOrCreate_ReusesLiveClient(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		if acceptHandshake(conn) == nil {
			return
		}
		serveEcho(conn)
	})

	existing, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer existing.Close()

	client, err := GetOrCreate(existing, server.host, server.port)
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if client != existing {
		t.Error("GetOrCreate() replaced a live client")
	}
}

func TestGetOrCreate_ReplacesDeadClient(t *testing.T) {
	server := newFakeServer(t, func(conn net.Conn) {
		if acceptHandshake(conn) == nil {
			return
		}
		serveEcho(conn)
	})

	existing, err := New(server.host, server.port)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	existing.Close()

	client, err := GetOrCreate(existing, server.host, server.port)
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	defer client.Close()

	if client == existing {
		t.Fatal("GetOrCreate() returned the closed client")
	}
	if resp := client.FireString("PING"); resp.Str() != "PONG" {
		t.Errorf("replacement client PING = %q, want PONG", resp.Str())
	}
}
