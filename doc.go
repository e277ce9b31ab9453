// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

// Package strand is the Go client for the Strand key-value server.
//
// A Client owns one control connection carrying synchronous
// command/response cycles. Commands are plain name-plus-arguments
// messages (the command set itself — PING, GET, SET, and friends — is
// passed through as strings, not modeled here). Every connection opens
// with an identity handshake; the client keeps one identity token for
// its whole life and replays the handshake on every reconnect, so the
// server sees a stable logical client across connection churn.
//
//	client, err := strand.New("localhost", 7379)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp := client.Fire(&wire.Command{Cmd: "PING"})
//	fmt.Println(resp.Str()) // "PONG"
//
// Mid-session transport failures are absorbed: Fire detects a dead
// connection, reconnects and re-handshakes exactly once, and retries
// the command once. Callers only ever see a Response — errors travel
// in Response.Err, never as panics or returned Go errors (construction
// and Watch setup excepted).
//
// Watch opens a second, independent connection over which the server
// pushes asynchronous events:
//
//	watch, err := client.Watch()
//	if err != nil {
//		log.Fatal(err)
//	}
//	for event := range watch.C() {
//		// events arrive in server send order
//	}
//
// The package is organized around the protocol layers:
//
//   - frame: length-prefixed framing over the stream socket
//   - wire: the Command/Response data model and the pluggable codec
//     (deterministic CBOR by default)
//   - strand (this package): session lifecycle, reconnection, and the
//     watch subscription
package strand
