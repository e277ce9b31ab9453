// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package strand

import "github.com/strandkv/strand-go/wire"

// GetOrCreate returns existing if it is non-nil and still able to
// reach the server, otherwise constructs a fresh client for host:port.
// A stale existing client is closed before being replaced.
//
// Liveness is probed with a PING on the control connection, which
// exercises the normal reconnect path first — a client whose
// connection merely dropped heals itself and is reused rather than
// replaced.
func GetOrCreate(existing *Client, host string, port int, opts ...Option) (*Client, error) {
	if existing != nil {
		if resp := existing.Fire(&wire.Command{Cmd: "PING"}); !resp.IsErr() {
			return existing, nil
		}
		existing.Close()
	}
	return New(host, port, opts...)
}
