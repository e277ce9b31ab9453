// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical message always
// produces identical bytes, which keeps cross-implementation testing
// honest.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are silently ignored so older clients keep working
// against newer servers.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Response.Attrs is map[string]any. CBOR's default concrete
		// type for any-typed map targets is map[interface{}]interface{}
		// (CBOR allows non-string keys), which almost no Go code can
		// consume. Strand never uses non-string keys, so force
		// map[string]any. Struct field decoding is unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding. Servers
// and test doubles use this to produce frames byte-compatible with the
// default client codec.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Codec translates between protocol messages and frame payloads. The
// wire format is swappable: any implementation that round-trips the
// Command/Response model satisfies the client.
type Codec interface {
	// EncodeCommand serializes an outgoing command.
	EncodeCommand(cmd *Command) ([]byte, error)

	// DecodeResponse deserializes an incoming response. It never
	// fails the caller: malformed input yields a Response with Err
	// set describing the decode failure.
	DecodeResponse(data []byte) *Response
}

// CBOR is the default codec: deterministic CBOR as configured above.
type CBOR struct{}

var _ Codec = CBOR{}

// EncodeCommand implements Codec.
func (CBOR) EncodeCommand(cmd *Command) ([]byte, error) {
	return Marshal(cmd)
}

// DecodeResponse implements Codec.
func (CBOR) DecodeResponse(data []byte) *Response {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return &Response{Err: fmt.Sprintf("decode response: %v", err)}
	}
	return &resp
}
