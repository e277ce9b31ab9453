// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the Strand protocol data model — commands,
// responses, and the tagged value union — together with the codec that
// moves them across a connection.
package wire

// Command is a single request to the Strand server: a command name and
// its ordered string arguments. Commands are plain data and are not
// mutated once constructed; a nil Args slice is equivalent to no
// arguments.
type Command struct {
	Cmd  string   `cbor:"cmd"`
	Args []string `cbor:"args,omitempty"`
}

// Kind tags which variant of the value union a Value holds.
type Kind uint8

// Value kinds. KindNil is the zero value, so an absent value decodes
// as nil without any special casing.
const (
	KindNil Kind = iota
	KindInt
	KindStr
	KindFloat
	KindBytes
)

// Value is the tagged union carried by a Response. Exactly one of the
// variant fields is meaningful, selected by Kind. Accessors return the
// Go zero value when the kind does not match — they never panic, so
// callers can read optimistically and check IsNil when it matters.
type Value struct {
	Kind Kind    `cbor:"kind"`
	I    int64   `cbor:"int,omitempty"`
	S    string  `cbor:"str,omitempty"`
	F    float64 `cbor:"float,omitempty"`
	B    []byte  `cbor:"bytes,omitempty"`
}

// Nil returns the absent value.
func Nil() Value { return Value{} }

// Int constructs an integer value.
func Int(i int64) Value { return Value{Kind: KindInt, I: i} }

// Str constructs a string value.
func Str(s string) Value { return Value{Kind: KindStr, S: s} }

// Float constructs a float value.
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }

// Bytes constructs a byte-sequence value.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, B: b} }

// IsNil reports whether the value is absent.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// Int returns the integer value, or 0 if the kind is not KindInt.
func (v Value) Int() int64 {
	if v.Kind != KindInt {
		return 0
	}
	return v.I
}

// Str returns the string value, or "" if the kind is not KindStr.
func (v Value) Str() string {
	if v.Kind != KindStr {
		return ""
	}
	return v.S
}

// Float returns the float value, or 0 if the kind is not KindFloat.
func (v Value) Float() float64 {
	if v.Kind != KindFloat {
		return 0
	}
	return v.F
}

// Bytes returns the byte-sequence value, or nil if the kind is not
// KindBytes.
func (v Value) Bytes() []byte {
	if v.Kind != KindBytes {
		return nil
	}
	return v.B
}

// Response is a single message from the Strand server: either an error
// (Err set) or a value — the scalar union in Value, optionally
// augmented by Attrs, List, or SSMap for structured results. Watch
// events use the same shape.
type Response struct {
	// Err is the server-reported error, empty on success. Transport
	// and decode failures on the client side are reported through the
	// same field so callers have exactly one error path.
	Err string `cbor:"err,omitempty"`

	// Value is the scalar result of the command.
	Value Value `cbor:"value,omitempty"`

	// Attrs carries optional response metadata keyed by name.
	Attrs map[string]any `cbor:"attrs,omitempty"`

	// List is an ordered multi-value result.
	List []Value `cbor:"list,omitempty"`

	// SSMap is a string-to-string map result.
	SSMap map[string]string `cbor:"ss_map,omitempty"`
}

// IsErr reports whether the response carries an error.
func (r *Response) IsErr() bool { return r.Err != "" }

// Int returns the scalar integer result, or 0.
func (r *Response) Int() int64 { return r.Value.Int() }

// Str returns the scalar string result, or "".
func (r *Response) Str() string { return r.Value.Str() }

// Float returns the scalar float result, or 0.
func (r *Response) Float() float64 { return r.Value.Float() }

// Bytes returns the scalar byte-sequence result, or nil.
func (r *Response) Bytes() []byte { return r.Value.Bytes() }

// IsNil reports whether the response carries no scalar value.
func (r *Response) IsNil() bool { return r.Value.IsNil() }
