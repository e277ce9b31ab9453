// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame implements the length-delimited framing used on every
// Strand connection. A frame is a 4-byte big-endian payload length
// followed by the payload bytes. The payload is opaque at this layer —
// encoding and decoding belong to the wire package.
//
// Framing is explicit by design: a logical message may cross any number
// of TCP segments, so "short read means end of message" is not a
// usable delimiter. The length prefix makes message boundaries exact
// regardless of how the kernel chunks the stream.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// headerLength is the fixed size of the frame header: a 4-byte
// big-endian uint32 payload length.
const headerLength = 4

// MaxFrameSize is the default maximum payload size accepted in either
// direction. 32 MiB is far beyond any realistic command or response;
// anything larger indicates a corrupt or hostile stream.
const MaxFrameSize = 32 * 1024 * 1024

// readChunkSize bounds each read of the payload body. Large frames are
// consumed in 16 KiB steps so a single oversized-but-legal frame never
// forces one enormous read call.
const readChunkSize = 16 * 1024

// ErrFrameTooLarge is returned when a frame's payload exceeds the
// maximum size, on either the write or the read side.
var ErrFrameTooLarge = errors.New("frame: payload exceeds maximum size")

// Write writes one framed payload to w: the 4-byte big-endian length
// header followed by the payload. A payload larger than MaxFrameSize is
// rejected before anything is written, leaving the stream intact.
func Write(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	var header [headerLength]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}
	return nil
}

// Read reads one framed payload from r with the default size limit.
func Read(r io.Reader) ([]byte, error) {
	return ReadLimit(r, MaxFrameSize)
}

// ReadLimit reads one framed payload from r, rejecting payloads larger
// than max.
//
// A clean EOF before the first header byte surfaces as io.EOF — the
// peer closed the connection between messages. EOF anywhere after that
// is a truncated frame and surfaces as io.ErrUnexpectedEOF.
func ReadLimit(r io.Reader, max int) ([]byte, error) {
	var header [headerLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > uint32(max) {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	payload := make([]byte, length)
	for offset := 0; offset < int(length); {
		chunk := int(length) - offset
		if chunk > readChunkSize {
			chunk = readChunkSize
		}
		if _, err := io.ReadFull(r, payload[offset:offset+chunk]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read frame payload: %w", err)
		}
		offset += chunk
	}
	return payload, nil
}
