// Package frame implements the wire framing shared by every transport:
// a 1-byte command code, a 2-byte big-endian length, and a payload.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the number of bytes preceding the payload in every frame.
	HeaderSize = 3

	// MaxPayloadSize is the device MTU: the largest payload a frame may carry.
	MaxPayloadSize = 2048

	// MaxFrameSize is the largest a fully encoded frame may be.
	MaxFrameSize = HeaderSize + MaxPayloadSize
)

// ErrOversize is returned when a payload (on encode) or a declared length
// (on decode) exceeds MaxPayloadSize.
var ErrOversize = errors.New("frame: payload exceeds device MTU")

// ErrShort is returned when a buffer is too small to contain the header it
// claims to have, or its length differs from the length its header declares
// (truncated payload or trailing bytes).
var ErrShort = errors.New("frame: truncated frame")

// Encode serializes code and payload into a frame: <code:u8><len:u16be><payload>.
func Encode(code uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrOversize, len(payload))
	}

	out := make([]byte, HeaderSize+len(payload))
	out[0] = code
	binary.BigEndian.PutUint16(out[1:3], uint16(len(payload)))
	copy(out[3:], payload)
	return out, nil
}

// Header returns the 3-byte header that Encode would prepend to a payload
// of the given length, without allocating the payload itself. Callers that
// must MAC a frame's header before its body exists (the secure channel's
// per-message authentication) use this to avoid a chicken-and-egg allocation.
func Header(code uint8, length int) ([]byte, error) {
	if length > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrOversize, length)
	}
	h := make([]byte, HeaderSize)
	h[0] = code
	binary.BigEndian.PutUint16(h[1:3], uint16(length))
	return h, nil
}

// Decode parses a frame into its command code and payload. It requires that
// data contain exactly one frame; trailing bytes are an error the way a
// truncated header is, since transports are expected to preserve frame
// boundaries.
func Decode(data []byte) (code uint8, payload []byte, err error) {
	if len(data) < HeaderSize {
		return 0, nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrShort, len(data), HeaderSize)
	}

	code = data[0]
	length := binary.BigEndian.Uint16(data[1:3])
	if length > MaxPayloadSize {
		return 0, nil, fmt.Errorf("%w: declared length %d", ErrOversize, length)
	}

	body := data[HeaderSize:]
	if len(body) < int(length) {
		return 0, nil, fmt.Errorf("%w: declared %d bytes, got %d", ErrShort, length, len(body))
	}
	if len(body) != int(length) {
		return 0, nil, fmt.Errorf("%w: %d trailing bytes after declared length", ErrShort, len(body)-int(length))
	}

	return code, body[:length], nil
}
