// Package connector implements the transport contract (§4.7) that carries
// framed bytes between a SecureChannel and an HSM, plus the concrete
// transports: an HTTP-based yubihsm-connector client and a raw USB/HID
// client.
package connector

// Transport is the narrow contract a SecureChannel needs from whatever
// carries bytes to and from the device: send one frame, then block for its
// response. Implementations do not interpret frame contents — that is
// frame's and securechannel's job — they only move bytes and report
// transport-level failures (broken connection, timeout, malformed report).
//
// Send and Recv are always called in strict alternation by a SecureChannel
// (never concurrently, never two Sends in a row), so an implementation need
// not support pipelining.
type Transport interface {
	Send(frame []byte) error
	Recv() ([]byte, error)
}
