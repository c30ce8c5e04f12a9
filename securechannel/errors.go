package securechannel

import (
	"errors"
	"fmt"

	"github.com/hsmgo/yubihsm-go/commands"
)

// ErrSessionClosed is returned by SendEncryptedCommand and Close on a
// session that has already transitioned to Closed or Failed. CreateSession
// and AuthenticateSession do not return it: in those states they return a
// *ProtocolError.
var ErrSessionClosed = errors.New("securechannel: session is closed")

// ErrSessionLimitReached is returned when the message counter hits its
// configured ceiling; the session is closed as a side effect.
var ErrSessionLimitReached = errors.New("securechannel: session reached its message limit")

// CryptoError indicates a MAC mismatch, cryptogram mismatch, or malformed
// padding on decrypt. Always fatal to the session.
type CryptoError struct {
	Reason string
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("securechannel: crypto failure: %s", e.Reason)
}

// ProtocolError indicates a framing or protocol-flow violation: oversized
// frame, truncated frame, unexpected response type, or session ID mismatch.
// Fatal when it comes from a response the device sent. It is also returned,
// with the session state left unchanged, when a method is called in the
// wrong lifecycle state (e.g. SendEncryptedCommand before authentication).
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("securechannel: protocol violation: %s", e.Reason)
}

// DeviceError wraps an error subcode returned by the device in an
// ErrorResponseCode frame. fatal records whether this particular subcode
// must close the session, per isFatalDeviceError; non-fatal subcodes (e.g.
// an unsupported command) leave the session usable for further exchanges.
type DeviceError struct {
	Code  commands.ErrorCode
	fatal bool
}

func (e *DeviceError) Error() string {
	return (&commands.Error{Code: e.Code}).Error()
}

// Fatal reports whether the subcode is one that fails an authenticated
// session, per isFatalDeviceError. During CreateSession and
// AuthenticateSession any device error fails the session, whatever Fatal
// reports.
func (e *DeviceError) Fatal() bool {
	return e.fatal
}

// ParameterError indicates bad caller input caught before any I/O occurred;
// the session is unaffected.
type ParameterError struct {
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("securechannel: invalid parameter: %s", e.Reason)
}

// TransportError wraps a failure from the underlying Transport (§4.7):
// a broken connection, I/O timeout, or malformed frame at the byte level.
// Always fatal to the session, since the two peers may have lost sync.
type TransportError struct {
	Reason string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("securechannel: transport failure: %s", e.Reason)
}

// isFatalDeviceError reports whether a device error subcode must close the
// session, per spec's fatal set: InvalidSession, AuthFail, Mac, WrongLength.
func isFatalDeviceError(code commands.ErrorCode) bool {
	switch code {
	case commands.ErrorCodeInvalidSession,
		commands.ErrorCodeAuthFail,
		commands.ErrorCodeMac,
		commands.ErrorCodeWrongLength:
		return true
	default:
		return false
	}
}
