// Package securechannel implements the SCP03-style mutual authentication
// and per-message authenticated-encryption pipeline used to talk to a
// YubiHSM2: create a session, authenticate it, exchange any number of
// encrypted commands, and close it.
package securechannel

import (
	"crypto/rand"
	"sync"

	"github.com/hsmgo/yubihsm-go/authkey"
	"github.com/hsmgo/yubihsm-go/commands"
	"github.com/hsmgo/yubihsm-go/connector"
	"github.com/hsmgo/yubihsm-go/frame"
)

// State is the lifecycle state of a Session, per §4.5.
type State int

const (
	StateNew State = iota
	StateHandshaking
	StateAuthenticated
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateHandshaking:
		return "handshaking"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultMaxCounter is the counter ceiling (2^20 messages) after which a
// session must be closed and recreated. SecureChannel.MaxCounter overrides
// it; see that field for the limits on lowering it.
const DefaultMaxCounter = 1 << 20

// SecureChannel owns the state of one session with an HSM: its keys,
// counter, MAC chain, and lifecycle state. Each method holds the channel's
// mutex for its whole send→recv→decrypt→verify→counter-update→chain-update
// exchange, so concurrent callers are serialized one exchange at a time and
// the two peers cannot desynchronize through interleaving.
type SecureChannel struct {
	transport   connector.Transport
	authKeySlot uint16
	staticKeys  authkey.StaticKeys

	// MaxCounter overrides DefaultMaxCounter when non-zero. Must not be set
	// below the spec's 2^20 floor in production use; tests lower it to
	// exercise the SessionLimitReached path cheaply.
	MaxCounter uint32

	mu sync.Mutex

	id      uint8
	counter uint32
	chain   []byte
	state   State
	keys    *KeyChain

	hostChallenge []byte
	cardChallenge []byte
}

// NewSecureChannel prepares a channel to authenticate against authKeySlot
// using staticKeys, over transport. Call CreateSession and AuthenticateSession
// (or the Authenticate convenience wrapper) next.
func NewSecureChannel(transport connector.Transport, authKeySlot uint16, staticKeys authkey.StaticKeys) (*SecureChannel, error) {
	hostChallenge := make([]byte, ChallengeLength)
	if _, err := rand.Read(hostChallenge); err != nil {
		return nil, err
	}

	return &SecureChannel{
		transport:     transport,
		authKeySlot:   authKeySlot,
		staticKeys:    staticKeys,
		hostChallenge: hostChallenge,
		chain:         make([]byte, KeyLength),
		state:         StateNew,
	}, nil
}

// State reports the session's current lifecycle state.
func (s *SecureChannel) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID returns the session ID assigned by the card. Only meaningful once
// CreateSession has succeeded.
func (s *SecureChannel) ID() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Counter returns the current message counter.
func (s *SecureChannel) Counter() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

func (s *SecureChannel) maxCounter() uint32 {
	if s.MaxCounter != 0 {
		return s.MaxCounter
	}
	return DefaultMaxCounter
}

func (s *SecureChannel) fail() {
	s.keys.Zero()
	s.keys = nil
	zero(s.chain)
	s.state = StateFailed
}

// Authenticate runs CreateSession followed by AuthenticateSession, the
// convenience path most callers want.
func (s *SecureChannel) Authenticate() error {
	if err := s.CreateSession(); err != nil {
		return err
	}
	return s.AuthenticateSession()
}

// CreateSession sends the CreateSession command (§4.5 step 1): the host
// sends its challenge, the card replies with a session ID, its own
// challenge, and a cryptogram. The host derives the session keys, then
// verifies the card's cryptogram in constant time, discarding the keys if
// it does not match.
func (s *SecureChannel) CreateSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNew {
		return &ProtocolError{Reason: "CreateSession called outside the New state"}
	}

	cmd, err := commands.CreateCreateSessionCommand(s.authKeySlot, s.hostChallenge)
	if err != nil {
		return &ParameterError{Reason: err.Error()}
	}

	resp, err := s.roundTrip(cmd)
	if err != nil {
		s.state = StateFailed
		return &TransportError{Reason: err.Error()}
	}

	if derr := s.deviceErrorOf(resp); derr != nil {
		s.state = StateFailed
		return derr
	}

	parsed, err := commands.ParseResponse(resp)
	if err != nil {
		s.state = StateFailed
		return &ProtocolError{Reason: err.Error()}
	}
	createResp, ok := parsed.(*commands.CreateSessionResponse)
	if !ok {
		s.state = StateFailed
		return &ProtocolError{Reason: "unexpected response to CreateSession"}
	}

	s.id = createResp.SessionID
	s.cardChallenge = createResp.CardChallenge

	keys, err := DeriveKeyChain(s.staticKeys, s.hostChallenge, s.cardChallenge)
	if err != nil {
		s.state = StateFailed
		return err
	}

	cardCryptogram, err := DeriveCryptogram(s.staticKeys, DerivationConstantCardCryptogram, s.hostChallenge, s.cardChallenge)
	if err != nil {
		keys.Zero()
		s.state = StateFailed
		return err
	}
	if !constantTimeEqual(cardCryptogram, createResp.CardCryptogram) {
		keys.Zero()
		s.state = StateFailed
		return &CryptoError{Reason: "card cryptogram mismatch"}
	}

	s.keys = keys
	s.counter = 1
	s.chain = make([]byte, KeyLength)
	s.state = StateHandshaking
	return nil
}

// AuthenticateSession sends the AuthenticateSession command (§4.5 step 2):
// the host proves knowledge of the static keys with its own cryptogram,
// MACed under S-MAC, and the card's acceptance moves the session to
// Authenticated.
func (s *SecureChannel) AuthenticateSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateHandshaking {
		return &ProtocolError{Reason: "AuthenticateSession called outside the Handshaking state"}
	}

	hostCryptogram, err := DeriveCryptogram(s.staticKeys, DerivationConstantHostCryptogram, s.hostChallenge, s.cardChallenge)
	if err != nil {
		s.fail()
		return err
	}

	header, err := frame.Header(uint8(commands.CommandTypeAuthenticateSession), 1+ChallengeLength+MacLength)
	if err != nil {
		s.fail()
		return err
	}

	fullMac, err := AuthenticateMAC(s.keys.MacKey, s.chain, header, s.id, hostCryptogram)
	if err != nil {
		s.fail()
		return err
	}

	body := append([]byte{s.id}, hostCryptogram...)
	body = append(body, fullMac[:MacLength]...)
	wireFrame, err := frame.Encode(uint8(commands.CommandTypeAuthenticateSession), body)
	if err != nil {
		s.fail()
		return err
	}

	resp, err := s.send(wireFrame)
	if err != nil {
		s.fail()
		return &TransportError{Reason: err.Error()}
	}

	if derr := s.deviceErrorOf(resp); derr != nil {
		s.fail()
		return derr
	}

	parsed, err := commands.ParseResponse(resp)
	if err != nil || parsed != nil {
		s.fail()
		return &ProtocolError{Reason: "unexpected response to AuthenticateSession"}
	}

	s.chain = fullMac
	s.state = StateAuthenticated
	return nil
}

// SendEncryptedCommand sends an authenticated, encrypted command over the
// session (§4.5 step 3) and returns the decrypted inner response.
func (s *SecureChannel) SendEncryptedCommand(innerCode uint8, innerPayload []byte) (respCode uint8, respPayload []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthenticatedLocked(); err != nil {
		return 0, nil, err
	}

	if s.counter > s.maxCounter() {
		s.state = StateClosed
		s.keys.Zero()
		s.keys = nil
		return 0, nil, ErrSessionLimitReached
	}

	newChain, wireFrame, err := EncodeMessage(s.keys, DirectionCommand, uint8(commands.CommandTypeSessionMessage), s.id, s.counter, s.chain, innerCode, innerPayload)
	if err != nil {
		// Parameter-class failure (e.g. oversized payload): no I/O has
		// happened, the session is untouched.
		return 0, nil, &ParameterError{Reason: err.Error()}
	}

	resp, err := s.send(wireFrame)
	if err != nil {
		s.fail()
		return 0, nil, &TransportError{Reason: err.Error()}
	}

	if derr := s.deviceErrorOf(resp); derr != nil {
		if derr.fatal {
			s.fail()
		}
		return 0, nil, derr
	}

	finalChain, respInnerCode, respInnerPayload, err := DecodeMessage(s.keys, DirectionResponse, s.id, s.counter, newChain, resp)
	if err != nil {
		s.fail()
		return 0, nil, err
	}

	s.chain = finalChain
	s.counter++
	return respInnerCode, respInnerPayload, nil
}

// Close sends a CloseSession SessionMessage and zeroizes session key
// material. Calling Close on an already-closed (or failed) session is a
// no-op that returns ErrSessionClosed without sending anything.
func (s *SecureChannel) Close() error {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateFailed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	_, _, err := s.SendEncryptedCommand(uint8(commands.CommandTypeCloseSession), nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys != nil {
		s.keys.Zero()
		s.keys = nil
	}
	zero(s.chain)
	s.state = StateClosed

	if err != nil {
		return err
	}
	return nil
}

func (s *SecureChannel) requireAuthenticatedLocked() error {
	switch s.state {
	case StateAuthenticated:
		return nil
	case StateClosed, StateFailed:
		return ErrSessionClosed
	default:
		return &ProtocolError{Reason: "session is not authenticated"}
	}
}

// roundTrip serializes an unauthenticated CommandMessage and sends it.
func (s *SecureChannel) roundTrip(cmd *commands.CommandMessage) ([]byte, error) {
	data, err := cmd.Serialize()
	if err != nil {
		return nil, err
	}
	return s.send(data)
}

func (s *SecureChannel) send(wireFrame []byte) ([]byte, error) {
	if err := s.transport.Send(wireFrame); err != nil {
		return nil, err
	}
	return s.transport.Recv()
}

// deviceErrorOf inspects a raw response frame for the distinguished error
// code and, if present, returns a *DeviceError describing it. Returns nil
// for any other frame.
func (s *SecureChannel) deviceErrorOf(resp []byte) *DeviceError {
	code, payload, err := frame.Decode(resp)
	if err != nil || code != commands.ErrorResponseCode || len(payload) != 1 {
		return nil
	}
	subcode := commands.ErrorCode(payload[0])
	return &DeviceError{Code: subcode, fatal: isFatalDeviceError(subcode)}
}
