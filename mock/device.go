// Package mock implements an in-process stand-in for a YubiHSM2 (§4.8): it
// speaks exactly the wire protocol a SecureChannel expects, using the same
// securechannel codec the real state machine uses, so integration tests can
// exercise the full handshake, encryption, and counter/chain discipline
// without any real hardware or connector process.
package mock

import (
	"crypto/rand"
	"sync"

	"github.com/hsmgo/yubihsm-go/authkey"
	"github.com/hsmgo/yubihsm-go/commands"
	"github.com/hsmgo/yubihsm-go/frame"
	"github.com/hsmgo/yubihsm-go/securechannel"
)

// MaxSessions is the number of concurrent sessions the device tracks at
// once, per §5.
const MaxSessions = 16

// Device is a minimal, stateful stand-in for a YubiHSM2: a table of
// SessionID → session state, so independent sessions interleave their Echo
// calls without sharing or disturbing one another's counter or MAC chain.
type Device struct {
	mu       sync.Mutex
	authKeys map[uint16]authkey.StaticKeys
	sessions map[uint8]*deviceSession
}

type sessionState int

const (
	sessionPending sessionState = iota
	sessionAuthenticated
)

type deviceSession struct {
	id            uint8
	authKeySlot   uint16
	state         sessionState
	hostChallenge []byte
	cardChallenge []byte
	keys          *securechannel.KeyChain
	counter       uint32
	chain         []byte
}

// NewDevice creates an empty mock device with no registered authentication
// keys and no open sessions.
func NewDevice() *Device {
	return &Device{
		authKeys: make(map[uint16]authkey.StaticKeys),
		sessions: make(map[uint8]*deviceSession),
	}
}

// PutAuthKey registers a static key pair at authKeySlot, as if it had been
// provisioned onto the device out of band.
func (d *Device) PutAuthKey(authKeySlot uint16, keys authkey.StaticKeys) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.authKeys[authKeySlot] = keys
}

// Handle processes one wire frame and returns the response frame, exactly
// as a real device's transport round trip would. It is synchronous and
// single-threaded per device: concurrent callers are serialized.
func (d *Device) Handle(wireFrame []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	code, payload, err := frame.Decode(wireFrame)
	if err != nil {
		return d.errorFrame(commands.ErrorCodeWrongLength)
	}

	switch commands.CommandType(code) {
	case commands.CommandTypeCreateSession:
		return d.handleCreateSession(payload)
	case commands.CommandTypeAuthenticateSession:
		return d.handleAuthenticateSession(payload)
	case commands.CommandTypeSessionMessage:
		return d.handleSessionMessage(payload, wireFrame)
	default:
		return d.errorFrame(commands.ErrorCodeInvalidCommand)
	}
}

func (d *Device) errorFrame(code commands.ErrorCode) ([]byte, error) {
	return frame.Encode(commands.ErrorResponseCode, []byte{byte(code)})
}

func (d *Device) handleCreateSession(payload []byte) ([]byte, error) {
	if len(payload) != 2+securechannel.ChallengeLength {
		return d.errorFrame(commands.ErrorCodeWrongLength)
	}
	authKeySlot := uint16(payload[0])<<8 | uint16(payload[1])
	hostChallenge := append([]byte(nil), payload[2:]...)

	staticKeys, ok := d.authKeys[authKeySlot]
	if !ok {
		return d.errorFrame(commands.ErrorCodeObjectNotFound)
	}

	sessionID, ok := d.nextSessionID()
	if !ok {
		return d.errorFrame(commands.ErrorCodeSessionFull)
	}

	cardChallenge := make([]byte, securechannel.ChallengeLength)
	if _, err := rand.Read(cardChallenge); err != nil {
		return d.errorFrame(commands.ErrorCodeSessionFailed)
	}

	keys, err := securechannel.DeriveKeyChain(staticKeys, hostChallenge, cardChallenge)
	if err != nil {
		return d.errorFrame(commands.ErrorCodeSessionFailed)
	}
	cardCryptogram, err := securechannel.DeriveCryptogram(staticKeys, securechannel.DerivationConstantCardCryptogram, hostChallenge, cardChallenge)
	if err != nil {
		return d.errorFrame(commands.ErrorCodeSessionFailed)
	}

	d.sessions[sessionID] = &deviceSession{
		id:            sessionID,
		authKeySlot:   authKeySlot,
		state:         sessionPending,
		hostChallenge: hostChallenge,
		cardChallenge: cardChallenge,
		keys:          keys,
		counter:       1,
		chain:         make([]byte, securechannel.KeyLength),
	}

	respPayload := make([]byte, 0, 1+2*securechannel.ChallengeLength+1)
	respPayload = append(respPayload, sessionID)
	respPayload = append(respPayload, cardChallenge...)
	respPayload = append(respPayload, cardCryptogram...)

	return frame.Encode(uint8(commands.CommandTypeCreateSession)|commands.ResponseCommandOffset, respPayload)
}

// nextSessionID picks the lowest unused session ID in [0, MaxSessions), per
// §5's "the device limits concurrent sessions to 16."
func (d *Device) nextSessionID() (uint8, bool) {
	for id := uint8(0); int(id) < MaxSessions; id++ {
		if _, taken := d.sessions[id]; !taken {
			return id, true
		}
	}
	return 0, false
}

func (d *Device) handleAuthenticateSession(payload []byte) ([]byte, error) {
	if len(payload) != 1+securechannel.CryptogramLength+securechannel.MacLength {
		return d.errorFrame(commands.ErrorCodeWrongLength)
	}
	sessionID := payload[0]
	hostCryptogram := payload[1 : 1+securechannel.CryptogramLength]
	gotMac := payload[1+securechannel.CryptogramLength:]

	sess, ok := d.sessions[sessionID]
	if !ok || sess.state != sessionPending {
		return d.errorFrame(commands.ErrorCodeInvalidSession)
	}

	staticKeys := d.authKeys[sess.authKeySlot]
	expectedCryptogram, err := securechannel.DeriveCryptogram(staticKeys, securechannel.DerivationConstantHostCryptogram, sess.hostChallenge, sess.cardChallenge)
	if err != nil || !securechannel.ConstantTimeEqual(hostCryptogram, expectedCryptogram) {
		delete(d.sessions, sessionID)
		return d.errorFrame(commands.ErrorCodeAuthFail)
	}

	header, err := frame.Header(uint8(commands.CommandTypeAuthenticateSession), 1+securechannel.CryptogramLength+securechannel.MacLength)
	if err != nil {
		delete(d.sessions, sessionID)
		return d.errorFrame(commands.ErrorCodeSessionFailed)
	}
	fullMac, err := securechannel.AuthenticateMAC(sess.keys.MacKey, sess.chain, header, sessionID, hostCryptogram)
	if err != nil || !securechannel.ConstantTimeEqual(fullMac[:securechannel.MacLength], gotMac) {
		delete(d.sessions, sessionID)
		return d.errorFrame(commands.ErrorCodeMac)
	}

	sess.chain = fullMac
	sess.state = sessionAuthenticated
	return frame.Encode(uint8(commands.CommandTypeAuthenticateSession)|commands.ResponseCommandOffset, nil)
}

func (d *Device) handleSessionMessage(payload []byte, wireFrame []byte) ([]byte, error) {
	if len(payload) < 1 {
		return d.errorFrame(commands.ErrorCodeInvalidSession)
	}
	sessionID := payload[0]
	sess, ok := d.sessions[sessionID]
	if !ok || sess.state != sessionAuthenticated {
		return d.errorFrame(commands.ErrorCodeInvalidSession)
	}

	newChain, innerCode, innerPayload, err := securechannel.DecodeMessage(sess.keys, securechannel.DirectionCommand, sess.id, sess.counter, sess.chain, wireFrame)
	if err != nil {
		delete(d.sessions, sessionID)
		if _, ok := err.(*securechannel.CryptoError); ok {
			return d.errorFrame(commands.ErrorCodeMac)
		}
		return d.errorFrame(commands.ErrorCodeInvalidData)
	}

	respInnerCode, respInnerPayload, handled := d.dispatchInner(innerCode, innerPayload)
	if !handled {
		// Failed exchanges do not consume a counter value or advance the
		// chain: the host never committed its side either.
		return d.errorFrame(commands.ErrorCodeInvalidCommand)
	}

	respChain, respFrame, err := securechannel.EncodeMessage(sess.keys, securechannel.DirectionResponse, uint8(commands.CommandTypeSessionMessage)|commands.ResponseCommandOffset, sess.id, sess.counter, newChain, respInnerCode, respInnerPayload)
	if err != nil {
		delete(d.sessions, sessionID)
		return d.errorFrame(commands.ErrorCodeSessionFailed)
	}

	if commands.CommandType(innerCode) == commands.CommandTypeCloseSession {
		delete(d.sessions, sessionID)
	} else {
		sess.chain = respChain
		sess.counter++
	}

	return respFrame, nil
}

// dispatchInner implements the commands the mock device understands. Echo
// reflects its payload; CloseSession acknowledges with an empty payload;
// everything else reports ErrorCodeInvalidCommand via the handled=false path.
func (d *Device) dispatchInner(code uint8, payload []byte) (respCode uint8, respPayload []byte, handled bool) {
	switch commands.CommandType(code) {
	case commands.CommandTypeEcho:
		return uint8(commands.CommandTypeEcho) | commands.ResponseCommandOffset, payload, true
	case commands.CommandTypeCloseSession:
		return uint8(commands.CommandTypeCloseSession) | commands.ResponseCommandOffset, nil, true
	default:
		return 0, nil, false
	}
}
