package securechannel

import (
	"encoding/binary"

	"github.com/hsmgo/yubihsm-go/frame"
)

// Direction distinguishes which MAC key a SessionMessage exchange uses:
// commands are MACed with S-MAC, responses with S-RMAC. Both directions
// advance the same shared chain (§4.5), and both use S-ENC for the ICV and
// CBC step regardless of direction.
type Direction int

const (
	DirectionCommand Direction = iota
	DirectionResponse
)

// icv derives the per-message Initial Chaining Value from the session
// counter: AES-ECB(S-ENC, counter as a 16-byte big-endian integer).
func icv(encKey []byte, counter uint32) ([]byte, error) {
	block := make([]byte, KeyLength)
	binary.BigEndian.PutUint32(block[12:], counter)
	return encryptBlock(encKey, block)
}

// macKeyFor returns the key a given direction MACs with.
func macKeyFor(keys *KeyChain, dir Direction) []byte {
	if dir == DirectionResponse {
		return keys.RMacKey
	}
	return keys.MacKey
}

// EncodeMessage wraps an inner command/response frame in a SessionMessage
// exchange: it pads and CBC-encrypts the inner frame, then MACs the outer
// frame over (chain || header || sessionID || ciphertext). It is a pure
// function of its arguments — it mutates no session state — so both the
// real state machine and the mock device can share it; the caller commits
// the returned chain on success.
//
// outerCode is the command code the resulting frame is encoded under: it
// differs for the two directions (CommandTypeSessionMessage for a command,
// CommandTypeSessionMessage|ResponseCommandOffset for a response).
func EncodeMessage(keys *KeyChain, dir Direction, outerCode uint8, sessionID uint8, counter uint32, chain []byte, innerCode uint8, innerPayload []byte) (newChain []byte, wireFrame []byte, err error) {
	innerFrame, err := frame.Encode(innerCode, innerPayload)
	if err != nil {
		return nil, nil, err
	}
	padded := pad(innerFrame)

	iv, err := icv(keys.EncKey, counter)
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err := cbcEncrypt(keys.EncKey, iv, padded)
	if err != nil {
		return nil, nil, err
	}

	bodyLen := 1 + len(ciphertext) + MacLength
	header, err := frame.Header(outerCode, bodyLen)
	if err != nil {
		return nil, nil, err
	}

	macInput := make([]byte, 0, len(chain)+len(header)+1+len(ciphertext))
	macInput = append(macInput, chain...)
	macInput = append(macInput, header...)
	macInput = append(macInput, sessionID)
	macInput = append(macInput, ciphertext...)

	fullMac, err := cmacSum(macKeyFor(keys, dir), macInput)
	if err != nil {
		return nil, nil, err
	}

	body := make([]byte, 0, bodyLen)
	body = append(body, sessionID)
	body = append(body, ciphertext...)
	body = append(body, fullMac[:MacLength]...)

	wireFrame, err = frame.Encode(outerCode, body)
	if err != nil {
		return nil, nil, err
	}

	return fullMac, wireFrame, nil
}

// DecodeMessage is the inverse of EncodeMessage: it verifies a
// SessionMessage's MAC in constant time, then CBC-decrypts and unpads the
// inner frame. Like EncodeMessage it is pure; the caller commits the
// returned chain only once it has also accepted the decoded payload.
func DecodeMessage(keys *KeyChain, dir Direction, sessionID uint8, counter uint32, chain []byte, wireFrame []byte) (newChain []byte, innerCode uint8, innerPayload []byte, err error) {
	_, body, err := frame.Decode(wireFrame)
	if err != nil {
		return nil, 0, nil, &ProtocolError{Reason: err.Error()}
	}
	if len(body) < 1+MacLength {
		return nil, 0, nil, &ProtocolError{Reason: "session message payload too short"}
	}

	gotSessionID := body[0]
	ciphertext := body[1 : len(body)-MacLength]
	gotMac := body[len(body)-MacLength:]

	if gotSessionID != sessionID {
		return nil, 0, nil, &ProtocolError{Reason: "response session ID does not match"}
	}

	header := wireFrame[:frame.HeaderSize]

	macInput := make([]byte, 0, len(chain)+len(header)+1+len(ciphertext))
	macInput = append(macInput, chain...)
	macInput = append(macInput, header...)
	macInput = append(macInput, gotSessionID)
	macInput = append(macInput, ciphertext...)

	fullMac, err := cmacSum(macKeyFor(keys, dir), macInput)
	if err != nil {
		return nil, 0, nil, err
	}
	if !constantTimeEqual(fullMac[:MacLength], gotMac) {
		return nil, 0, nil, &CryptoError{Reason: "MAC verification failed"}
	}

	iv, err := icv(keys.EncKey, counter)
	if err != nil {
		return nil, 0, nil, err
	}
	padded, err := cbcDecrypt(keys.EncKey, iv, ciphertext)
	if err != nil {
		return nil, 0, nil, err
	}
	plain, err := unpad(padded)
	if err != nil {
		return nil, 0, nil, err
	}

	code, payload, err := frame.Decode(plain)
	if err != nil {
		return nil, 0, nil, &ProtocolError{Reason: err.Error()}
	}

	return fullMac, code, payload, nil
}
