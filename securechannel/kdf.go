package securechannel

import "github.com/hsmgo/yubihsm-go/authkey"

// KeyDerivationConstant selects which session key (or cryptogram) the SCP03
// KDF derives.
type KeyDerivationConstant byte

const (
	DerivationConstantCardCryptogram KeyDerivationConstant = 0x00
	DerivationConstantHostCryptogram KeyDerivationConstant = 0x01
	DerivationConstantEncKey         KeyDerivationConstant = 0x04
	DerivationConstantMacKey         KeyDerivationConstant = 0x06
	DerivationConstantRMacKey        KeyDerivationConstant = 0x07
)

const (
	// KeyLength is the length in bytes of every derived session key.
	KeyLength = 16
	// ChallengeLength is the length in bytes of a host or card challenge.
	ChallengeLength = 8
	// CryptogramLength is the length in bytes of a host or card cryptogram.
	CryptogramLength = 8
	// MacLength is the length in bytes of a truncated command/response MAC.
	MacLength = 8
)

// KeyChain holds the three session keys derived at session creation.
// CARD-CRYPTO and HOST-CRYPTO are not session keys; they are derived
// on-demand by DeriveCryptogram and never stored here.
type KeyChain struct {
	EncKey  []byte
	MacKey  []byte
	RMacKey []byte
}

// Zero scrubs every key in the chain.
func (k *KeyChain) Zero() {
	if k == nil {
		return
	}
	zero(k.EncKey)
	zero(k.MacKey)
	zero(k.RMacKey)
}

// deriveKDF implements the SCP03 KDF of §4.3: CMAC under the given static
// key of
//
//	0x00 * 11 || label || 0x0080 || host_challenge || card_challenge
//
// truncated to the first keyLen bytes of the 16-byte CMAC output.
func deriveKDF(staticKey []byte, label KeyDerivationConstant, hostChallenge, cardChallenge []byte, keyLen int) ([]byte, error) {
	if len(staticKey) != KeyLength {
		return nil, &ParameterError{Reason: "static key must be 16 bytes"}
	}
	if len(hostChallenge) != ChallengeLength {
		return nil, &ParameterError{Reason: "host challenge must be 8 bytes"}
	}
	if len(cardChallenge) != ChallengeLength {
		return nil, &ParameterError{Reason: "card challenge must be 8 bytes"}
	}

	input := make([]byte, 0, 14+ChallengeLength*2)
	input = append(input, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // 11-byte zero prefix
	input = append(input, byte(label))
	input = append(input, 0x00, 0x80) // 2-byte output length in bits (128)
	input = append(input, hostChallenge...)
	input = append(input, cardChallenge...)

	sum, err := cmacSum(staticKey, input)
	if err != nil {
		return nil, err
	}
	return sum[:keyLen], nil
}

// DeriveKeyChain derives S-ENC, S-MAC and S-RMAC from the host's static keys
// and both challenges, per §4.3. S-ENC and S-RMAC are derived under the enc
// static key; S-MAC under the mac static key, matching §4.3's key
// assignment.
func DeriveKeyChain(staticKeys authkey.StaticKeys, hostChallenge, cardChallenge []byte) (*KeyChain, error) {
	encKey, err := deriveKDF(staticKeys.EncKey(), DerivationConstantEncKey, hostChallenge, cardChallenge, KeyLength)
	if err != nil {
		return nil, err
	}
	macKey, err := deriveKDF(staticKeys.MacKey(), DerivationConstantMacKey, hostChallenge, cardChallenge, KeyLength)
	if err != nil {
		return nil, err
	}
	rmacKey, err := deriveKDF(staticKeys.EncKey(), DerivationConstantRMacKey, hostChallenge, cardChallenge, KeyLength)
	if err != nil {
		return nil, err
	}

	return &KeyChain{EncKey: encKey, MacKey: macKey, RMacKey: rmacKey}, nil
}

// AuthenticateMAC computes the MAC carried in (and verified from) an
// AuthenticateSession command: CMAC(S-MAC, chain || header || sessionID ||
// hostCryptogram), truncated to MacLength. The sessionID is folded into the
// MAC input the same way EncodeMessage/DecodeMessage fold it into a
// SessionMessage exchange, so a device serving more than one session can
// tell which session's chain and keys a given AuthenticateSession command
// belongs to. Both the host state machine and the mock device compute this
// the same way, since it is verified symmetrically.
func AuthenticateMAC(macKey, chain, header []byte, sessionID uint8, hostCryptogram []byte) ([]byte, error) {
	input := make([]byte, 0, len(chain)+len(header)+1+len(hostCryptogram))
	input = append(input, chain...)
	input = append(input, header...)
	input = append(input, sessionID)
	input = append(input, hostCryptogram...)
	return cmacSum(macKey, input)
}

// DeriveCryptogram derives an 8-byte cryptogram (host or card) per §4.4.
// Card cryptograms are derived under the enc static key, host cryptograms
// under the mac static key, per §4.3's "S-ENC/S-RMAC/CARD-CRYPTO... under
// enc; S-MAC/HOST-CRYPTO... under mac" assignment.
func DeriveCryptogram(staticKeys authkey.StaticKeys, which KeyDerivationConstant, hostChallenge, cardChallenge []byte) ([]byte, error) {
	var staticKey []byte
	switch which {
	case DerivationConstantCardCryptogram:
		staticKey = staticKeys.EncKey()
	case DerivationConstantHostCryptogram:
		staticKey = staticKeys.MacKey()
	default:
		return nil, &ParameterError{Reason: "which must be a cryptogram derivation constant"}
	}

	return deriveKDF(staticKey, which, hostChallenge, cardChallenge, CryptogramLength)
}
