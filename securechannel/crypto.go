package securechannel

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/enceve/crypto/cmac"
)

// encryptBlock performs a single AES-128 block encryption under key. It is
// used to derive the per-message ICV from the message counter (§4.2, §4.5).
func encryptBlock(key, block []byte) ([]byte, error) {
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, aes.BlockSize)
	cipherBlock.Encrypt(out, block)
	return out, nil
}

// cbcEncrypt encrypts src (which must already be a multiple of the AES
// block size) under key with the given IV.
func cbcEncrypt(key, iv, src []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, len(src))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(dst, src)
	return dst, nil
}

// cbcDecrypt decrypts src (which must already be a multiple of the AES
// block size) under key with the given IV.
func cbcDecrypt(key, iv, src []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(src)%aes.BlockSize != 0 {
		return nil, &CryptoError{Reason: "ciphertext is not a multiple of the block size"}
	}

	dst := make([]byte, len(src))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(dst, src)
	return dst, nil
}

// cmacSum computes AES-128-CMAC over data under key.
func cmacSum(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	mac, err := cmac.New(block)
	if err != nil {
		return nil, err
	}
	mac.Write(data)
	return mac.Sum(nil), nil
}
