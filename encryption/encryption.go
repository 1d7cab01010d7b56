// Package encryption implements the cryptographic primitives used to talk to
// the enclave: ephemeral AES-GCM keys, RSA-OAEP key wrapping under the
// enclave's shielding key, and user signature handling.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
)

const moduleName = "encryption"

var (
	// ErrInvalidKey is the error returned when key material is malformed.
	ErrInvalidKey = errors.New(moduleName, 1, "encryption: invalid key")
	// ErrDecryptionFailed is the error returned when an envelope does not
	// authenticate under the given key.
	ErrDecryptionFailed = errors.New(moduleName, 2, "encryption: decryption failed")
	// ErrSignatureEncoding is the error returned when a signature cannot be
	// decoded.
	ErrSignatureEncoding = errors.New(moduleName, 3, "encryption: malformed signature")
	// ErrUnsupportedSignature is the error returned for signer/signature
	// combinations that cannot be handled.
	ErrUnsupportedSignature = errors.New(moduleName, 4, "encryption: unsupported signature")
	// ErrInvalidSignature is the error returned when a signature does not verify.
	ErrInvalidSignature = errors.New(moduleName, 5, "encryption: invalid signature")
)

// AesKeySize is the size of an ephemeral AES-256 key.
const AesKeySize = 32

// AesKey is an ephemeral AES-256-GCM key. A key is generated per request and
// is never persisted.
type AesKey [AesKeySize]byte

// GenerateAesKey returns a fresh random key.
func GenerateAesKey() (AesKey, error) {
	var k AesKey
	if _, err := rand.Read(k[:]); err != nil {
		return k, fmt.Errorf("generating aes key: %w", err)
	}
	return k, nil
}

// AesKeyFromBytes builds a key from its exported form.
func AesKeyFromBytes(b []byte) (AesKey, error) {
	var k AesKey
	if len(b) != AesKeySize {
		return k, errors.WithContext(ErrInvalidKey, fmt.Sprintf("aes key must be %d bytes, got %d", AesKeySize, len(b)))
	}
	copy(k[:], b)
	return k, nil
}

// Export returns the raw key bytes as embedded into trusted calls.
func (k AesKey) Export() codec.H256 {
	return codec.H256(k)
}

func (k AesKey) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, errors.WithContext(ErrInvalidKey, err.Error())
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under a fresh 12 byte nonce.
func (k AesKey) Encrypt(plaintext, aad []byte) (*codec.AesOutput, error) {
	gcm, err := k.aead()
	if err != nil {
		return nil, err
	}
	out := &codec.AesOutput{Aad: append([]byte{}, aad...)}
	if _, err := rand.Read(out.Nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	out.Ciphertext = gcm.Seal(nil, out.Nonce[:], plaintext, aad)
	return out, nil
}

// Decrypt opens an envelope sealed under k.
func (k AesKey) Decrypt(out *codec.AesOutput) ([]byte, error) {
	gcm, err := k.aead()
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, out.Nonce[:], out.Ciphertext, out.Aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// EncryptWithShieldingKey wraps msg under the enclave's RSA-OAEP(SHA-256)
// shielding key.
func EncryptWithShieldingKey(pub *rsa.PublicKey, msg []byte) ([]byte, error) {
	if pub == nil {
		return nil, errors.WithContext(ErrInvalidKey, "missing shielding key")
	}
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("rsa-oaep encrypt: %w", err)
	}
	return ct, nil
}
