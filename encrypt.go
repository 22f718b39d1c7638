package kmsheader

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// MaxPlaintext returns the largest plaintext Encrypt accepts with the current
// key spec and algorithm: the key's byte length minus the OAEP overhead (42
// bytes for SHA-1, 66 for SHA-256). A 2048-bit key with OAEPSHA256 takes at
// most 190 bytes.
func (h *Header) MaxPlaintext() (int, error) {
	if h.keySpec == 0 {
		return 0, fmt.Errorf("%w: key spec not set", ErrIncompleteHeader)
	}
	if !h.algorithm.valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, h.algorithm)
	}
	return h.keySpec.CipherLen() - h.algorithm.overhead(), nil
}

// Encrypt wraps plaintext (small key material, never bulk data) under the
// header's public key with RSA-OAEP and the header's hash algorithm, then
// stores the result as cipher data. A public key must have been set first;
// SetPublicKey also fixed the key spec, so the output length always matches
// the header's cipher length.
func (h *Header) Encrypt(plaintext []byte) error {
	if h.publicKey == nil {
		return fmt.Errorf("%w: call SetPublicKey before Encrypt", ErrNoPublicKey)
	}

	max, err := h.MaxPlaintext()
	if err != nil {
		return err
	}
	if len(plaintext) > max {
		return fmt.Errorf("%w: %d bytes, %s with %s holds at most %d",
			ErrPlaintextTooLarge, len(plaintext), h.keySpec, h.algorithm, max)
	}

	ciphertext, err := rsa.EncryptOAEP(h.algorithm.newHash(), rand.Reader, h.publicKey, plaintext, nil)
	if err != nil {
		return fmt.Errorf("kmsheader: encrypt: %w", err)
	}

	return h.SetCipherData(ciphertext)
}
