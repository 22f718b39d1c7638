package kmsheader

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// LocalDecrypter is a Decrypter backed by an in-memory RSA private key, for
// offline tooling and tests. It performs the OAEP unwrap locally instead of
// calling KMS, so it cannot verify that the header's ARN names this key — the
// caller vouches for that. It is safe for concurrent use.
type LocalDecrypter struct {
	key *rsa.PrivateKey
}

// NewLocalDecrypter wraps a private key whose size is one of the supported
// key specs.
func NewLocalDecrypter(key *rsa.PrivateKey) (*LocalDecrypter, error) {
	if key == nil {
		return nil, fmt.Errorf("kmsheader: nil private key")
	}
	if _, err := keySpecForBits(key.N.BitLen()); err != nil {
		return nil, err
	}
	return &LocalDecrypter{key: key}, nil
}

// Decrypt unwraps ciphertext with the held private key and the given OAEP
// hash algorithm.
func (d *LocalDecrypter) Decrypt(ctx context.Context, arn KeyARN, ciphertext []byte, alg Algorithm) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !alg.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	if want := d.key.PublicKey.Size(); len(ciphertext) != want {
		return nil, fmt.Errorf("%w: got %d bytes, key unwraps %d", ErrCipherLengthMismatch, len(ciphertext), want)
	}

	plaintext, err := rsa.DecryptOAEP(alg.newHash(), rand.Reader, d.key, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// Compile-time interface check.
var _ Decrypter = (*LocalDecrypter)(nil)
