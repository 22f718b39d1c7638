package kmsheader

import (
	"context"
	"fmt"
)

// Decrypter unwraps a header's cipher data with the private half of the key
// the ARN names. The awskms package implements it against AWS KMS, building a
// client for the ARN's region; LocalDecrypter implements it with an in-memory
// private key. Implementations must be safe for concurrent use.
type Decrypter interface {
	Decrypt(ctx context.Context, arn KeyARN, ciphertext []byte, alg Algorithm) ([]byte, error)
}

// Decrypt sends the header's cipher data to the decrypter and returns the
// plaintext key material verbatim. The ARN, key spec, and cipher data must
// all be present. Decrypter failures come back wrapped in ErrDecryptionFailed
// with the cause still inspectable.
//
// Decryption is the header's only remote operation; the context bounds it.
func (h *Header) Decrypt(ctx context.Context, d Decrypter) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("kmsheader: nil decrypter")
	}
	if h.arn == nil || h.keySpec == 0 || h.cipherData == nil {
		return nil, fmt.Errorf("%w: decrypt needs ARN, key spec, and cipher data", ErrIncompleteHeader)
	}

	plaintext, err := d.Decrypt(ctx, *h.arn, h.cipherData, h.algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
