package kmsheader

import "errors"

var (
	// ErrInvalidARN is returned when a key ARN string does not match the
	// arn:aws:kms:<region>:<account>:key/<key-id> grammar, or when one of its
	// segments (region, account, key id) is malformed.
	ErrInvalidARN = errors.New("kmsheader: invalid key ARN")

	// ErrMalformedARN is returned when a 35-byte binary ARN contains a region
	// code with no known enumeration entry, or is not exactly 35 bytes.
	ErrMalformedARN = errors.New("kmsheader: malformed binary key ARN")

	// ErrRegionNumberOutOfRange is returned when a region's ordinal number does
	// not fit in the single byte reserved for it (0-255).
	ErrRegionNumberOutOfRange = errors.New("kmsheader: region number out of range")

	// ErrUnsupportedAlgorithm is returned when an algorithm value is outside
	// the supported set {OAEPSHA1, OAEPSHA256}.
	ErrUnsupportedAlgorithm = errors.New("kmsheader: unsupported encryption algorithm")

	// ErrUnsupportedKeySpec is returned when a key spec is outside the
	// supported set {RSA2048, RSA3072, RSA4096}, including public keys whose
	// modulus length is not one of those sizes.
	ErrUnsupportedKeySpec = errors.New("kmsheader: unsupported key spec")

	// ErrUnrecognizedCode is returned when an algorithm byte carries a non-zero
	// nibble that maps to no known algorithm or key spec.
	ErrUnrecognizedCode = errors.New("kmsheader: unrecognized algorithm byte code")

	// ErrTooShort is returned when binary data is shorter than the 35 bytes a
	// header requires.
	ErrTooShort = errors.New("kmsheader: data too short")

	// ErrInvalidPrefixLength is returned when Inspect is given a prefix whose
	// length is not exactly 16, 32, 35, or 36 bytes.
	ErrInvalidPrefixLength = errors.New("kmsheader: invalid inspection prefix length")

	// ErrCipherLengthMismatch is returned when cipher data does not have the
	// exact length implied by the header's key spec.
	ErrCipherLengthMismatch = errors.New("kmsheader: cipher data length mismatch")

	// ErrPlaintextTooLarge is returned when a plaintext exceeds the OAEP
	// capacity of the header's key spec and algorithm.
	ErrPlaintextTooLarge = errors.New("kmsheader: plaintext too large for key and padding")

	// ErrIncompleteHeader is returned when an operation needs header fields
	// that have not been populated yet.
	ErrIncompleteHeader = errors.New("kmsheader: incomplete header")

	// ErrNoPublicKey is returned when Encrypt is called before a public key
	// has been set.
	ErrNoPublicKey = errors.New("kmsheader: no public key")

	// ErrInvalidPublicKey is returned when key material cannot be parsed as an
	// RSA public key.
	ErrInvalidPublicKey = errors.New("kmsheader: invalid public key")

	// ErrDecryptionFailed is returned when the decrypter rejects the cipher
	// data. The underlying cause is wrapped and remains inspectable with
	// errors.Is and errors.As.
	ErrDecryptionFailed = errors.New("kmsheader: decryption failed")
)

// IsInvalidARN returns true if the error is or wraps ErrInvalidARN.
func IsInvalidARN(err error) bool {
	return errors.Is(err, ErrInvalidARN)
}

// IsMalformedARN returns true if the error is or wraps ErrMalformedARN.
func IsMalformedARN(err error) bool {
	return errors.Is(err, ErrMalformedARN)
}

// IsRegionNumberOutOfRange returns true if the error is or wraps ErrRegionNumberOutOfRange.
func IsRegionNumberOutOfRange(err error) bool {
	return errors.Is(err, ErrRegionNumberOutOfRange)
}

// IsUnsupportedAlgorithm returns true if the error is or wraps ErrUnsupportedAlgorithm.
func IsUnsupportedAlgorithm(err error) bool {
	return errors.Is(err, ErrUnsupportedAlgorithm)
}

// IsUnsupportedKeySpec returns true if the error is or wraps ErrUnsupportedKeySpec.
func IsUnsupportedKeySpec(err error) bool {
	return errors.Is(err, ErrUnsupportedKeySpec)
}

// IsUnrecognizedCode returns true if the error is or wraps ErrUnrecognizedCode.
func IsUnrecognizedCode(err error) bool {
	return errors.Is(err, ErrUnrecognizedCode)
}

// IsTooShort returns true if the error is or wraps ErrTooShort.
func IsTooShort(err error) bool {
	return errors.Is(err, ErrTooShort)
}

// IsInvalidPrefixLength returns true if the error is or wraps ErrInvalidPrefixLength.
func IsInvalidPrefixLength(err error) bool {
	return errors.Is(err, ErrInvalidPrefixLength)
}

// IsCipherLengthMismatch returns true if the error is or wraps ErrCipherLengthMismatch.
func IsCipherLengthMismatch(err error) bool {
	return errors.Is(err, ErrCipherLengthMismatch)
}

// IsPlaintextTooLarge returns true if the error is or wraps ErrPlaintextTooLarge.
func IsPlaintextTooLarge(err error) bool {
	return errors.Is(err, ErrPlaintextTooLarge)
}

// IsIncompleteHeader returns true if the error is or wraps ErrIncompleteHeader.
func IsIncompleteHeader(err error) bool {
	return errors.Is(err, ErrIncompleteHeader)
}

// IsNoPublicKey returns true if the error is or wraps ErrNoPublicKey.
func IsNoPublicKey(err error) bool {
	return errors.Is(err, ErrNoPublicKey)
}

// IsInvalidPublicKey returns true if the error is or wraps ErrInvalidPublicKey.
func IsInvalidPublicKey(err error) bool {
	return errors.Is(err, ErrInvalidPublicKey)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}
