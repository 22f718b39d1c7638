package kmsheader

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
)

// Algorithm selects the OAEP hash used to wrap key material. The zero value
// means "not set"; the non-zero values double as the upper-nibble wire codes.
type Algorithm uint8

const (
	// OAEPSHA1 is RSAES-OAEP with SHA-1 (wire code 0x1).
	OAEPSHA1 Algorithm = 0x1

	// OAEPSHA256 is RSAES-OAEP with SHA-256 (wire code 0x2).
	OAEPSHA256 Algorithm = 0x2
)

// KeySpec is the RSA modulus size in bits. The zero value means "not set".
type KeySpec int

const (
	// RSA2048 is a 2048-bit RSA key (wire code 0x1, 256 cipher bytes).
	RSA2048 KeySpec = 2048

	// RSA3072 is a 3072-bit RSA key (wire code 0x2, 384 cipher bytes).
	RSA3072 KeySpec = 3072

	// RSA4096 is a 4096-bit RSA key (wire code 0x3, 512 cipher bytes).
	RSA4096 KeySpec = 4096
)

// keySpecCodes maps each key spec to its lower-nibble wire code.
var keySpecCodes = map[KeySpec]byte{
	RSA2048: 0x1,
	RSA3072: 0x2,
	RSA4096: 0x3,
}

// keySpecsByCode is the inverse of keySpecCodes, built at init.
var keySpecsByCode = map[byte]KeySpec{}

func init() {
	for spec, code := range keySpecCodes {
		keySpecsByCode[code] = spec
	}
}

// String returns the KMS wire name of the algorithm, e.g. "RSAES_OAEP_SHA_256".
func (a Algorithm) String() string {
	switch a {
	case OAEPSHA1:
		return "RSAES_OAEP_SHA_1"
	case OAEPSHA256:
		return "RSAES_OAEP_SHA_256"
	default:
		return fmt.Sprintf("Algorithm(0x%x)", uint8(a))
	}
}

// Hash returns the hash function the algorithm pairs with OAEP, or 0 for an
// unsupported value.
func (a Algorithm) Hash() crypto.Hash {
	switch a {
	case OAEPSHA1:
		return crypto.SHA1
	case OAEPSHA256:
		return crypto.SHA256
	default:
		return 0
	}
}

// newHash returns a fresh hash.Hash for the algorithm. Callers must have
// validated the algorithm first.
func (a Algorithm) newHash() hash.Hash {
	switch a {
	case OAEPSHA1:
		return sha1.New()
	default:
		return sha256.New()
	}
}

// overhead returns the OAEP padding overhead in bytes: 2*hash_len + 2.
func (a Algorithm) overhead() int {
	switch a {
	case OAEPSHA1:
		return 42
	case OAEPSHA256:
		return 66
	default:
		return 0
	}
}

func (a Algorithm) valid() bool {
	return a == OAEPSHA1 || a == OAEPSHA256
}

// ParseAlgorithm converts a KMS wire name ("RSAES_OAEP_SHA_1",
// "RSAES_OAEP_SHA_256") into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "RSAES_OAEP_SHA_1":
		return OAEPSHA1, nil
	case "RSAES_OAEP_SHA_256":
		return OAEPSHA256, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
}

// String returns the KMS wire name of the key spec, e.g. "RSA_2048".
func (k KeySpec) String() string {
	switch k {
	case RSA2048, RSA3072, RSA4096:
		return fmt.Sprintf("RSA_%d", int(k))
	default:
		return fmt.Sprintf("KeySpec(%d)", int(k))
	}
}

// CipherLen returns the cipher data length in bytes produced by a key of this
// spec (256, 384, or 512), or 0 for an unsupported value.
func (k KeySpec) CipherLen() int {
	switch k {
	case RSA2048, RSA3072, RSA4096:
		return int(k) / 8
	default:
		return 0
	}
}

func (k KeySpec) valid() bool {
	_, ok := keySpecCodes[k]
	return ok
}

// ParseKeySpec converts a KMS wire name ("RSA_2048", "RSA_3072", "RSA_4096")
// into a KeySpec.
func ParseKeySpec(s string) (KeySpec, error) {
	switch s {
	case "RSA_2048":
		return RSA2048, nil
	case "RSA_3072":
		return RSA3072, nil
	case "RSA_4096":
		return RSA4096, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKeySpec, s)
	}
}

// keySpecForBits maps an RSA modulus bit length to its KeySpec.
func keySpecForBits(bits int) (KeySpec, error) {
	spec := KeySpec(bits)
	if !spec.valid() {
		return 0, fmt.Errorf("%w: %d-bit key", ErrUnsupportedKeySpec, bits)
	}
	return spec, nil
}

// encodeAlgorithmByte packs an algorithm and a key spec into one byte: the
// algorithm code in bits 7-4, the key spec code in bits 3-0. Either value may
// be zero (absent), leaving its nibble zero.
func encodeAlgorithmByte(alg Algorithm, spec KeySpec) (byte, error) {
	var b byte
	if alg != 0 {
		if !alg.valid() {
			return 0, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
		}
		b |= byte(alg) << 4
	}
	if spec != 0 {
		code, ok := keySpecCodes[spec]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnsupportedKeySpec, spec)
		}
		b |= code
	}
	return b, nil
}

// decodeAlgorithmByte unpacks an algorithm byte. A zero nibble yields the zero
// value for that half; a non-zero nibble that matches no known code fails with
// ErrUnrecognizedCode.
func decodeAlgorithmByte(b byte) (Algorithm, KeySpec, error) {
	var (
		alg  Algorithm
		spec KeySpec
	)
	if hi := b >> 4; hi != 0 {
		a := Algorithm(hi)
		if !a.valid() {
			return 0, 0, fmt.Errorf("%w: algorithm nibble 0x%x", ErrUnrecognizedCode, hi)
		}
		alg = a
	}
	if lo := b & 0x0f; lo != 0 {
		s, ok := keySpecsByCode[lo]
		if !ok {
			return 0, 0, fmt.Errorf("%w: key spec nibble 0x%x", ErrUnrecognizedCode, lo)
		}
		spec = s
	}
	return alg, spec, nil
}
