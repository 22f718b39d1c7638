package kmsheader

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
)

// Header records which KMS key and which RSA-OAEP parameters wrapped a
// payload's symmetric key material. It is built up field by field — key ARN,
// then algorithm/key spec, then cipher data — and its serialized length grows
// in the same order: 0, 35, 36, then 36 plus the key spec's cipher length.
//
// The zero value is usable; New additionally applies the OAEPSHA256 default.
// A Header is not safe for concurrent mutation. Concurrent reads of a fully
// built header are safe.
type Header struct {
	arn        *KeyARN
	algorithm  Algorithm
	keySpec    KeySpec
	cipherData []byte

	// publicKey is transient state for Encrypt; it is never serialized.
	publicKey *rsa.PublicKey
}

// Option configures a Header during construction.
type Option func(*Header) error

// WithAlgorithm overrides the default OAEPSHA256 algorithm.
func WithAlgorithm(alg Algorithm) Option {
	return func(h *Header) error {
		return h.SetAlgorithm(alg)
	}
}

// WithKeySpec presets the key spec. Headers built for parsing foreign blobs
// rarely need this; headers built for encryption get it from SetPublicKey.
func WithKeySpec(spec KeySpec) Option {
	return func(h *Header) error {
		return h.SetKeySpec(spec)
	}
}

// New returns an empty header with the default OAEPSHA256 algorithm.
func New(opts ...Option) (*Header, error) {
	h := &Header{algorithm: OAEPSHA256}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// FromARN builds a header for the given key ARN string.
func FromARN(arn string, opts ...Option) (*Header, error) {
	h, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := h.SetARN(arn); err != nil {
		return nil, err
	}
	return h, nil
}

// Parse decodes a header from binary data. The data must hold at least the
// 35-byte ARN; the algorithm byte and cipher data are each decoded only if
// enough bytes follow. Bytes past the header are not consumed — they are the
// symmetric payload, and Len reports where it starts.
//
// An algorithm byte with a zero algorithm nibble leaves the OAEPSHA256
// default in place; a zero key spec nibble leaves the key spec unset.
func Parse(data []byte) (*Header, error) {
	if len(data) < PrefixARN {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrTooShort, len(data), PrefixARN)
	}

	h := &Header{algorithm: OAEPSHA256}

	var arn KeyARN
	if err := arn.UnmarshalBinary(data[:PrefixARN]); err != nil {
		return nil, err
	}
	h.arn = &arn

	if len(data) < PrefixAlgorithm {
		return h, nil
	}

	alg, spec, err := decodeAlgorithmByte(data[PrefixARN])
	if err != nil {
		return nil, err
	}
	if alg != 0 {
		h.algorithm = alg
	}
	if spec != 0 {
		h.keySpec = spec
	}

	if h.keySpec != 0 {
		if n := h.keySpec.CipherLen(); len(data) >= PrefixAlgorithm+n {
			h.cipherData = append([]byte(nil), data[PrefixAlgorithm:PrefixAlgorithm+n]...)
		}
	}

	return h, nil
}

// ParseBase64 decodes a header from its standard base64 form.
func ParseBase64(s string) (*Header, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("kmsheader: invalid base64 header: %w", err)
	}
	return Parse(data)
}

// Len returns the header's current serialized length: 0 with no ARN, 35 with
// an ARN only, 36 once a key spec is set, and 36 plus the cipher length once
// cipher data is present. This is the authoritative boundary between header
// and payload in a combined blob.
func (h *Header) Len() int {
	switch {
	case h.arn == nil:
		return 0
	case h.keySpec == 0:
		return PrefixARN
	case h.cipherData == nil:
		return PrefixAlgorithm
	default:
		return PrefixAlgorithm + h.keySpec.CipherLen()
	}
}

// Bytes serializes the header: ARN, then the algorithm byte if a key spec is
// set, then cipher data if present. Trailing absent sections are omitted; a
// header without an ARN cannot be serialized at all.
func (h *Header) Bytes() ([]byte, error) {
	if h.arn == nil {
		return nil, fmt.Errorf("%w: key ARN not set", ErrIncompleteHeader)
	}

	out := make([]byte, 0, h.Len())

	arn, err := h.arn.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, arn...)

	if h.keySpec == 0 {
		return out, nil
	}

	b, err := encodeAlgorithmByte(h.algorithm, h.keySpec)
	if err != nil {
		return nil, err
	}
	out = append(out, b)
	out = append(out, h.cipherData...)

	return out, nil
}

// Base64 returns the standard base64 form of Bytes.
func (h *Header) Base64() (string, error) {
	data, err := h.Bytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// SetARN parses and stores the key ARN. On failure the previous ARN is
// retained unchanged.
func (h *Header) SetARN(s string) error {
	arn, err := ParseARN(s)
	if err != nil {
		return err
	}
	h.arn = &arn
	return nil
}

// SetAlgorithm stores the OAEP algorithm.
func (h *Header) SetAlgorithm(alg Algorithm) error {
	if !alg.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	h.algorithm = alg
	return nil
}

// SetKeySpec stores the key spec. It is rejected if cipher data is already
// present with a different implied length.
func (h *Header) SetKeySpec(spec KeySpec) error {
	if !spec.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedKeySpec, spec)
	}
	if h.cipherData != nil && len(h.cipherData) != spec.CipherLen() {
		return fmt.Errorf("%w: %s implies %d cipher bytes, header holds %d",
			ErrCipherLengthMismatch, spec, spec.CipherLen(), len(h.cipherData))
	}
	h.keySpec = spec
	return nil
}

// SetCipherData stores the wrapped key material. The key spec must already be
// set and the data must have exactly the length it implies. The data is
// copied; on failure the previous cipher data is retained unchanged.
func (h *Header) SetCipherData(data []byte) error {
	if h.keySpec == 0 {
		return fmt.Errorf("%w: key spec must be set before cipher data", ErrIncompleteHeader)
	}
	if want := h.keySpec.CipherLen(); len(data) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrCipherLengthMismatch, len(data), want)
	}
	h.cipherData = append([]byte(nil), data...)
	return nil
}

// SetPublicKey stores the RSA public key used by Encrypt and sets the key
// spec from its modulus length. Keys that are not 2048, 3072, or 4096 bits
// are rejected, leaving both the previous key and key spec unchanged.
func (h *Header) SetPublicKey(pub *rsa.PublicKey) error {
	if pub == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidPublicKey)
	}
	spec, err := keySpecForBits(pub.N.BitLen())
	if err != nil {
		return err
	}
	if err := h.SetKeySpec(spec); err != nil {
		return err
	}
	h.publicKey = pub
	return nil
}

// SetPublicKeyPEM parses PEM-encoded public key material and stores it via
// SetPublicKey.
func (h *Header) SetPublicKeyPEM(data []byte) error {
	pub, err := ParsePublicKeyPEM(data)
	if err != nil {
		return err
	}
	return h.SetPublicKey(pub)
}

// SetPublicKeyFile loads a PEM public key from a file and stores it via
// SetPublicKey.
func (h *Header) SetPublicKeyFile(path string) error {
	pub, err := LoadPublicKeyFile(path)
	if err != nil {
		return err
	}
	return h.SetPublicKey(pub)
}

// ARN returns the key ARN and whether it has been set.
func (h *Header) ARN() (KeyARN, bool) {
	if h.arn == nil {
		return KeyARN{}, false
	}
	return *h.arn, true
}

// Algorithm returns the OAEP algorithm. It is OAEPSHA256 unless overridden.
func (h *Header) Algorithm() Algorithm {
	return h.algorithm
}

// KeySpec returns the key spec, or 0 if not set.
func (h *Header) KeySpec() KeySpec {
	return h.keySpec
}

// CipherData returns a copy of the wrapped key material, or nil if not set.
func (h *Header) CipherData() []byte {
	if h.cipherData == nil {
		return nil
	}
	return append([]byte(nil), h.cipherData...)
}

// PublicKey returns the public key held for Encrypt, or nil.
func (h *Header) PublicKey() *rsa.PublicKey {
	return h.publicKey
}
