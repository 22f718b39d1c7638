package kmsheader

import (
	"encoding"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Binary layout sizes. A full header is the 35-byte ARN, the algorithm byte,
// then cipher data sized by the key spec.
const (
	// PrefixKeyID is the prefix length that recovers the key id alone.
	PrefixKeyID = 16

	// PrefixAccount is the prefix length that adds the account.
	PrefixAccount = 32

	// PrefixARN is the prefix length that adds the region: the complete
	// 35-byte binary ARN.
	PrefixARN = 35

	// PrefixAlgorithm is the prefix length that adds the algorithm byte.
	PrefixAlgorithm = 36
)

const (
	keyIDSize   = 16
	accountSize = 16
	regionSize  = 3

	// accountMaxBits is the capacity of the fixed-width account field.
	accountMaxBits = accountSize * 8
)

var (
	arnPattern    = regexp.MustCompile(`^arn:aws:kms:([^:]+):([^:]+):key/([-0-9a-f]{36})$`)
	regionPattern = regexp.MustCompile(`^(.*)-([a-z]+)-([0-9]+)$`)
)

// majorRegionCodes maps major-region tokens to their wire codes. The greedy
// region split keeps multi-part majors such as "us-gov" intact.
var majorRegionCodes = map[string]byte{
	"af":     0x00,
	"ap":     0x01,
	"ca":     0x02,
	"eu":     0x03,
	"il":     0x04,
	"me":     0x05,
	"sa":     0x06,
	"us":     0x07,
	"us-gov": 0x08,
}

// directionCodes maps cardinal-direction tokens to their wire codes.
var directionCodes = map[string]byte{
	"north":     0x00,
	"east":      0x01,
	"south":     0x02,
	"west":      0x03,
	"central":   0x04,
	"northeast": 0x05,
	"southeast": 0x06,
	"southwest": 0x07,
	"northwest": 0x08,
}

// Inverse lookup tables, built at init.
var (
	majorRegionNames = map[byte]string{}
	directionNames   = map[byte]string{}
)

func init() {
	for name, code := range majorRegionCodes {
		majorRegionNames[code] = name
	}
	for name, code := range directionCodes {
		directionNames[code] = name
	}
}

// Region is the structured form of an AWS region such as "us-east-1": a major
// region, a cardinal direction, and an ordinal number. The number must fit in
// one byte (0-255).
type Region struct {
	Major     string
	Direction string
	Number    int
}

// String returns the canonical region string, e.g. "us-gov-west-1".
func (r Region) String() string {
	return fmt.Sprintf("%s-%s-%d", r.Major, r.Direction, r.Number)
}

// parseRegion splits a region string into its three parts. The major segment
// is matched greedily so "us-gov-west-1" yields major "us-gov".
func parseRegion(s string) (Region, error) {
	m := regionPattern.FindStringSubmatch(s)
	if m == nil {
		return Region{}, fmt.Errorf("%w: region %q", ErrInvalidARN, s)
	}
	if _, ok := majorRegionCodes[m[1]]; !ok {
		return Region{}, fmt.Errorf("%w: unknown major region %q", ErrInvalidARN, m[1])
	}
	if _, ok := directionCodes[m[2]]; !ok {
		return Region{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidARN, m[2])
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return Region{}, fmt.Errorf("%w: region number %q", ErrInvalidARN, m[3])
	}
	if n > 255 {
		return Region{}, fmt.Errorf("%w: %d", ErrRegionNumberOutOfRange, n)
	}
	return Region{Major: m[1], Direction: m[2], Number: n}, nil
}

// encode packs the region into its 3-byte wire form.
func (r Region) encode() ([regionSize]byte, error) {
	var b [regionSize]byte
	major, ok := majorRegionCodes[r.Major]
	if !ok {
		return b, fmt.Errorf("%w: unknown major region %q", ErrInvalidARN, r.Major)
	}
	direction, ok := directionCodes[r.Direction]
	if !ok {
		return b, fmt.Errorf("%w: unknown direction %q", ErrInvalidARN, r.Direction)
	}
	if r.Number < 0 || r.Number > 255 {
		return b, fmt.Errorf("%w: %d", ErrRegionNumberOutOfRange, r.Number)
	}
	b[0] = major
	b[1] = direction
	b[2] = byte(r.Number)
	return b, nil
}

// decodeRegion is the inverse of encode. Unknown codes fail with
// ErrMalformedARN.
func decodeRegion(b []byte) (Region, error) {
	major, ok := majorRegionNames[b[0]]
	if !ok {
		return Region{}, fmt.Errorf("%w: major region code 0x%02x", ErrMalformedARN, b[0])
	}
	direction, ok := directionNames[b[1]]
	if !ok {
		return Region{}, fmt.Errorf("%w: direction code 0x%02x", ErrMalformedARN, b[1])
	}
	return Region{Major: major, Direction: direction, Number: int(b[2])}, nil
}

// KeyARN identifies an asymmetric KMS key: region, account, and 128-bit key
// id. Its canonical string form is
// arn:aws:kms:<region>:<account>:key/<key-id> and its binary form is always
// exactly 35 bytes: 16 bytes key id, 16 bytes big-endian account, 3 bytes
// region.
type KeyARN struct {
	Region Region

	// Account is the account number in decimal, without sign or padding.
	Account string

	KeyID uuid.UUID
}

// Compile-time interface checks.
var (
	_ encoding.BinaryMarshaler   = KeyARN{}
	_ encoding.BinaryUnmarshaler = (*KeyARN)(nil)
)

// ParseARN parses a key ARN string. The key id may place its hyphens
// anywhere (the original tooling accepted that); the parsed form is
// canonical, so String and MarshalBinary round-trip exactly.
func ParseARN(s string) (KeyARN, error) {
	m := arnPattern.FindStringSubmatch(s)
	if m == nil {
		return KeyARN{}, fmt.Errorf("%w: %q", ErrInvalidARN, s)
	}

	region, err := parseRegion(m[1])
	if err != nil {
		return KeyARN{}, err
	}

	account, err := canonicalAccount(m[2])
	if err != nil {
		return KeyARN{}, err
	}

	keyID, err := parseKeyID(m[3])
	if err != nil {
		return KeyARN{}, err
	}

	return KeyARN{Region: region, Account: account, KeyID: keyID}, nil
}

// String returns the canonical ARN string.
func (a KeyARN) String() string {
	return fmt.Sprintf("arn:aws:kms:%s:%s:key/%s", a.Region, a.Account, a.KeyID)
}

// MarshalBinary encodes the ARN into its fixed 35-byte form.
func (a KeyARN) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, PrefixARN)
	out = append(out, a.KeyID[:]...)

	account, err := encodeAccount(a.Account)
	if err != nil {
		return nil, err
	}
	out = append(out, account[:]...)

	region, err := a.Region.encode()
	if err != nil {
		return nil, err
	}
	out = append(out, region[:]...)

	return out, nil
}

// UnmarshalBinary decodes a 35-byte binary ARN.
func (a *KeyARN) UnmarshalBinary(data []byte) error {
	if len(data) != PrefixARN {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedARN, len(data), PrefixARN)
	}

	region, err := decodeRegion(data[PrefixAccount:PrefixARN])
	if err != nil {
		return err
	}

	copy(a.KeyID[:], data[:PrefixKeyID])
	a.Account = decodeAccount(data[PrefixKeyID:PrefixAccount])
	a.Region = region
	return nil
}

// canonicalAccount validates an account segment and strips sign and leading
// zeros, matching the decoded form.
func canonicalAccount(s string) (string, error) {
	n, err := parseAccount(s)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

func parseAccount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: account %q is not a decimal number", ErrInvalidARN, s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: account %q is negative", ErrInvalidARN, s)
	}
	if n.BitLen() > accountMaxBits {
		return nil, fmt.Errorf("%w: account %q exceeds %d bits", ErrInvalidARN, s, accountMaxBits)
	}
	return n, nil
}

// encodeAccount packs a decimal account into 16 big-endian bytes.
func encodeAccount(s string) ([accountSize]byte, error) {
	var b [accountSize]byte
	n, err := parseAccount(s)
	if err != nil {
		return b, err
	}
	n.FillBytes(b[:])
	return b, nil
}

// decodeAccount is the inverse of encodeAccount. Leading zero bytes drop out
// of the decimal form, so "7" comes back from a field that encoded 7.
func decodeAccount(b []byte) string {
	return new(big.Int).SetBytes(b).String()
}

// parseKeyID converts the ARN's key-id segment into a UUID. The segment is 36
// characters of hex and hyphens; stripped of hyphens it must leave exactly 32
// hex characters.
func parseKeyID(s string) (uuid.UUID, error) {
	stripped := strings.ReplaceAll(s, "-", "")
	if len(stripped) != 2*keyIDSize {
		return uuid.UUID{}, fmt.Errorf("%w: key id %q has %d hex characters, want %d", ErrInvalidARN, s, len(stripped), 2*keyIDSize)
	}
	raw, err := hex.DecodeString(stripped)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: key id %q: %v", ErrInvalidARN, s, err)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: key id %q: %v", ErrInvalidARN, s, err)
	}
	return id, nil
}
