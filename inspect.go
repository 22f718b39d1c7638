package kmsheader

import (
	"fmt"

	"github.com/google/uuid"
)

// PartialHeader is a read-only projection of the fields recoverable from a
// truncated header prefix. Fields beyond the prefix keep their zero values:
// Account is "" until a 32-byte prefix, Region is the zero Region until 35,
// and Algorithm/KeySpec stay zero until 36 (or when the algorithm byte's
// corresponding nibble is zero). A PartialHeader never holds cipher data.
type PartialHeader struct {
	KeyID     uuid.UUID
	Account   string
	Region    Region
	Algorithm Algorithm
	KeySpec   KeySpec
}

// Inspect extracts whichever header fields a byte prefix determines, without
// needing the rest of the header or the payload. Only prefixes of exactly 16,
// 32, 35, or 36 bytes are accepted:
//
//	16 bytes  key id
//	32 bytes  + account
//	35 bytes  + region
//	36 bytes  + algorithm and key spec
//
// Reading just 16 bytes of each stored blob is enough for a key-rotation
// audit; 32 bytes covers an account migration check.
func Inspect(prefix []byte) (PartialHeader, error) {
	switch len(prefix) {
	case PrefixKeyID, PrefixAccount, PrefixARN, PrefixAlgorithm:
	default:
		return PartialHeader{}, fmt.Errorf("%w: got %d bytes, want 16, 32, 35, or 36", ErrInvalidPrefixLength, len(prefix))
	}

	var p PartialHeader
	copy(p.KeyID[:], prefix[:PrefixKeyID])

	if len(prefix) < PrefixAccount {
		return p, nil
	}
	p.Account = decodeAccount(prefix[PrefixKeyID:PrefixAccount])

	if len(prefix) < PrefixARN {
		return p, nil
	}
	region, err := decodeRegion(prefix[PrefixAccount:PrefixARN])
	if err != nil {
		return PartialHeader{}, err
	}
	p.Region = region

	if len(prefix) < PrefixAlgorithm {
		return p, nil
	}
	alg, spec, err := decodeAlgorithmByte(prefix[PrefixARN])
	if err != nil {
		return PartialHeader{}, err
	}
	p.Algorithm = alg
	p.KeySpec = spec

	return p, nil
}
