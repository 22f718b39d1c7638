// Package kmsheader implements the compact binary header that prefixes
// envelope-encrypted blobs, recording which KMS key and which RSA-OAEP
// parameters wrapped the blob's symmetric key material.
//
// The header layout is fixed:
//
//	offset  size  field
//	0       16    key id (raw 128-bit identifier)
//	16      16    account (big-endian unsigned integer)
//	32      1     region: major-region code
//	33      1     region: cardinal-direction code
//	34      1     region: ordinal number
//	35      1     algorithm byte: bits 7-4 algorithm, bits 3-0 key spec
//	36      N     cipher data: N = 256, 384, or 512 by key spec
//	36+N    ...   symmetric payload (not part of the header)
//
// The field order is deliberate: the fields that key-rotation and account
// audits need come first, so reading only the first 16 or 32 bytes of a
// stored blob is enough to know which key or account produced it. Inspect
// decodes such truncated prefixes; the audit package builds bulk scans on
// top of it.
//
// Usage:
//
//	h, err := kmsheader.FromARN("arn:aws:kms:us-east-1:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab")
//	if err != nil { ... }
//	if err := h.SetPublicKeyFile("kms.pub.pem"); err != nil { ... }
//	if err := h.Encrypt(dataKey); err != nil { ... }
//
//	header, err := h.Bytes()              // prepend to the encrypted payload
//
//	h, err = kmsheader.Parse(blob)        // header fields, payload untouched
//	payload := blob[h.Len():]
//
//	plaintext, err := h.Decrypt(ctx, awskms.New())
package kmsheader
