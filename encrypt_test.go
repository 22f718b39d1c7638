package kmsheader

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
)

// fakeDecrypter records its arguments and returns canned results.
type fakeDecrypter struct {
	plaintext []byte
	err       error

	gotARN        KeyARN
	gotCiphertext []byte
	gotAlgorithm  Algorithm
	calls         int
}

func (f *fakeDecrypter) Decrypt(_ context.Context, arn KeyARN, ciphertext []byte, alg Algorithm) ([]byte, error) {
	f.calls++
	f.gotARN = arn
	f.gotCiphertext = ciphertext
	f.gotAlgorithm = alg
	if f.err != nil {
		return nil, f.err
	}
	return f.plaintext, nil
}

func TestMaxPlaintext(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		spec KeySpec
		want int
	}{
		{OAEPSHA256, RSA2048, 190},
		{OAEPSHA256, RSA3072, 318},
		{OAEPSHA256, RSA4096, 446},
		{OAEPSHA1, RSA2048, 214},
		{OAEPSHA1, RSA4096, 470},
	}
	for _, tt := range tests {
		h, err := New(WithAlgorithm(tt.alg), WithKeySpec(tt.spec))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		got, err := h.MaxPlaintext()
		if err != nil {
			t.Fatalf("MaxPlaintext(%v, %v) failed: %v", tt.alg, tt.spec, err)
		}
		if got != tt.want {
			t.Errorf("MaxPlaintext(%v, %v) = %d, want %d", tt.alg, tt.spec, got, tt.want)
		}
	}
}

func TestMaxPlaintextNoKeySpec(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := h.MaxPlaintext(); !IsIncompleteHeader(err) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testRSAKey(t)
	dec, err := NewLocalDecrypter(key)
	if err != nil {
		t.Fatalf("NewLocalDecrypter failed: %v", err)
	}

	for _, alg := range []Algorithm{OAEPSHA1, OAEPSHA256} {
		h, err := FromARN(testARNString, WithAlgorithm(alg))
		if err != nil {
			t.Fatalf("FromARN failed: %v", err)
		}
		if err := h.SetPublicKey(&key.PublicKey); err != nil {
			t.Fatalf("SetPublicKey failed: %v", err)
		}

		plaintext := []byte("thirty-two bytes of key material")
		if err := h.Encrypt(plaintext); err != nil {
			t.Fatalf("Encrypt(%v) failed: %v", alg, err)
		}
		if got := len(h.CipherData()); got != 256 {
			t.Fatalf("cipher data length = %d, want 256", got)
		}

		got, err := h.Decrypt(context.Background(), dec)
		if err != nil {
			t.Fatalf("Decrypt(%v) failed: %v", alg, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("round trip mismatch for %v", alg)
		}
	}
}

// The full path: build, encrypt, serialize, parse elsewhere, decrypt.
func TestEncryptSerializeParseDecrypt(t *testing.T) {
	key := testRSAKey(t)

	h, err := FromARN(testARNString)
	if err != nil {
		t.Fatalf("FromARN failed: %v", err)
	}
	if err := h.SetPublicKey(&key.PublicKey); err != nil {
		t.Fatalf("SetPublicKey failed: %v", err)
	}
	plaintext := []byte("data key")
	if err := h.Encrypt(plaintext); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	blob, err := h.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if len(blob) != 292 {
		t.Fatalf("blob length = %d, want 292", len(blob))
	}
	if blob[35] != 0x21 {
		t.Fatalf("algorithm byte = 0x%02x, want 0x21", blob[35])
	}

	parsed, err := Parse(blob)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	dec, err := NewLocalDecrypter(key)
	if err != nil {
		t.Fatalf("NewLocalDecrypter failed: %v", err)
	}
	got, err := parsed.Decrypt(context.Background(), dec)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("round trip through serialized form lost the plaintext")
	}
}

func TestEncryptBoundary(t *testing.T) {
	key := testRSAKey(t)

	h, err := FromARN(testARNString)
	if err != nil {
		t.Fatalf("FromARN failed: %v", err)
	}
	if err := h.SetPublicKey(&key.PublicKey); err != nil {
		t.Fatalf("SetPublicKey failed: %v", err)
	}

	// 190 bytes is the exact OAEP-SHA256 limit for a 2048-bit key.
	if err := h.Encrypt(make([]byte, 190)); err != nil {
		t.Errorf("Encrypt(190 bytes) failed: %v", err)
	}
	if err := h.Encrypt(make([]byte, 191)); !IsPlaintextTooLarge(err) {
		t.Errorf("Encrypt(191 bytes): unexpected error %v", err)
	}
	if err := h.Encrypt(make([]byte, 500)); !IsPlaintextTooLarge(err) {
		t.Errorf("Encrypt(500 bytes): unexpected error %v", err)
	}
}

func TestEncryptWithoutPublicKey(t *testing.T) {
	h, err := FromARN(testARNString, WithKeySpec(RSA2048))
	if err != nil {
		t.Fatalf("FromARN failed: %v", err)
	}
	if err := h.Encrypt([]byte("data key")); !IsNoPublicKey(err) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDecryptPassesHeaderFields(t *testing.T) {
	full := testHeaderBytes(t, OAEPSHA1, RSA3072)
	h, err := Parse(full)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	fake := &fakeDecrypter{plaintext: []byte("data key")}
	got, err := h.Decrypt(context.Background(), fake)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, []byte("data key")) {
		t.Error("plaintext not returned verbatim")
	}

	if fake.calls != 1 {
		t.Fatalf("decrypter called %d times, want 1", fake.calls)
	}
	if fake.gotARN.String() != testARNString {
		t.Errorf("decrypter saw ARN %q, want %q", fake.gotARN, testARNString)
	}
	if fake.gotAlgorithm != OAEPSHA1 {
		t.Errorf("decrypter saw algorithm %v, want OAEPSHA1", fake.gotAlgorithm)
	}
	if !bytes.Equal(fake.gotCiphertext, testCipherData(RSA3072)) {
		t.Error("decrypter saw different cipher data")
	}
}

func TestDecryptIncomplete(t *testing.T) {
	fake := &fakeDecrypter{plaintext: []byte("x")}

	// No ARN.
	h, err := New(WithKeySpec(RSA2048))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := h.Decrypt(context.Background(), fake); !IsIncompleteHeader(err) {
		t.Errorf("no ARN: unexpected error %v", err)
	}

	// No cipher data.
	h, err = FromARN(testARNString, WithKeySpec(RSA2048))
	if err != nil {
		t.Fatalf("FromARN failed: %v", err)
	}
	if _, err := h.Decrypt(context.Background(), fake); !IsIncompleteHeader(err) {
		t.Errorf("no cipher data: unexpected error %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("decrypter called %d times on incomplete headers, want 0", fake.calls)
	}
}

func TestDecryptNilDecrypter(t *testing.T) {
	full := testHeaderBytes(t, OAEPSHA256, RSA2048)
	h, err := Parse(full)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := h.Decrypt(context.Background(), nil); err == nil {
		t.Error("expected error for nil decrypter")
	}
}

func TestDecryptWrapsCause(t *testing.T) {
	full := testHeaderBytes(t, OAEPSHA256, RSA2048)
	h, err := Parse(full)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cause := errors.New("kms unreachable")
	fake := &fakeDecrypter{err: cause}

	_, err = h.Decrypt(context.Background(), fake)
	if !IsDecryptionFailed(err) {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not inspectable through the wrap: %v", err)
	}
}

func TestDecryptTamperedCipherData(t *testing.T) {
	key := testRSAKey(t)

	h, err := FromARN(testARNString)
	if err != nil {
		t.Fatalf("FromARN failed: %v", err)
	}
	if err := h.SetPublicKey(&key.PublicKey); err != nil {
		t.Fatalf("SetPublicKey failed: %v", err)
	}
	if err := h.Encrypt([]byte("data key")); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	tampered := h.CipherData()
	tampered[100] ^= 0x01
	if err := h.SetCipherData(tampered); err != nil {
		t.Fatalf("SetCipherData failed: %v", err)
	}

	dec, err := NewLocalDecrypter(key)
	if err != nil {
		t.Fatalf("NewLocalDecrypter failed: %v", err)
	}
	if _, err := h.Decrypt(context.Background(), dec); !IsDecryptionFailed(err) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewLocalDecrypterErrors(t *testing.T) {
	if _, err := NewLocalDecrypter(nil); err == nil {
		t.Error("expected error for nil key")
	}

	small, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	if _, err := NewLocalDecrypter(small); !IsUnsupportedKeySpec(err) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLocalDecrypterRejectsBadInputs(t *testing.T) {
	key := testRSAKey(t)
	dec, err := NewLocalDecrypter(key)
	if err != nil {
		t.Fatalf("NewLocalDecrypter failed: %v", err)
	}
	arn := mustParseARN(t, testARNString)

	if _, err := dec.Decrypt(context.Background(), arn, make([]byte, 100), OAEPSHA256); !IsCipherLengthMismatch(err) {
		t.Errorf("short ciphertext: unexpected error %v", err)
	}
	if _, err := dec.Decrypt(context.Background(), arn, make([]byte, 256), Algorithm(0)); !IsUnsupportedAlgorithm(err) {
		t.Errorf("zero algorithm: unexpected error %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dec.Decrypt(ctx, arn, make([]byte, 256), OAEPSHA256); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: unexpected error %v", err)
	}
}
