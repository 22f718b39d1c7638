package kmsheader

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// ParsePublicKeyPEM parses an RSA public key from PEM data. Both PKIX
// ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY") blocks are accepted.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: data is not PEM-encoded", ErrInvalidPublicKey)
	}

	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA public key", ErrInvalidPublicKey)
		}
		return pub, nil
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block %q", ErrInvalidPublicKey, block.Type)
	}
}

// LoadPublicKeyFile reads a PEM file and parses it with ParsePublicKeyPEM.
func LoadPublicKeyFile(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kmsheader: read public key: %w", err)
	}
	return ParsePublicKeyPEM(data)
}

// ParsePrivateKeyPEM parses an RSA private key from PEM data. Both PKCS#1
// ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks are accepted. Private
// keys never enter a header; they exist only to back a LocalDecrypter.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("kmsheader: invalid private key: data is not PEM-encoded")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("kmsheader: invalid private key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("kmsheader: invalid private key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("kmsheader: invalid private key: not an RSA key")
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("kmsheader: invalid private key: unsupported PEM block %q", block.Type)
	}
}

// LoadPrivateKeyFile reads a PEM file and parses it with ParsePrivateKeyPEM.
func LoadPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kmsheader: read private key: %w", err)
	}
	return ParsePrivateKeyPEM(data)
}
