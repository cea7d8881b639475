// Package crypto implements the certificate integrity primitives: per-issuer
// RSA key pairs and RSA-SHA256 signatures over certificate hashes.
//
// Keys travel as PEM strings (PKCS#1 private, PKIX public) because the
// public key is stored alongside the university record and served to
// verifiers as text. The private key never leaves the issuing service.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	dErrors "certverify/pkg/domain-errors"
)

const keyBits = 2048

// KeyPair holds a PEM-encoded RSA key pair for one university.
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}

// GenerateKeyPair creates a new 2048-bit RSA key pair. Failure is fatal for
// the caller: a university cannot be registered without keys.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "key generation failed")
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "key generation failed")
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	return &KeyPair{
		PublicKey:  string(pubPEM),
		PrivateKey: string(privPEM),
	}, nil
}

func parsePrivateKey(privatePEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "signing key is not valid PEM")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "signing key is malformed")
	}
	return key, nil
}

func parsePublicKey(publicPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicPEM))
	if block == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "public key is not valid PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "public key is malformed")
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "public key is not RSA")
	}
	return key, nil
}
