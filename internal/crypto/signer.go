package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"

	dErrors "certverify/pkg/domain-errors"
)

// Sign produces a base64 RSA-SHA256 signature over the certificate hash.
// The hash is signed as the hex string stored on the certificate record, so
// verifiers can re-check the signature without re-deriving the payload.
func Sign(certificateHash, privatePEM string) (string, error) {
	key, err := parsePrivateKey(privatePEM)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(certificateHash))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "signing failed")
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a base64 signature against the certificate hash and the
// issuer's public key. A failed check returns (false, nil); an error means
// the inputs could not be evaluated at all (bad PEM, bad base64).
func Verify(certificateHash, signature, publicPEM string) (bool, error) {
	key, err := parsePublicKey(publicPEM)
	if err != nil {
		return false, err
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "signature is not valid base64")
	}

	digest := sha256.Sum256([]byte(certificateHash))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig); err != nil {
		return false, nil
	}
	return true, nil
}
