// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto"
	"crypto/x509"
	"errors"
)

var (
	// ErrNilCertificate indicates that a nil certificate was passed where one is required.
	ErrNilCertificate = errors.New("x509certs: nil certificate")

	// ErrNoPublicKey indicates that the certificate carries no usable public key.
	ErrNoPublicKey = errors.New("x509certs: certificate has no public key")
)

// ExtractPublicKey returns the public key carried by cert.
//
// The key comes from the certificate's SubjectPublicKeyInfo as parsed by the
// platform X.509 path. Certificates whose key could not be parsed yield
// ErrNoPublicKey rather than a partial value.
func (c *Certificate) ExtractPublicKey(cert *x509.Certificate) (crypto.PublicKey, error) {
	if cert == nil {
		return nil, ErrNilCertificate
	}
	if cert.PublicKey == nil {
		return nil, ErrNoPublicKey
	}
	return cert.PublicKey, nil
}

// ExtractPublicKeys maps each certificate to its public key.
//
// Certificates without a usable key are skipped silently so one bad entry in a
// reference bundle never discards the rest of the batch.
func (c *Certificate) ExtractPublicKeys(certs []*x509.Certificate) []crypto.PublicKey {
	var keys []crypto.PublicKey

	for _, cert := range certs {
		key, err := c.ExtractPublicKey(cert)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}

	return keys
}
