// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/ecdsa"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/certs"
)

func TestCertificate_ExtractPublicKey(t *testing.T) {
	decoder := x509certs.New()
	cert, _ := newCertPair(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Valid Certificate",
			testFunc: func(t *testing.T) {
				key, err := decoder.ExtractPublicKey(cert)
				require.NoError(t, err, "ExtractPublicKey() error")

				ecKey, ok := key.(*ecdsa.PublicKey)
				require.True(t, ok, "expected an ECDSA public key, got %T", key)
				assert.Equal(t, "P-256", ecKey.Curve.Params().Name, "expected P-256 curve")
			},
		},
		{
			name: "Nil Certificate",
			testFunc: func(t *testing.T) {
				_, err := decoder.ExtractPublicKey(nil)
				assert.Equal(t, x509certs.ErrNilCertificate, err, "expected ErrNilCertificate")
			},
		},
		{
			name: "Certificate Without Key",
			testFunc: func(t *testing.T) {
				_, err := decoder.ExtractPublicKey(&x509.Certificate{})
				assert.Equal(t, x509certs.ErrNoPublicKey, err, "expected ErrNoPublicKey")
			},
		},
		{
			name: "Extracted Key Matches Certificate Key",
			testFunc: func(t *testing.T) {
				key, err := decoder.ExtractPublicKey(cert)
				require.NoError(t, err, "ExtractPublicKey() error")

				ecKey, ok := key.(*ecdsa.PublicKey)
				require.True(t, ok, "expected an ECDSA public key")

				certKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
				require.True(t, ok, "certificate key is not ECDSA")

				assert.True(t, ecKey.Equal(certKey), "extracted key does not equal certificate key")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestCertificate_ExtractPublicKeys(t *testing.T) {
	decoder := x509certs.New()
	cert, _ := newCertPair(t)

	tests := []struct {
		name        string
		certs       []*x509.Certificate
		expectCount int
	}{
		{
			name:        "Single Certificate",
			certs:       []*x509.Certificate{cert},
			expectCount: 1,
		},
		{
			name:        "Duplicate Certificates",
			certs:       []*x509.Certificate{cert, cert},
			expectCount: 2,
		},
		{
			name:        "Keyless Entries Are Skipped",
			certs:       []*x509.Certificate{cert, {}, nil, cert},
			expectCount: 2,
		},
		{
			name:        "Empty List",
			certs:       []*x509.Certificate{},
			expectCount: 0,
		},
		{
			name:        "Nil List",
			certs:       nil,
			expectCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := decoder.ExtractPublicKeys(tt.certs)
			assert.Len(t, keys, tt.expectCount, "expected correct number of extracted keys")
		})
	}
}
