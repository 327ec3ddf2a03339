// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package truststore

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"

	x509certs "github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/certs"
)

// bundleExtensions are the recognized certificate file extensions. Matching
// is exact: only these spellings count, so ".Cer" or ".Crt" files are not
// picked up.
var bundleExtensions = []string{".cer", ".CER", ".crt", ".CRT", ".der", ".DER"}

// hasBundleExtension reports whether name carries a recognized extension.
func hasBundleExtension(name string) bool {
	ext := filepath.Ext(name)
	for _, known := range bundleExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// CertificatesInDirectory enumerates the recognized certificate files
// directly inside dir and parses each as DER. Files that fail to parse are
// skipped; subdirectories are not descended into. The directory listing
// itself failing is the only error condition.
//
// Results follow the directory's lexical file order, so a bundle loads the
// same way every time.
func CertificatesInDirectory(dir string) ([]*x509.Certificate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("truststore: reading bundle directory: %w", err)
	}

	var certs []*x509.Certificate
	for _, entry := range entries {
		if entry.IsDir() || !hasBundleExtension(entry.Name()) {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			continue
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// PublicKeys maps certificates to their public keys, skipping any
// certificate whose key cannot be extracted.
func PublicKeys(certs []*x509.Certificate) []crypto.PublicKey {
	decoder := x509certs.New()
	return decoder.ExtractPublicKeys(certs)
}

// PublicKeysInDirectory loads the bundle in dir and returns the public keys
// of its certificates. It is the composition of [CertificatesInDirectory]
// and [PublicKeys].
func PublicKeysInDirectory(dir string) ([]crypto.PublicKey, error) {
	certs, err := CertificatesInDirectory(dir)
	if err != nil {
		return nil, err
	}
	return PublicKeys(certs), nil
}
