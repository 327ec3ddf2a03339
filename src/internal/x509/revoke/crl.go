// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revoke

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"time"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/helper/gc"
)

const crlPEMBlockType = "X509 CRL"

// checkCRL downloads the certificate's first CRL distribution point and scans
// the list for the certificate's serial number.
//
// The list signature is verified against the issuer when one is available;
// a failed signature check yields StatusUnknown rather than trusting the list.
func (c *Checker) checkCRL(ctx context.Context, cert, issuer *x509.Certificate) (Status, string) {
	if len(cert.CRLDistributionPoints) == 0 {
		return StatusUnknown, "no distribution point listed"
	}

	crlURL := cert.CRLDistributionPoints[0]

	data, cached, err := c.fetchCRL(ctx, crlURL)
	if err != nil {
		return StatusUnknown, fmt.Sprintf("fetch failed: %v", err)
	}

	list, err := x509.ParseRevocationList(data)
	if err != nil {
		return StatusUnknown, fmt.Sprintf("parse failed: %v", err)
	}

	if issuer != nil {
		if err := list.CheckSignatureFrom(issuer); err != nil {
			return StatusUnknown, fmt.Sprintf("signature check failed: %v", err)
		}
	}

	for _, entry := range list.RevokedCertificateEntries {
		if entry.SerialNumber != nil && entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return StatusRevoked, fmt.Sprintf("listed in CRL, revoked at %s", entry.RevocationTime.Format(time.RFC3339))
		}
	}

	if cached {
		return StatusGood, "not listed (cached CRL)"
	}
	return StatusGood, "not listed"
}

// fetchCRL returns the DER bytes of the CRL at url, serving fresh entries from
// the cache and downloading otherwise. Downloaded lists are cached until their
// NextUpdate time.
func (c *Checker) fetchCRL(ctx context.Context, url string) (data []byte, cached bool, err error) {
	if data, ok := c.cache.get(url); ok {
		return data, true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.HTTPConfig.GetUserAgent())

	resp, err := c.HTTPConfig.Client().Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("distribution point returned HTTP %d", resp.StatusCode)
	}

	// Read the CRL through the buffer pool
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()         // Reset the buffer to prevent data leaks
		gc.Default.Put(buf) // Return the buffer to the pool for reuse
	}()

	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, false, err
	}

	data = append([]byte(nil), buf.Bytes()...)

	// Some distribution points serve PEM-armored lists
	if block, _ := pem.Decode(data); block != nil && block.Type == crlPEMBlockType {
		data = block.Bytes
	}

	// Only parseable lists enter the cache; NextUpdate bounds their lifetime
	if list, err := x509.ParseRevocationList(data); err == nil {
		c.cache.set(url, data, list.NextUpdate)
	}

	return data, false, nil
}
