// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revoke

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/helper/gc"
)

// checkOCSP queries the certificate's first listed OCSP responder (RFC 6960).
//
// The issuer certificate is required to build the request's CertID and to
// authenticate the response, so a missing issuer maps to StatusUnknown.
func (c *Checker) checkOCSP(ctx context.Context, cert, issuer *x509.Certificate) (Status, string) {
	if len(cert.OCSPServer) == 0 {
		return StatusUnknown, "no responder listed"
	}
	if issuer == nil {
		return StatusUnknown, "issuer not in chain"
	}

	reqData, err := ocsp.CreateRequest(cert, issuer, nil)
	if err != nil {
		return StatusUnknown, fmt.Sprintf("request build failed: %v", err)
	}

	ocspURL := cert.OCSPServer[0]

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ocspURL, bytes.NewReader(reqData))
	if err != nil {
		return StatusUnknown, fmt.Sprintf("http request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")
	req.Header.Set("User-Agent", c.HTTPConfig.GetUserAgent())

	resp, err := c.HTTPConfig.Client().Do(req)
	if err != nil {
		return StatusUnknown, fmt.Sprintf("responder unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusUnknown, fmt.Sprintf("responder returned HTTP %d", resp.StatusCode)
	}

	// Read the OCSP response body through the buffer pool
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()         // Reset the buffer to prevent data leaks
		gc.Default.Put(buf) // Return the buffer to the pool for reuse
	}()

	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return StatusUnknown, fmt.Sprintf("response read failed: %v", err)
	}

	parsed, err := ocsp.ParseResponseForCert(buf.Bytes(), cert, issuer)
	if err != nil {
		return StatusUnknown, fmt.Sprintf("response parse failed: %v", err)
	}

	switch parsed.Status {
	case ocsp.Good:
		return StatusGood, "good"
	case ocsp.Revoked:
		return StatusRevoked, fmt.Sprintf("revoked at %s", parsed.RevokedAt.Format(time.RFC3339))
	default:
		return StatusUnknown, "responder does not know the certificate"
	}
}
