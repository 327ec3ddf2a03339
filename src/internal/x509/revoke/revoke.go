// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revoke

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/tls-server-trust/src/version"
)

var (
	// ErrUnknownFlag indicates that a revocation flag name is not recognized.
	ErrUnknownFlag = errors.New("revoke: unknown revocation flag")
)

// Flags selects which revocation methods run and how strict the verdict is.
type Flags uint8

const (
	// OCSP enables Online Certificate Status Protocol lookups.
	OCSP Flags = 1 << iota
	// CRL enables Certificate Revocation List downloads.
	CRL
	// RequireResponse demands a definitive "good" answer from at least one
	// enabled method per checked certificate. Without it, an unreachable or
	// silent responder leaves the verdict permissive.
	RequireResponse
)

// AnyMethod enables every available lookup method.
const AnyMethod = OCSP | CRL

// Has reports whether flag is set.
func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// String returns a pipe-separated flag list, e.g. "ocsp|crl|require".
func (f Flags) String() string {
	var parts []string
	if f.Has(OCSP) {
		parts = append(parts, "ocsp")
	}
	if f.Has(CRL) {
		parts = append(parts, "crl")
	}
	if f.Has(RequireResponse) {
		parts = append(parts, "require")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseFlags converts flag names ("ocsp", "crl", "require", "any") to Flags.
func ParseFlags(names []string) (Flags, error) {
	var flags Flags
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ocsp":
			flags |= OCSP
		case "crl":
			flags |= CRL
		case "any":
			flags |= AnyMethod
		case "require":
			flags |= RequireResponse
		case "":
		default:
			return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, name)
		}
	}
	return flags, nil
}

// Status is the outcome of a single revocation lookup.
type Status int

const (
	// StatusUnknown means no definitive answer was obtained.
	StatusUnknown Status = iota
	// StatusGood means the responder or list vouched for the certificate.
	StatusGood
	// StatusRevoked means the certificate has been invalidated after issuance.
	StatusRevoked
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusGood:
		return "Good"
	case StatusRevoked:
		return "Revoked"
	default:
		return "Unknown"
	}
}

// CertStatus holds the per-certificate outcome of a revocation check.
type CertStatus struct {
	Subject      string
	SerialNumber string
	OCSP         Status
	OCSPDetail   string
	CRL          Status
	CRLDetail    string
}

// HTTPConfig holds HTTP client configuration for revocation fetches.
type HTTPConfig struct {
	Timeout   time.Duration // HTTP request timeout
	Version   string        // Application version for User-Agent
	UserAgent string        // Custom User-Agent string, if empty will be constructed from Version

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPConfig creates a new HTTP configuration with a 10 second default timeout.
func NewHTTPConfig(version string) *HTTPConfig {
	return &HTTPConfig{
		Timeout:   10 * time.Second,
		Version:   version,
		UserAgent: "",
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("TLS-Server-Trust/%s (+https://github.com/H0llyW00dzZ/tls-server-trust)", c.Version)
}

// Client returns an HTTP client configured with the current timeout.
//
// Thread Safety: Safe for concurrent use.
func (c *HTTPConfig) Client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
		return c.client
	}

	if c.client.Timeout != c.Timeout {
		c.client.Timeout = c.Timeout
	}

	return c.client
}

// Checker performs OCSP and CRL lookups for certificate chains.
//
// A Checker is safe for concurrent use; the CRL cache behind it carries its
// own synchronization so trust policies evaluating in parallel can share one
// instance.
type Checker struct {
	HTTPConfig *HTTPConfig
	cache      *crlCache
}

// NewChecker creates a Checker with default HTTP and cache configuration.
func NewChecker(version string) *Checker {
	return &Checker{
		HTTPConfig: NewHTTPConfig(version),
		cache:      newCRLCache(defaultCacheConfig),
	}
}

// Default is the checker used by trust policies that layer revocation checking
// over chain validation. Collaborators needing their own HTTP or cache tuning
// construct a separate Checker.
var Default = NewChecker(version.Version)

// CheckCert runs the enabled revocation methods for one certificate.
//
// The issuer is needed to build OCSP requests and to verify CRL signatures;
// pass nil when it is not available and the affected method reports
// StatusUnknown instead.
func (c *Checker) CheckCert(ctx context.Context, cert, issuer *x509.Certificate, flags Flags) CertStatus {
	status := CertStatus{
		Subject:      cert.Subject.CommonName,
		SerialNumber: cert.SerialNumber.String(),
	}

	if flags.Has(OCSP) {
		status.OCSP, status.OCSPDetail = c.checkOCSP(ctx, cert, issuer)
	} else {
		status.OCSPDetail = "disabled"
	}

	if flags.Has(CRL) {
		status.CRL, status.CRLDetail = c.checkCRL(ctx, cert, issuer)
	} else {
		status.CRLDetail = "disabled"
	}

	return status
}

// CheckChain runs revocation checks for every non-anchor certificate in the
// presented chain, leaf first. Self-signed certificates are skipped since
// trust anchors are not revoked via OCSP/CRL.
func (c *Checker) CheckChain(ctx context.Context, chain []*x509.Certificate, flags Flags) []CertStatus {
	var statuses []CertStatus

	for _, cert := range chain {
		if isSelfSigned(cert) {
			continue
		}
		issuer := findIssuer(chain, cert)
		statuses = append(statuses, c.CheckCert(ctx, cert, issuer, flags))
	}

	return statuses
}

// Allowed collapses chain-wide revocation results into a single verdict.
//
// Any revoked certificate denies the chain. With RequireResponse set, every
// checked certificate must additionally have produced at least one "good"
// answer from an enabled method.
func (c *Checker) Allowed(ctx context.Context, chain []*x509.Certificate, flags Flags) bool {
	for _, status := range c.CheckChain(ctx, chain, flags) {
		if status.OCSP == StatusRevoked || status.CRL == StatusRevoked {
			return false
		}
		if flags.Has(RequireResponse) && status.OCSP != StatusGood && status.CRL != StatusGood {
			return false
		}
	}
	return true
}

// StartCacheCleanup launches the background CRL cache cleanup loop. It stops
// when ctx is cancelled and is a no-op if already running.
func (c *Checker) StartCacheCleanup(ctx context.Context) { c.cache.startCleanup(ctx) }

// SetCacheConfig replaces the CRL cache configuration and prunes as needed.
func (c *Checker) SetCacheConfig(config *CacheConfig) { c.cache.setConfig(config) }

// CacheConfigSnapshot returns a copy of the current CRL cache configuration.
func (c *Checker) CacheConfigSnapshot() *CacheConfig { return c.cache.configSnapshot() }

// CacheMetrics returns current CRL cache metrics.
func (c *Checker) CacheMetrics() CacheMetrics { return c.cache.metricsSnapshot() }

// CacheStats returns a formatted string with CRL cache statistics.
func (c *Checker) CacheStats() string { return c.cache.stats() }

// ClearCache clears all cached CRLs (useful for testing).
func (c *Checker) ClearCache() { c.cache.clear() }

// isSelfSigned checks whether the certificate signed itself.
func isSelfSigned(cert *x509.Certificate) bool {
	return cert.CheckSignatureFrom(cert) == nil
}

// findIssuer locates the certificate in the chain that issued cert.
//
// Subject/issuer name matching runs first, confirmed by a signature check;
// when names do not line up, a signature scan over the rest of the chain is
// the fallback.
func findIssuer(chain []*x509.Certificate, cert *x509.Certificate) *x509.Certificate {
	for _, candidate := range chain {
		if candidate == cert {
			continue
		}
		if bytes.Equal(candidate.RawSubject, cert.RawIssuer) && cert.CheckSignatureFrom(candidate) == nil {
			return candidate
		}
	}

	for _, candidate := range chain {
		if candidate == cert {
			continue
		}
		if cert.CheckSignatureFrom(candidate) == nil {
			return candidate
		}
	}

	return nil
}
