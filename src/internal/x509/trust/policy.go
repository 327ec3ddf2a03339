// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
)

// Policy is a trust-evaluation strategy for a server's certificate chain.
//
// Evaluate receives the chain exactly as presented during the handshake,
// ordered leaf first, together with the hostname used for the connection
// attempt. It returns true only when the chain satisfies the policy; every
// failure mode, from an unparseable pin to a failed chain validation,
// collapses to false rather than a distinct error.
//
// Policies hold no per-connection state and are safe for concurrent use.
type Policy interface {
	Evaluate(chain []*x509.Certificate, host string) bool
}

// EvaluateFunc is caller-supplied trust logic for [Custom] policies.
type EvaluateFunc func(chain []*x509.Certificate, host string) bool

// Default returns a policy that runs standard chain-of-trust validation
// against the system root pool. Hostname verification runs iff validateHost
// is true.
func Default(validateHost bool) Policy {
	return defaultPolicy{validateHost: validateHost}
}

// Revoked returns a policy that runs standard chain-of-trust validation and
// additionally checks revocation status per the given flags. A chain fails
// when validation fails or when any certificate in it turns out to be
// revoked; see [revoke.Flags] for strictness control.
func Revoked(validateHost bool, flags revoke.Flags) Policy {
	return revokedPolicy{
		validateHost: validateHost,
		flags:        flags,
		checker:      revoke.Default,
	}
}

// PinCertificates returns a policy that trusts only the pinned certificates.
//
// With validateChain true, chain validation runs with the pins as the
// exclusive anchor set, so no system root is trusted. With validateChain
// false, validation is skipped entirely and the policy passes when any
// presented certificate matches any pin byte for byte.
//
// Nil entries in pins are dropped. Pinning against an empty set fails closed.
func PinCertificates(pins []*x509.Certificate, validateChain, validateHost bool) Policy {
	kept := make([]*x509.Certificate, 0, len(pins))
	for _, pin := range pins {
		if pin != nil {
			kept = append(kept, pin)
		}
	}
	return pinnedCertificates{
		pins:          kept,
		validateChain: validateChain,
		validateHost:  validateHost,
	}
}

// PinPublicKeys returns a policy that trusts only chains containing at least
// one of the pinned public keys.
//
// With validateChain true, ordinary chain validation against the system roots
// runs first and a failure denies the chain before any key is compared. The
// key comparison itself uses the crypto provider's own equality.
//
// Nil entries in keys are dropped. Pinning against an empty set fails closed.
func PinPublicKeys(keys []crypto.PublicKey, validateChain, validateHost bool) Policy {
	kept := make([]crypto.PublicKey, 0, len(keys))
	for _, key := range keys {
		if key != nil {
			kept = append(kept, key)
		}
	}
	return pinnedPublicKeys{
		pins:          kept,
		validateChain: validateChain,
		validateHost:  validateHost,
	}
}

// Disabled returns a policy that trusts any chain, including an empty one.
//
// This defeats the entire point of TLS server authentication and exists only
// for non-production testing against endpoints with broken certificates.
func Disabled() Policy {
	return disabledPolicy{}
}

// Custom returns a policy that delegates the verdict entirely to fn. A nil
// fn denies every chain.
func Custom(fn EvaluateFunc) Policy {
	return customPolicy{fn: fn}
}

type defaultPolicy struct {
	validateHost bool

	// roots overrides the system pool when set.
	roots *x509.CertPool
}

func (p defaultPolicy) Evaluate(chain []*x509.Certificate, host string) bool {
	return verifyChain(chain, host, p.roots, p.validateHost)
}

type revokedPolicy struct {
	validateHost bool
	flags        revoke.Flags
	checker      *revoke.Checker

	// roots overrides the system pool when set.
	roots *x509.CertPool
}

func (p revokedPolicy) Evaluate(chain []*x509.Certificate, host string) bool {
	if !verifyChain(chain, host, p.roots, p.validateHost) {
		return false
	}
	// The checker's HTTP timeout bounds each OCSP/CRL fetch; evaluation
	// itself carries no cancellation.
	return p.checker.Allowed(context.Background(), chain, p.flags)
}

type pinnedCertificates struct {
	pins          []*x509.Certificate
	validateChain bool
	validateHost  bool
}

func (p pinnedCertificates) Evaluate(chain []*x509.Certificate, host string) bool {
	// An empty chain or an empty pin set never matches.
	if len(chain) == 0 || len(p.pins) == 0 {
		return false
	}

	if p.validateChain {
		roots := x509.NewCertPool()
		for _, pin := range p.pins {
			roots.AddCert(pin)
		}
		return verifyChain(chain, host, roots, p.validateHost)
	}

	// Pin sets stay single digit in practice, so the pairwise scan with an
	// early exit beats building a lookup set.
	for _, cert := range chain {
		if cert == nil {
			continue
		}
		for _, pin := range p.pins {
			if bytes.Equal(cert.Raw, pin.Raw) {
				return true
			}
		}
	}
	return false
}

type pinnedPublicKeys struct {
	pins          []crypto.PublicKey
	validateChain bool
	validateHost  bool

	// roots overrides the system pool when set.
	roots *x509.CertPool
}

func (p pinnedPublicKeys) Evaluate(chain []*x509.Certificate, host string) bool {
	// An empty chain or an empty pin set never matches.
	if len(chain) == 0 || len(p.pins) == 0 {
		return false
	}

	if p.validateChain && !verifyChain(chain, host, p.roots, p.validateHost) {
		return false
	}

	for _, cert := range chain {
		if cert == nil || cert.PublicKey == nil {
			continue
		}
		for _, pin := range p.pins {
			if publicKeysEqual(cert.PublicKey, pin) {
				return true
			}
		}
	}
	return false
}

type disabledPolicy struct{}

func (disabledPolicy) Evaluate(chain []*x509.Certificate, host string) bool {
	return true
}

type customPolicy struct {
	fn EvaluateFunc
}

func (p customPolicy) Evaluate(chain []*x509.Certificate, host string) bool {
	if p.fn == nil {
		return false
	}
	return p.fn(chain, host)
}

// verifyChain runs standard chain-of-trust validation for a leaf-first chain.
// A nil roots pool means the system roots. Hostname verification runs iff
// validateHost is true; any validation outcome other than success counts as
// untrusted without distinguishing why.
func verifyChain(chain []*x509.Certificate, host string, roots *x509.CertPool, validateHost bool) bool {
	if len(chain) == 0 || chain[0] == nil {
		return false
	}

	intermediates := x509.NewCertPool()
	for _, cert := range chain[1:] {
		if cert != nil {
			intermediates.AddCert(cert)
		}
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
	}
	if validateHost {
		opts.DNSName = host
	}

	_, err := chain[0].Verify(opts)
	return err == nil
}

// publicKeysEqual compares two public keys using the provider's Equal method,
// falling back to PKIX encoding for key types without one.
func publicKeysEqual(a, b crypto.PublicKey) bool {
	if a == nil || b == nil {
		return false
	}

	type equaler interface {
		Equal(x crypto.PublicKey) bool
	}
	if key, ok := a.(equaler); ok {
		return key.Equal(b)
	}

	aDER, err := x509.MarshalPKIXPublicKey(a)
	if err != nil {
		return false
	}
	bDER, err := x509.MarshalPKIXPublicKey(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aDER, bDER)
}
