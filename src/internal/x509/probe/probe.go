// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/trust"
)

var (
	// ErrNoPeerCertificates indicates the server completed a handshake
	// without presenting any certificate.
	ErrNoPeerCertificates = errors.New("probe: no certificates received from server")

	// ErrUntrustedChain indicates the selected trust policy rejected the
	// presented chain. It surfaces as the handshake error when a Session
	// produced the TLS configuration.
	ErrUntrustedChain = errors.New("probe: certificate chain rejected by trust policy")
)

// FetchChain establishes a TLS connection to the target host and returns the
// certificate chain presented during the handshake, leaf first.
//
// Verification is disabled for the fetch itself: the presented chain is raw
// evaluation input, and trust decisions belong to the policy that receives
// it.
func FetchChain(ctx context.Context, host string, port int, timeout time.Duration) ([]*x509.Certificate, error) {
	dialer := &net.Dialer{Timeout: timeout}

	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", fmt.Sprintf("%s:%d", host, port),
		// We just want the cert chain, not to verify
		&tls.Config{InsecureSkipVerify: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", host, port, err)
	}
	defer conn.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	peerCerts := conn.ConnectionState().PeerCertificates
	if len(peerCerts) == 0 {
		return nil, ErrNoPeerCertificates
	}

	return peerCerts, nil
}

// Session composes a trust policy registry with a fallback policy for hosts
// that have no registered entry. It is the network-facing owner of the
// registry: lookups are lock-free reads, and configuration reloads swap in a
// whole new registry atomically.
type Session struct {
	fallback trust.Policy
	registry atomic.Pointer[trust.Registry]

	// Checker performs the revocation lookups that probing reports on.
	Checker *revoke.Checker
}

// NewSession creates a session around the given registry. A nil fallback
// defaults to standard chain validation with hostname verification, so an
// empty session still refuses obviously broken endpoints.
func NewSession(registry *trust.Registry, fallback trust.Policy) *Session {
	if fallback == nil {
		fallback = trust.Default(true)
	}
	s := &Session{
		fallback: fallback,
		Checker:  revoke.Default,
	}
	s.registry.Store(registry)
	return s
}

// Swap atomically replaces the session's registry. Connections already being
// evaluated keep the policy they resolved; new lookups see the new registry.
func (s *Session) Swap(registry *trust.Registry) {
	s.registry.Store(registry)
}

// Registry returns the currently installed registry, which may be nil.
func (s *Session) Registry() *trust.Registry {
	return s.registry.Load()
}

// PolicyFor returns the policy that governs host: the registered one when an
// exact match exists, the session fallback otherwise.
func (s *Session) PolicyFor(host string) trust.Policy {
	if policy, ok := s.registry.Load().PolicyFor(host); ok {
		return policy
	}
	return s.fallback
}

// TLSConfigFor returns a TLS client configuration that delegates server
// identity evaluation for host to the session's policy.
//
// The standard verifier is disabled in favor of the policy verdict, so the
// returned configuration must only be used for connections to host.
func (s *Session) TLSConfigFor(host string) *tls.Config {
	policy := s.PolicyFor(host)

	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			chain := make([]*x509.Certificate, 0, len(rawCerts))
			for _, raw := range rawCerts {
				cert, err := x509.ParseCertificate(raw)
				if err != nil {
					return fmt.Errorf("parsing peer certificate: %w", err)
				}
				chain = append(chain, cert)
			}

			if !policy.Evaluate(chain, host) {
				return fmt.Errorf("%w: %s", ErrUntrustedChain, host)
			}
			return nil
		},
	}
}

// Dial connects to host:port with the session's trust policy enforced during
// the handshake. The returned connection is ready for use; a policy denial
// surfaces as a handshake error wrapping [ErrUntrustedChain].
func (s *Session) Dial(ctx context.Context, host string, port int, timeout time.Duration) (*tls.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}

	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", fmt.Sprintf("%s:%d", host, port), s.TLSConfigFor(host))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", host, port, err)
	}
	return conn, nil
}

// Probe fetches the chain presented by host:port and evaluates it under the
// session's policy for host, without keeping a connection open.
//
// When revocationFlags enables a lookup method, per-certificate revocation
// detail is collected for the report; the trust verdict itself still comes
// only from the policy.
func (s *Session) Probe(ctx context.Context, host string, port int, timeout time.Duration, revocationFlags revoke.Flags) (*Result, error) {
	chain, err := FetchChain(ctx, host, port, timeout)
	if err != nil {
		return nil, err
	}

	policy, fromRegistry := s.registry.Load().PolicyFor(host)
	if !fromRegistry {
		policy = s.fallback
	}

	result := &Result{
		Host:         host,
		Port:         port,
		FromRegistry: fromRegistry,
		Chain:        chain,
		ProbedAt:     time.Now().UTC(),
	}
	result.Trusted = policy.Evaluate(chain, host)

	if revocationFlags.Has(revoke.AnyMethod) {
		result.Revocation = s.Checker.CheckChain(ctx, chain, revocationFlags)
	}

	return result, nil
}
