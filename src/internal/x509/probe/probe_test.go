// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package probe

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/trust"
)

// newTestCA generates a self-signed CA for issuing test certificates.
func newTestCA(t *testing.T) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Probe Test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return cert, key
}

// issueServerCert issues a loopback server certificate signed by the given
// CA. A nil CA produces a self-signed certificate.
func issueServerCert(t *testing.T, serial int64, ca *x509.Certificate, caKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "probe.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost", "probe.test"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	parent, signer := ca, caKey
	if parent == nil {
		parent, signer = template, key
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, signer)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return cert, key
}

// startTLSServer listens on a loopback port, serves the given certificate
// chain to every connection, and shuts down with the test.
func startTLSServer(t *testing.T, key *ecdsa.PrivateKey, chain ...*x509.Certificate) (string, int) {
	t.Helper()

	rawChain := make([][]byte, 0, len(chain))
	for _, cert := range chain {
		rawChain = append(rawChain, cert.Raw)
	}

	listener, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{{Certificate: rawChain, PrivateKey: key}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				if tlsConn, ok := c.(*tls.Conn); ok {
					tlsConn.Handshake()
				}
			}(conn)
		}
	}()

	return "127.0.0.1", listener.Addr().(*net.TCPAddr).Port
}

// closedPort reserves a loopback port and releases it, so dialing it fails.
func closedPort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func TestFetchChain(t *testing.T) {
	t.Run("Self-Signed Server", func(t *testing.T) {
		leaf, key := issueServerCert(t, 100, nil, nil)
		host, port := startTLSServer(t, key, leaf)

		chain, err := FetchChain(context.Background(), host, port, 5*time.Second)
		require.NoError(t, err)
		require.Len(t, chain, 1)
		assert.Equal(t, "probe.test", chain[0].Subject.CommonName)
		assert.Equal(t, leaf.Raw, chain[0].Raw)
	})

	t.Run("Leaf First Order", func(t *testing.T) {
		ca, caKey := newTestCA(t)
		leaf, key := issueServerCert(t, 101, ca, caKey)
		host, port := startTLSServer(t, key, leaf, ca)

		chain, err := FetchChain(context.Background(), host, port, 5*time.Second)
		require.NoError(t, err)
		require.Len(t, chain, 2)
		assert.Equal(t, "probe.test", chain[0].Subject.CommonName)
		assert.Equal(t, "Probe Test CA", chain[1].Subject.CommonName)
	})

	t.Run("Connection Refused", func(t *testing.T) {
		chain, err := FetchChain(context.Background(), "127.0.0.1", closedPort(t), 2*time.Second)
		require.Error(t, err)
		assert.Nil(t, chain)
		assert.Contains(t, err.Error(), "failed to connect")
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		leaf, key := issueServerCert(t, 102, nil, nil)
		host, port := startTLSServer(t, key, leaf)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		chain, err := FetchChain(ctx, host, port, 5*time.Second)
		require.Error(t, err)
		assert.Nil(t, chain)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewSessionDefaults(t *testing.T) {
	session := NewSession(nil, nil)

	assert.Equal(t, trust.Default(true), session.fallback)
	assert.Same(t, revoke.Default, session.Checker)
	assert.Nil(t, session.Registry())

	// Lookups against an empty session resolve to the fallback.
	assert.Equal(t, trust.Default(true), session.PolicyFor("anything.test"))
}

func TestSessionPolicyFor(t *testing.T) {
	deny := trust.Custom(func(chain []*x509.Certificate, host string) bool { return false })
	registry := trust.NewRegistry(map[string]trust.Policy{
		"pinned.test": trust.Disabled(),
	})
	session := NewSession(registry, deny)

	t.Run("Registered Host", func(t *testing.T) {
		policy := session.PolicyFor("pinned.test")
		assert.True(t, policy.Evaluate(nil, "pinned.test"))
	})

	t.Run("Unregistered Host Uses Fallback", func(t *testing.T) {
		policy := session.PolicyFor("other.test")
		assert.False(t, policy.Evaluate(nil, "other.test"))
	})

	t.Run("Lookup Is Case Sensitive", func(t *testing.T) {
		policy := session.PolicyFor("Pinned.test")
		assert.False(t, policy.Evaluate(nil, "Pinned.test"))
	})
}

func TestSessionSwap(t *testing.T) {
	first := trust.NewRegistry(map[string]trust.Policy{"a.test": trust.Disabled()})
	second := trust.NewRegistry(map[string]trust.Policy{"b.test": trust.Disabled()})
	deny := trust.Custom(func(chain []*x509.Certificate, host string) bool { return false })

	session := NewSession(first, deny)
	assert.Same(t, first, session.Registry())
	assert.True(t, session.PolicyFor("a.test").Evaluate(nil, "a.test"))

	session.Swap(second)
	assert.Same(t, second, session.Registry())
	assert.False(t, session.PolicyFor("a.test").Evaluate(nil, "a.test"))
	assert.True(t, session.PolicyFor("b.test").Evaluate(nil, "b.test"))

	session.Swap(nil)
	assert.Nil(t, session.Registry())
	assert.False(t, session.PolicyFor("b.test").Evaluate(nil, "b.test"))
}

func TestTLSConfigFor(t *testing.T) {
	leaf, _ := issueServerCert(t, 103, nil, nil)

	t.Run("Configuration Shape", func(t *testing.T) {
		session := NewSession(nil, trust.Disabled())
		config := session.TLSConfigFor("example.test")

		assert.Equal(t, "example.test", config.ServerName)
		assert.True(t, config.InsecureSkipVerify)
		require.NotNil(t, config.VerifyPeerCertificate)
	})

	t.Run("Policy Accepts", func(t *testing.T) {
		session := NewSession(nil, trust.Disabled())
		config := session.TLSConfigFor("example.test")

		err := config.VerifyPeerCertificate([][]byte{leaf.Raw}, nil)
		assert.NoError(t, err)
	})

	t.Run("Policy Denies", func(t *testing.T) {
		deny := trust.Custom(func(chain []*x509.Certificate, host string) bool { return false })
		session := NewSession(nil, deny)
		config := session.TLSConfigFor("example.test")

		err := config.VerifyPeerCertificate([][]byte{leaf.Raw}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUntrustedChain)
		assert.Contains(t, err.Error(), "example.test")
	})

	t.Run("Unparseable Peer Certificate", func(t *testing.T) {
		session := NewSession(nil, trust.Disabled())
		config := session.TLSConfigFor("example.test")

		err := config.VerifyPeerCertificate([][]byte{[]byte("not a certificate")}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing peer certificate")
	})
}

func TestSessionDial(t *testing.T) {
	leaf, key := issueServerCert(t, 104, nil, nil)
	host, port := startTLSServer(t, key, leaf)

	t.Run("Pinned Certificate Accepted", func(t *testing.T) {
		registry := trust.NewRegistry(map[string]trust.Policy{
			host: trust.PinCertificates([]*x509.Certificate{leaf}, false, false),
		})
		session := NewSession(registry, nil)

		conn, err := session.Dial(context.Background(), host, port, 5*time.Second)
		require.NoError(t, err)
		defer conn.Close()

		peers := conn.ConnectionState().PeerCertificates
		require.Len(t, peers, 1)
		assert.Equal(t, leaf.Raw, peers[0].Raw)
	})

	t.Run("Policy Denial Fails Handshake", func(t *testing.T) {
		deny := trust.Custom(func(chain []*x509.Certificate, host string) bool { return false })
		session := NewSession(nil, deny)

		conn, err := session.Dial(context.Background(), host, port, 5*time.Second)
		require.Error(t, err)
		assert.Nil(t, conn)
		assert.ErrorIs(t, err, ErrUntrustedChain)
	})
}

func TestSessionProbe(t *testing.T) {
	t.Run("Registered Pin Trusts Chain", func(t *testing.T) {
		leaf, key := issueServerCert(t, 105, nil, nil)
		host, port := startTLSServer(t, key, leaf)

		registry := trust.NewRegistry(map[string]trust.Policy{
			host: trust.PinCertificates([]*x509.Certificate{leaf}, false, false),
		})
		session := NewSession(registry, nil)

		result, err := session.Probe(context.Background(), host, port, 5*time.Second, 0)
		require.NoError(t, err)

		assert.Equal(t, host, result.Host)
		assert.Equal(t, port, result.Port)
		assert.True(t, result.Trusted)
		assert.True(t, result.FromRegistry)
		require.Len(t, result.Chain, 1)
		assert.Equal(t, leaf.Raw, result.Chain[0].Raw)
		assert.Nil(t, result.Revocation)
		assert.Equal(t, time.UTC, result.ProbedAt.Location())
		assert.WithinDuration(t, time.Now().UTC(), result.ProbedAt, time.Minute)
	})

	t.Run("Fallback Rejects Unknown Issuer", func(t *testing.T) {
		leaf, key := issueServerCert(t, 106, nil, nil)
		host, port := startTLSServer(t, key, leaf)

		session := NewSession(nil, trust.Default(true))

		result, err := session.Probe(context.Background(), host, port, 5*time.Second, 0)
		require.NoError(t, err)

		assert.False(t, result.Trusted)
		assert.False(t, result.FromRegistry)
	})

	t.Run("Revocation Detail Collected", func(t *testing.T) {
		ca, caKey := newTestCA(t)
		leaf, key := issueServerCert(t, 107, ca, caKey)
		host, port := startTLSServer(t, key, leaf, ca)

		registry := trust.NewRegistry(map[string]trust.Policy{
			host: trust.Disabled(),
		})
		session := NewSession(registry, nil)
		session.Checker = revoke.NewChecker("1.3.3.7-testing")

		result, err := session.Probe(context.Background(), host, port, 5*time.Second, revoke.AnyMethod)
		require.NoError(t, err)

		assert.True(t, result.Trusted)
		// The self-signed anchor is skipped, so only the leaf is checked.
		require.Len(t, result.Revocation, 1)
		status := result.Revocation[0]
		assert.Equal(t, leaf.SerialNumber.String(), status.SerialNumber)
		assert.Equal(t, revoke.StatusUnknown, status.OCSP)
		assert.Equal(t, "no responder listed", status.OCSPDetail)
		assert.Equal(t, revoke.StatusUnknown, status.CRL)
		assert.Equal(t, "no distribution point listed", status.CRLDetail)
	})

	t.Run("Fetch Failure Propagates", func(t *testing.T) {
		session := NewSession(nil, nil)

		result, err := session.Probe(context.Background(), "127.0.0.1", closedPort(t), 2*time.Second, 0)
		require.Error(t, err)
		assert.Nil(t, result)
	})
}
