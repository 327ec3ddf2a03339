// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
)

// TestVerifyChain exercises the shared chain validation helper against a
// generated CA with every outcome class.
func TestVerifyChain(t *testing.T) {
	ca, caKey := newTestCA(t, "Verify Root")
	leaf, _ := issueCert(t, serverLeafTemplate(100, "server.test"), ca, caKey)

	expiredTemplate := serverLeafTemplate(101, "server.test")
	expiredTemplate.NotAfter = time.Now().Add(-30 * time.Minute)
	expiredLeaf, _ := issueCert(t, expiredTemplate, ca, caKey)

	strangerCA, _ := newTestCA(t, "Stranger Root")

	tests := []struct {
		name         string
		chain        []*x509.Certificate
		host         string
		roots        *x509.CertPool
		validateHost bool
		want         bool
	}{
		{
			name:         "Valid chain with matching host",
			chain:        []*x509.Certificate{leaf, ca},
			host:         "server.test",
			roots:        poolOf(ca),
			validateHost: true,
			want:         true,
		},
		{
			name:         "Valid chain with wrong host",
			chain:        []*x509.Certificate{leaf, ca},
			host:         "other.test",
			roots:        poolOf(ca),
			validateHost: true,
			want:         false,
		},
		{
			name:         "Wrong host ignored without host validation",
			chain:        []*x509.Certificate{leaf, ca},
			host:         "other.test",
			roots:        poolOf(ca),
			validateHost: false,
			want:         true,
		},
		{
			name:         "Leaf alone resolves against anchor pool",
			chain:        []*x509.Certificate{leaf},
			host:         "server.test",
			roots:        poolOf(ca),
			validateHost: true,
			want:         true,
		},
		{
			name:         "Untrusted anchor pool",
			chain:        []*x509.Certificate{leaf, ca},
			host:         "server.test",
			roots:        poolOf(strangerCA),
			validateHost: true,
			want:         false,
		},
		{
			name:         "Expired leaf",
			chain:        []*x509.Certificate{expiredLeaf, ca},
			host:         "server.test",
			roots:        poolOf(ca),
			validateHost: true,
			want:         false,
		},
		{
			name:         "Empty chain",
			chain:        nil,
			host:         "server.test",
			roots:        poolOf(ca),
			validateHost: true,
			want:         false,
		},
		{
			name:         "Nil leaf",
			chain:        []*x509.Certificate{nil, ca},
			host:         "server.test",
			roots:        poolOf(ca),
			validateHost: true,
			want:         false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := verifyChain(test.chain, test.host, test.roots, test.validateHost)
			assert.Equal(t, test.want, got)
		})
	}
}

// TestDefaultPolicy verifies standard evaluation behavior, using an injected
// anchor pool for positive paths since generated test chains can never
// resolve against the real system roots.
func TestDefaultPolicy(t *testing.T) {
	ca, caKey := newTestCA(t, "Default Root")
	leaf, _ := issueCert(t, serverLeafTemplate(110, "server.test"), ca, caKey)
	chain := []*x509.Certificate{leaf, ca}

	t.Run("Unknown chain fails against system roots", func(t *testing.T) {
		assert.False(t, Default(true).Evaluate(chain, "server.test"))
	})

	t.Run("Empty chain fails", func(t *testing.T) {
		assert.False(t, Default(true).Evaluate(nil, "server.test"))
		assert.False(t, Default(false).Evaluate([]*x509.Certificate{}, "server.test"))
	})

	t.Run("Valid chain passes with host check", func(t *testing.T) {
		policy := defaultPolicy{validateHost: true, roots: poolOf(ca)}
		assert.True(t, policy.Evaluate(chain, "server.test"))
		assert.False(t, policy.Evaluate(chain, "other.test"))
	})

	t.Run("Host mismatch ignored without host check", func(t *testing.T) {
		policy := defaultPolicy{validateHost: false, roots: poolOf(ca)}
		assert.True(t, policy.Evaluate(chain, "other.test"))
	})
}

// TestRevokedPolicy verifies the layering order: chain validation gates the
// revocation checks, and strict flags turn silent responders into denials.
func TestRevokedPolicy(t *testing.T) {
	ca, caKey := newTestCA(t, "Revocation Root")
	leaf, _ := issueCert(t, serverLeafTemplate(120, "server.test"), ca, caKey)
	chain := []*x509.Certificate{leaf, ca}

	t.Run("Constructor wires the shared checker", func(t *testing.T) {
		policy, ok := Revoked(true, revoke.AnyMethod).(revokedPolicy)
		require.True(t, ok)
		assert.Same(t, revoke.Default, policy.checker)
		assert.Equal(t, revoke.AnyMethod, policy.flags)
	})

	t.Run("Invalid chain fails before any revocation lookup", func(t *testing.T) {
		policy := revokedPolicy{
			validateHost: true,
			flags:        revoke.AnyMethod,
			checker:      revoke.NewChecker("test"),
		}
		assert.False(t, policy.Evaluate(chain, "server.test"), "system roots do not know the test CA")
		assert.False(t, policy.Evaluate(nil, "server.test"))
	})

	t.Run("Valid chain passes with permissive flags", func(t *testing.T) {
		policy := revokedPolicy{
			validateHost: true,
			flags:        revoke.AnyMethod,
			checker:      revoke.NewChecker("test"),
			roots:        poolOf(ca),
		}
		// The leaf lists no OCSP or CRL endpoints, so lookups stay
		// unknown and the permissive verdict holds.
		assert.True(t, policy.Evaluate(chain, "server.test"))
	})

	t.Run("Silent responders fail under RequireResponse", func(t *testing.T) {
		policy := revokedPolicy{
			validateHost: true,
			flags:        revoke.AnyMethod | revoke.RequireResponse,
			checker:      revoke.NewChecker("test"),
			roots:        poolOf(ca),
		}
		assert.False(t, policy.Evaluate(chain, "server.test"))
	})
}

// TestPinCertificates covers byte-exact pinning and exclusive-anchor
// validation, including the fail-closed edge cases.
func TestPinCertificates(t *testing.T) {
	ca, caKey := newTestCA(t, "Pin Root")
	leaf, _ := issueCert(t, serverLeafTemplate(130, "server.test"), ca, caKey)
	chain := []*x509.Certificate{leaf, ca}

	otherCA, otherKey := newTestCA(t, "Other Root")
	otherLeaf, _ := issueCert(t, serverLeafTemplate(131, "server.test"), otherCA, otherKey)

	t.Run("Byte comparison without chain validation", func(t *testing.T) {
		tests := []struct {
			name  string
			pins  []*x509.Certificate
			chain []*x509.Certificate
			want  bool
		}{
			{"Leaf pinned directly", []*x509.Certificate{leaf}, []*x509.Certificate{leaf}, true},
			{"Anchor pinned matches anywhere in chain", []*x509.Certificate{ca}, chain, true},
			{"Disjoint sets", []*x509.Certificate{otherLeaf}, []*x509.Certificate{leaf}, false},
			{"Empty chain", []*x509.Certificate{leaf}, nil, false},
			{"Empty pin set", nil, chain, false},
			{"Nil pins dropped", []*x509.Certificate{nil, leaf}, []*x509.Certificate{leaf}, true},
			{"Only nil pins fail closed", []*x509.Certificate{nil, nil}, chain, false},
			{"Nil chain entry skipped", []*x509.Certificate{ca}, []*x509.Certificate{nil, ca}, true},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				policy := PinCertificates(test.pins, false, false)
				assert.Equal(t, test.want, policy.Evaluate(test.chain, "server.test"))
			})
		}
	})

	t.Run("Exclusive anchors with chain validation", func(t *testing.T) {
		policy := PinCertificates([]*x509.Certificate{ca}, true, true)
		assert.True(t, policy.Evaluate(chain, "server.test"), "pinned CA anchors its own chain")
		assert.False(t, policy.Evaluate(chain, "other.test"), "host check still applies")
		assert.False(t, policy.Evaluate([]*x509.Certificate{otherLeaf, otherCA}, "server.test"), "no other root is trusted")

		relaxed := PinCertificates([]*x509.Certificate{ca}, true, false)
		assert.True(t, relaxed.Evaluate(chain, "other.test"), "host mismatch ignored without host validation")
	})

	t.Run("Empty pin set fails closed with chain validation", func(t *testing.T) {
		policy := PinCertificates(nil, true, true)
		assert.False(t, policy.Evaluate(chain, "server.test"))
	})
}

// TestPinPublicKeys covers provider key equality pinning and the chain
// validation short circuit.
func TestPinPublicKeys(t *testing.T) {
	ca, caKey := newTestCA(t, "Key Pin Root")
	leaf, leafKey := issueCert(t, serverLeafTemplate(140, "server.test"), ca, caKey)
	chain := []*x509.Certificate{leaf, ca}

	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate unrelated key")

	t.Run("Key comparison without chain validation", func(t *testing.T) {
		tests := []struct {
			name  string
			pins  []crypto.PublicKey
			chain []*x509.Certificate
			want  bool
		}{
			{"Leaf key pinned", []crypto.PublicKey{leafKey.Public()}, chain, true},
			{"Anchor key pinned matches anywhere in chain", []crypto.PublicKey{caKey.Public()}, chain, true},
			{"Unrelated key", []crypto.PublicKey{otherKey.Public()}, chain, false},
			{"Empty chain", []crypto.PublicKey{leafKey.Public()}, nil, false},
			{"Empty pin set", nil, chain, false},
			{"Nil pins dropped", []crypto.PublicKey{nil, leafKey.Public()}, chain, true},
			{"Only nil pins fail closed", []crypto.PublicKey{nil}, chain, false},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				policy := PinPublicKeys(test.pins, false, false)
				assert.Equal(t, test.want, policy.Evaluate(test.chain, "server.test"))
			})
		}
	})

	t.Run("Chain validation failure short-circuits key overlap", func(t *testing.T) {
		policy := PinPublicKeys([]crypto.PublicKey{leafKey.Public()}, true, true)
		assert.False(t, policy.Evaluate(chain, "server.test"), "system roots do not know the test CA, keys must not be consulted")
	})

	t.Run("Valid chain still requires a key match", func(t *testing.T) {
		matching := pinnedPublicKeys{
			pins:          []crypto.PublicKey{leafKey.Public()},
			validateChain: true,
			validateHost:  true,
			roots:         poolOf(ca),
		}
		assert.True(t, matching.Evaluate(chain, "server.test"))

		mismatched := pinnedPublicKeys{
			pins:          []crypto.PublicKey{otherKey.Public()},
			validateChain: true,
			validateHost:  true,
			roots:         poolOf(ca),
		}
		assert.False(t, mismatched.Evaluate(chain, "server.test"), "validation passed but no pinned key is present")
	})
}

// TestPublicKeysEqual verifies structural key equality across providers and
// key types.
func TestPublicKeysEqual(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate EC key")

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "failed to generate RSA key")

	// Round-trip through PKIX encoding yields a distinct value that must
	// still compare equal structurally.
	der, err := x509.MarshalPKIXPublicKey(ecKey.Public())
	require.NoError(t, err, "failed to marshal EC key")
	reparsed, err := x509.ParsePKIXPublicKey(der)
	require.NoError(t, err, "failed to reparse EC key")

	assert.True(t, publicKeysEqual(ecKey.Public(), ecKey.Public()))
	assert.True(t, publicKeysEqual(ecKey.Public(), reparsed))
	assert.True(t, publicKeysEqual(rsaKey.Public(), rsaKey.Public()))
	assert.False(t, publicKeysEqual(ecKey.Public(), rsaKey.Public()), "different key types never match")
	assert.False(t, publicKeysEqual(nil, ecKey.Public()))
	assert.False(t, publicKeysEqual(ecKey.Public(), nil))
}

// TestDisabledPolicy verifies the bypass accepts anything at all.
func TestDisabledPolicy(t *testing.T) {
	ca, caKey := newTestCA(t, "Ignored Root")
	leaf, _ := issueCert(t, serverLeafTemplate(150, "server.test"), ca, caKey)

	policy := Disabled()
	assert.True(t, policy.Evaluate([]*x509.Certificate{leaf, ca}, "server.test"))
	assert.True(t, policy.Evaluate(nil, "anything.example"))
	assert.True(t, policy.Evaluate([]*x509.Certificate{}, ""))
	assert.True(t, policy.Evaluate([]*x509.Certificate{nil}, "still.trusted"))
}

// TestCustomPolicy verifies delegation passes inputs through verbatim and a
// nil closure denies.
func TestCustomPolicy(t *testing.T) {
	ca, caKey := newTestCA(t, "Custom Root")
	leaf, _ := issueCert(t, serverLeafTemplate(160, "server.test"), ca, caKey)
	chain := []*x509.Certificate{leaf, ca}

	t.Run("Inputs reach the closure", func(t *testing.T) {
		var calls int
		policy := Custom(func(gotChain []*x509.Certificate, gotHost string) bool {
			calls++
			assert.Equal(t, chain, gotChain)
			assert.Equal(t, "server.test", gotHost)
			return gotHost == "server.test"
		})

		assert.True(t, policy.Evaluate(chain, "server.test"))
		assert.True(t, policy.Evaluate(chain, "server.test"))
		assert.Equal(t, 2, calls, "the closure runs once per evaluation")
	})

	t.Run("Closure verdict is final", func(t *testing.T) {
		deny := Custom(func([]*x509.Certificate, string) bool { return false })
		assert.False(t, deny.Evaluate(chain, "server.test"))
	})

	t.Run("Nil closure denies", func(t *testing.T) {
		assert.False(t, Custom(nil).Evaluate(chain, "server.test"))
	})
}

// TestPolicyIdempotence verifies repeated evaluation of the same inputs never
// flips the verdict, since policies hold no per-connection state.
func TestPolicyIdempotence(t *testing.T) {
	ca, caKey := newTestCA(t, "Idempotence Root")
	leaf, leafKey := issueCert(t, serverLeafTemplate(170, "server.test"), ca, caKey)
	chain := []*x509.Certificate{leaf, ca}

	policies := map[string]Policy{
		"default":        Default(true),
		"pinned certs":   PinCertificates([]*x509.Certificate{leaf}, false, false),
		"exclusive pins": PinCertificates([]*x509.Certificate{ca}, true, true),
		"pinned keys":    PinPublicKeys([]crypto.PublicKey{leafKey.Public()}, false, false),
		"disabled":       Disabled(),
		"custom":         Custom(func(c []*x509.Certificate, _ string) bool { return len(c) > 0 }),
	}

	for name, policy := range policies {
		t.Run(name, func(t *testing.T) {
			first := policy.Evaluate(chain, "server.test")
			for range 3 {
				assert.Equal(t, first, policy.Evaluate(chain, "server.test"), "verdict must not drift across evaluations")
			}
		})
	}
}
