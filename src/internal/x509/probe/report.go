// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package probe

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	x509certs "github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
)

// Result holds the outcome of probing one TLS endpoint: the chain it
// presented, the policy verdict, and optional per-certificate revocation
// detail for reporting.
type Result struct {
	Host         string
	Port         int
	Trusted      bool
	FromRegistry bool
	Chain        []*x509.Certificate
	Revocation   []revoke.CertStatus
	ProbedAt     time.Time
}

// Verdict returns the boolean outcome as display text.
func (r *Result) Verdict() string {
	if r.Trusted {
		return "trusted"
	}
	return "untrusted"
}

// PolicySource names where the evaluating policy came from.
func (r *Result) PolicySource() string {
	if r.FromRegistry {
		return "registry"
	}
	return "fallback"
}

// RenderTable renders the presented chain as a formatted markdown table with
// role, subject, issuer, validity, key size, and revocation status columns.
//
// Thread Safety: Safe for concurrent use.
func (r *Result) RenderTable() string {
	if len(r.Chain) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	// Headers with emojis
	headers := []string{"🔢 #", "🏷️ Role", "📛 Subject", "🏢 Issuer", "📅 Valid Until", "🔐 Key Size", "✅ Status"}
	table.Header(headers)

	var rows [][]string
	for i, cert := range r.Chain {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			certRole(i, len(r.Chain)),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.Format("2006-01-02"),
			keySizeText(cert),
			r.statusText(cert),
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// RenderTree renders the presented chain as an ASCII tree diagram with a
// status icon per certificate.
//
// Thread Safety: Safe for concurrent use.
func (r *Result) RenderTree() string {
	if len(r.Chain) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, cert := range r.Chain {
		connector := "├── "
		if i == len(r.Chain)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if status, ok := r.revocationFor(cert.SerialNumber.String()); ok {
			if status.OCSP == revoke.StatusRevoked || status.CRL == revoke.StatusRevoked {
				statusIcon = "✗"
			}
		}

		result.WriteString(fmt.Sprintf("%s[%s] %s (%s)\n", connector, statusIcon, cert.Subject.CommonName, certRole(i, len(r.Chain))))
	}

	return result.String()
}

// ToJSON converts the result to structured JSON for external tools,
// including the verdict, chain details, and any revocation detail.
//
// Thread Safety: Safe for concurrent use.
func (r *Result) ToJSON() ([]byte, error) {
	type revocationDetail struct {
		OCSP       string `json:"ocsp"`
		OCSPDetail string `json:"ocspDetail,omitempty"`
		CRL        string `json:"crl"`
		CRLDetail  string `json:"crlDetail,omitempty"`
	}

	type certificateData struct {
		Index              int               `json:"index"`
		Role               string            `json:"role"`
		Subject            string            `json:"subject"`
		Issuer             string            `json:"issuer"`
		SerialNumber       string            `json:"serialNumber"`
		SignatureAlgorithm string            `json:"signatureAlgorithm"`
		PublicKeyAlgorithm string            `json:"publicKeyAlgorithm"`
		KeySize            int               `json:"keySize"`
		NotBefore          time.Time         `json:"notBefore"`
		NotAfter           time.Time         `json:"notAfter"`
		IsCA               bool              `json:"isCA"`
		Revocation         *revocationDetail `json:"revocation,omitempty"`
	}

	type resultData struct {
		Host         string            `json:"host"`
		Port         int               `json:"port"`
		Trusted      bool              `json:"trusted"`
		PolicySource string            `json:"policySource"`
		ProbedAt     time.Time         `json:"probedAt"`
		ChainLength  int               `json:"chainLength"`
		Certificates []certificateData `json:"certificates"`
	}

	data := resultData{
		Host:         r.Host,
		Port:         r.Port,
		Trusted:      r.Trusted,
		PolicySource: r.PolicySource(),
		ProbedAt:     r.ProbedAt,
		ChainLength:  len(r.Chain),
		Certificates: make([]certificateData, len(r.Chain)),
	}

	for i, cert := range r.Chain {
		keySize, pubKeyAlgo := keyDetails(cert)

		entry := certificateData{
			Index:              i,
			Role:               certRole(i, len(r.Chain)),
			Subject:            cert.Subject.CommonName,
			Issuer:             cert.Issuer.CommonName,
			SerialNumber:       cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKeyAlgorithm: pubKeyAlgo,
			KeySize:            keySize,
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
		}

		if status, ok := r.revocationFor(cert.SerialNumber.String()); ok {
			entry.Revocation = &revocationDetail{
				OCSP:       status.OCSP.String(),
				OCSPDetail: status.OCSPDetail,
				CRL:        status.CRL.String(),
				CRLDetail:  status.CRLDetail,
			}
		}

		data.Certificates[i] = entry
	}

	return json.MarshalIndent(data, "", "  ")
}

// EncodePEM returns the presented chain as concatenated PEM blocks, leaf
// first.
func (r *Result) EncodePEM() []byte {
	return x509certs.New().EncodeMultiplePEM(r.Chain)
}

// revocationFor finds the collected revocation detail for a serial number.
func (r *Result) revocationFor(serial string) (revoke.CertStatus, bool) {
	for _, status := range r.Revocation {
		if status.SerialNumber == serial {
			return status, true
		}
	}
	return revoke.CertStatus{}, false
}

// statusText collapses a certificate's revocation detail into one word for
// table display.
func (r *Result) statusText(cert *x509.Certificate) string {
	status, ok := r.revocationFor(cert.SerialNumber.String())
	if !ok {
		return "unknown"
	}
	switch {
	case status.OCSP == revoke.StatusRevoked || status.CRL == revoke.StatusRevoked:
		return "revoked"
	case status.OCSP == revoke.StatusGood || status.CRL == revoke.StatusGood:
		return "good"
	default:
		return "unknown"
	}
}

// certRole describes a certificate's position in a leaf-first chain.
func certRole(index, total int) string {
	switch {
	case total == 1:
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity (Server/Leaf) Certificate"
	case index == total-1:
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}

// keyDetails returns the bit size and algorithm name of the certificate's
// public key.
func keyDetails(cert *x509.Certificate) (int, string) {
	switch pubKey := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return pubKey.Size() * 8, "RSA"
	case *ecdsa.PublicKey:
		return pubKey.Curve.Params().BitSize, "ECDSA"
	case ed25519.PublicKey:
		return len(pubKey) * 8, "Ed25519"
	default:
		return 0, "unknown"
	}
}

// keySizeText formats the key size for table display.
func keySizeText(cert *x509.Certificate) string {
	size, algo := keyDetails(cert)
	if size == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d-bit %s", size, algo)
}
