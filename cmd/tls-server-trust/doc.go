// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// tls-server-trust is a command-line tool for deciding whether a live TLS
// server's identity should be trusted under a named trust policy.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-server-trust/cmd/tls-server-trust@latest
//
// # Usage
//
//	tls-server-trust -H HOST [FLAGS]
//
// # Flags
//
//	-H, --host              Server hostname or IP to evaluate [required]
//	-p, --port              Server TLS port (default: 443)
//	    --timeout           Connection timeout (default: 10s)
//	-c, --config            Policy file (YAML or JSON; wins over ad-hoc pin flags)
//	-b, --bundle            Directory of DER certificates to pin
//	    --pin-keys          Pin the bundle's public keys instead of certificate bytes
//	    --no-validate-chain Skip chain validation for pinned bundles
//	    --no-validate-host  Skip hostname verification
//	    --revocation        Revocation checks: ocsp, crl, require, any
//	    --insecure-disable  Trust every chain without evaluation (testing only)
//	-o, --output            Report format: table, tree, json, pem (default: table)
//	    --silent            Suppress status logging; report and exit code only
//
// # Exit Codes
//
//	0    server evaluated and trusted
//	1    evaluation rejected the server, or an operational error occurred
//	130  interrupted by signal
//
// # Examples
//
// Evaluate a public endpoint under standard validation:
//
//	tls-server-trust -H example.com
//
// Require revocation answers over both OCSP and CRL:
//
//	tls-server-trust -H example.com --revocation ocsp,crl,require
//
// Pin a private service to the public keys of an anchor bundle:
//
//	tls-server-trust -H internal.api.example.org -p 8443 -b ./pins --pin-keys
//
// Evaluate a host against the policy registry in a policy file:
//
//	tls-server-trust -H internal.api.example.org -c policies.yaml
//
// Capture the presented chain as PEM for offline inspection:
//
//	tls-server-trust -H example.com -o pem --silent > chain.pem
//
// Verify a captured chain with OpenSSL:
//
//	openssl verify -CAfile /etc/ssl/certs/ca-certificates.crt \
//	  -untrusted chain.pem chain.pem
package main
