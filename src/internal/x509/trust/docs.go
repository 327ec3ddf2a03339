// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trust implements server-identity trust evaluation for TLS connections.
// Given the certificate chain a server presents and the hostname used to reach
// it, a [Policy] decides whether the connection should be trusted:
//   - Standard chain-of-trust validation against the system roots, optionally
//     layered with [OCSP] and [CRL] revocation checking.
//   - [Certificate pinning]: restricting trust to a fixed set of known
//     certificates, either as the exclusive anchor set or by byte-exact
//     comparison against the presented chain.
//   - Public-key pinning: comparing the keys inside the presented chain
//     against a fixed set of known public keys.
//   - Escape hatches for disabling evaluation entirely or delegating the
//     verdict to caller-supplied logic.
//
// A [Registry] maps hostnames to policies so a network session can select the
// right policy per connection. Policies and registries are immutable after
// construction and safe for concurrent use without locking; every evaluation
// collapses to a single boolean verdict.
//
// [OCSP]: https://grokipedia.com/page/Online_Certificate_Status_Protocol
// [CRL]: https://grokipedia.com/page/Certificate_revocation_list
// [Certificate pinning]: https://grokipedia.com/page/HTTP_Public_Key_Pinning
package trust
