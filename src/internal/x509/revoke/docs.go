// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package revoke provides revocation checking for [X.509] certificate chains
// using [OCSP] and [CRL] lookups. A Checker owns the HTTP configuration and an
// LRU cache for downloaded CRLs; per-certificate results collapse into a
// boolean verdict for trust policies while keeping detailed statuses available
// for reporting. Flag bits select which methods run and whether a definitive
// response is required.
//
// [X.509]: https://grokipedia.com/page/X.509
// [OCSP]: https://grokipedia.com/page/Online_Certificate_Status_Protocol
// [CRL]: https://grokipedia.com/page/Certificate_revocation_list
package revoke
