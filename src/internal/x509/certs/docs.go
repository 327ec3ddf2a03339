// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs decodes and encodes the [X.509] material a trust
// evaluation touches. Pinned reference bundles, operator-supplied blobs, and
// fetched chains arrive as [PEM], DER, or [PKCS7]; reports and bundle output
// go back out as PEM or DER. Public key extraction for key pinning lives
// here as well, next to the decoding it depends on.
//
// [X.509]: https://grokipedia.com/page/X.509
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
