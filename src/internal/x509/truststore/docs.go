// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package truststore loads pinned reference material from filesystem bundles.
// It enumerates certificate files by their recognized extensions, parses each
// as DER, and hands the results to the trust policies as pin sets, either as
// whole certificates or as their extracted public keys.
//
// Loading is best effort per item: an unparseable file or a certificate
// without an extractable key is skipped silently rather than failing the
// whole bundle. A missing pin therefore surfaces as a failed evaluation
// later (pinning fails closed), never as a crash at load time.
package truststore
