// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package jsonrpc normalizes [JSON-RPC 2.0] frames crossing the bridge
// between an agent client and the stdio trust server. Agent-side serializers
// emit mixed-case keys, empty-object ids, and frames without a version
// field; the helpers here rewrite those to the canonical form the server
// accepts and lift decoded params into typed structs.
//
// [JSON-RPC 2.0]: https://www.jsonrpc.org/specification
package jsonrpc
