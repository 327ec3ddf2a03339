// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package jsonrpc

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Marshal normalizes a raw JSON-RPC frame to canonical form.
//
// It unmarshals the input, rewrites it through [Map], and marshals the
// result. Frames produced by agent-side serializers arrive with mixed-case
// keys and sometimes without a version field; the stdio server only accepts
// the canonical spelling.
//
// Parameters:
//   - data: Raw JSON frame to normalize
//
// Returns:
//   - []byte: Normalized JSON frame
//   - error: Error if unmarshaling or marshaling fails
func Marshal(data []byte) ([]byte, error) {
	var temp map[string]any
	if err := json.Unmarshal(data, &temp); err != nil {
		return nil, err
	}

	fixed := Map(temp)

	return json.Marshal(fixed)
}

// Map converts a decoded JSON-RPC frame to canonical lowercase key form.
//
// Two fields get special handling on top of the key lowering:
//   - "id": an empty object becomes null (a notification), and whole number
//     floats become int64 so request and response ids compare equal
//   - "jsonrpc": defaulted to the protocol version when absent
//
// Parameters:
//   - temp: Decoded frame with potentially mixed-case keys
//
// Returns:
//   - map[string]any: Normalized frame with lowercase keys
func Map(temp map[string]any) map[string]any {
	fixed := make(map[string]any)
	for k, v := range temp {
		key := strings.ToLower(k)
		switch key {
		case "id":
			if idMap, ok := v.(map[string]any); ok && len(idMap) == 0 {
				fixed["id"] = nil
			} else {
				fixed["id"] = normalizeIDValue(v)
			}
		case "jsonrpc":
			fixed["jsonrpc"] = v
		default:
			fixed[key] = v
		}
	}

	if _, ok := fixed["jsonrpc"]; !ok {
		fixed["jsonrpc"] = mcp.JSONRPC_VERSION
	}

	return fixed
}

// normalizeIDValue converts whole number float64 values to int64.
//
// encoding/json decodes every JSON number into float64, so an id sent as 42
// comes back as 42.0 and would re-encode with a fractional form in some
// serializers. Request matching on the far side needs the integer spelling.
func normalizeIDValue(v any) any {
	if f, ok := v.(float64); ok {
		if f == float64(int64(f)) {
			return int64(f)
		}
	}
	return v
}

// UnmarshalFromMap converts an already-decoded value into a typed struct via
// a JSON round-trip. The transport uses it to lift params out of normalized
// frames (for example sampling request params) without hand-written field
// copying.
//
// Parameters:
//   - src: Source map or value to convert
//   - dest: Pointer to destination struct
//
// Returns:
//   - error: Error if marshaling or unmarshaling fails
func UnmarshalFromMap(src any, dest any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
