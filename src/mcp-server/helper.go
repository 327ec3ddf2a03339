// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import "fmt"

// getParams extracts parameters from a normalized JSON-RPC request.
func getParams(req map[string]any, method string) (map[string]any, error) {
	p, ok := req["params"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid %s params", method)
	}
	return p, nil
}

// getStringParam extracts a required string parameter from normalized params.
func getStringParam(params map[string]any, key, method string) (string, error) {
	value, ok := params[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("invalid %s params: missing %s", method, key)
	}
	return value, nil
}

// getOptionalStringParam extracts a string parameter, returning "" when absent.
func getOptionalStringParam(params map[string]any, key string) string {
	value, _ := params[key].(string)
	return value
}

// getMapParam extracts a map parameter, returning an empty map when absent.
func getMapParam(params map[string]any, key string) map[string]any {
	if value, ok := params[key].(map[string]any); ok {
		return value
	}
	return map[string]any{}
}
